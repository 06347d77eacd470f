package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/geo"
	"github.com/susu3304/geoquiz/internal/places"
	"github.com/susu3304/geoquiz/internal/scoring"
)

type tableInfo struct {
	Name  string         `json:"name"`
	Tiers []scoring.Tier `json:"tiers"`
}

type modeInfo struct {
	Name           string `json:"name"`
	Table          string `json:"table"`
	HigherIsBetter bool   `json:"higher_is_better"`
}

var errMissingCoordinate = errors.New("lat and lng are required")

// point is a coordinate as clients send it. Pointers tell an absent field
// apart from a zero one.
type point struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (p *point) coordinate(field string) (geo.Coordinate, error) {
	if p == nil || p.Lat == nil || p.Lng == nil {
		if field == "" {
			return geo.Coordinate{}, errMissingCoordinate
		}
		return geo.Coordinate{}, fmt.Errorf("%s: %w", field, errMissingCoordinate)
	}
	return geo.Coordinate{Lat: *p.Lat, Lng: *p.Lng}, nil
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": a.games.Len(),
	})
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	var modes []modeInfo
	var tables []tableInfo
	seen := make(map[string]bool)
	for _, m := range a.modes.All() {
		modes = append(modes, modeInfo{Name: m.Name, Table: m.Table.Name(), HigherIsBetter: m.HigherIsBetter})
		if !seen[m.Table.Name()] {
			seen[m.Table.Name()] = true
			tables = append(tables, tableInfo{Name: m.Table.Name(), Tiers: m.Table.Tiers()})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"center":         places.Center,
		"zoom":           places.DefaultZoom,
		"difficulties":   a.games.Catalog().Difficulties(),
		"modes":          modes,
		"tables":         tables,
		"default_rounds": game.DefaultRounds,
	})
}

func (a *API) handleDistance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		A     *point `json:"a"`
		B     *point `json:"b"`
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	from, err := req.A.coordinate("a")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := req.B.coordinate("b")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := from.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := to.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if req.Table == "" {
		req.Table = scoring.Points.Name()
	}
	table, err := a.modes.Table(req.Table)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome := scoring.ScoreForDistance(geo.DistanceKm(from, to), table)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"distance_km":   outcome.DistanceKm,
		"distance_text": geo.FormatDistance(outcome.DistanceKm),
		"points":        outcome.Points(),
		"label":         outcome.Label(),
		"table":         table.Name(),
	})
}

func (a *API) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Players    []string `json:"players"`
		Rounds     *int     `json:"rounds"`
		Difficulty string   `json:"difficulty"`
		Mode       string   `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Players) == 0 {
		req.Players = []string{"Player 1"}
	}
	rounds := game.DefaultRounds
	if req.Rounds != nil {
		rounds = *req.Rounds
	}
	if req.Difficulty == "" {
		req.Difficulty = string(places.Simple)
	}
	difficulty, err := places.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	mode, err := a.modes.Parse(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	id := a.newID()
	sess, err := a.games.Create(id, game.Settings{
		Players:    req.Players,
		Rounds:     rounds,
		Difficulty: difficulty,
		Mode:       mode,
		Owner:      game.OwnerWeb,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	token, expires, err := a.tokens.Issue(id)
	if err != nil {
		_ = a.games.Delete(id)
		writeError(w, err)
		return
	}

	zap.L().Info("game created",
		zap.String("game", id),
		zap.Int("players", len(req.Players)),
		zap.Int("rounds", rounds),
		zap.String("difficulty", string(difficulty)),
		zap.String("mode", mode.Name),
	)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         id,
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
		"game":       a.gameState(sess),
	})
}

func (a *API) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	state := a.gameState(sess)
	if c := claimsFrom(r.Context()); c != nil && c.ExpiresAt != nil {
		state["token_expires_at"] = c.ExpiresAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.games.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	zap.L().Info("game deleted", zap.String("game", id))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGuess(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Player string `json:"player"`
		point
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := req.coordinate("")
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := sess.SubmitGuess(req.Player, c)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": resultView(res),
		"turn":   sess.Current(),
	})
}

func (a *API) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Next(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.gameState(sess))
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, leaderboardView(sess))
}

// Helper functions
func (a *API) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, err := a.games.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (a *API) gameState(sess *game.Session) map[string]interface{} {
	settings := sess.Settings()
	state := map[string]interface{}{
		"id":          sess.ID(),
		"mode":        settings.Mode.Name,
		"difficulty":  settings.Difficulty,
		"players":     settings.Players,
		"turn":        sess.Current(),
		"leaderboard": leaderboardView(sess),
	}
	if sess.Current().Phase == game.PhaseShowingResult {
		if res, ok := sess.LastResult(); ok {
			state["result"] = resultView(res)
		}
	}
	return state
}

func resultView(res game.Result) map[string]interface{} {
	return map[string]interface{}{
		"round":         res.Round,
		"player":        res.Player,
		"place":         res.Place,
		"guess":         res.Guess,
		"distance_km":   res.Outcome.DistanceKm,
		"distance_text": geo.FormatDistance(res.Outcome.DistanceKm),
		"radius_m":      geo.DistanceMeters(res.Guess, res.Place.Location),
		"points":        res.Outcome.Points(),
		"label":         res.Outcome.Label(),
		"awarded":       res.Awarded,
		"total":         res.Total,
	}
}

func leaderboardView(sess *game.Session) map[string]interface{} {
	return map[string]interface{}{
		"finished":         sess.Finished(),
		"higher_is_better": sess.Settings().Mode.HigherIsBetter,
		"standings":        sess.Leaderboard(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrInvalidSettings),
		errors.Is(err, game.ErrInvalidCoordinate),
		errors.Is(err, game.ErrUnknownMode),
		errors.Is(err, geo.ErrOutOfRange),
		errors.Is(err, places.ErrUnknownDifficulty),
		errors.Is(err, places.ErrEmptyDifficulty),
		errors.Is(err, scoring.ErrUnknownPreset),
		errors.Is(err, errMissingCoordinate):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrResultPending),
		errors.Is(err, game.ErrNoResult),
		errors.Is(err, game.ErrSessionExists):
		status = http.StatusConflict
	case errors.Is(err, game.ErrGameOver):
		status = http.StatusGone
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSONError(w, status, strings.TrimSpace(msg))
}
