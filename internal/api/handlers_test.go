package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/geoquiz/internal/config"
	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/metrics"
	"github.com/susu3304/geoquiz/internal/places"
	"github.com/susu3304/geoquiz/internal/scoring"
)

// firstPlace always draws Paris for "simple".
type firstPlace struct{}

func (firstPlace) IntN(int) int { return 0 }

var paris = map[string]float64{"lat": 48.8566, "lng": 2.3522}

func newTestAPI(t *testing.T) *API {
	t.Helper()
	cfg := &config.Config{
		WebBind:        "127.0.0.1:0",
		AllowedOrigins: []string{"*"},
		TokenSecret:    "test-secret",
		TokenTTL:       time.Hour,
	}
	rec := metrics.New()
	reg := game.NewRegistry(places.Default(),
		game.WithRand(func() places.Rand { return firstPlace{} }),
		game.WithObserver(rec),
	)
	a := New(cfg, reg, game.NewModes(nil), rec)
	n := 0
	a.newID = func() string {
		n++
		return fmt.Sprintf("game-%d", n)
	}
	return a
}

func do(t *testing.T, a *API, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type createdGame struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Game      struct {
		Mode string    `json:"mode"`
		Turn game.Turn `json:"turn"`
	} `json:"game"`
}

func createGame(t *testing.T, a *API, body map[string]interface{}) createdGame {
	t.Helper()
	w := do(t, a, http.MethodPost, "/api/games", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var g createdGame
	decode(t, w, &g)
	require.NotEmpty(t, g.Token)
	return g
}

func TestHandleWebInterface(t *testing.T) {
	a := newTestAPI(t)

	w := do(t, a, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	for _, expected := range []string{"<!DOCTYPE html>", "geoquiz", "leaflet", "/api/config"} {
		assert.Contains(t, body, expected)
	}
}

func TestHandleHealth(t *testing.T) {
	a := newTestAPI(t)
	w := do(t, a, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	decode(t, w, &got)
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, 0, got.Sessions)
}

func TestHandleConfig(t *testing.T) {
	a := newTestAPI(t)
	w := do(t, a, http.MethodGet, "/api/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Center       map[string]float64 `json:"center"`
		Zoom         int                `json:"zoom"`
		Difficulties []string           `json:"difficulties"`
		Modes        []modeInfo         `json:"modes"`
		Tables       []struct {
			Name  string `json:"name"`
			Tiers []struct {
				BelowKm *float64 `json:"below_km"`
				Points  int      `json:"points"`
				Label   string   `json:"label"`
			} `json:"tiers"`
		} `json:"tables"`
		DefaultRounds int `json:"default_rounds"`
	}
	decode(t, w, &got)

	assert.Equal(t, 6, got.Zoom)
	assert.InDelta(t, 46.603354, got.Center["lat"], 1e-9)
	assert.Equal(t, []string{"simple", "medium", "hard"}, got.Difficulties)
	assert.Equal(t, 5, got.DefaultRounds)

	require.Len(t, got.Modes, 3)
	assert.Equal(t, modeInfo{Name: "distance", Table: "points", HigherIsBetter: false}, got.Modes[2])

	require.Len(t, got.Tables, 2)
	assert.Equal(t, "points", got.Tables[0].Name)
	tiers := got.Tables[0].Tiers
	require.Len(t, tiers, 6)
	require.NotNil(t, tiers[0].BelowKm)
	assert.Equal(t, 10.0, *tiers[0].BelowKm)
	assert.Nil(t, tiers[5].BelowKm)
	assert.Equal(t, 50, tiers[5].Points)
}

func TestHandleDistance(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantPoints int
		wantTable  string
	}{
		{
			name:       "same point scores full points",
			body:       map[string]interface{}{"a": paris, "b": paris},
			wantStatus: http.StatusOK,
			wantPoints: 1000,
			wantTable:  "points",
		},
		{
			name: "paris to lyon on the compact table",
			body: map[string]interface{}{
				"a":     paris,
				"b":     map[string]float64{"lat": 45.7640, "lng": 4.8357},
				"table": "compact",
			},
			wantStatus: http.StatusOK,
			wantPoints: 0,
			wantTable:  "compact",
		},
		{
			name:       "unknown table",
			body:       map[string]interface{}{"a": paris, "b": paris, "table": "nope"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing b",
			body:       map[string]interface{}{"a": paris},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "a without longitude",
			body:       map[string]interface{}{"a": map[string]float64{"lat": 48.8566}, "b": paris},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "latitude out of range",
			body:       map[string]interface{}{"a": map[string]float64{"lat": 91, "lng": 0}, "b": paris},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, a, http.MethodPost, "/api/distance", "", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got struct {
				Points int    `json:"points"`
				Table  string `json:"table"`
				Label  string `json:"label"`
			}
			decode(t, w, &got)
			assert.Equal(t, tt.wantPoints, got.Points)
			assert.Equal(t, tt.wantTable, got.Table)
			assert.NotEmpty(t, got.Label)
		})
	}
}

func TestHandleDistanceCustomTable(t *testing.T) {
	a := newTestAPI(t)
	table, err := scoring.NewTable("house",
		scoring.Tier{ThresholdKm: 30, Points: 10, Label: "close"},
		scoring.Tier{ThresholdKm: math.Inf(1), Points: 0, Label: "far"},
	)
	require.NoError(t, err)
	a.modes = game.NewModes(&table)

	w := do(t, a, http.MethodPost, "/api/distance", "", map[string]interface{}{"a": paris, "b": paris, "table": "custom"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Points int    `json:"points"`
		Table  string `json:"table"`
	}
	decode(t, w, &got)
	assert.Equal(t, 10, got.Points)
	assert.Equal(t, "house", got.Table)
}

func TestHandleDistanceBadBody(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/distance", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGameDefaults(t *testing.T) {
	a := newTestAPI(t)
	g := createGame(t, a, map[string]interface{}{})

	assert.Equal(t, "game-1", g.ID)
	assert.Equal(t, "classic", g.Game.Mode)
	assert.Equal(t, game.Turn{
		Round:  1,
		Rounds: 5,
		Player: "Player 1",
		Place:  "Paris",
		Phase:  game.PhaseAwaitingGuess,
	}, g.Game.Turn)

	expires, err := time.Parse(time.RFC3339, g.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)
}

func TestCreateGameValidation(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"unknown mode", map[string]interface{}{"mode": "blitz"}},
		{"unknown difficulty", map[string]interface{}{"difficulty": "extreme"}},
		{"negative rounds", map[string]interface{}{"rounds": -1}},
		{"duplicate players", map[string]interface{}{"players": []string{"alice", "alice"}}},
		{"blank player", map[string]interface{}{"players": []string{" "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, a, http.MethodPost, "/api/games", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, 0, a.games.Len())
}

func TestGameFlow(t *testing.T) {
	a := newTestAPI(t)
	g := createGame(t, a, map[string]interface{}{
		"players":    []string{"alice", "bob"},
		"rounds":     1,
		"difficulty": "simple",
		"mode":       "classic",
	})
	base := "/api/games/" + g.ID

	type guessResponse struct {
		Result struct {
			Player       string  `json:"player"`
			DistanceKm   float64 `json:"distance_km"`
			DistanceText string  `json:"distance_text"`
			RadiusM      float64 `json:"radius_m"`
			Points       int     `json:"points"`
			Label        string  `json:"label"`
			Awarded      int     `json:"awarded"`
			Total        int     `json:"total"`
		} `json:"result"`
		Turn game.Turn `json:"turn"`
	}

	// bob is not up yet
	w := do(t, a, http.MethodPost, base+"/guesses", g.Token, map[string]interface{}{"player": "bob", "lat": 48.8566, "lng": 2.3522})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, a, http.MethodPost, base+"/guesses", g.Token, map[string]interface{}{"player": "alice", "lat": 48.8566, "lng": 2.3522})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first guessResponse
	decode(t, w, &first)
	assert.Equal(t, "alice", first.Result.Player)
	assert.Equal(t, 0.0, first.Result.DistanceKm)
	assert.Equal(t, "0m", first.Result.DistanceText)
	assert.Equal(t, 1000, first.Result.Points)
	assert.Equal(t, 1000, first.Result.Awarded)
	assert.Equal(t, game.PhaseShowingResult, first.Turn.Phase)

	// only one guess per turn
	w = do(t, a, http.MethodPost, base+"/guesses", g.Token, map[string]interface{}{"lat": 0, "lng": 0})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, a, http.MethodGet, base, g.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state map[string]interface{}
	decode(t, w, &state)
	assert.Contains(t, state, "result")
	assert.Contains(t, state, "token_expires_at")

	w = do(t, a, http.MethodPost, base+"/next", g.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var next struct {
		Turn game.Turn `json:"turn"`
	}
	decode(t, w, &next)
	assert.Equal(t, "bob", next.Turn.Player)
	assert.Equal(t, game.PhaseAwaitingGuess, next.Turn.Phase)

	// next without a guess
	w = do(t, a, http.MethodPost, base+"/next", g.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// an empty player means whoever's turn it is
	w = do(t, a, http.MethodPost, base+"/guesses", g.Token, map[string]interface{}{"lat": 48.8566, "lng": 2.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second guessResponse
	decode(t, w, &second)
	assert.Equal(t, "bob", second.Result.Player)
	assert.Equal(t, 800, second.Result.Points)
	assert.InDelta(t, second.Result.DistanceKm*1000, second.Result.RadiusM, 1e-6)

	w = do(t, a, http.MethodPost, base+"/next", g.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &next)
	assert.Equal(t, game.PhaseFinished, next.Turn.Phase)

	w = do(t, a, http.MethodPost, base+"/guesses", g.Token, map[string]interface{}{"lat": 0, "lng": 0})
	assert.Equal(t, http.StatusGone, w.Code)

	w = do(t, a, http.MethodGet, base+"/leaderboard", g.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Finished       bool            `json:"finished"`
		HigherIsBetter bool            `json:"higher_is_better"`
		Standings      []game.Standing `json:"standings"`
	}
	decode(t, w, &board)
	assert.True(t, board.Finished)
	assert.True(t, board.HigherIsBetter)
	assert.Equal(t, []game.Standing{
		{Rank: 1, Player: "alice", Score: 1000, Guesses: 1},
		{Rank: 2, Player: "bob", Score: 800, Guesses: 1},
	}, board.Standings)

	w = do(t, a, http.MethodDelete, base, g.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, a, http.MethodGet, base, g.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGuessNeedsBothCoordinates(t *testing.T) {
	a := newTestAPI(t)
	g := createGame(t, a, map[string]interface{}{"players": []string{"alice"}})
	base := "/api/games/" + g.ID

	for _, body := range []map[string]interface{}{
		{"player": "alice"},
		{"player": "alice", "lat": 48.8566},
		{"lng": 2.3522},
	} {
		w := do(t, a, http.MethodPost, base+"/guesses", g.Token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "lat and lng are required")
	}

	sess, err := a.games.Get(g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseAwaitingGuess, sess.Current().Phase)
	assert.Empty(t, sess.History())
	assert.Equal(t, 0, sess.Leaderboard()[0].Guesses)

	// an explicit 0,0 is a real answer
	w := do(t, a, http.MethodPost, base+"/guesses", g.Token, map[string]interface{}{"lat": 0, "lng": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCloseIdleLeavesOtherFrontEnds(t *testing.T) {
	a := newTestAPI(t)
	g := createGame(t, a, map[string]interface{}{})
	channelGame, err := a.games.Create("chan-1", game.Settings{
		Players:    []string{"u1"},
		Rounds:     1,
		Difficulty: places.Simple,
		Mode:       game.ModeClassic,
		Owner:      game.OwnerDiscord,
	})
	require.NoError(t, err)

	removed := a.closeIdle(time.Now().Add(time.Hour))
	require.Len(t, removed, 1)
	assert.Equal(t, g.ID, removed[0].ID())

	got, err := a.games.Get("chan-1")
	require.NoError(t, err)
	assert.Same(t, channelGame, got)
	assert.False(t, channelGame.Finished())
}

func TestGameRoutesNeedToken(t *testing.T) {
	a := newTestAPI(t)
	g1 := createGame(t, a, map[string]interface{}{})
	g2 := createGame(t, a, map[string]interface{}{})

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"missing header", "/api/games/" + g1.ID, "", http.StatusUnauthorized},
		{"not a bearer token", "/api/games/" + g1.ID, "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/api/games/" + g1.ID, "Bearer abc", http.StatusUnauthorized},
		{"token of another game", "/api/games/" + g2.ID, "Bearer " + g1.Token, http.StatusForbidden},
		{"own token", "/api/games/" + g2.ID, "Bearer " + g2.Token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			a.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	a := newTestAPI(t)
	g := createGame(t, a, map[string]interface{}{})

	a.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := a.tokens.Issue(g.ID)
	require.NoError(t, err)
	a.tokens.now = time.Now

	w := do(t, a, http.MethodGet, "/api/games/"+g.ID, stale, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTokenIssuer([]byte("secret"), time.Minute)
	token, expires, err := issuer.Issue("game-42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "game-42", claims.GameID)

	_, err = newTokenIssuer([]byte("other"), time.Minute).Verify(token)
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	g := createGame(t, a, map[string]interface{}{})
	w := do(t, a, http.MethodPost, "/api/games/"+g.ID+"/guesses", g.Token, paris)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, a, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `geoquiz_game_guesses_total{mode="classic",tier="🎯 Perfect!"} 1`)
	assert.Contains(t, w.Body.String(), "geoquiz_game_sessions_active 1")
}
