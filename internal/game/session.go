package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/susu3304/geoquiz/internal/geo"
	"github.com/susu3304/geoquiz/internal/places"
	"github.com/susu3304/geoquiz/internal/scoring"
)

var (
	ErrInvalidSettings   = errors.New("invalid game settings")
	ErrUnknownMode       = errors.New("unknown game mode")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrNotYourTurn       = errors.New("not this player's turn")
	ErrResultPending     = errors.New("result is still displayed")
	ErrNoResult          = errors.New("no guess submitted for this turn")
	ErrGameOver          = errors.New("game is over")
)

// DefaultRounds is used by front ends when the players do not pick a length.
const DefaultRounds = 5

// Front ends sharing a registry tag their games with one of these.
const (
	OwnerWeb      = "web"
	OwnerDiscord  = "discord"
	OwnerTerminal = "terminal"
)

type Phase string

const (
	PhaseAwaitingGuess Phase = "awaiting_guess"
	PhaseShowingResult Phase = "showing_result"
	PhaseFinished      Phase = "finished"
)

// Settings fixes everything about a game before it starts.
type Settings struct {
	Players []string
	// Rounds is the number of full player rotations; 0 plays until Finish.
	Rounds     int
	Difficulty places.Difficulty
	Mode       Mode
	// Owner names the front end driving the game. Registry.Sweep only closes
	// games of the owner it is asked about.
	Owner string
}

func (s Settings) Validate() error {
	if len(s.Players) == 0 {
		return fmt.Errorf("%w: at least one player is required", ErrInvalidSettings)
	}
	seen := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		name := strings.TrimSpace(p)
		if name == "" {
			return fmt.Errorf("%w: player name is empty", ErrInvalidSettings)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate player %q", ErrInvalidSettings, name)
		}
		seen[name] = true
	}
	if s.Rounds < 0 {
		return fmt.Errorf("%w: rounds must not be negative", ErrInvalidSettings)
	}
	if _, err := places.ParseDifficulty(string(s.Difficulty)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.Mode.Name == "" || len(s.Mode.Table.Tiers()) == 0 {
		return fmt.Errorf("%w: mode has no tier table", ErrInvalidSettings)
	}
	return nil
}

// Turn is what a player is asked right now. The target location is withheld
// until a guess has been scored.
type Turn struct {
	Round  int    `json:"round"`
	Rounds int    `json:"rounds"`
	Player string `json:"player"`
	Place  string `json:"place,omitempty"`
	Phase  Phase  `json:"phase"`
}

// Result is one scored guess.
type Result struct {
	Round   int             `json:"round"`
	Player  string          `json:"player"`
	Place   places.Place    `json:"place"`
	Guess   geo.Coordinate  `json:"guess"`
	Outcome scoring.Outcome `json:"outcome"`
	Awarded int             `json:"awarded"`
	Total   int             `json:"total"`
}

type Standing struct {
	Rank    int    `json:"rank"`
	Player  string `json:"player"`
	Score   int    `json:"score"`
	Guesses int    `json:"guesses"`
}

// Session is one game. All methods are safe to call from the goroutine of
// any front end, though a game is meant to be driven by one of them.
type Session struct {
	mu        sync.Mutex
	id        string
	settings  Settings
	catalog   *places.Catalog
	rng       places.Rand
	observer  Observer
	createdAt time.Time
	active    time.Time

	scores  map[string]int
	guesses map[string]int
	round   int
	turn    int
	phase   Phase
	place   places.Place
	history []Result
}

// New starts a game and draws the first place.
func New(id string, settings Settings, catalog *places.Catalog, rng places.Rand) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	players := make([]string, len(settings.Players))
	for i, p := range settings.Players {
		players[i] = strings.TrimSpace(p)
	}
	settings.Players = players

	now := time.Now()
	s := &Session{
		id:        id,
		settings:  settings,
		catalog:   catalog,
		rng:       rng,
		observer:  nopObserver{},
		createdAt: now,
		active:    now,
		scores:    make(map[string]int, len(players)),
		guesses:   make(map[string]int, len(players)),
		round:     1,
	}
	for _, p := range players {
		s.scores[p] = 0
	}
	if err := s.draw(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActive is the time of the last guess, advance or finish.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) Settings() Settings {
	out := s.settings
	out.Players = append([]string(nil), s.settings.Players...)
	return out
}

func (s *Session) draw() error {
	p, err := s.catalog.Pick(s.settings.Difficulty, s.rng)
	if err != nil {
		return err
	}
	s.place = p
	s.phase = PhaseAwaitingGuess
	return nil
}

func (s *Session) Current() Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() Turn {
	t := Turn{
		Round:  s.round,
		Rounds: s.settings.Rounds,
		Phase:  s.phase,
	}
	if s.phase != PhaseFinished {
		t.Player = s.settings.Players[s.turn]
		t.Place = s.place.Name
	}
	return t
}

// SubmitGuess scores c against the current place. An empty player means
// whoever's turn it is.
func (s *Session) SubmitGuess(player string, c geo.Coordinate) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseFinished:
		return Result{}, ErrGameOver
	case PhaseShowingResult:
		return Result{}, ErrResultPending
	}
	if err := c.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidCoordinate, err)
	}
	current := s.settings.Players[s.turn]
	if player = strings.TrimSpace(player); player != "" && player != current {
		return Result{}, fmt.Errorf("%w: waiting for %s", ErrNotYourTurn, current)
	}

	outcome := s.settings.Mode.Table.Score(geo.DistanceKm(c, s.place.Location))
	awarded := s.settings.Mode.award(outcome)
	s.scores[current] += awarded
	s.guesses[current]++

	r := Result{
		Round:   s.round,
		Player:  current,
		Place:   s.place,
		Guess:   c,
		Outcome: outcome,
		Awarded: awarded,
		Total:   s.scores[current],
	}
	s.history = append(s.history, r)
	s.phase = PhaseShowingResult
	s.active = time.Now()
	s.observer.GuessScored(s.settings.Mode.Name, r)
	return r, nil
}

// LastResult returns the most recent scored guess, if any.
func (s *Session) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return Result{}, false
	}
	return s.history[len(s.history)-1], true
}

// History returns every scored guess in order.
func (s *Session) History() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.history...)
}

// Next hides the displayed result and moves to the next player, round, or
// the end of the game.
func (s *Session) Next() (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseFinished:
		return s.currentLocked(), ErrGameOver
	case PhaseAwaitingGuess:
		return s.currentLocked(), ErrNoResult
	}

	s.active = time.Now()
	turn, round := s.turn+1, s.round
	if turn == len(s.settings.Players) {
		turn = 0
		round++
	}
	if s.settings.Rounds > 0 && round > s.settings.Rounds {
		s.phase = PhaseFinished
		return s.currentLocked(), nil
	}
	// Nothing moves unless the next place could be drawn.
	p, err := s.catalog.Pick(s.settings.Difficulty, s.rng)
	if err != nil {
		return s.currentLocked(), err
	}
	s.turn, s.round, s.place, s.phase = turn, round, p, PhaseAwaitingGuess
	return s.currentLocked(), nil
}

// Finish ends the game early, e.g. an endless game the player quits.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseFinished
	s.active = time.Now()
}

func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseFinished
}

// Leaderboard ranks players by score in the mode's direction. Equal scores
// share a rank and are listed by name. When lower is better, players with
// more guesses come first.
func (s *Session) Leaderboard() []Standing {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Standing, 0, len(s.scores))
	for _, p := range s.settings.Players {
		out = append(out, Standing{Player: p, Score: s.scores[p], Guesses: s.guesses[p]})
	}
	mode := s.settings.Mode
	sameGuesses := func(a, b Standing) bool {
		return mode.HigherIsBetter || a.Guesses == b.Guesses
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !sameGuesses(out[i], out[j]) {
			return out[i].Guesses > out[j].Guesses
		}
		if out[i].Score != out[j].Score {
			return mode.better(out[i].Score, out[j].Score)
		}
		return out[i].Player < out[j].Player
	})
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score && sameGuesses(out[i], out[i-1]) {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}
