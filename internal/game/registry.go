package game

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/susu3304/geoquiz/internal/places"
)

var (
	ErrSessionNotFound = errors.New("game session not found")
	ErrSessionExists   = errors.New("a game session already exists")
)

// Observer hears about scored guesses and the number of live sessions.
type Observer interface {
	GuessScored(mode string, r Result)
	SessionsChanged(n int)
}

type nopObserver struct{}

func (nopObserver) GuessScored(string, Result) {}
func (nopObserver) SessionsChanged(int)        {}

type Option func(*Registry)

// WithRand overrides the source of randomness handed to each new session.
func WithRand(newRand func() places.Rand) Option {
	return func(r *Registry) { r.newRand = newRand }
}

func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// Registry keeps the live sessions of one process, keyed by an id chosen by
// the front end (a channel id, a random token). Nothing outlives the process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	catalog  *places.Catalog
	newRand  func() places.Rand
	observer Observer
}

func NewRegistry(catalog *places.Catalog, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		catalog:  catalog,
		newRand: func() places.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Catalog() *places.Catalog { return r.catalog }

// Create starts a session under id. A finished session with the same id is
// replaced; a running one is not.
func (r *Registry) Create(id string, settings Settings) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[id]; ok && !existing.Finished() {
		return nil, ErrSessionExists
	}
	s, err := New(id, settings, r.catalog, r.newRand())
	if err != nil {
		return nil, err
	}
	s.observer = r.observer
	r.sessions[id] = s
	r.observer.SessionsChanged(len(r.sessions))
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.observer.SessionsChanged(len(r.sessions))
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep finishes and removes every session of owner idle since before
// cutoff and returns them, so that front end can announce the final
// standings. Sessions of other owners are left alone.
func (r *Registry) Sweep(owner string, cutoff time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*Session
	for id, s := range r.sessions {
		if s.settings.Owner != owner || !s.LastActive().Before(cutoff) {
			continue
		}
		s.Finish()
		delete(r.sessions, id)
		removed = append(removed, s)
	}
	if len(removed) > 0 {
		r.observer.SessionsChanged(len(r.sessions))
	}
	return removed
}
