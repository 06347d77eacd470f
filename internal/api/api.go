package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/config"
	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/metrics"
)

type API struct {
	router  *mux.Router
	games   *game.Registry
	modes   game.Modes
	config  *config.Config
	tokens  *tokenIssuer
	metrics *metrics.Recorder
	newID   func() string
}

func New(cfg *config.Config, games *game.Registry, modes game.Modes, rec *metrics.Recorder) *API {
	api := &API{
		router:  mux.NewRouter(),
		games:   games,
		modes:   modes,
		config:  cfg,
		tokens:  newTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL),
		metrics: rec,
		newID:   newGameID,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.Use(requestLogger)

	// Web interface
	a.router.HandleFunc("/", a.handleWebInterface).Methods("GET")
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	if a.metrics != nil {
		a.router.Handle("/metrics", a.metrics.Handler()).Methods("GET")
	}

	// Public endpoints
	a.router.HandleFunc("/api/config", a.handleConfig).Methods("GET")
	a.router.HandleFunc("/api/distance", a.handleDistance).Methods("POST")
	a.router.HandleFunc("/api/games", a.handleCreateGame).Methods("POST")

	// Endpoints that need the token issued for the game
	protected := a.router.PathPrefix("/api/games/{id}").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("", a.handleGetGame).Methods("GET")
	protected.HandleFunc("", a.handleDeleteGame).Methods("DELETE")
	protected.HandleFunc("/guesses", a.handleGuess).Methods("POST")
	protected.HandleFunc("/next", a.handleNext).Methods("POST")
	protected.HandleFunc("/leaderboard", a.handleLeaderboard).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// When AllowedOrigins is "*", AllowCredentials must be false
	corsOptions := cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.config.IdleTimeout > 0 {
		go a.sweepIdle(ctx, a.config.IdleTimeout)
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("API server listening", zap.String("addr", "http://"+a.config.WebBind))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepIdle drops games nobody has touched within idle.
func (a *API) sweepIdle(ctx context.Context, idle time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.closeIdle(now.Add(-idle))
		}
	}
}

// closeIdle only reaches games created through this API. Games of other
// front ends sharing the registry are swept by their own reapers.
func (a *API) closeIdle(cutoff time.Time) []*game.Session {
	removed := a.games.Sweep(game.OwnerWeb, cutoff)
	for _, s := range removed {
		zap.L().Info("idle game closed", zap.String("game", s.ID()))
	}
	return removed
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
