package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/scoring"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.GuessScored("classic", game.Result{Outcome: scoring.Points.Score(5)})
	r.GuessScored("classic", game.Result{Outcome: scoring.Points.Score(7)})
	r.GuessScored("compact", game.Result{Outcome: scoring.Compact.Score(300)})
	r.SessionsChanged(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.guesses.WithLabelValues("classic", "🎯 Perfect!")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.guesses.WithLabelValues("compact", "😅 Missed!")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.sessions))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "geoquiz_game_guess_distance_km_count{mode=\"classic\"} 2")
	assert.Contains(t, rec.Body.String(), "geoquiz_game_sessions_active 2")
}
