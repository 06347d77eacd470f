package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/susu3304/geoquiz/internal/game"
)

// Recorder exports game activity as Prometheus metrics. It satisfies
// game.Observer.
type Recorder struct {
	registry *prometheus.Registry

	guesses  *prometheus.CounterVec
	distance *prometheus.HistogramVec
	sessions prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoquiz",
			Subsystem: "game",
			Name:      "guesses_total",
			Help:      "Total scored guesses by mode and tier label",
		}, []string{"mode", "tier"}),
		distance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geoquiz",
			Subsystem: "game",
			Name:      "guess_distance_km",
			Help:      "Distance between guess and target in kilometres",
			Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000, 5000, 20000},
		}, []string{"mode"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geoquiz",
			Subsystem: "game",
			Name:      "sessions_active",
			Help:      "Game sessions held in memory",
		}),
	}
	r.registry.MustRegister(r.guesses, r.distance, r.sessions)
	return r
}

func (r *Recorder) GuessScored(mode string, res game.Result) {
	r.guesses.WithLabelValues(mode, res.Outcome.Label()).Inc()
	r.distance.WithLabelValues(mode).Observe(res.Outcome.DistanceKm)
}

func (r *Recorder) SessionsChanged(n int) {
	r.sessions.Set(float64(n))
}

// Handler serves the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
