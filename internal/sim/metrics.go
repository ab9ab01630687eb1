package sim

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Episode outcome label values.
const (
	OutcomeTerminated = "terminated"
	OutcomeTruncated  = "truncated"
	OutcomeStuck      = "stuck"
)

// Metrics holds the runner's Prometheus collectors on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Episodes        *prometheus.CounterVec   // By outcome
	Placements      prometheus.Counter       // Placements the environment accepted
	Stalls          prometheus.Counter       // Decisions that placed nothing
	TrimLoss        prometheus.Histogram     // Final trim loss per episode
	DecisionSeconds *prometheus.HistogramVec // Policy latency by algorithm
}

// NewMetrics creates and registers the runner collectors together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.Episodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cutstock_episodes_total",
		Help: "Finished episodes by outcome",
	}, []string{"outcome"})
	m.Placements = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutstock_placements_total",
		Help: "Placements applied to stocks",
	})
	m.Stalls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutstock_stalls_total",
		Help: "Decisions that placed nothing",
	})
	m.TrimLoss = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cutstock_episode_trim_loss",
		Help:    "Trim loss at the end of each episode",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
	m.DecisionSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cutstock_decision_duration_seconds",
		Help:    "Time the policy took to return a placement",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"algorithm"})

	reg.MustRegister(m.Episodes, m.Placements, m.Stalls, m.TrimLoss, m.DecisionSeconds)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr until the returned function is called.
func (m *Metrics) Serve(addr string, logger *log.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("failed to shut down metrics server", "err", err)
		}
	}
}

func (m *Metrics) observeDecision(algorithm string, d time.Duration) {
	if m == nil {
		return
	}
	m.DecisionSeconds.WithLabelValues(algorithm).Observe(d.Seconds())
}

func (m *Metrics) observeStep(placed bool) {
	if m == nil {
		return
	}
	if placed {
		m.Placements.Inc()
	} else {
		m.Stalls.Inc()
	}
}

func (m *Metrics) observeEpisode(res EpisodeResult) {
	if m == nil {
		return
	}
	outcome := OutcomeTruncated
	switch {
	case res.Terminated:
		outcome = OutcomeTerminated
	case res.Stuck:
		outcome = OutcomeStuck
	}
	m.Episodes.WithLabelValues(outcome).Inc()
	m.TrimLoss.Observe(res.TrimLoss)
}
