package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ListingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamseek_listings_created_total",
			Help: "The total number of listings created.",
		}),
		ListingsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamseek_listings_updated_total",
			Help: "The total number of listing edits.",
		}),
		ListingsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamseek_listings_deleted_total",
			Help: "The total number of listings soft-deleted by users or admins.",
		}),
		ListingsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamseek_listings_expired_total",
			Help: "The total number of listings retired by the expiry sweep.",
		}),
		SweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamseek_sweep_runs_total",
			Help: "The total number of expiry sweep cycles.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamseek_sweep_duration_seconds",
			Help:    "The duration of individual sweep cycles.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamseek_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamseek_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamseek_active_sessions",
			Help: "The number of user sessions currently held in memory.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamseek_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ListingsCreated,
		s.ListingsUpdated,
		s.ListingsDeleted,
		s.ListingsExpired,
		s.SweepRuns,
		s.SweepDuration,
		s.NotifSent,
		s.NotifFailed,
		s.ActiveSessions,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncListingsCreated() {
	s.ListingsCreated.Inc()
}

func (s *Service) IncListingsUpdated() {
	s.ListingsUpdated.Inc()
}

func (s *Service) IncListingsDeleted() {
	s.ListingsDeleted.Inc()
}

func (s *Service) AddListingsExpired(count int) {
	s.ListingsExpired.Add(float64(count))
}

func (s *Service) IncSweepRuns() {
	s.SweepRuns.Inc()
}

func (s *Service) ObserveSweepDuration(seconds float64) {
	s.SweepDuration.Observe(seconds)
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) SetActiveSessions(count float64) {
	s.ActiveSessions.Set(count)
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}
