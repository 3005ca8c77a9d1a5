package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	ListingsCreated    prometheus.Counter
	ListingsUpdated    prometheus.Counter
	ListingsDeleted    prometheus.Counter
	ListingsExpired    prometheus.Counter
	SweepRuns          prometheus.Counter
	SweepDuration      prometheus.Histogram
	NotifSent          prometheus.Counter
	NotifFailed        prometheus.Counter
	ActiveSessions     prometheus.Gauge
	StartupTimeSeconds prometheus.Gauge
}
