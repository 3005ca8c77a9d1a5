package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncListingsCreated()
	IncListingsUpdated()
	IncListingsDeleted()
	AddListingsExpired(count int)
	IncSweepRuns()
	ObserveSweepDuration(seconds float64)
	IncNotifSent()
	IncNotifFailed()
	SetActiveSessions(count float64)
	SetStartupTime(seconds float64)
}
