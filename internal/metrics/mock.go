package metrics

import "sync"

// Mock is a no-op Metrics implementation that records call counts for tests.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	CreatedCount  int
	UpdatedCount  int
	DeletedCount  int
	ExpiredCount  int
	SweepRunCount int
	NotifSent     int
	NotifFailed   int
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) IncListingsCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedCount++
}

func (m *Mock) IncListingsUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdatedCount++
}

func (m *Mock) IncListingsDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedCount++
}

func (m *Mock) AddListingsExpired(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExpiredCount += count
}

func (m *Mock) IncSweepRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SweepRunCount++
}

func (m *Mock) ObserveSweepDuration(seconds float64) {}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifFailed++
}

func (m *Mock) SetActiveSessions(count float64) {}

func (m *Mock) SetStartupTime(seconds float64) {}
