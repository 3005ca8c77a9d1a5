package notifier

import (
	"context"
	"sync"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	NotifyFunc      func(ctx context.Context, recipientID, text string) error
	NotifyAuditFunc func(ctx context.Context, text string) error
	EditFunc        func(ctx context.Context, channelID, timestamp, text string) (EditResult, error)
	IsMemberFunc    func(ctx context.Context, channelID, userID string) (bool, error)

	// Call records
	NotifyCalls []struct {
		RecipientID string
		Text        string
	}
	AuditCalls []string
	EditCalls  []struct {
		ChannelID string
		Timestamp string
		Text      string
	}
	IsMemberCalls []struct {
		ChannelID string
		UserID    string
	}
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = nil
	m.AuditCalls = nil
	m.EditCalls = nil
	m.IsMemberCalls = nil
}

func (m *Mock) Notify(ctx context.Context, recipientID, text string) error {
	m.mu.Lock()
	m.NotifyCalls = append(m.NotifyCalls, struct {
		RecipientID string
		Text        string
	}{recipientID, text})
	m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, recipientID, text)
	}
	return nil
}

func (m *Mock) NotifyAudit(ctx context.Context, text string) error {
	m.mu.Lock()
	m.AuditCalls = append(m.AuditCalls, text)
	m.mu.Unlock()
	if m.NotifyAuditFunc != nil {
		return m.NotifyAuditFunc(ctx, text)
	}
	return nil
}

func (m *Mock) Edit(ctx context.Context, channelID, timestamp, text string) (EditResult, error) {
	m.mu.Lock()
	m.EditCalls = append(m.EditCalls, struct {
		ChannelID string
		Timestamp string
		Text      string
	}{channelID, timestamp, text})
	m.mu.Unlock()
	if m.EditFunc != nil {
		return m.EditFunc(ctx, channelID, timestamp, text)
	}
	return EditApplied, nil
}

func (m *Mock) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	m.mu.Lock()
	m.IsMemberCalls = append(m.IsMemberCalls, struct {
		ChannelID string
		UserID    string
	}{channelID, userID})
	m.mu.Unlock()
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, channelID, userID)
	}
	return true, nil
}
