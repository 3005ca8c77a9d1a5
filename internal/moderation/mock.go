package moderation

import (
	"context"
	"sync"

	"github.com/nvoss/teamseek/internal/listing"
)

// Mock is a mock implementation of the Gateway interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	IsAdminFunc         func(userID string) bool
	ListAllFunc         func(page int) ([]listing.Listing, int, int, error)
	DeleteListingFunc   func(ctx context.Context, adminID string, listingID int64) error
	ChangeRetentionFunc func(ctx context.Context, adminID string, days int) error

	// Call records
	DeleteCalls []struct {
		AdminID   string
		ListingID int64
	}
	RetentionCalls []struct {
		AdminID string
		Days    int
	}
}

var _ Gateway = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) IsAdmin(userID string) bool {
	if m.IsAdminFunc != nil {
		return m.IsAdminFunc(userID)
	}
	return false
}

func (m *Mock) ListAll(page int) ([]listing.Listing, int, int, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(page)
	}
	return nil, 0, 0, nil
}

func (m *Mock) DeleteListing(ctx context.Context, adminID string, listingID int64) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, struct {
		AdminID   string
		ListingID int64
	}{adminID, listingID})
	m.mu.Unlock()
	if m.DeleteListingFunc != nil {
		return m.DeleteListingFunc(ctx, adminID, listingID)
	}
	return nil
}

func (m *Mock) ChangeRetention(ctx context.Context, adminID string, days int) error {
	m.mu.Lock()
	m.RetentionCalls = append(m.RetentionCalls, struct {
		AdminID string
		Days    int
	}{adminID, days})
	m.mu.Unlock()
	if m.ChangeRetentionFunc != nil {
		return m.ChangeRetentionFunc(ctx, adminID, days)
	}
	return nil
}
