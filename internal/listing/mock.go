package listing

import (
	"io"
	"sync"
	"time"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	UpsertUserFunc           func(id, displayName string) error
	CreateListingFunc        func(ownerID string, category Category, teamSize TeamSize, attrs []string) (int64, error)
	UpdateListingFunc        func(id int64, attrs []string) error
	GetListingFunc           func(id int64) (*Listing, error)
	SoftDeleteListingFunc    func(id int64) error
	SoftDeleteAllByOwnerFunc func(ownerID string) ([]Listing, error)
	ListActiveFunc           func(category Category, teamSize TeamSize) ([]Listing, error)
	ListByOwnerFunc          func(ownerID string, category Category, teamSize TeamSize) ([]Listing, error)
	HasActiveByOwnerFunc     func(ownerID string) (bool, error)
	ListAllFunc              func(limit, offset int) ([]Listing, error)
	CountListingsFunc        func() (int, error)
	ExpireOlderThanFunc      func(cutoff time.Time) ([]Listing, error)
	GetRetentionDaysFunc     func() (int, error)
	SetRetentionDaysFunc     func(days int) error
	ExportUsersFunc          func(w io.Writer) (int, error)

	// Call records
	UpsertUserCalls        []string
	SoftDeleteCalls        []int64
	SoftDeleteByOwnerCalls []string
	ExpireCalls            []time.Time
	SetRetentionCalls      []int
}

var _ Store = (*MockStore)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

func (m *MockStore) UpsertUser(id, displayName string) error {
	m.mu.Lock()
	m.UpsertUserCalls = append(m.UpsertUserCalls, id)
	m.mu.Unlock()
	if m.UpsertUserFunc != nil {
		return m.UpsertUserFunc(id, displayName)
	}
	return nil
}

func (m *MockStore) CreateListing(ownerID string, category Category, teamSize TeamSize, attrs []string) (int64, error) {
	if m.CreateListingFunc != nil {
		return m.CreateListingFunc(ownerID, category, teamSize, attrs)
	}
	return 1, nil
}

func (m *MockStore) UpdateListing(id int64, attrs []string) error {
	if m.UpdateListingFunc != nil {
		return m.UpdateListingFunc(id, attrs)
	}
	return nil
}

func (m *MockStore) GetListing(id int64) (*Listing, error) {
	if m.GetListingFunc != nil {
		return m.GetListingFunc(id)
	}
	return nil, ErrNotFound
}

func (m *MockStore) SoftDeleteListing(id int64) error {
	m.mu.Lock()
	m.SoftDeleteCalls = append(m.SoftDeleteCalls, id)
	m.mu.Unlock()
	if m.SoftDeleteListingFunc != nil {
		return m.SoftDeleteListingFunc(id)
	}
	return nil
}

func (m *MockStore) SoftDeleteAllByOwner(ownerID string) ([]Listing, error) {
	m.mu.Lock()
	m.SoftDeleteByOwnerCalls = append(m.SoftDeleteByOwnerCalls, ownerID)
	m.mu.Unlock()
	if m.SoftDeleteAllByOwnerFunc != nil {
		return m.SoftDeleteAllByOwnerFunc(ownerID)
	}
	return nil, nil
}

func (m *MockStore) ListActive(category Category, teamSize TeamSize) ([]Listing, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(category, teamSize)
	}
	return nil, nil
}

func (m *MockStore) ListByOwner(ownerID string, category Category, teamSize TeamSize) ([]Listing, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ownerID, category, teamSize)
	}
	return nil, nil
}

func (m *MockStore) HasActiveByOwner(ownerID string) (bool, error) {
	if m.HasActiveByOwnerFunc != nil {
		return m.HasActiveByOwnerFunc(ownerID)
	}
	return false, nil
}

func (m *MockStore) ListAll(limit, offset int) ([]Listing, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(limit, offset)
	}
	return nil, nil
}

func (m *MockStore) CountListings() (int, error) {
	if m.CountListingsFunc != nil {
		return m.CountListingsFunc()
	}
	return 0, nil
}

func (m *MockStore) ExpireOlderThan(cutoff time.Time) ([]Listing, error) {
	m.mu.Lock()
	m.ExpireCalls = append(m.ExpireCalls, cutoff)
	m.mu.Unlock()
	if m.ExpireOlderThanFunc != nil {
		return m.ExpireOlderThanFunc(cutoff)
	}
	return nil, nil
}

func (m *MockStore) GetRetentionDays() (int, error) {
	if m.GetRetentionDaysFunc != nil {
		return m.GetRetentionDaysFunc()
	}
	return 3, nil
}

func (m *MockStore) SetRetentionDays(days int) error {
	m.mu.Lock()
	m.SetRetentionCalls = append(m.SetRetentionCalls, days)
	m.mu.Unlock()
	if m.SetRetentionDaysFunc != nil {
		return m.SetRetentionDaysFunc(days)
	}
	return nil
}

func (m *MockStore) ExportUsers(w io.Writer) (int, error) {
	if m.ExportUsersFunc != nil {
		return m.ExportUsersFunc(w)
	}
	return 0, nil
}
