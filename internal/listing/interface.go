package listing

import (
	"io"
	"time"
)

// Store defines the interface for interacting with listings, users and the
// retention setting. All query methods exclude soft-deleted rows unless
// stated otherwise.
type Store interface {
	// UpsertUser inserts the user if absent. It never overwrites an
	// existing row except for a best-effort display name refresh.
	UpsertUser(id, displayName string) error

	// CreateListing validates the attributes, assigns a new id and returns it.
	CreateListing(ownerID string, category Category, teamSize TeamSize, attrs []string) (int64, error)
	// UpdateListing overwrites the attributes of an active listing and
	// bumps created_at (treated as last-modified). Returns ErrNotFound if
	// the listing is missing or inactive.
	UpdateListing(id int64, attrs []string) error
	// GetListing returns a listing by id regardless of its active flag.
	GetListing(id int64) (*Listing, error)
	// SoftDeleteListing marks a listing inactive. Deleting an already
	// inactive listing is a no-op.
	SoftDeleteListing(id int64) error
	// SoftDeleteAllByOwner retires every active listing of the owner and
	// returns the listings that were retired.
	SoftDeleteAllByOwner(ownerID string) ([]Listing, error)

	ListActive(category Category, teamSize TeamSize) ([]Listing, error)
	ListByOwner(ownerID string, category Category, teamSize TeamSize) ([]Listing, error)
	HasActiveByOwner(ownerID string) (bool, error)

	// ListAll pages through every listing, active or not, newest first.
	ListAll(limit, offset int) ([]Listing, error)
	CountListings() (int, error)

	// ExpireOlderThan retires every active listing created before the
	// cutoff and returns them for notification.
	ExpireOlderThan(cutoff time.Time) ([]Listing, error)

	GetRetentionDays() (int, error)
	SetRetentionDays(days int) error

	// ExportUsers writes the users table as CSV and returns the row count.
	ExportUsers(w io.Writer) (int, error)
}
