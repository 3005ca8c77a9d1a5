package moderation

import (
	"context"

	"github.com/nvoss/teamseek/internal/listing"
)

// Gateway defines the operations reserved for moderators.
// Every mutating call verifies the caller against the admin allow-list.
type Gateway interface {
	// IsAdmin reports whether the user is on the allow-list.
	IsAdmin(userID string) bool
	// ListAll returns one page of the global listing view, inactive rows
	// included. It returns the page items, the clamped page index and the
	// total page count.
	ListAll(page int) ([]listing.Listing, int, int, error)
	// DeleteListing retires any listing by ID and notifies its owner and
	// the audit channel.
	DeleteListing(ctx context.Context, adminID string, listingID int64) error
	// ChangeRetention sets the expiry window. Only a fixed set of day
	// values is accepted.
	ChangeRetention(ctx context.Context, adminID string, days int) error
}
