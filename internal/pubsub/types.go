package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventListingCreated   EventType = "listing-created"
	EventListingUpdated   EventType = "listing-updated"
	EventListingDeleted   EventType = "listing-deleted"
	EventListingExpired   EventType = "listing-expired"
	EventRetentionChanged EventType = "retention-changed"
)

// ListingEvent is the payload published for listing lifecycle changes.
type ListingEvent struct {
	EventID   string `msgpack:"event_id"`
	ListingID int64  `msgpack:"listing_id"`
	OwnerID   string `msgpack:"owner_id"`
	Category  string `msgpack:"category"`
	// Actor is the user that triggered the change. Empty for the sweeper.
	Actor string `msgpack:"actor"`
	At    int64  `msgpack:"at"`
}

// NewListingEvent builds a ListingEvent with a fresh event ID and the current
// timestamp.
func NewListingEvent(listingID int64, ownerID, category, actor string) ListingEvent {
	return ListingEvent{
		EventID:   uuid.NewString(),
		ListingID: listingID,
		OwnerID:   ownerID,
		Category:  category,
		Actor:     actor,
		At:        time.Now().Unix(),
	}
}

// RetentionEvent is published when the retention window changes.
type RetentionEvent struct {
	EventID string `msgpack:"event_id"`
	Days    int    `msgpack:"days"`
	Actor   string `msgpack:"actor"`
	At      int64  `msgpack:"at"`
}

// NewRetentionEvent builds a RetentionEvent with a fresh event ID and the
// current timestamp.
func NewRetentionEvent(days int, actor string) RetentionEvent {
	return RetentionEvent{
		EventID: uuid.NewString(),
		Days:    days,
		Actor:   actor,
		At:      time.Now().Unix(),
	}
}
