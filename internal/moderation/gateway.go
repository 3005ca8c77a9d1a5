package moderation

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/nvoss/teamseek/internal/pubsub"
)

type gateway struct {
	store    listing.Store
	notifier notifier.Notifier
	events   pubsub.PubSubClient
	metrics  metrics.Metrics
	admins   map[string]struct{}
}

var _ Gateway = (*gateway)(nil)

// New creates a Gateway with the given admin allow-list.
func New(store listing.Store, n notifier.Notifier, events pubsub.PubSubClient, m metrics.Metrics, adminIDs []string) Gateway {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &gateway{
		store:    store,
		notifier: n,
		events:   events,
		metrics:  m,
		admins:   admins,
	}
}

func (g *gateway) IsAdmin(userID string) bool {
	_, ok := g.admins[userID]
	return ok
}

func (g *gateway) ListAll(page int) ([]listing.Listing, int, int, error) {
	count, err := g.store.CountListings()
	if err != nil {
		return nil, 0, 0, err
	}
	if count == 0 {
		return nil, 0, 0, nil
	}

	totalPages := (count + listing.AdminPageSize - 1) / listing.AdminPageSize
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	items, err := g.store.ListAll(listing.AdminPageSize, page*listing.AdminPageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, page, totalPages, nil
}

func (g *gateway) DeleteListing(ctx context.Context, adminID string, listingID int64) error {
	if !g.IsAdmin(adminID) {
		return ErrUnauthorized
	}

	l, err := g.store.GetListing(listingID)
	if err != nil {
		return err
	}

	if err := g.store.SoftDeleteListing(listingID); err != nil {
		return err
	}
	g.metrics.IncListingsDeleted()
	log.Info("Listing removed by moderator", "listing_id", listingID, "owner", l.OwnerID, "admin", adminID)

	// Notifications and events are best effort. The deletion already
	// happened and must not be reported as failed.
	ownerText := fmt.Sprintf("Your %s listing #%d was removed by a moderator.", l.Category, listingID)
	if err := g.notifier.Notify(ctx, l.OwnerID, ownerText); err != nil {
		log.Error("Failed to notify owner about removal", "error", err, "owner", l.OwnerID)
	}
	auditText := fmt.Sprintf("Listing #%d (owner %s, %s) removed by %s.", listingID, l.OwnerID, l.Category, adminID)
	if err := g.notifier.NotifyAudit(ctx, auditText); err != nil {
		log.Error("Failed to post removal audit note", "error", err)
	}
	event := pubsub.NewListingEvent(listingID, l.OwnerID, string(l.Category), adminID)
	if err := g.events.SendMessage(pubsub.EventListingDeleted, event); err != nil {
		log.Error("Failed to publish deletion event", "error", err, "listing_id", listingID)
	}
	return nil
}

func (g *gateway) ChangeRetention(ctx context.Context, adminID string, days int) error {
	if !g.IsAdmin(adminID) {
		return ErrUnauthorized
	}
	if !RetentionAllowed(days) {
		return fmt.Errorf("%w: %d days", ErrInvalidRetention, days)
	}

	if err := g.store.SetRetentionDays(days); err != nil {
		return err
	}
	log.Info("Retention window changed", "days", days, "admin", adminID)

	auditText := fmt.Sprintf("Retention window set to %d days by %s.", days, adminID)
	if err := g.notifier.NotifyAudit(ctx, auditText); err != nil {
		log.Error("Failed to post retention audit note", "error", err)
	}
	event := pubsub.NewRetentionEvent(days, adminID)
	if err := g.events.SendMessage(pubsub.EventRetentionChanged, event); err != nil {
		log.Error("Failed to publish retention event", "error", err)
	}
	return nil
}
