package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/nvoss/teamseek/internal/pubsub"
)

// Sweeper periodically retires listings older than the retention window.
type Sweeper struct {
	store    listing.Store
	notifier notifier.Notifier
	events   pubsub.PubSubClient
	metrics  metrics.Metrics
	interval time.Duration
}

// New creates a Sweeper. interval is how often a cycle runs, independent of
// the retention value itself.
func New(store listing.Store, n notifier.Notifier, events pubsub.PubSubClient, m metrics.Metrics, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		notifier: n,
		events:   events,
		metrics:  m,
		interval: interval,
	}
}

// Run executes sweep cycles on the configured interval until ctx is
// cancelled. The first cycle runs immediately.
func (s *Sweeper) Run(ctx context.Context) {
	log.Info("Sweeper started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("Sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single cutoff-and-retire pass. The retention window is
// read fresh each cycle so an admin change applies on the very next pass.
// Owner notifications are best effort and never block the retirement itself.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	s.metrics.IncSweepRuns()

	days, err := s.store.GetRetentionDays()
	if err != nil {
		log.Error("Sweep aborted, cannot read retention", "error", err)
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	expired, err := s.store.ExpireOlderThan(cutoff)
	if err != nil {
		log.Error("Sweep failed", "error", err, "cutoff", cutoff)
		return 0, err
	}

	for _, l := range expired {
		text := fmt.Sprintf("Your %s listing #%d expired after %d day(s) and was removed from search.", l.Category, l.ID, days)
		if err := s.notifier.Notify(ctx, l.OwnerID, text); err != nil {
			log.Error("Failed to notify owner about expiry", "error", err, "owner", l.OwnerID, "listing_id", l.ID)
		}
		event := pubsub.NewListingEvent(l.ID, l.OwnerID, string(l.Category), "")
		if err := s.events.SendMessage(pubsub.EventListingExpired, event); err != nil {
			log.Error("Failed to publish expiry event", "error", err, "listing_id", l.ID)
		}
	}

	s.metrics.AddListingsExpired(len(expired))
	s.metrics.ObserveSweepDuration(time.Since(start).Seconds())
	if len(expired) > 0 {
		log.Info("Sweep retired listings", "count", len(expired), "retention_days", days)
	} else {
		log.Debug("Sweep found nothing to retire", "retention_days", days)
	}
	return len(expired), nil
}
