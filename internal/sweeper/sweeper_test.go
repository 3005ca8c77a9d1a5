package sweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nvoss/teamseek/internal/database"
	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/nvoss/teamseek/internal/pubsub"
	"github.com/nvoss/teamseek/internal/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var attrs = []string{"20", "5000", "Builder", "4h/day", "disc#123"}

type sweepFixture struct {
	sweeper  *sweeper.Sweeper
	store    listing.Store
	notif    *notifier.Mock
	events   *pubsub.MockPubSubClient
	metrics  *metrics.Mock
	backdate func(id int64, age time.Duration)
}

func setup(t *testing.T) *sweepFixture {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)

	f := &sweepFixture{
		store:   listing.New(db),
		notif:   notifier.NewMock(),
		events:  pubsub.NewMock(""),
		metrics: metrics.NewMock(),
	}
	f.sweeper = sweeper.New(f.store, f.notif, f.events, f.metrics, time.Hour)
	f.backdate = func(id int64, age time.Duration) {
		_, err := db.Exec("UPDATE listings SET created_at = ? WHERE id = ?", time.Now().Add(-age).Unix(), id)
		require.NoError(t, err)
	}
	return f
}

func TestSweepOnce(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.UpsertUser("U100", "vasya"))

	staleID, err := f.store.CreateListing("U100", listing.CategoryTeammate, listing.SizeDuo, attrs)
	require.NoError(t, err)
	freshID, err := f.store.CreateListing("U100", listing.CategoryClan, "", []string{"Clan", "Lead", "Need", "10", "disc"})
	require.NoError(t, err)

	// Default retention is 3 days; make one listing 4 days old.
	f.backdate(staleID, 4*24*time.Hour)

	count, err := f.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stale, err := f.store.GetListing(staleID)
	require.NoError(t, err)
	assert.False(t, stale.IsActive)

	fresh, err := f.store.GetListing(freshID)
	require.NoError(t, err)
	assert.True(t, fresh.IsActive)

	require.Len(t, f.notif.NotifyCalls, 1)
	assert.Equal(t, "U100", f.notif.NotifyCalls[0].RecipientID)
	assert.Contains(t, f.notif.NotifyCalls[0].Text, "teammate", "the owner learns which category expired")

	require.Len(t, f.events.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventListingExpired), f.events.SendMessageCalls[0].Topic)

	assert.Equal(t, 1, f.metrics.ExpiredCount)
	assert.Equal(t, 1, f.metrics.SweepRunCount)
}

func TestSweepOnce_Idempotent(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.UpsertUser("U100", "vasya"))
	id, err := f.store.CreateListing("U100", listing.CategoryTeammate, listing.SizeDuo, attrs)
	require.NoError(t, err)
	f.backdate(id, 4*24*time.Hour)

	count, err := f.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A second pass finds nothing and sends nothing.
	count, err = f.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, f.notif.NotifyCalls, 1)
}

func TestSweepOnce_RetentionChangeAppliesNextCycle(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.UpsertUser("U100", "vasya"))
	id, err := f.store.CreateListing("U100", listing.CategoryTeammate, listing.SizeDuo, attrs)
	require.NoError(t, err)
	f.backdate(id, 2*24*time.Hour)

	// Two days old, three-day window: survives.
	count, err := f.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Shrink the window to one day: retired on the very next pass.
	require.NoError(t, f.store.SetRetentionDays(1))
	count, err = f.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSweepOnce_NotificationFailureDoesNotBlock(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.UpsertUser("U100", "vasya"))
	require.NoError(t, f.store.UpsertUser("U200", "petya"))

	id1, err := f.store.CreateListing("U100", listing.CategoryTeammate, listing.SizeDuo, attrs)
	require.NoError(t, err)
	id2, err := f.store.CreateListing("U200", listing.CategoryTeammate, listing.SizeDuo, attrs)
	require.NoError(t, err)
	f.backdate(id1, 4*24*time.Hour)
	f.backdate(id2, 4*24*time.Hour)

	f.notif.NotifyFunc = func(ctx context.Context, recipientID, text string) error {
		return errors.New("delivery failed")
	}

	count, err := f.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, id := range []int64{id1, id2} {
		got, err := f.store.GetListing(id)
		require.NoError(t, err)
		assert.False(t, got.IsActive, "retirement must not depend on delivery")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
	// Run executes one cycle immediately on start.
	assert.GreaterOrEqual(t, f.metrics.SweepRunCount, 1)
}
