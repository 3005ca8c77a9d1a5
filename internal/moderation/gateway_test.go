package moderation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/moderation"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/nvoss/teamseek/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *listing.MockStore
	notif   *notifier.Mock
	events  *pubsub.MockPubSubClient
	metrics *metrics.Mock
	gateway moderation.Gateway
}

func setup(admins ...string) *fixture {
	f := &fixture{
		store:   listing.NewMock(),
		notif:   notifier.NewMock(),
		events:  pubsub.NewMock(""),
		metrics: metrics.NewMock(),
	}
	f.gateway = moderation.New(f.store, f.notif, f.events, f.metrics, admins)
	return f
}

func TestIsAdmin(t *testing.T) {
	f := setup("U-ADMIN")
	assert.True(t, f.gateway.IsAdmin("U-ADMIN"))
	assert.False(t, f.gateway.IsAdmin("U100"))
}

func TestDeleteListing(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		f := setup("U-ADMIN")
		err := f.gateway.DeleteListing(context.Background(), "U100", 42)
		assert.ErrorIs(t, err, moderation.ErrUnauthorized)
		assert.Empty(t, f.store.SoftDeleteCalls)
	})

	t.Run("missing listing", func(t *testing.T) {
		f := setup("U-ADMIN")
		err := f.gateway.DeleteListing(context.Background(), "U-ADMIN", 42)
		assert.ErrorIs(t, err, listing.ErrNotFound)
	})

	t.Run("success notifies owner and audit channel", func(t *testing.T) {
		f := setup("U-ADMIN")
		f.store.GetListingFunc = func(id int64) (*listing.Listing, error) {
			return &listing.Listing{ID: id, OwnerID: "U100", Category: listing.CategoryTeammate, IsActive: true}, nil
		}

		err := f.gateway.DeleteListing(context.Background(), "U-ADMIN", 42)
		require.NoError(t, err)

		assert.Equal(t, []int64{42}, f.store.SoftDeleteCalls)
		assert.Equal(t, 1, f.metrics.DeletedCount)

		require.Len(t, f.notif.NotifyCalls, 1)
		assert.Equal(t, "U100", f.notif.NotifyCalls[0].RecipientID)
		assert.Contains(t, f.notif.NotifyCalls[0].Text, "#42")

		require.Len(t, f.notif.AuditCalls, 1)
		assert.Contains(t, f.notif.AuditCalls[0], "U-ADMIN")

		require.Len(t, f.events.SendMessageCalls, 1)
		assert.Equal(t, string(pubsub.EventListingDeleted), f.events.SendMessageCalls[0].Topic)
	})

	t.Run("notification failure does not fail the deletion", func(t *testing.T) {
		f := setup("U-ADMIN")
		f.store.GetListingFunc = func(id int64) (*listing.Listing, error) {
			return &listing.Listing{ID: id, OwnerID: "U100", Category: listing.CategoryClan, IsActive: true}, nil
		}
		f.notif.NotifyFunc = func(ctx context.Context, recipientID, text string) error {
			return errors.New("slack is down")
		}

		err := f.gateway.DeleteListing(context.Background(), "U-ADMIN", 42)
		require.NoError(t, err)
		assert.Equal(t, []int64{42}, f.store.SoftDeleteCalls)
	})
}

func TestChangeRetention(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		f := setup("U-ADMIN")
		err := f.gateway.ChangeRetention(context.Background(), "U100", 3)
		assert.ErrorIs(t, err, moderation.ErrUnauthorized)
	})

	t.Run("window outside the allowed set", func(t *testing.T) {
		f := setup("U-ADMIN")
		err := f.gateway.ChangeRetention(context.Background(), "U-ADMIN", 6)
		assert.ErrorIs(t, err, moderation.ErrInvalidRetention)
		assert.Empty(t, f.store.SetRetentionCalls)
	})

	t.Run("success", func(t *testing.T) {
		f := setup("U-ADMIN")
		err := f.gateway.ChangeRetention(context.Background(), "U-ADMIN", 7)
		require.NoError(t, err)

		assert.Equal(t, []int{7}, f.store.SetRetentionCalls)
		require.Len(t, f.notif.AuditCalls, 1)
		assert.Contains(t, f.notif.AuditCalls[0], "7 days")

		require.Len(t, f.events.SendMessageCalls, 1)
		assert.Equal(t, string(pubsub.EventRetentionChanged), f.events.SendMessageCalls[0].Topic)
	})
}

func TestListAll(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		f := setup()
		items, page, total, err := f.gateway.ListAll(3)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, 0, page)
		assert.Equal(t, 0, total)
	})

	t.Run("past-the-end page clamps to the last one", func(t *testing.T) {
		f := setup()
		f.store.CountListingsFunc = func() (int, error) { return 23, nil }

		var gotLimit, gotOffset int
		f.store.ListAllFunc = func(limit, offset int) ([]listing.Listing, error) {
			gotLimit, gotOffset = limit, offset
			return make([]listing.Listing, 3), nil
		}

		items, page, total, err := f.gateway.ListAll(9)
		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Equal(t, 2, page)
		assert.Equal(t, 3, total)
		assert.Equal(t, listing.AdminPageSize, gotLimit)
		assert.Equal(t, 20, gotOffset)
	})
}
