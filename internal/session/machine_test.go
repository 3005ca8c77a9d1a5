package session_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nvoss/teamseek/internal/database"
	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/moderation"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/nvoss/teamseek/internal/pubsub"
	"github.com/nvoss/teamseek/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const submission = "20\n5000\nBuilder\n4h/day\ndisc#123"

type machineFixture struct {
	machine *session.Machine
	store   listing.Store
	notif   *notifier.Mock
	events  *pubsub.MockPubSubClient
	metrics *metrics.Mock
}

// newMachine wires a Machine over a real in-memory store so scenarios cover
// the full path from token to row.
func newMachine(t *testing.T, gateChannels []string, admins ...string) *machineFixture {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)

	f := &machineFixture{
		store:   listing.New(db),
		notif:   notifier.NewMock(),
		events:  pubsub.NewMock(""),
		metrics: metrics.NewMock(),
	}
	gateway := moderation.New(f.store, f.notif, f.events, f.metrics, admins)
	f.machine = session.New(f.store, gateway, f.notif, f.events, f.metrics, f.notif, gateChannels)
	return f
}

// walk feeds a sequence of tokens and returns the last reply.
func walk(t *testing.T, m *session.Machine, userID string, tokens ...string) session.Reply {
	t.Helper()
	var reply session.Reply
	var err error
	for _, tok := range tokens {
		reply, err = m.HandleToken(context.Background(), userID, tok)
		require.NoError(t, err)
	}
	return reply
}

func optionTokens(r session.Reply) []string {
	tokens := make([]string, len(r.Options))
	for i, o := range r.Options {
		tokens[i] = o.Token
	}
	return tokens
}

func TestStart(t *testing.T) {
	t.Run("gated user is turned away", func(t *testing.T) {
		f := newMachine(t, []string{"C-GATE"})
		f.notif.IsMemberFunc = func(ctx context.Context, channelID, userID string) (bool, error) {
			return false, nil
		}

		reply, err := f.machine.Start(context.Background(), "U100", "vasya")
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "join")
		assert.Empty(t, reply.Options)
	})

	t.Run("member enters at the main menu", func(t *testing.T) {
		f := newMachine(t, []string{"C-GATE"})

		reply, err := f.machine.Start(context.Background(), "U100", "vasya")
		require.NoError(t, err)
		assert.Contains(t, optionTokens(reply), "teammate")
		assert.Contains(t, optionTokens(reply), "clan")
		assert.NotContains(t, optionTokens(reply), "admin:list", "regular users see no admin entries")
	})

	t.Run("admin sees the moderation entries", func(t *testing.T) {
		f := newMachine(t, nil, "U-ADMIN")

		reply, err := f.machine.Start(context.Background(), "U-ADMIN", "mod")
		require.NoError(t, err)
		assert.Contains(t, optionTokens(reply), "admin:list")
		assert.Contains(t, optionTokens(reply), "admin:delete-start")
	})
}

func TestPing(t *testing.T) {
	f := newMachine(t, nil)
	assert.Equal(t, "pong", f.machine.Ping().Text)
}

func TestSubmissionFlow(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U100", "teammate")
	assert.Contains(t, optionTokens(reply), "duo")

	reply = walk(t, f.machine, "U100", "duo", "submit")
	assert.Contains(t, reply.Text, "5 lines")

	reply, err = f.machine.HandleText(context.Background(), "U100", submission)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "published")
	assert.Contains(t, reply.Text, "3 day(s)", "confirmation names the retention window")

	active, err := f.store.ListActive(listing.CategoryTeammate, listing.SizeDuo)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, []string{"20", "5000", "Builder", "4h/day", "disc#123"}, active[0].Attributes)

	assert.Equal(t, 1, f.metrics.CreatedCount)
	require.Len(t, f.notif.AuditCalls, 1)
	assert.Contains(t, f.notif.AuditCalls[0], "U100")
	require.Len(t, f.events.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventListingCreated), f.events.SendMessageCalls[0].Topic)
}

func TestSubmission_BadShapeKeepsState(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)
	walk(t, f.machine, "U100", "teammate", "duo", "submit")

	reply, err := f.machine.HandleText(context.Background(), "U100", "only one line")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "exactly 5")

	// The state survived the rejection: a valid submission still lands.
	reply, err = f.machine.HandleText(context.Background(), "U100", submission)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "published")
}

func TestHomeAbandonsSubmission(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)
	walk(t, f.machine, "U100", "teammate", "duo", "submit", "home")

	// Text at Root is not a submission, nothing is persisted.
	_, err = f.machine.HandleText(context.Background(), "U100", submission)
	require.NoError(t, err)

	active, err := f.store.ListActive(listing.CategoryTeammate, listing.SizeDuo)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestNonAdminTokenRoutesToRoot(t *testing.T) {
	f := newMachine(t, nil, "U-ADMIN")
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U100", "admin:list")
	assert.Contains(t, reply.Text, "not authorized")

	// The session is back at Root: picking a category opens the size menu.
	reply = walk(t, f.machine, "U100", "teammate")
	assert.Contains(t, optionTokens(reply), "duo")

	reply = walk(t, f.machine, "U100", "home", "admin:set-retention:5")
	assert.Contains(t, reply.Text, "not authorized")
	days, err := f.store.GetRetentionDays()
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	// Even an admin token with no handler at Root is refused, not ignored.
	reply = walk(t, f.machine, "U100", "home", "admin:delete-confirm")
	assert.Contains(t, reply.Text, "not authorized")
	reply = walk(t, f.machine, "U100", "teammate")
	assert.Contains(t, optionTokens(reply), "duo")
}

func TestInvalidTokenForStateIsIgnored(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	// "submit" without a chosen category re-renders the main menu.
	reply := walk(t, f.machine, "U100", "submit")
	assert.Contains(t, optionTokens(reply), "teammate")

	// Unknown tokens fare the same.
	reply = walk(t, f.machine, "U100", "definitely-not-a-token")
	assert.Contains(t, optionTokens(reply), "teammate")
}

func TestBrowsePagination(t *testing.T) {
	f := newMachine(t, nil)
	require.NoError(t, f.store.UpsertUser("U200", "petya"))
	for i := 0; i < 7; i++ {
		_, err := f.store.CreateListing("U200", listing.CategoryTeammate, listing.SizeDuo, []string{"20", "5000", "Builder", "4h/day", "disc#123"})
		require.NoError(t, err)
	}

	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U100", "teammate", "duo", "browse")
	assert.Contains(t, reply.Text, "Page 1 of 2")
	assert.Contains(t, optionTokens(reply), "page:next")
	assert.NotContains(t, optionTokens(reply), "page:prev")

	reply = walk(t, f.machine, "U100", "page:next")
	assert.Contains(t, reply.Text, "Page 2 of 2")
	assert.Contains(t, optionTokens(reply), "page:prev")

	// Past the end clamps to the last page.
	reply = walk(t, f.machine, "U100", "page:next")
	assert.Contains(t, reply.Text, "Page 2 of 2")
}

func TestBrowse_Empty(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U100", "clan", "browse")
	assert.Contains(t, reply.Text, "No listings")
}

func TestEditFlow(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)
	walk(t, f.machine, "U100", "teammate", "duo", "submit")
	_, err = f.machine.HandleText(context.Background(), "U100", submission)
	require.NoError(t, err)

	mine, err := f.store.ListByOwner("U100", listing.CategoryTeammate, listing.SizeDuo)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	id := mine[0].ID

	reply := walk(t, f.machine, "U100", "teammate", "duo", "mine")
	assert.Contains(t, strings.Join(optionTokens(reply), " "), "edit:")

	reply = walk(t, f.machine, "U100", "edit:"+itoa(id))
	assert.Contains(t, reply.Text, "new text")

	reply, err = f.machine.HandleText(context.Background(), "U100", "21\n6000\nFarmer\n6h/day\ndisc#456")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "updated")

	got, err := f.store.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"21", "6000", "Farmer", "6h/day", "disc#456"}, got.Attributes)
	assert.Equal(t, 1, f.metrics.UpdatedCount)
}

func TestEdit_ForeignListingRejected(t *testing.T) {
	f := newMachine(t, nil)
	require.NoError(t, f.store.UpsertUser("U200", "petya"))
	id, err := f.store.CreateListing("U200", listing.CategoryTeammate, listing.SizeDuo, []string{"20", "5000", "Builder", "4h/day", "disc#123"})
	require.NoError(t, err)

	_, err = f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U100", "teammate", "duo", "edit:"+itoa(id))
	assert.Contains(t, reply.Text, "no longer available")

	got, err := f.store.GetListing(id)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestSelfDeleteFlow(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)
	walk(t, f.machine, "U100", "teammate", "duo", "submit")
	_, err = f.machine.HandleText(context.Background(), "U100", submission)
	require.NoError(t, err)

	mine, err := f.store.ListByOwner("U100", listing.CategoryTeammate, listing.SizeDuo)
	require.NoError(t, err)
	id := mine[0].ID

	reply := walk(t, f.machine, "U100", "teammate", "duo", "mine", "delete:"+itoa(id))
	assert.Contains(t, reply.Text, "removed")
	// Back at Root afterwards.
	assert.Contains(t, optionTokens(reply), "teammate")

	got, err := f.store.GetListing(id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 1, f.metrics.DeletedCount)
}

func TestRemoveFromSearch(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	t.Run("confirm without a pending removal is ignored", func(t *testing.T) {
		reply := walk(t, f.machine, "U100", "confirm-delete")
		assert.Contains(t, optionTokens(reply), "teammate")
	})

	t.Run("nothing to remove", func(t *testing.T) {
		reply := walk(t, f.machine, "U100", "remove")
		assert.Contains(t, reply.Text, "no active listings")
	})

	t.Run("remove all own listings", func(t *testing.T) {
		walk(t, f.machine, "U100", "teammate", "duo", "submit")
		_, err := f.machine.HandleText(context.Background(), "U100", submission)
		require.NoError(t, err)

		reply := walk(t, f.machine, "U100", "remove")
		assert.Contains(t, optionTokens(reply), "confirm-delete")

		reply = walk(t, f.machine, "U100", "confirm-delete")
		assert.Contains(t, reply.Text, "1 listing(s) removed")

		has, err := f.store.HasActiveByOwner("U100")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("cancel keeps listings", func(t *testing.T) {
		walk(t, f.machine, "U100", "teammate", "duo", "submit")
		_, err := f.machine.HandleText(context.Background(), "U100", submission)
		require.NoError(t, err)

		walk(t, f.machine, "U100", "remove", "cancel-delete")
		has, err := f.store.HasActiveByOwner("U100")
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestAdminDeleteFlow(t *testing.T) {
	f := newMachine(t, nil, "U-ADMIN")
	require.NoError(t, f.store.UpsertUser("U100", "vasya"))
	id, err := f.store.CreateListing("U100", listing.CategoryTeammate, listing.SizeDuo, []string{"20", "5000", "Builder", "4h/day", "disc#123"})
	require.NoError(t, err)

	_, err = f.machine.Start(context.Background(), "U-ADMIN", "mod")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U-ADMIN", "admin:delete-start")
	assert.Contains(t, reply.Text, "id of the listing")

	// Non-numeric input is rejected in place.
	reply, err = f.machine.HandleText(context.Background(), "U-ADMIN", "not a number")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "numeric")

	reply, err = f.machine.HandleText(context.Background(), "U-ADMIN", itoa(id))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Remove listing #"+itoa(id))
	assert.Contains(t, optionTokens(reply), "admin:delete-confirm")

	reply = walk(t, f.machine, "U-ADMIN", "admin:delete-confirm")
	assert.Contains(t, reply.Text, "removed")

	got, err := f.store.GetListing(id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Owner and audit channel both heard about it.
	require.Len(t, f.notif.NotifyCalls, 1)
	assert.Equal(t, "U100", f.notif.NotifyCalls[0].RecipientID)
	assert.NotEmpty(t, f.notif.AuditCalls)
}

func TestAdminDelete_MissingListing(t *testing.T) {
	f := newMachine(t, nil, "U-ADMIN")
	_, err := f.machine.Start(context.Background(), "U-ADMIN", "mod")
	require.NoError(t, err)

	walk(t, f.machine, "U-ADMIN", "admin:delete-start")
	_, err = f.machine.HandleText(context.Background(), "U-ADMIN", "9999")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U-ADMIN", "admin:delete-confirm")
	assert.Contains(t, reply.Text, "No listing with id 9999")
}

func TestAdminGlobalView(t *testing.T) {
	f := newMachine(t, nil, "U-ADMIN")
	require.NoError(t, f.store.UpsertUser("U100", "vasya"))
	activeID, err := f.store.CreateListing("U100", listing.CategoryTeammate, listing.SizeDuo, []string{"20", "5000", "Builder", "4h/day", "disc#123"})
	require.NoError(t, err)
	inactiveID, err := f.store.CreateListing("U100", listing.CategoryClan, "", []string{"Clan", "Lead", "Need", "10", "disc"})
	require.NoError(t, err)
	require.NoError(t, f.store.SoftDeleteListing(inactiveID))

	_, err = f.machine.Start(context.Background(), "U-ADMIN", "mod")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U-ADMIN", "admin:list")
	assert.Contains(t, reply.Text, "#"+itoa(activeID))
	assert.Contains(t, reply.Text, "#"+itoa(inactiveID))
	assert.Contains(t, reply.Text, "[inactive]", "the global view flags retired rows")
	assert.Contains(t, optionTokens(reply), "admin:set-retention:7")
}

func TestAdminSetRetention(t *testing.T) {
	f := newMachine(t, nil, "U-ADMIN")
	_, err := f.machine.Start(context.Background(), "U-ADMIN", "mod")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U-ADMIN", "admin:set-retention:7")
	assert.Contains(t, reply.Text, "7 day(s)")

	days, err := f.store.GetRetentionDays()
	require.NoError(t, err)
	assert.Equal(t, 7, days)

	reply = walk(t, f.machine, "U-ADMIN", "admin:set-retention:6")
	assert.Contains(t, reply.Text, "must be one of")
}

func TestGuide(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)

	reply := walk(t, f.machine, "U100", "guide")
	assert.Contains(t, reply.Text, "How it works")
}

func TestEvictIdle(t *testing.T) {
	f := newMachine(t, nil)
	_, err := f.machine.Start(context.Background(), "U100", "vasya")
	require.NoError(t, err)
	assert.Equal(t, 1, f.machine.ActiveSessions())

	assert.Equal(t, 0, f.machine.EvictIdle(time.Hour), "fresh sessions survive")

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, f.machine.EvictIdle(time.Millisecond))
	assert.Equal(t, 0, f.machine.ActiveSessions())

	// The next input recreates the session at Root.
	reply := walk(t, f.machine, "U100", "teammate")
	assert.Contains(t, optionTokens(reply), "duo")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
