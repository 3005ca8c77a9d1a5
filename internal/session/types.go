package session

import (
	"context"
	"sync"
	"time"

	"github.com/nvoss/teamseek/internal/listing"
)

// State is the position of a user in the conversation.
type State int

const (
	StateRoot State = iota
	StateBrowsingCategory
	StateAwaitingSubmission
	StateAwaitingAdminInput
	StateEditingListing
)

func (s State) String() string {
	switch s {
	case StateRoot:
		return "root"
	case StateBrowsingCategory:
		return "browsing_category"
	case StateAwaitingSubmission:
		return "awaiting_submission"
	case StateAwaitingAdminInput:
		return "awaiting_admin_input"
	case StateEditingListing:
		return "editing_listing"
	}
	return "unknown"
}

// Option is one selectable menu entry. Token carries the wire form fed back
// into ParseToken.
type Option struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Reply is the render instruction handed to the transport.
type Reply struct {
	Text    string   `json:"text"`
	Options []Option `json:"options,omitempty"`
}

// MembershipChecker is the subscription gate consulted before a session may
// enter the main flow.
type MembershipChecker interface {
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
}

// scratch is the per-state transient record. Each state that needs one has
// its own type carrying only the fields relevant to that state.
type scratch interface {
	isScratch()
}

// browseScratch backs StateBrowsingCategory, both the category/size pick and
// the paginated result views.
type browseScratch struct {
	category   listing.Category
	teamSize   listing.TeamSize
	sizeChosen bool
	// viewing distinguishes the action menu from an open result page.
	viewing  bool
	mineOnly bool
	page     int
	// admin flags the moderator global view, which ignores the category
	// fields entirely.
	admin bool
}

func (*browseScratch) isScratch() {}

// submitScratch backs StateAwaitingSubmission.
type submitScratch struct {
	category listing.Category
	teamSize listing.TeamSize
}

func (*submitScratch) isScratch() {}

// editScratch backs StateEditingListing.
type editScratch struct {
	listingID int64
}

func (*editScratch) isScratch() {}

// adminDeleteScratch backs StateAwaitingAdminInput. pendingID is zero until
// the moderator has typed a valid listing id.
type adminDeleteScratch struct {
	pendingID int64
}

func (*adminDeleteScratch) isScratch() {}

// removeScratch marks a pending "remove me from search" confirmation while
// the session stays at Root.
type removeScratch struct{}

func (*removeScratch) isScratch() {}

// session holds one user's conversation context. The mutex serializes input
// handling so a user never has two overlapping transitions.
type session struct {
	mu       sync.Mutex
	userID   string
	state    State
	scratch  scratch
	lastSeen time.Time
}

func (s *session) reset() {
	s.state = StateRoot
	s.scratch = nil
}
