package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/moderation"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/nvoss/teamseek/internal/pubsub"
)

type handler func(ctx context.Context, s *session, tok Token) Reply

// Machine owns every user's SessionState and interprets input against the
// table-driven transition map. Handling for one user is serialized on the
// session mutex; different users run concurrently.
type Machine struct {
	store        listing.Store
	gateway      moderation.Gateway
	notifier     notifier.Notifier
	events       pubsub.PubSubClient
	metrics      metrics.Metrics
	gate         MembershipChecker
	gateChannels []string

	mu       sync.Mutex
	sessions map[string]*session

	handlers map[State]map[TokenKind]handler
}

// New creates a Machine. gateChannels may be empty, which disables the
// subscription gate.
func New(store listing.Store, gateway moderation.Gateway, n notifier.Notifier, events pubsub.PubSubClient, m metrics.Metrics, gate MembershipChecker, gateChannels []string) *Machine {
	mc := &Machine{
		store:        store,
		gateway:      gateway,
		notifier:     n,
		events:       events,
		metrics:      m,
		gate:         gate,
		gateChannels: gateChannels,
		sessions:     make(map[string]*session),
	}
	mc.handlers = map[State]map[TokenKind]handler{
		StateRoot: {
			KindCategory:          mc.handleCategory,
			KindGuide:             mc.handleGuide,
			KindRemove:            mc.handleRemove,
			KindConfirmDelete:     mc.handleRemoveConfirm,
			KindCancelDelete:      mc.handleRemoveCancel,
			KindAdminList:         mc.handleAdminList,
			KindAdminSetRetention: mc.handleAdminSetRetention,
			KindAdminDeleteStart:  mc.handleAdminDeleteStart,
		},
		StateBrowsingCategory: {
			KindCategory: mc.handleCategory,
			KindTeamSize: mc.handleTeamSize,
			KindSubmit:   mc.handleSubmit,
			KindBrowse:   mc.handleBrowse,
			KindMine:     mc.handleMine,
			KindPageNext: mc.handlePage,
			KindPagePrev: mc.handlePage,
			KindEdit:     mc.handleEdit,
			KindDelete:   mc.handleDelete,
		},
		StateAwaitingSubmission: {},
		StateAwaitingAdminInput: {
			KindAdminDeleteConfirm: mc.handleAdminDeleteConfirm,
		},
		StateEditingListing: {},
	}
	return mc
}

// getSession returns the user's session, creating it at Root on first contact.
func (m *Machine) getSession(userID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &session{userID: userID, state: StateRoot}
		m.sessions[userID] = s
		m.metrics.SetActiveSessions(float64(len(m.sessions)))
	}
	return s
}

// ActiveSessions reports how many sessions are currently held.
func (m *Machine) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle drops sessions that saw no input for at least ttl and returns how
// many were removed. Dropping a session is safe: the next input recreates it
// at Root.
func (m *Machine) EvictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.metrics.SetActiveSessions(float64(len(m.sessions)))
		log.Debug("Evicted idle sessions", "count", evicted)
	}
	return evicted
}

// Start enters (or re-enters) the conversation at Root. The subscription gate
// runs first; a user missing from any gate channel is turned away.
func (m *Machine) Start(ctx context.Context, userID, displayName string) (Reply, error) {
	for _, channelID := range m.gateChannels {
		ok, err := m.gate.IsMember(ctx, channelID, userID)
		if err != nil {
			log.Error("Membership check failed", "error", err, "channel", channelID, "user", userID)
			return storeFailReply(), nil
		}
		if !ok {
			log.Info("User not subscribed", "user", userID, "channel", channelID)
			return notSubscribedReply(), nil
		}
	}

	if err := m.store.UpsertUser(userID, displayName); err != nil {
		log.Error("Failed to upsert user", "error", err, "user", userID)
		return storeFailReply(), nil
	}

	s := m.getSession(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	s.reset()
	return mainMenu(m.gateway.IsAdmin(userID)), nil
}

// Ping is the liveness command.
func (m *Machine) Ping() Reply {
	return Reply{Text: "pong"}
}

// HandleToken applies one symbolic input. Tokens outside the alphabet or
// invalid for the current state change nothing and re-render the current
// view. "home" is valid everywhere and abandons any in-progress operation.
func (m *Machine) HandleToken(ctx context.Context, userID, raw string) (Reply, error) {
	s := m.getSession(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	tok, err := ParseToken(raw)
	if err != nil {
		log.Warn("Ignoring unknown token", "token", raw, "user", userID, "state", s.state)
		return m.renderState(s), nil
	}

	if tok.Kind == KindHome {
		s.reset()
		return mainMenu(m.gateway.IsAdmin(userID)), nil
	}

	h, ok := m.handlers[s.state][tok.Kind]
	if !ok {
		// A moderator action from a non-admin is refused, not ignored,
		// even when it would also be invalid for the current state.
		if tok.Kind.requiresAdmin() && !m.gateway.IsAdmin(userID) {
			log.Warn("Unauthorized admin token", "token", raw, "user", userID)
			s.reset()
			return unauthorizedReply(), nil
		}
		log.Debug("Token invalid for state", "token", raw, "state", s.state, "user", userID)
		return m.renderState(s), nil
	}
	return h(ctx, s, tok), nil
}

// HandleText applies free-form text input. Only the three text-expecting
// states consume it; everywhere else it re-renders the current view.
func (m *Machine) HandleText(ctx context.Context, userID, text string) (Reply, error) {
	s := m.getSession(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	switch s.state {
	case StateAwaitingSubmission:
		return m.textSubmission(ctx, s, text), nil
	case StateEditingListing:
		return m.textEdit(ctx, s, text), nil
	case StateAwaitingAdminInput:
		return m.textAdminID(s, text), nil
	default:
		return m.renderState(s), nil
	}
}

// renderState re-renders the view for the session's current state without
// changing anything.
func (m *Machine) renderState(s *session) Reply {
	switch s.state {
	case StateBrowsingCategory:
		sc, ok := s.scratch.(*browseScratch)
		if !ok {
			s.reset()
			return mainMenu(m.gateway.IsAdmin(s.userID))
		}
		switch {
		case sc.admin:
			return m.adminView(sc)
		case sc.viewing:
			return m.browseView(s.userID, sc)
		case sc.sizeChosen:
			return actionMenu(sc.category, sc.teamSize)
		default:
			return sizeMenu()
		}
	case StateAwaitingSubmission:
		sc, ok := s.scratch.(*submitScratch)
		if !ok {
			s.reset()
			return mainMenu(m.gateway.IsAdmin(s.userID))
		}
		return submitPrompt(sc.category)
	case StateEditingListing:
		sc, ok := s.scratch.(*editScratch)
		if !ok {
			s.reset()
			return mainMenu(m.gateway.IsAdmin(s.userID))
		}
		return editPrompt(sc.listingID)
	case StateAwaitingAdminInput:
		return adminDeletePrompt()
	default:
		if _, pending := s.scratch.(*removeScratch); pending {
			return removeConfirmPrompt()
		}
		return mainMenu(m.gateway.IsAdmin(s.userID))
	}
}

// --- Root handlers ---

func (m *Machine) handleCategory(ctx context.Context, s *session, tok Token) Reply {
	sc := &browseScratch{category: tok.Category}
	if tok.Category == listing.CategoryClan {
		// Clans carry no team size, skip straight to the action menu.
		sc.sizeChosen = true
	}
	s.state = StateBrowsingCategory
	s.scratch = sc
	if sc.sizeChosen {
		return actionMenu(sc.category, sc.teamSize)
	}
	return sizeMenu()
}

func (m *Machine) handleGuide(ctx context.Context, s *session, tok Token) Reply {
	return guideReply()
}

func (m *Machine) handleRemove(ctx context.Context, s *session, tok Token) Reply {
	has, err := m.store.HasActiveByOwner(s.userID)
	if err != nil {
		log.Error("Failed to check owner listings", "error", err, "user", s.userID)
		return storeFailReply()
	}
	if !has {
		return Reply{
			Text:    "You have no active listings to remove.",
			Options: mainMenu(m.gateway.IsAdmin(s.userID)).Options,
		}
	}
	s.scratch = &removeScratch{}
	return removeConfirmPrompt()
}

func (m *Machine) handleRemoveConfirm(ctx context.Context, s *session, tok Token) Reply {
	if _, pending := s.scratch.(*removeScratch); !pending {
		return m.renderState(s)
	}
	retired, err := m.store.SoftDeleteAllByOwner(s.userID)
	if err != nil {
		log.Error("Failed to remove owner listings", "error", err, "user", s.userID)
		s.scratch = nil
		return storeFailReply()
	}
	for _, l := range retired {
		m.metrics.IncListingsDeleted()
		event := pubsub.NewListingEvent(l.ID, l.OwnerID, string(l.Category), s.userID)
		if err := m.events.SendMessage(pubsub.EventListingDeleted, event); err != nil {
			log.Error("Failed to publish deletion event", "error", err, "listing_id", l.ID)
		}
	}
	if len(retired) > 0 {
		auditText := fmt.Sprintf("%s removed all %d of their listings.", s.userID, len(retired))
		if err := m.notifier.NotifyAudit(ctx, auditText); err != nil {
			log.Error("Failed to post removal audit note", "error", err)
		}
	}
	s.reset()
	return Reply{
		Text:    fmt.Sprintf("Done. %d listing(s) removed from search.", len(retired)),
		Options: mainMenu(m.gateway.IsAdmin(s.userID)).Options,
	}
}

func (m *Machine) handleRemoveCancel(ctx context.Context, s *session, tok Token) Reply {
	s.reset()
	return mainMenu(m.gateway.IsAdmin(s.userID))
}

func (m *Machine) handleAdminList(ctx context.Context, s *session, tok Token) Reply {
	if !m.gateway.IsAdmin(s.userID) {
		s.reset()
		return unauthorizedReply()
	}
	sc := &browseScratch{admin: true, viewing: true}
	s.state = StateBrowsingCategory
	s.scratch = sc
	return m.adminView(sc)
}

func (m *Machine) handleAdminSetRetention(ctx context.Context, s *session, tok Token) Reply {
	err := m.gateway.ChangeRetention(ctx, s.userID, tok.Days)
	switch {
	case errors.Is(err, moderation.ErrUnauthorized):
		s.reset()
		return unauthorizedReply()
	case errors.Is(err, moderation.ErrInvalidRetention):
		return Reply{
			Text:    fmt.Sprintf("Retention must be one of %s days.", joinInts(moderation.AllowedRetentionDays)),
			Options: mainMenu(true).Options,
		}
	case err != nil:
		log.Error("Failed to change retention", "error", err, "user", s.userID)
		return storeFailReply()
	}
	return Reply{
		Text:    fmt.Sprintf("Retention window set to %d day(s).", tok.Days),
		Options: mainMenu(true).Options,
	}
}

func (m *Machine) handleAdminDeleteStart(ctx context.Context, s *session, tok Token) Reply {
	if !m.gateway.IsAdmin(s.userID) {
		s.reset()
		return unauthorizedReply()
	}
	s.state = StateAwaitingAdminInput
	s.scratch = &adminDeleteScratch{}
	return adminDeletePrompt()
}

// --- BrowsingCategory handlers ---

func (m *Machine) handleTeamSize(ctx context.Context, s *session, tok Token) Reply {
	sc, ok := s.scratch.(*browseScratch)
	if !ok || sc.category != listing.CategoryTeammate || sc.sizeChosen {
		return m.renderState(s)
	}
	sc.teamSize = tok.TeamSize
	sc.sizeChosen = true
	return actionMenu(sc.category, sc.teamSize)
}

func (m *Machine) handleSubmit(ctx context.Context, s *session, tok Token) Reply {
	sc, ok := s.scratch.(*browseScratch)
	if !ok || !sc.sizeChosen || sc.admin {
		return m.renderState(s)
	}
	s.state = StateAwaitingSubmission
	s.scratch = &submitScratch{category: sc.category, teamSize: sc.teamSize}
	return submitPrompt(sc.category)
}

func (m *Machine) handleBrowse(ctx context.Context, s *session, tok Token) Reply {
	sc, ok := s.scratch.(*browseScratch)
	if !ok || !sc.sizeChosen || sc.admin {
		return m.renderState(s)
	}
	sc.viewing = true
	sc.mineOnly = false
	sc.page = 0
	return m.browseView(s.userID, sc)
}

func (m *Machine) handleMine(ctx context.Context, s *session, tok Token) Reply {
	sc, ok := s.scratch.(*browseScratch)
	if !ok || !sc.sizeChosen || sc.admin {
		return m.renderState(s)
	}
	sc.viewing = true
	sc.mineOnly = true
	sc.page = 0
	return m.browseView(s.userID, sc)
}

func (m *Machine) handlePage(ctx context.Context, s *session, tok Token) Reply {
	sc, ok := s.scratch.(*browseScratch)
	if !ok || (!sc.viewing && !sc.admin) {
		return m.renderState(s)
	}
	if tok.Kind == KindPageNext {
		sc.page++
	} else if sc.page > 0 {
		sc.page--
	}
	if sc.admin {
		return m.adminView(sc)
	}
	return m.browseView(s.userID, sc)
}

func (m *Machine) handleEdit(ctx context.Context, s *session, tok Token) Reply {
	l, err := m.store.GetListing(tok.ListingID)
	if err != nil || !l.IsActive || l.OwnerID != s.userID {
		if err != nil && !errors.Is(err, listing.ErrNotFound) {
			log.Error("Failed to load listing for edit", "error", err, "listing_id", tok.ListingID)
			return storeFailReply()
		}
		return Reply{Text: "That listing is no longer available.", Options: homeOption()}
	}
	s.state = StateEditingListing
	s.scratch = &editScratch{listingID: tok.ListingID}
	return editPrompt(tok.ListingID)
}

func (m *Machine) handleDelete(ctx context.Context, s *session, tok Token) Reply {
	l, err := m.store.GetListing(tok.ListingID)
	if err != nil || l.OwnerID != s.userID {
		if err != nil && !errors.Is(err, listing.ErrNotFound) {
			log.Error("Failed to load listing for deletion", "error", err, "listing_id", tok.ListingID)
			return storeFailReply()
		}
		return Reply{Text: "That listing is no longer available.", Options: homeOption()}
	}
	if err := m.store.SoftDeleteListing(tok.ListingID); err != nil {
		log.Error("Failed to delete listing", "error", err, "listing_id", tok.ListingID)
		return storeFailReply()
	}
	m.metrics.IncListingsDeleted()
	auditText := fmt.Sprintf("%s removed their %s listing #%d.", s.userID, l.Category, l.ID)
	if err := m.notifier.NotifyAudit(ctx, auditText); err != nil {
		log.Error("Failed to post deletion audit note", "error", err)
	}
	event := pubsub.NewListingEvent(l.ID, l.OwnerID, string(l.Category), s.userID)
	if err := m.events.SendMessage(pubsub.EventListingDeleted, event); err != nil {
		log.Error("Failed to publish deletion event", "error", err, "listing_id", l.ID)
	}
	s.reset()
	return Reply{
		Text:    fmt.Sprintf("Listing #%d removed.", tok.ListingID),
		Options: mainMenu(m.gateway.IsAdmin(s.userID)).Options,
	}
}

// --- AwaitingAdminInput handlers ---

func (m *Machine) handleAdminDeleteConfirm(ctx context.Context, s *session, tok Token) Reply {
	sc, ok := s.scratch.(*adminDeleteScratch)
	if !ok || sc.pendingID == 0 {
		return adminDeletePrompt()
	}
	err := m.gateway.DeleteListing(ctx, s.userID, sc.pendingID)
	switch {
	case errors.Is(err, moderation.ErrUnauthorized):
		s.reset()
		return unauthorizedReply()
	case errors.Is(err, listing.ErrNotFound):
		s.state = StateBrowsingCategory
		s.scratch = &browseScratch{admin: true, viewing: true}
		return Reply{
			Text:    fmt.Sprintf("No listing with id %d.", sc.pendingID),
			Options: m.adminView(s.scratch.(*browseScratch)).Options,
		}
	case err != nil:
		log.Error("Failed to remove listing", "error", err, "listing_id", sc.pendingID)
		return storeFailReply()
	}
	removedID := sc.pendingID
	adminSc := &browseScratch{admin: true, viewing: true}
	s.state = StateBrowsingCategory
	s.scratch = adminSc
	view := m.adminView(adminSc)
	view.Text = fmt.Sprintf("Listing #%d removed.\n\n%s", removedID, view.Text)
	return view
}

// --- Text input ---

func (m *Machine) textSubmission(ctx context.Context, s *session, text string) Reply {
	sc, ok := s.scratch.(*submitScratch)
	if !ok {
		s.reset()
		return mainMenu(m.gateway.IsAdmin(s.userID))
	}
	attrs, err := listing.ParseAttributes(text)
	if err != nil {
		return formatErrorReply(sc.category)
	}
	id, err := m.store.CreateListing(s.userID, sc.category, sc.teamSize, attrs)
	if err != nil {
		if errors.Is(err, listing.ErrInvalidAttributes) {
			return formatErrorReply(sc.category)
		}
		log.Error("Failed to create listing", "error", err, "user", s.userID)
		return storeFailReply()
	}
	m.metrics.IncListingsCreated()

	days, err := m.store.GetRetentionDays()
	if err != nil {
		log.Error("Failed to read retention for confirmation", "error", err)
		days = 0
	}
	auditText := fmt.Sprintf("New %s listing #%d by %s.", sc.category, id, s.userID)
	if err := m.notifier.NotifyAudit(ctx, auditText); err != nil {
		log.Error("Failed to post creation audit note", "error", err)
	}
	event := pubsub.NewListingEvent(id, s.userID, string(sc.category), s.userID)
	if err := m.events.SendMessage(pubsub.EventListingCreated, event); err != nil {
		log.Error("Failed to publish creation event", "error", err, "listing_id", id)
	}

	s.reset()
	text = fmt.Sprintf("Listing #%d published.", id)
	if days > 0 {
		text = fmt.Sprintf("Listing #%d published. It stays in search for %d day(s).", id, days)
	}
	return Reply{Text: text, Options: mainMenu(m.gateway.IsAdmin(s.userID)).Options}
}

func (m *Machine) textEdit(ctx context.Context, s *session, text string) Reply {
	sc, ok := s.scratch.(*editScratch)
	if !ok {
		s.reset()
		return mainMenu(m.gateway.IsAdmin(s.userID))
	}
	attrs, err := listing.ParseAttributes(text)
	if err != nil {
		return Reply{
			Text:    fmt.Sprintf("Send exactly %d non-empty lines.", listing.AttributeCount),
			Options: homeOption(),
		}
	}
	if err := m.store.UpdateListing(sc.listingID, attrs); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			s.reset()
			return Reply{
				Text:    "That listing is no longer available.",
				Options: mainMenu(m.gateway.IsAdmin(s.userID)).Options,
			}
		}
		log.Error("Failed to update listing", "error", err, "listing_id", sc.listingID)
		return storeFailReply()
	}
	m.metrics.IncListingsUpdated()

	auditText := fmt.Sprintf("Listing #%d edited by %s.", sc.listingID, s.userID)
	if err := m.notifier.NotifyAudit(ctx, auditText); err != nil {
		log.Error("Failed to post edit audit note", "error", err)
	}
	event := pubsub.NewListingEvent(sc.listingID, s.userID, "", s.userID)
	if err := m.events.SendMessage(pubsub.EventListingUpdated, event); err != nil {
		log.Error("Failed to publish edit event", "error", err, "listing_id", sc.listingID)
	}

	updatedID := sc.listingID
	s.reset()
	return Reply{
		Text:    fmt.Sprintf("Listing #%d updated.", updatedID),
		Options: mainMenu(m.gateway.IsAdmin(s.userID)).Options,
	}
}

func (m *Machine) textAdminID(s *session, text string) Reply {
	sc, ok := s.scratch.(*adminDeleteScratch)
	if !ok {
		s.reset()
		return mainMenu(m.gateway.IsAdmin(s.userID))
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return Reply{
			Text:    "Send a numeric listing id.",
			Options: homeOption(),
		}
	}
	sc.pendingID = id
	return Reply{
		Text: fmt.Sprintf("Remove listing #%d?", id),
		Options: []Option{
			{Label: "Yes, remove it", Token: Token{Kind: KindAdminDeleteConfirm}.String()},
			{Label: "Cancel", Token: Token{Kind: KindHome}.String()},
		},
	}
}

// --- data-backed views ---

// browseView renders one page of active listings (or the caller's own), with
// the page clamped by the pagination helper.
func (m *Machine) browseView(userID string, sc *browseScratch) Reply {
	var (
		items []listing.Listing
		err   error
	)
	if sc.mineOnly {
		items, err = m.store.ListByOwner(userID, sc.category, sc.teamSize)
	} else {
		items, err = m.store.ListActive(sc.category, sc.teamSize)
	}
	if err != nil {
		log.Error("Failed to list listings", "error", err, "category", sc.category)
		return storeFailReply()
	}

	pageItems, page, totalPages := listing.Paginate(items, sc.page, listing.BrowsePageSize)
	sc.page = page
	return browsePage(pageItems, page, totalPages, sc.mineOnly)
}

// adminView renders one page of the moderator global view, inactive rows
// included.
func (m *Machine) adminView(sc *browseScratch) Reply {
	items, page, totalPages, err := m.gateway.ListAll(sc.page)
	if err != nil {
		log.Error("Failed to list all listings", "error", err)
		return storeFailReply()
	}
	sc.page = page
	return adminPage(items, page, totalPages)
}
