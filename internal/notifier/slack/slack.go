package slack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	GetUsersInConversationContext(ctx context.Context, params *slack.GetUsersInConversationParameters) ([]string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier delivers messages through the Slack Web API.
type Notifier struct {
	api            slackClient
	auditChannelID string
	metrics        metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, auditChannelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:            api,
		auditChannelID: auditChannelID,
		metrics:        metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, auditChannelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:            api,
		auditChannelID: auditChannelID,
		metrics:        metrics,
	}
}

// Notify sends a direct message to a user. Slack delivers DMs when the user
// ID is used as the channel.
func (s *Notifier) Notify(ctx context.Context, recipientID, text string) error {
	return s.post(ctx, recipientID, text)
}

// NotifyAudit posts a message to the audit channel.
func (s *Notifier) NotifyAudit(ctx context.Context, text string) error {
	return s.post(ctx, s.auditChannelID, text)
}

func (s *Notifier) post(ctx context.Context, channelID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, timestamp, err := s.api.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Debug("Sent Slack message", "channel", channelID, "timestamp", timestamp)
	return nil
}

// Edit rewrites a previously sent message. A target that no longer exists is
// a normal outcome, reported as EditTargetGone rather than an error.
func (s *Notifier) Edit(ctx context.Context, channelID, timestamp, text string) (notifier.EditResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, _, _, err := s.api.UpdateMessageContext(
		ctx,
		channelID,
		timestamp,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		if isGone(err) {
			log.Debug("Edit target is gone", "channel", channelID, "timestamp", timestamp)
			return notifier.EditTargetGone, nil
		}
		s.metrics.IncNotifFailed()
		log.Error("Failed to edit Slack message", "error", err, "channel", channelID, "timestamp", timestamp)
		return notifier.EditApplied, fmt.Errorf("failed to update message: %w", err)
	}

	return notifier.EditApplied, nil
}

// isGone recognises the Slack API errors that mean the message cannot be
// edited anymore because it was deleted or the edit window closed.
func isGone(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "message_not_found") ||
		strings.Contains(msg, "cant_update_message") ||
		strings.Contains(msg, "edit_window_closed")
}

// IsMember reports whether the user belongs to the given channel.
func (s *Notifier) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	params := &slack.GetUsersInConversationParameters{
		ChannelID: channelID,
		Limit:     200,
	}
	for {
		members, cursor, err := s.api.GetUsersInConversationContext(ctx, params)
		if err != nil {
			return false, fmt.Errorf("failed to list channel members: %w", err)
		}
		for _, m := range members {
			if m == userID {
				return true, nil
			}
		}
		if cursor == "" {
			return false, nil
		}
		params.Cursor = cursor
	}
}
