package notifier

import "context"

// EditResult reports what happened when a previously sent message was
// rewritten in place.
type EditResult int

const (
	// EditApplied means the message now carries the new text.
	EditApplied EditResult = iota
	// EditUnchanged means the message already carried the new text and no
	// call was made.
	EditUnchanged
	// EditTargetGone means the original message no longer exists.
	EditTargetGone
)

func (r EditResult) String() string {
	switch r {
	case EditApplied:
		return "applied"
	case EditUnchanged:
		return "unchanged"
	case EditTargetGone:
		return "target_gone"
	}
	return "unknown"
}

// Notifier defines a high-level interface for delivering messages to users.
// This decouples the rest of the application from the specific provider (e.g., Slack).
type Notifier interface {
	// Notify sends a direct message to a single user.
	Notify(ctx context.Context, recipientID, text string) error
	// NotifyAudit posts a message to the audit channel.
	NotifyAudit(ctx context.Context, text string) error
	// Edit rewrites a previously sent message in place. A deleted or
	// otherwise unreachable target is reported through the EditResult,
	// not as an error.
	Edit(ctx context.Context, channelID, timestamp, text string) (EditResult, error)
	// IsMember reports whether the user belongs to the given channel.
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
}
