package moderation

import "errors"

var (
	// ErrUnauthorized is returned when a non-admin calls a moderator
	// operation.
	ErrUnauthorized = errors.New("moderation: caller is not an admin")
	// ErrInvalidRetention is returned for retention windows outside the
	// allowed set.
	ErrInvalidRetention = errors.New("moderation: unsupported retention window")
)

// AllowedRetentionDays are the expiry windows moderators can pick from.
var AllowedRetentionDays = []int{1, 2, 3, 4, 5, 7}

// RetentionAllowed reports whether days is a permitted expiry window.
func RetentionAllowed(days int) bool {
	for _, d := range AllowedRetentionDays {
		if d == days {
			return true
		}
	}
	return false
}
