package listing

import (
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"
)

// Category is the kind of recruitment post.
type Category string

const (
	CategoryTeammate Category = "teammate"
	CategoryClan     Category = "clan"
)

// TeamSize is the target team size of a teammate listing.
// It is empty for clan listings.
type TeamSize string

const (
	SizeDuo      TeamSize = "duo"
	SizeTrio     TeamSize = "trio"
	SizeQuad     TeamSize = "quad"
	SizeQuadPlus TeamSize = "quad_plus"
)

// SizeLabels maps team sizes to their display names.
var SizeLabels = map[TeamSize]string{
	SizeDuo:      "Duo",
	SizeTrio:     "Trio",
	SizeQuad:     "Quad",
	SizeQuadPlus: "Quad+",
}

// AttributeCount is the fixed number of free-text fields every listing carries.
const AttributeCount = 5

// TeammateLabels and ClanLabels name the five attributes per category, in order.
var (
	TeammateLabels = [AttributeCount]string{"Age", "Hours played", "Role", "Online per day", "Discord"}
	ClanLabels     = [AttributeCount]string{"Clan name", "Leader", "Looking for", "Member count", "Discord"}
)

// Labels returns the attribute labels for a category.
func Labels(category Category) [AttributeCount]string {
	if category == CategoryClan {
		return ClanLabels
	}
	return TeammateLabels
}

// Listing is a recruitment post. Attributes always holds exactly
// AttributeCount trimmed, non-empty entries. Soft-deleted listings keep
// their row with IsActive false and never come back.
type Listing struct {
	ID         int64     `json:"id"`
	OwnerID    string    `json:"owner_id"`
	OwnerName  string    `json:"owner_name"`
	Category   Category  `json:"category"`
	TeamSize   TeamSize  `json:"team_size,omitempty"`
	Attributes []string  `json:"attributes"`
	CreatedAt  time.Time `json:"created_at"`
	IsActive   bool      `json:"is_active"`
}

// User is created on first interaction and never deleted.
type User struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	RegisteredAt time.Time `json:"registered_at"`
}

var (
	// ErrNotFound is returned when no active listing matches the given id.
	ErrNotFound = errors.New("listing not found")
	// ErrInvalidAttributes is returned when a submission does not decompose
	// into exactly AttributeCount non-empty lines.
	ErrInvalidAttributes = errors.New("submission must have exactly 5 non-empty lines")
)

// store handles all database operations for listings, users and settings.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// ParseAttributes splits raw submission text into listing attributes.
// The input must contain exactly AttributeCount lines, each non-empty
// after trimming.
func ParseAttributes(text string) ([]string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) != AttributeCount {
		return nil, ErrInvalidAttributes
	}
	attrs := make([]string, AttributeCount)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return nil, ErrInvalidAttributes
		}
		attrs[i] = trimmed
	}
	return attrs, nil
}

func validateAttributes(attrs []string) ([]string, error) {
	if len(attrs) != AttributeCount {
		return nil, ErrInvalidAttributes
	}
	out := make([]string, AttributeCount)
	for i, a := range attrs {
		trimmed := strings.TrimSpace(a)
		if trimmed == "" {
			return nil, ErrInvalidAttributes
		}
		out[i] = trimmed
	}
	return out, nil
}
