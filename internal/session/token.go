package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nvoss/teamseek/internal/listing"
)

// TokenKind tags the closed alphabet of symbolic inputs the machine accepts.
type TokenKind int

const (
	KindCategory TokenKind = iota
	KindTeamSize
	KindSubmit
	KindBrowse
	KindMine
	KindEdit
	KindDelete
	KindConfirmDelete
	KindCancelDelete
	KindHome
	KindRemove
	KindGuide
	KindAdminList
	KindAdminSetRetention
	KindAdminDeleteStart
	KindAdminDeleteConfirm
	KindPageNext
	KindPagePrev
)

// requiresAdmin reports whether the kind is a moderator action.
func (k TokenKind) requiresAdmin() bool {
	switch k {
	case KindAdminList, KindAdminSetRetention, KindAdminDeleteStart, KindAdminDeleteConfirm:
		return true
	}
	return false
}

// Token is one parsed input. Only the field matching the Kind is set.
type Token struct {
	Kind      TokenKind
	Category  listing.Category
	TeamSize  listing.TeamSize
	ListingID int64
	Days      int
}

// ErrUnknownToken is returned for input outside the token alphabet.
var ErrUnknownToken = errors.New("unknown input token")

// ParseToken maps a raw callback string onto the token alphabet.
func ParseToken(raw string) (Token, error) {
	switch raw {
	case "teammate":
		return Token{Kind: KindCategory, Category: listing.CategoryTeammate}, nil
	case "clan":
		return Token{Kind: KindCategory, Category: listing.CategoryClan}, nil
	case "duo":
		return Token{Kind: KindTeamSize, TeamSize: listing.SizeDuo}, nil
	case "trio":
		return Token{Kind: KindTeamSize, TeamSize: listing.SizeTrio}, nil
	case "quad":
		return Token{Kind: KindTeamSize, TeamSize: listing.SizeQuad}, nil
	case "quad_plus":
		return Token{Kind: KindTeamSize, TeamSize: listing.SizeQuadPlus}, nil
	case "submit":
		return Token{Kind: KindSubmit}, nil
	case "browse":
		return Token{Kind: KindBrowse}, nil
	case "mine":
		return Token{Kind: KindMine}, nil
	case "confirm-delete":
		return Token{Kind: KindConfirmDelete}, nil
	case "cancel-delete":
		return Token{Kind: KindCancelDelete}, nil
	case "home":
		return Token{Kind: KindHome}, nil
	case "remove":
		return Token{Kind: KindRemove}, nil
	case "guide":
		return Token{Kind: KindGuide}, nil
	case "admin:list":
		return Token{Kind: KindAdminList}, nil
	case "admin:delete-start":
		return Token{Kind: KindAdminDeleteStart}, nil
	case "admin:delete-confirm":
		return Token{Kind: KindAdminDeleteConfirm}, nil
	case "page:next":
		return Token{Kind: KindPageNext}, nil
	case "page:prev":
		return Token{Kind: KindPagePrev}, nil
	}

	if rest, ok := strings.CutPrefix(raw, "edit:"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %q", ErrUnknownToken, raw)
		}
		return Token{Kind: KindEdit, ListingID: id}, nil
	}
	if rest, ok := strings.CutPrefix(raw, "delete:"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %q", ErrUnknownToken, raw)
		}
		return Token{Kind: KindDelete, ListingID: id}, nil
	}
	if rest, ok := strings.CutPrefix(raw, "admin:set-retention:"); ok {
		days, err := strconv.Atoi(rest)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %q", ErrUnknownToken, raw)
		}
		return Token{Kind: KindAdminSetRetention, Days: days}, nil
	}

	return Token{}, fmt.Errorf("%w: %q", ErrUnknownToken, raw)
}

// String renders the token back into its wire form.
func (t Token) String() string {
	switch t.Kind {
	case KindCategory:
		return string(t.Category)
	case KindTeamSize:
		return string(t.TeamSize)
	case KindSubmit:
		return "submit"
	case KindBrowse:
		return "browse"
	case KindMine:
		return "mine"
	case KindEdit:
		return fmt.Sprintf("edit:%d", t.ListingID)
	case KindDelete:
		return fmt.Sprintf("delete:%d", t.ListingID)
	case KindConfirmDelete:
		return "confirm-delete"
	case KindCancelDelete:
		return "cancel-delete"
	case KindHome:
		return "home"
	case KindRemove:
		return "remove"
	case KindGuide:
		return "guide"
	case KindAdminList:
		return "admin:list"
	case KindAdminSetRetention:
		return fmt.Sprintf("admin:set-retention:%d", t.Days)
	case KindAdminDeleteStart:
		return "admin:delete-start"
	case KindAdminDeleteConfirm:
		return "admin:delete-confirm"
	case KindPageNext:
		return "page:next"
	case KindPagePrev:
		return "page:prev"
	}
	return "unknown"
}
