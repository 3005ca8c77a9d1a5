package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/moderation"
)

func homeOption() []Option {
	return []Option{{Label: "Main menu", Token: "home"}}
}

func mainMenu(isAdmin bool) Reply {
	options := []Option{
		{Label: "Find a teammate", Token: "teammate"},
		{Label: "Find a clan", Token: "clan"},
		{Label: "Guide", Token: "guide"},
		{Label: "Remove me from search", Token: "remove"},
	}
	if isAdmin {
		options = append(options,
			Option{Label: "All listings", Token: "admin:list"},
			Option{Label: "Remove a listing", Token: "admin:delete-start"},
		)
	}
	return Reply{Text: "What are you looking for?", Options: options}
}

func sizeMenu() Reply {
	options := []Option{
		{Label: listing.SizeLabels[listing.SizeDuo], Token: string(listing.SizeDuo)},
		{Label: listing.SizeLabels[listing.SizeTrio], Token: string(listing.SizeTrio)},
		{Label: listing.SizeLabels[listing.SizeQuad], Token: string(listing.SizeQuad)},
		{Label: listing.SizeLabels[listing.SizeQuadPlus], Token: string(listing.SizeQuadPlus)},
	}
	options = append(options, homeOption()...)
	return Reply{Text: "What team size?", Options: options}
}

func actionMenu(category listing.Category, teamSize listing.TeamSize) Reply {
	var text string
	if category == listing.CategoryClan {
		text = "Clan search. What next?"
	} else {
		text = fmt.Sprintf("Teammate search, %s. What next?", listing.SizeLabels[teamSize])
	}
	options := []Option{
		{Label: "Post a listing", Token: "submit"},
		{Label: "Browse listings", Token: "browse"},
		{Label: "My listings", Token: "mine"},
	}
	options = append(options, homeOption()...)
	return Reply{Text: text, Options: options}
}

func submitPrompt(category listing.Category) Reply {
	labels := listing.Labels(category)
	var b strings.Builder
	b.WriteString("Send your listing as ")
	b.WriteString(strconv.Itoa(listing.AttributeCount))
	b.WriteString(" lines:\n")
	for i, label := range labels {
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n"), Options: homeOption()}
}

func editPrompt(listingID int64) Reply {
	return Reply{
		Text:    fmt.Sprintf("Send the new text for listing #%d as %d lines.", listingID, listing.AttributeCount),
		Options: homeOption(),
	}
}

func adminDeletePrompt() Reply {
	return Reply{Text: "Send the id of the listing to remove.", Options: homeOption()}
}

func removeConfirmPrompt() Reply {
	return Reply{
		Text: "Remove all of your listings from search?",
		Options: []Option{
			{Label: "Yes, remove all", Token: "confirm-delete"},
			{Label: "Cancel", Token: "cancel-delete"},
		},
	}
}

func guideReply() Reply {
	text := "How it works:\n" +
		"1. Pick teammate or clan search.\n" +
		"2. Post a listing (5 lines) or browse what others posted.\n" +
		"3. Contact people directly via the Discord handle in their listing.\n" +
		"Listings expire automatically after the retention window."
	return Reply{Text: text, Options: homeOption()}
}

func unauthorizedReply() Reply {
	return Reply{Text: "You are not authorized to do that.", Options: mainMenu(false).Options}
}

func storeFailReply() Reply {
	return Reply{Text: "Something went wrong, please try again.", Options: homeOption()}
}

func notSubscribedReply() Reply {
	return Reply{Text: "Please join the community channel first, then try again."}
}

func formatErrorReply(category listing.Category) Reply {
	labels := listing.Labels(category)
	var b strings.Builder
	fmt.Fprintf(&b, "That doesn't look right. Send exactly %d non-empty lines:\n", listing.AttributeCount)
	for i, label := range labels {
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n"), Options: homeOption()}
}

// formatListing renders one listing with its labelled attributes.
// withStatus appends the active flag for the moderator view.
func formatListing(l listing.Listing, withStatus bool) string {
	labels := listing.Labels(l.Category)
	var b strings.Builder
	fmt.Fprintf(&b, "#%d by %s", l.ID, l.OwnerName)
	if l.Category == listing.CategoryTeammate && l.TeamSize != "" {
		fmt.Fprintf(&b, " (%s)", listing.SizeLabels[l.TeamSize])
	}
	if withStatus {
		status := "active"
		if !l.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(&b, " [%s]", status)
	}
	b.WriteString("\n")
	for i, attr := range l.Attributes {
		fmt.Fprintf(&b, "%s: %s\n", labels[i], attr)
	}
	return strings.TrimRight(b.String(), "\n")
}

func pageOptions(page, totalPages int) []Option {
	var options []Option
	if page > 0 {
		options = append(options, Option{Label: "Previous", Token: "page:prev"})
	}
	if page < totalPages-1 {
		options = append(options, Option{Label: "Next", Token: "page:next"})
	}
	return options
}

func browsePage(items []listing.Listing, page, totalPages int, mineOnly bool) Reply {
	if len(items) == 0 {
		text := "No listings yet. Be the first to post one!"
		if mineOnly {
			text = "You have no listings here."
		}
		return Reply{Text: text, Options: homeOption()}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Page %d of %d\n\n", page+1, totalPages)
	var options []Option
	for _, l := range items {
		b.WriteString(formatListing(l, false))
		b.WriteString("\n\n")
		if mineOnly {
			options = append(options,
				Option{Label: fmt.Sprintf("Edit #%d", l.ID), Token: fmt.Sprintf("edit:%d", l.ID)},
				Option{Label: fmt.Sprintf("Delete #%d", l.ID), Token: fmt.Sprintf("delete:%d", l.ID)},
			)
		}
	}
	options = append(options, pageOptions(page, totalPages)...)
	options = append(options, homeOption()...)
	return Reply{Text: strings.TrimRight(b.String(), "\n"), Options: options}
}

func adminPage(items []listing.Listing, page, totalPages int) Reply {
	retentionOptions := make([]Option, 0, len(moderation.AllowedRetentionDays))
	for _, d := range moderation.AllowedRetentionDays {
		retentionOptions = append(retentionOptions, Option{
			Label: fmt.Sprintf("%dd", d),
			Token: fmt.Sprintf("admin:set-retention:%d", d),
		})
	}

	if len(items) == 0 {
		options := append(retentionOptions, homeOption()...)
		return Reply{Text: "No listings recorded.", Options: options}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "All listings, page %d of %d\n\n", page+1, totalPages)
	for _, l := range items {
		b.WriteString(formatListing(l, true))
		b.WriteString("\n\n")
	}

	options := pageOptions(page, totalPages)
	options = append(options, Option{Label: "Remove a listing", Token: "admin:delete-start"})
	options = append(options, retentionOptions...)
	options = append(options, homeOption()...)
	return Reply{Text: strings.TrimRight(b.String(), "\n"), Options: options}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
