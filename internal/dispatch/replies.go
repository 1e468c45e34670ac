package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/scrypster/sous/internal/inventory"
	"github.com/scrypster/sous/pkg/types"
)

// Fixed replies for degraded paths. Every failure still answers the user.
const (
	MsgEmptyInventory  = "Your kitchen inventory is empty. Add some ingredients to get started!"
	MsgRecipesFailed   = "❌ Sorry, there was an error generating recipes. Please try again."
	MsgImageFailed     = "❌ Sorry, I couldn't analyze that photo. Please try again."
	MsgNoFoodDetected  = "No food items detected in the photo."
	MsgGenericFailure  = "❌ Sorry, something went wrong. Please try again."
	MsgBusy            = "⏳ I'm still processing your previous message. Please wait for my response before sending another message."
	MsgNoItemsAdded    = "No new items were added to your inventory."
	MsgNoItemsRemoved  = "No items were removed from your inventory."
	MsgNoMatchSpecific = "❌ None of the requested items were found in your inventory."
)

// recipeSeparator sits between recipe cards.
var recipeSeparator = strings.Repeat("─", 30)

// ItemGroup is one normalized name with the inventory entries filed under it.
type ItemGroup struct {
	Key   string // normalized name
	Items []types.InventoryItem
}

// FormatAddSummary renders the reply for an add batch within maxChars. A
// committed batch lists each item's new total and the amount added; an
// uncommitted batch leads with a warning and shows per-item errors so the
// user can fix the message and retry. Lines beyond the budget collapse into
// a "more items" note; an item line is never split.
func FormatAddSummary(result inventory.Result, maxChars int) string {
	if len(result.Outcomes) == 0 {
		return MsgNoItemsAdded
	}

	header := "✅ Updated your kitchen inventory!\n\nItems:\n"
	if !result.Committed {
		header = "⚠️ Some items couldn't be added to your inventory:\n\nItems:\n"
	}

	lines := make([]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		switch {
		case o.Status == inventory.OutcomeApplied:
			lines = append(lines, fmt.Sprintf("• %s (%s) [+%s]\n", o.Name, o.FinalAmount, o.Delta))
		case o.Delta != "":
			lines = append(lines, fmt.Sprintf("• %s (%s) - %s\n", o.Name, o.Delta, o.Reason))
		default:
			lines = append(lines, fmt.Sprintf("• %s - %s\n", o.Name, o.Reason))
		}
	}

	footer := ""
	if result.Committed {
		footer = fmt.Sprintf("\nTotal items in inventory: %d", len(result.Items))
	}
	return assembleBounded(header, lines, footer, maxChars)
}

// FormatRemoveSummary renders the reply for a remove batch within maxChars,
// including the remove-all case.
func FormatRemoveSummary(result inventory.Result, maxChars int) string {
	if len(result.Outcomes) == 0 {
		return MsgNoItemsRemoved
	}

	if len(result.Outcomes) == 1 && result.Outcomes[0].Status == inventory.OutcomeCleared {
		return fmt.Sprintf("🗑️ Updated your kitchen inventory!\n\nRemoved everything (%s).\n\nRemaining items: 0",
			result.Outcomes[0].Delta)
	}

	lines := make([]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		switch o.Status {
		case inventory.OutcomeApplied:
			lines = append(lines, fmt.Sprintf("• %s (%s)\n", o.Name, o.Delta))
		default:
			lines = append(lines, fmt.Sprintf("• %s - %s\n", o.Name, o.Reason))
		}
	}

	header := "🗑️ Updated your kitchen inventory!\n\nRemoved items:\n"
	footer := fmt.Sprintf("\nRemaining items: %d", len(result.Items))
	return assembleBounded(header, lines, footer, maxChars)
}

// FormatInventoryListing renders the filtered inventory within maxChars,
// sorted alphabetically by normalized name. Groups with a single entry show
// inline; groups holding name variants show the canonical name with each
// variant indented. A group is the unit of truncation: it is listed whole or
// held back behind the "more items" note, never split.
func FormatInventoryListing(filtered []ItemGroup, totalGroups int, query types.InventoryQuery, lastUpdated time.Time, maxChars int) string {
	if len(filtered) == 0 {
		switch query.Type {
		case types.InventoryQuerySpecific:
			return MsgNoMatchSpecific
		case types.InventoryQueryCategory:
			return fmt.Sprintf("❌ No items found in the requested categories: %s", strings.Join(query.Categories, ", "))
		default:
			return MsgEmptyInventory
		}
	}

	sorted := make([]ItemGroup, len(filtered))
	copy(sorted, filtered)
	sortGroups(sorted)

	blocks := make([]string, 0, len(sorted))
	for _, g := range sorted {
		if len(g.Items) == 1 {
			blocks = append(blocks, fmt.Sprintf("• %s (%s)\n", g.Items[0].Name, g.Items[0].Amount))
			continue
		}
		var gb strings.Builder
		fmt.Fprintf(&gb, "• %s:\n", titleCase(g.Key))
		for _, item := range g.Items {
			fmt.Fprintf(&gb, "  - %s (%s)\n", item.Name, item.Amount)
		}
		blocks = append(blocks, gb.String())
	}

	footerFor := func(shown int) string {
		s := fmt.Sprintf("\nTotal items shown: %d", shown)
		if shown < totalGroups {
			s += fmt.Sprintf(" (of %d total items)", totalGroups)
		}
		return s + fmt.Sprintf("\n\nLast updated: %s", lastUpdated.Format("2006-01-02 15:04"))
	}

	header := "📋 Your Kitchen Inventory:\n\n"
	budget := maxChars - utf8.RuneCountInString(header) - utf8.RuneCountInString(footerFor(len(sorted))) - moreNoteReserve
	shown := fitWithin(blocks, budget)

	var b strings.Builder
	b.WriteString(header)
	for _, block := range blocks[:shown] {
		b.WriteString(block)
	}
	if shown < len(blocks) {
		b.WriteString(moreItemsNote(len(blocks) - shown))
	}
	b.WriteString(footerFor(shown))
	return b.String()
}

// FormatRecipes renders recipe cards under the reply budget. Cards are added
// in order until the next one would overflow the budget minus headroom for
// the "more recipes" note; pagination is deterministic for a given input.
func FormatRecipes(recipes []types.Recipe, maxChars int) string {
	const header = "🍳 Recipe suggestions:\n\n"
	// Leave room for the "more recipes available" note.
	budget := maxChars - 100

	var b strings.Builder
	b.WriteString(header)
	total := len(header)
	shown := 0

	for _, r := range recipes {
		card := formatRecipeCard(r)
		if total+len(card) > budget {
			break
		}
		b.WriteString(card)
		total += len(card)
		shown++
	}

	if shown < len(recipes) {
		remaining := len(recipes) - shown
		plural := ""
		if remaining > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "\n...and %d more recipe%s available. Ask for more!", remaining, plural)
	}
	return b.String()
}

func formatRecipeCard(r types.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 %s\n", r.Name)
	fmt.Fprintf(&b, "📝 %s\n\n", r.Description)
	b.WriteString("🛒 Ingredients:\n")
	b.WriteString("  Available:")
	for _, ing := range r.Ingredients.Available {
		fmt.Fprintf(&b, "\n    • %s", ing)
	}
	b.WriteString("\n  Needed:")
	for _, ing := range r.Ingredients.Needed {
		fmt.Fprintf(&b, "\n    • %s", ing)
	}
	fmt.Fprintf(&b, "\n\n⏱️ Time: %s\n", r.CookingTime)
	fmt.Fprintf(&b, "⭐ Difficulty: %s\n\n", r.Difficulty)
	b.WriteString("📋 Steps:\n")
	for i, step := range r.Steps {
		fmt.Fprintf(&b, "    %d. %s\n", i+1, step)
	}
	fmt.Fprintf(&b, "\n%s\n\n", recipeSeparator)
	return b.String()
}

// Truncate caps a reply at maxChars characters (runes, not bytes), replacing
// the tail with an ellipsis when it overflows.
func Truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars-3]) + "..."
}

// moreNoteReserve is headroom kept for the "more items" note so a listing
// cut to fit the budget still has room to say what was held back.
const moreNoteReserve = 40

// fitWithin returns how many whole entries fit in budget characters. Entries
// are never split.
func fitWithin(entries []string, budget int) int {
	used := 0
	for i, entry := range entries {
		n := utf8.RuneCountInString(entry)
		if used+n > budget {
			return i
		}
		used += n
	}
	return len(entries)
}

func moreItemsNote(omitted int) string {
	plural := ""
	if omitted > 1 {
		plural = "s"
	}
	return fmt.Sprintf("...and %d more item%s\n", omitted, plural)
}

// assembleBounded joins header, as many whole lines as fit, a "more items"
// note for anything held back, and the footer, keeping the result within
// maxChars characters.
func assembleBounded(header string, lines []string, footer string, maxChars int) string {
	budget := maxChars - utf8.RuneCountInString(header) - utf8.RuneCountInString(footer) - moreNoteReserve
	shown := fitWithin(lines, budget)

	var b strings.Builder
	b.WriteString(header)
	for _, line := range lines[:shown] {
		b.WriteString(line)
	}
	if shown < len(lines) {
		b.WriteString(moreItemsNote(len(lines) - shown))
	}
	b.WriteString(footer)
	return b.String()
}

// sortGroups sorts in place by normalized name.
func sortGroups(groups []ItemGroup) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
}

// titleCase uppercases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
