// Package intent turns raw user text into one of the five structured intents
// the dispatcher understands. The classification capability is opaque; this
// package owns the validation boundary around its output: anything malformed
// degrades to general conversation so the user always gets a reply.
package intent

import (
	"context"
	"log"
	"strings"

	"github.com/scrypster/sous/internal/llm"
	"github.com/scrypster/sous/pkg/types"
)

// Classifier validates the opaque classification capability's output.
type Classifier struct {
	gen llm.TextGenerator
}

// NewClassifier creates a Classifier backed by the given text generator.
func NewClassifier(gen llm.TextGenerator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify maps a user message to a validated Intent. Provider errors,
// unknown actions and malformed inventory items never propagate: they all
// degrade to general conversation. The returned intent's item list is
// non-nil for inventory actions.
func (c *Classifier) Classify(ctx context.Context, message string, prefs types.Preferences) types.Intent {
	general := types.Intent{Action: types.ActionGeneralConversation}

	raw, err := c.gen.CompleteJSON(ctx, llm.ClassifyIntentPrompt(message, prefs))
	if err != nil {
		log.Printf("intent: classification failed, degrading to general conversation: %v", err)
		return general
	}

	resp, err := llm.ParseIntentResponse(raw)
	if err != nil {
		log.Printf("intent: unparseable classification, degrading to general conversation: %v", err)
		return general
	}

	action := types.IntentAction(resp.Action)
	if !types.ValidIntentAction(action) {
		log.Printf("intent: unknown action %q, degrading to general conversation", resp.Action)
		return general
	}

	result := types.Intent{Action: action, RemoveAll: resp.RemoveAll}
	if action == types.ActionUpdateInventory || action == types.ActionRemoveInventory {
		items, ok := validateItems(resp.Items)
		if !ok {
			log.Printf("intent: malformed items for %s, degrading to general conversation", action)
			return general
		}
		result.Items = items
	}
	return result
}

// ClassifyInventoryQuery runs the secondary classification for get_inventory
// turns: show everything, specific items, or categories. Failures degrade to
// showing everything.
func (c *Classifier) ClassifyInventoryQuery(ctx context.Context, message string) types.InventoryQuery {
	all := types.InventoryQuery{Type: types.InventoryQueryAll}

	raw, err := c.gen.CompleteJSON(ctx, llm.InventoryQueryPrompt(message))
	if err != nil {
		log.Printf("intent: inventory query classification failed, showing all: %v", err)
		return all
	}

	resp, err := llm.ParseInventoryQueryResponse(raw)
	if err != nil {
		log.Printf("intent: unparseable inventory query, showing all: %v", err)
		return all
	}

	switch types.InventoryQueryType(resp.Type) {
	case types.InventoryQuerySpecific:
		if len(resp.Items) == 0 {
			return all
		}
		return types.InventoryQuery{Type: types.InventoryQuerySpecific, Items: resp.Items}
	case types.InventoryQueryCategory:
		if len(resp.Categories) == 0 {
			return all
		}
		return types.InventoryQuery{Type: types.InventoryQueryCategory, Categories: resp.Categories}
	default:
		return all
	}
}

// CategorizeItem assigns food categories to a normalized item name. On any
// failure it returns "other" so category filtering stays total.
func (c *Classifier) CategorizeItem(ctx context.Context, name string) []string {
	raw, err := c.gen.CompleteJSON(ctx, llm.CategorizeItemPrompt(name))
	if err != nil {
		log.Printf("intent: categorization failed for %q: %v", name, err)
		return []string{"other"}
	}

	categories, err := llm.ParseCategoriesResponse(raw)
	if err != nil || len(categories) == 0 {
		return []string{"other"}
	}
	return categories
}

// validateItems checks every item carries a name and amount. A single
// malformed item rejects the whole classification; the reconciler handles
// amounts that are present but unparsable.
func validateItems(items []types.IntentItem) ([]types.IntentItem, bool) {
	validated := make([]types.IntentItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Amount) == "" {
			return nil, false
		}
		validated = append(validated, item)
	}
	return validated, true
}
