// Package dispatch routes classified message turns through the pipeline:
// intent classification, inventory reconciliation, recipe generation or
// conversational reply, persistence and reply formatting. One turn in, one
// reply out; every failure path still produces a reply for the user.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scrypster/sous/internal/config"
	"github.com/scrypster/sous/internal/inventory"
	"github.com/scrypster/sous/internal/llm"
	"github.com/scrypster/sous/internal/metrics"
	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/pkg/types"
)

// IntentClassifier is the classification dependency.
type IntentClassifier interface {
	Classify(ctx context.Context, message string, prefs types.Preferences) types.Intent
	ClassifyInventoryQuery(ctx context.Context, message string) types.InventoryQuery
	CategorizeItem(ctx context.Context, name string) []string
}

// Normalizer canonicalizes item names for grouping and lookups.
type Normalizer interface {
	Normalize(ctx context.Context, rawName string) string
}

// Reconciler applies item deltas to an inventory snapshot.
type Reconciler interface {
	Reconcile(ctx context.Context, current []types.InventoryItem, delta []types.IntentItem, mode inventory.Mode, removeAll bool) inventory.Result
}

// Dispatcher coordinates one message turn end to end.
type Dispatcher struct {
	classifier IntentClassifier
	normalizer Normalizer
	reconciler Reconciler
	chat       llm.ChatGenerator
	recipes    llm.TextGenerator
	vision     llm.VisionDescriber
	store      storage.UserStore
	metrics    *metrics.Collector
	reply      config.ReplyConfig

	now func() time.Time // injectable for tests
}

// NewDispatcher wires a Dispatcher from its dependencies.
func NewDispatcher(
	classifier IntentClassifier,
	normalizer Normalizer,
	reconciler Reconciler,
	chat llm.ChatGenerator,
	recipes llm.TextGenerator,
	vision llm.VisionDescriber,
	store storage.UserStore,
	collector *metrics.Collector,
	replyCfg config.ReplyConfig,
) *Dispatcher {
	return &Dispatcher{
		classifier: classifier,
		normalizer: normalizer,
		reconciler: reconciler,
		chat:       chat,
		recipes:    recipes,
		vision:     vision,
		store:      store,
		metrics:    collector,
		reply:      replyCfg,
		now:        time.Now,
	}
}

// HandleTurn processes one inbound text message for a user whose turn slot is
// already held by the caller. It mutates the user document in memory, persists
// inventory and conversation changes, and returns the reply to send. The
// returned error is only non-nil for persistence failures; all pipeline
// failures degrade to an apologetic reply instead.
func (d *Dispatcher) HandleTurn(ctx context.Context, user *types.User, message string) (string, error) {
	start := d.now()
	in := d.classifier.Classify(ctx, message, user.Preferences)

	var reply string
	var err error
	switch in.Action {
	case types.ActionUpdateInventory:
		reply, err = d.handleInventoryDelta(ctx, user, in, inventory.ModeAdd)
	case types.ActionRemoveInventory:
		reply, err = d.handleInventoryDelta(ctx, user, in, inventory.ModeRemove)
	case types.ActionGetInventory:
		reply = d.handleGetInventory(ctx, user, message)
	case types.ActionGetRecipes:
		reply = d.handleGetRecipes(ctx, user, message)
	default:
		reply = d.handleGeneralConversation(ctx, user, message)
	}
	if err != nil {
		return "", err
	}

	if err := d.recordExchange(ctx, user, message, reply); err != nil {
		return "", err
	}

	d.metrics.ObserveTurn(string(in.Action), d.now().Sub(start))
	return reply, nil
}

// HandleImageTurn processes an inbound photo: the vision model extracts
// visible food items which are then added to the inventory through the same
// reconciliation path as a text update.
func (d *Dispatcher) HandleImageTurn(ctx context.Context, user *types.User, imageData []byte) (string, error) {
	start := d.now()

	raw, err := d.vision.DescribeImage(ctx, imageData, llm.ImageItemsPrompt)
	if err != nil {
		d.metrics.ProviderError("vision")
		log.Printf("dispatch: image analysis failed for %s: %v", user.UserID, err)
		return MsgImageFailed, nil
	}
	items, err := llm.ParseImageItemsResponse(raw)
	if err != nil {
		d.metrics.ProviderError("vision")
		log.Printf("dispatch: unparseable image analysis for %s: %v", user.UserID, err)
		return MsgImageFailed, nil
	}
	if len(items) == 0 {
		return MsgNoFoodDetected, nil
	}

	in := types.Intent{Action: types.ActionUpdateInventory, Items: items}
	reply, err := d.handleInventoryDelta(ctx, user, in, inventory.ModeAdd)
	if err != nil {
		return "", err
	}

	if err := d.recordExchange(ctx, user, describeImageItems(items), reply); err != nil {
		return "", err
	}

	d.metrics.ObserveTurn("image_update_inventory", d.now().Sub(start))
	return reply, nil
}

func (d *Dispatcher) handleInventoryDelta(ctx context.Context, user *types.User, in types.Intent, mode inventory.Mode) (string, error) {
	result := d.reconciler.Reconcile(ctx, user.KitchenInventory.Ingredients, in.Items, mode, in.RemoveAll)
	for _, o := range result.Outcomes {
		d.metrics.ReconciliationOutcome(string(mode), string(o.Status))
	}

	if result.Committed {
		now := d.now().UTC()
		user.KitchenInventory.Ingredients = result.Items
		user.KitchenInventory.LastUpdated = now
		if err := d.store.UpdateInventory(ctx, user.UserID, user.KitchenInventory, now); err != nil {
			return "", fmt.Errorf("failed to persist inventory for %s: %w", user.UserID, err)
		}
	}

	if mode == inventory.ModeRemove {
		return FormatRemoveSummary(result, d.reply.MaxChars), nil
	}
	return FormatAddSummary(result, d.reply.MaxChars), nil
}

func (d *Dispatcher) handleGetInventory(ctx context.Context, user *types.User, message string) string {
	items := user.KitchenInventory.Ingredients
	if len(items) == 0 {
		return MsgEmptyInventory
	}

	query := d.classifier.ClassifyInventoryQuery(ctx, message)
	groups := d.groupByNormalizedName(ctx, items)

	filtered := groups
	switch query.Type {
	case types.InventoryQuerySpecific:
		filtered = filterSpecific(groups, query.Items, func(name string) string {
			return d.normalizer.Normalize(ctx, name)
		})
	case types.InventoryQueryCategory:
		filtered = filterByCategory(groups, query.Categories, func(name string) []string {
			return d.classifier.CategorizeItem(ctx, name)
		})
	}

	return FormatInventoryListing(filtered, len(groups), query, user.KitchenInventory.LastUpdated, d.reply.MaxChars)
}

func (d *Dispatcher) handleGetRecipes(ctx context.Context, user *types.User, message string) string {
	ingredients := make([]string, 0, len(user.KitchenInventory.Ingredients))
	for _, item := range user.KitchenInventory.Ingredients {
		ingredients = append(ingredients, item.Name)
	}

	history := tailHistory(user.ConversationHistory, d.reply.HistoryWindow)
	raw, err := d.recipes.CompleteJSON(ctx, llm.RecipePrompt(ingredients, user.Preferences, message, history))
	if err != nil {
		d.metrics.ProviderError("recipes")
		log.Printf("dispatch: recipe generation failed for %s: %v", user.UserID, err)
		return MsgRecipesFailed
	}
	recipes, err := llm.ParseRecipesResponse(raw)
	if err != nil || len(recipes) == 0 {
		d.metrics.ProviderError("recipes")
		log.Printf("dispatch: unparseable recipe response for %s: %v", user.UserID, err)
		return MsgRecipesFailed
	}

	return FormatRecipes(recipes, d.reply.MaxChars)
}

func (d *Dispatcher) handleGeneralConversation(ctx context.Context, user *types.User, message string) string {
	messages := []llm.Message{
		{Role: "system", Content: llm.PersonaSystemPrompt(user.Preferences, d.reply.MaxChars)},
	}
	for _, entry := range tailHistory(user.ConversationHistory, d.reply.HistoryWindow) {
		messages = append(messages, llm.Message{Role: entry.Role, Content: entry.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	if len(user.KitchenInventory.Ingredients) > 0 {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: "Available ingredients: " + joinIngredients(user.KitchenInventory.Ingredients),
		})
	}

	reply, err := d.chat.Chat(ctx, messages, 500)
	if err != nil {
		d.metrics.ProviderError("chat")
		log.Printf("dispatch: conversation reply failed for %s: %v", user.UserID, err)
		return MsgGenericFailure
	}
	return Truncate(reply, d.reply.MaxChars)
}

// recordExchange appends the user/assistant pair to the conversation history
// and persists it.
func (d *Dispatcher) recordExchange(ctx context.Context, user *types.User, message, reply string) error {
	now := d.now().UTC()
	user.ConversationHistory = append(user.ConversationHistory,
		types.ConversationEntry{Role: "user", Content: message, Timestamp: now},
		types.ConversationEntry{Role: "assistant", Content: reply, Timestamp: now},
	)
	user.UpdatedAt = now
	if err := d.store.UpdateConversation(ctx, user.UserID, user.ConversationHistory, now); err != nil {
		return fmt.Errorf("failed to persist conversation for %s: %w", user.UserID, err)
	}
	return nil
}

// groupByNormalizedName buckets inventory entries under their canonical name.
// Entries written before a normalization change may leave several variants of
// the same item; grouping keeps the listing coherent.
func (d *Dispatcher) groupByNormalizedName(ctx context.Context, items []types.InventoryItem) []ItemGroup {
	order := make([]string, 0, len(items))
	grouped := make(map[string][]types.InventoryItem, len(items))
	for _, item := range items {
		key := d.normalizer.Normalize(ctx, item.Name)
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], item)
	}

	groups := make([]ItemGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, ItemGroup{Key: key, Items: grouped[key]})
	}
	return groups
}

func filterSpecific(groups []ItemGroup, wanted []string, normalize func(string) string) []ItemGroup {
	wantedKeys := make(map[string]bool, len(wanted))
	for _, name := range wanted {
		wantedKeys[normalize(name)] = true
	}
	var filtered []ItemGroup
	for _, g := range groups {
		if wantedKeys[g.Key] {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

func filterByCategory(groups []ItemGroup, wanted []string, categorize func(string) []string) []ItemGroup {
	wantedSet := make(map[string]bool, len(wanted))
	for _, c := range wanted {
		wantedSet[c] = true
	}
	var filtered []ItemGroup
	for _, g := range groups {
		for _, cat := range categorize(g.Key) {
			if wantedSet[cat] {
				filtered = append(filtered, g)
				break
			}
		}
	}
	return filtered
}

func tailHistory(history []types.ConversationEntry, window int) []types.ConversationEntry {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}

func joinIngredients(items []types.InventoryItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Name+" ("+item.Amount+")")
	}
	return strings.Join(parts, ", ")
}

func describeImageItems(items []types.IntentItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Name+" ("+item.Amount+")")
	}
	return "[photo] Add to my inventory: " + strings.Join(parts, ", ")
}
