package types

// IntentAction is the closed set of actions the message classifier may emit.
// Anything outside this set degrades to ActionGeneralConversation at the
// classifier boundary.
type IntentAction string

const (
	ActionGeneralConversation IntentAction = "general_conversation"
	ActionGetRecipes          IntentAction = "get_recipes"
	ActionUpdateInventory     IntentAction = "update_inventory"
	ActionGetInventory        IntentAction = "get_inventory"
	ActionRemoveInventory     IntentAction = "remove_inventory"
)

// ValidIntentAction reports whether action is one of the five allowed intents.
func ValidIntentAction(action IntentAction) bool {
	switch action {
	case ActionGeneralConversation, ActionGetRecipes, ActionUpdateInventory,
		ActionGetInventory, ActionRemoveInventory:
		return true
	}
	return false
}

// IntentItem is one {name, amount} pair carried by an inventory intent.
// Amount is kept as the raw string ("2 kg", "500g", "5", "all"); parsing and
// unit validation happen in the reconciler so that a malformed amount fails
// that item, not the whole classification.
type IntentItem struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Intent is the validated result of classifying one user message.
// Items is always non-nil (possibly empty) for inventory actions. RemoveAll
// is only meaningful for ActionRemoveInventory.
type Intent struct {
	Action    IntentAction `json:"action"`
	Items     []IntentItem `json:"items,omitempty"`
	RemoveAll bool         `json:"remove_all,omitempty"`
}

// InventoryQueryType describes what slice of the inventory a get_inventory
// request asked for, per the secondary classification call.
type InventoryQueryType string

const (
	InventoryQueryAll      InventoryQueryType = "all"
	InventoryQuerySpecific InventoryQueryType = "specific"
	InventoryQueryCategory InventoryQueryType = "category"
)

// InventoryQuery is the validated result of the get_inventory
// sub-classification: show everything, specific items, or whole categories.
type InventoryQuery struct {
	Type       InventoryQueryType `json:"type"`
	Items      []string           `json:"items,omitempty"`
	Categories []string           `json:"categories,omitempty"`
}
