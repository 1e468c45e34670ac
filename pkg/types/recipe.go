package types

// RecipeIngredients splits a recipe's ingredient list into what the user
// already has and what they would need to buy.
type RecipeIngredients struct {
	Available []string `json:"available"`
	Needed    []string `json:"needed"`
}

// Recipe is a single recipe recommendation as returned by the generation
// capability. Descriptions are capped at 100 characters and each step at 150
// characters; the parser enforces the caps rather than trusting the model.
type Recipe struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Ingredients RecipeIngredients `json:"ingredients"`
	Difficulty  string            `json:"difficulty"`   // beginner, intermediate, advanced
	CookingTime string            `json:"cooking_time"` // e.g. "30 minutes"
	Steps       []string          `json:"steps"`
}
