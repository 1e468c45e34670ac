package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scrypster/sous/pkg/types"
)

// IntentResponse is the raw classification payload before boundary
// validation. Fields are loosely typed on purpose; the intent adapter
// decides what degrades to general conversation.
type IntentResponse struct {
	Action    string             `json:"action"`
	Items     []types.IntentItem `json:"items"`
	RemoveAll bool               `json:"remove_all"`
}

// InventoryQueryResponse is the raw get_inventory sub-classification payload.
type InventoryQueryResponse struct {
	Type       string   `json:"type"`
	Items      []string `json:"items"`
	Categories []string `json:"categories"`
}

// CategoriesResponse is the raw item categorization payload.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// RecipesResponse is the raw recipe generation payload.
type RecipesResponse struct {
	Recipes []types.Recipe `json:"recipes"`
}

// ImageItemsResponse is the raw vision extraction payload.
type ImageItemsResponse struct {
	Items []types.IntentItem `json:"items"`
}

// extractJSON extracts the first valid JSON object from a string that may
// contain extra text. This handles cases where LLMs add explanations or
// markdown fences around the JSON despite instructions.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let parser fail
	}

	// Find the matching closing brace, skipping braces inside strings.
	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON found, return as-is
}

// ParseIntentResponse parses the classification JSON. It returns an error
// only when the JSON itself is malformed or the action field is absent;
// validating the action against the closed set is the intent adapter's job.
func ParseIntentResponse(raw string) (*IntentResponse, error) {
	var resp IntentResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}
	if resp.Action == "" {
		return nil, fmt.Errorf("intent response missing action field")
	}
	return &resp, nil
}

// ParseInventoryQueryResponse parses the get_inventory sub-classification JSON.
func ParseInventoryQueryResponse(raw string) (*InventoryQueryResponse, error) {
	var resp InventoryQueryResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse inventory query response: %w", err)
	}
	if resp.Type == "" {
		return nil, fmt.Errorf("inventory query response missing type field")
	}
	return &resp, nil
}

// ParseCategoriesResponse parses the item categorization JSON.
func ParseCategoriesResponse(raw string) ([]string, error) {
	var resp CategoriesResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse categories response: %w", err)
	}
	return resp.Categories, nil
}

// ParseRecipesResponse parses the recipe generation JSON and enforces the
// length caps the prompt asked for: descriptions are truncated to 100
// characters and each step to 150, with a "..." marker. Recipes missing a
// name or steps are dropped rather than failing the batch.
func ParseRecipesResponse(raw string) ([]types.Recipe, error) {
	var resp RecipesResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse recipes response: %w", err)
	}

	valid := make([]types.Recipe, 0, len(resp.Recipes))
	for _, r := range resp.Recipes {
		if r.Name == "" || len(r.Steps) == 0 {
			continue
		}
		r.Description = capRunes(r.Description, 100)
		for i, step := range r.Steps {
			r.Steps[i] = capRunes(step, 150)
		}
		valid = append(valid, r)
	}
	return valid, nil
}

// capRunes truncates s to max characters with a "..." marker, counting runes
// so a multibyte character is never split.
func capRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// ParseImageItemsResponse parses the vision extraction JSON. Items missing a
// name are dropped; items missing an amount default to "1 piece".
func ParseImageItemsResponse(raw string) ([]types.IntentItem, error) {
	var resp ImageItemsResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse image items response: %w", err)
	}

	valid := make([]types.IntentItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		if strings.TrimSpace(item.Amount) == "" {
			item.Amount = "1 piece"
		}
		valid = append(valid, item)
	}
	return valid, nil
}
