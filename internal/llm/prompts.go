// Package llm provides LLM integration for intent classification, item-name
// normalization, recipe generation and conversational replies. It includes
// strict JSON-only prompt templates and response parsers that work with both
// OpenAI and Ollama models.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scrypster/sous/pkg/types"
)

// persona describes one chef persona used for general conversation.
type persona struct {
	Name         string
	SystemPrompt string
}

// chefPersonas maps a preference value to its persona. Unknown values fall
// back to the warm persona.
var chefPersonas = map[types.ChefPersonality]persona{
	types.PersonalityFunny: {
		Name:         "Chef Chuckles",
		SystemPrompt: "You are Chef Chuckles, a witty and humorous cooking assistant. You make jokes while giving cooking advice and keep the conversation light and fun.",
	},
	types.PersonalityDirect: {
		Name:         "Chef Precision",
		SystemPrompt: "You are Chef Precision, a direct and efficient cooking assistant. You provide clear, concise instructions and focus on getting the best results.",
	},
	types.PersonalityWarm: {
		Name:         "Chef Comfort",
		SystemPrompt: "You are Chef Comfort, a warm and nurturing cooking assistant. You provide encouragement and make cooking feel like a cozy experience.",
	},
	types.PersonalityInformative: {
		Name:         "Chef Knowledge",
		SystemPrompt: "You are Chef Knowledge, an informative cooking assistant who shares detailed explanations about cooking techniques, food science, and culinary history.",
	},
}

// PersonaSystemPrompt builds the system prompt for general conversation from
// the user's chef personality and preferences, with the response length
// instruction appended.
func PersonaSystemPrompt(prefs types.Preferences, maxChars int) string {
	p, ok := chefPersonas[prefs.ChefPersonality]
	if !ok {
		p = chefPersonas[types.PersonalityWarm]
	}

	var b strings.Builder
	b.WriteString(p.SystemPrompt)
	b.WriteString("\n\nUser Preferences:\n")
	fmt.Fprintf(&b, "- Cooking Skill Level: %s\n", prefs.CookingSkillLevel)
	fmt.Fprintf(&b, "- Dietary Restrictions: %s\n", strings.Join(prefs.DietaryRestrictions, ", "))
	fmt.Fprintf(&b, "- Favorite Cuisines: %s\n", strings.Join(prefs.FavoriteCuisines, ", "))
	fmt.Fprintf(&b, "- Spice Preference: %s\n", prefs.SpicePreference)
	fmt.Fprintf(&b, "- Allergies: %s\n", strings.Join(prefs.Allergies, ", "))
	fmt.Fprintf(&b, "\nPlease adapt your responses according to these preferences while maintaining your %s personality.", p.Name)
	fmt.Fprintf(&b, "\n\nIMPORTANT: Keep your response under %d characters. Be concise and clear.", maxChars)
	return b.String()
}

// ClassifyIntentPrompt builds the strict JSON-only prompt that maps a user
// message to one of the five intent actions, extracting {name, amount} pairs
// for inventory actions.
func ClassifyIntentPrompt(message string, prefs types.Preferences) string {
	prefsJSON, _ := json.Marshal(prefs)
	return fmt.Sprintf(`You are a message classifier for a cooking assistant WhatsApp bot.
Analyze the user's message and determine the appropriate action to take.
You MUST respond in valid JSON format only.

Possible actions are:
1. general_conversation - General cooking-related conversation
2. get_recipes - User wants recipe recommendations
3. update_inventory - User wants to add or update kitchen inventory items, for example, I have 2 kg of tomatoes, I have 5 tomatoes
4. get_inventory - User wants to view their current inventory
5. remove_inventory - User wants to remove items from their inventory, for example, I used 2 kg of tomatoes, I ate 5 tomatoes

Response MUST be a valid JSON object with this exact structure:
{
    "action": "action_type",
    "items": [
        {
            "name": "string",
            "amount": "string (e.g., '2 kg', '500g', '3 pieces', or just '5' for pieces)"
        }
    ],
    "remove_all": boolean
}

For inventory updates:
- If user mentions a number without a unit (e.g., "5 tomatoes"), use "piece" as the default unit
- If user mentions "some" or "a few", use "2 pieces" as the default amount
- If user mentions "many" or "a lot", use "5 pieces" as the default amount
- If user mentions "a couple", use "2 pieces" as the default amount
- If no amount is mentioned, use "1 piece" as the default amount

For remove_inventory:
- If amount is not specified for removal, use "all" as the amount to remove the entire item
- If message includes "all" or "everything" for removal, set remove_all to true

Examples:
- "I have 2 kg of tomatoes" -> {"action": "update_inventory", "items": [{"name": "tomatoes", "amount": "2 kg"}]}
- "I have 5 tomatoes" -> {"action": "update_inventory", "items": [{"name": "tomatoes", "amount": "5"}]}
- "Remove 500g of garlic" -> {"action": "remove_inventory", "items": [{"name": "garlic", "amount": "500g"}]}
- "Clear my inventory" -> {"action": "remove_inventory", "items": [], "remove_all": true}
- "Show my inventory" -> {"action": "get_inventory"}

User Preferences: %s
User Message: %s

Classify this message and respond with a valid JSON object only.`, prefsJSON, message)
}

// NormalizeItemPrompt builds the prompt that converts a food item name to its
// standard singular form. The response is the normalized name and nothing else.
func NormalizeItemPrompt(itemName string) string {
	return fmt.Sprintf(`You are a food item name normalizer. Your task is to convert any food item name to its standard singular form.
Rules:
1. Convert plural to singular (e.g., 'apples' -> 'apple')
2. Use standard/common names (e.g., 'taters' -> 'potato')
3. Remove unnecessary words (e.g., 'fresh tomatoes' -> 'tomato')
4. Use consistent spelling (e.g., 'chilli' -> 'chili')
5. Return ONLY the normalized name, nothing else

Examples:
- "apples" -> "apple"
- "fresh red tomatoes" -> "tomato"
- "minced garlic" -> "garlic"
- "green onions" -> "onion"
- "bell peppers" -> "bell pepper"
- "chicken breasts" -> "chicken breast"
- "ground beef" -> "ground beef"
- "olive oil" -> "olive oil"

Normalize this food item name: %s`, itemName)
}

// InventoryQueryPrompt builds the secondary classification prompt for
// get_inventory requests: everything, specific items, or categories.
func InventoryQueryPrompt(message string) string {
	return fmt.Sprintf(`You are an inventory analyzer. Analyze the user's message to determine what items they want to see.
Rules:
1. If message is general (e.g., "show inventory"), return "all"
2. If message mentions specific items, return those items
3. If message mentions categories (e.g., "vegetables", "spices"), return items in those categories
4. Return a JSON object with this structure:
{
    "type": "all|specific|category",
    "items": ["item1", "item2"],
    "categories": ["category1", "category2"]
}

Examples:
- "show my inventory" -> {"type": "all"}
- "do I have tomatoes?" -> {"type": "specific", "items": ["tomato"]}
- "show my vegetables" -> {"type": "category", "categories": ["vegetable"]}

Analyze this message: %s`, message)
}

// CategorizeItemPrompt builds the prompt that assigns food categories to a
// single normalized item name.
func CategorizeItemPrompt(itemName string) string {
	return fmt.Sprintf(`You are a food categorizer. Categorize the food item into one or more categories.
Categories: vegetable, fruit, meat, seafood, dairy, grain, spice, herb, oil, other
Respond with a JSON object: {"categories": ["category1"]}
Example: "apple" -> {"categories": ["fruit"]}

Categorize: %s`, itemName)
}

// RecipePrompt builds the JSON-only recipe generation prompt from available
// ingredient names, preferences, the user message and recent history.
func RecipePrompt(ingredients []string, prefs types.Preferences, message string, history []types.ConversationEntry) string {
	ingredientsJSON, _ := json.Marshal(ingredients)
	prefsJSON, _ := json.Marshal(prefs)
	historyJSON, _ := json.Marshal(history)
	return fmt.Sprintf(`You are a culinary expert. Generate recipe recommendations in JSON format.
You MUST respond with a valid JSON object only.

Response MUST follow this exact structure:
{
    "recipes": [
        {
            "name": "string",
            "description": "string (max 100 chars)",
            "ingredients": {
                "available": ["string"],
                "needed": ["string"]
            },
            "difficulty": "beginner/intermediate/advanced",
            "cooking_time": "string (e.g. '30 minutes')",
            "steps": [
                "string (detailed step, max 150 chars each)"
            ]
        }
    ]
}

Guidelines:
- Keep descriptions under 100 characters
- Make steps detailed but concise (max 150 chars each)
- Include measurements, timing, and temperature in steps
- List only essential ingredients
- Separate available and needed ingredients
- Use simple, clear language
- Generate 1-2 recipes maximum

Generate detailed recipes based on:
Available Ingredients: %s
User Preferences: %s
User Message: %s
Conversation History: %s

Respond with a valid JSON object only.`, ingredientsJSON, prefsJSON, message, historyJSON)
}

// ImageItemsPrompt is the vision prompt that extracts visible food items and
// amounts from a photo as a JSON object.
const ImageItemsPrompt = `Analyze this image and extract ONLY food items with their amounts. Follow these rules:
1. List ONLY food items that are clearly visible and identifiable
2. For each item, provide:
   - Name: Use singular form (e.g., 'apple' not 'apples')
   - Amount: If visible, include the quantity (e.g., '2 pieces', '500g', '1 kg')
   - If amount is not visible, use '1 piece' as the amount
3. If no food items are visible, respond with an empty items list
4. Do not include any other descriptions or analysis

Response MUST be a valid JSON object with this exact structure:
{
    "items": [
        {
            "name": "string",
            "amount": "string (e.g., '2 kg', '500g', '3 pieces', or just '5' for pieces)"
        }
    ]
}`
