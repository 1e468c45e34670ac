package types

import (
	"fmt"
	"time"
)

// ChefPersonality selects the persona used for general conversation replies.
type ChefPersonality string

const (
	PersonalityFunny       ChefPersonality = "funny"
	PersonalityDirect      ChefPersonality = "direct"
	PersonalityWarm        ChefPersonality = "warm"
	PersonalityInformative ChefPersonality = "informative"
)

// Preferences holds per-user cooking preferences that shape classification
// context and generated replies.
type Preferences struct {
	ChefPersonality     ChefPersonality `json:"chef_personality"`               // Persona for conversational replies (default: warm)
	DietaryRestrictions []string        `json:"dietary_restrictions,omitempty"` // e.g. "vegetarian", "halal"
	FavoriteCuisines    []string        `json:"favorite_cuisines,omitempty"`    // e.g. "italian", "indian"
	CookingSkillLevel   string          `json:"cooking_skill_level"`            // beginner, intermediate, advanced
	SpicePreference     string          `json:"spice_preference"`               // mild, medium, hot
	Allergies           []string        `json:"allergies,omitempty"`            // e.g. "peanuts"
}

// DefaultPreferences returns the preferences assigned to a user on first contact.
func DefaultPreferences() Preferences {
	return Preferences{
		ChefPersonality:   PersonalityWarm,
		CookingSkillLevel: "beginner",
		SpicePreference:   "medium",
	}
}

// InventoryItem is a single ingredient entry as persisted: the display name
// the user gave and an amount string such as "2 kg", "500g" or "3 pieces".
// The canonical identity of an entry is its normalized key, which is derived
// from Name on every read rather than stored, because the external
// normalization capability may evolve.
type InventoryItem struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// KitchenInventory is the persisted inventory layout: an ordered list of
// items plus the time of the last successful reconciliation commit.
type KitchenInventory struct {
	Ingredients []InventoryItem `json:"ingredients"`
	LastUpdated time.Time       `json:"last_updated"`
}

// ConversationEntry is one message in a user's conversation history.
type ConversationEntry struct {
	Role      string    `json:"role"`      // "user" or "assistant"
	Content   string    `json:"content"`   // Message text
	Timestamp time.Time `json:"timestamp"` // When the message was recorded
}

// User is the per-user document owned by the dispatch pipeline for the
// duration of one serialized turn and persisted between turns. Users are
// created lazily on first contact and never deleted by this system.
type User struct {
	UserID              string              `json:"user_id"`      // e.g. USER_20240101123456_7890
	PhoneNumber         string              `json:"phone_number"` // E.164, without the whatsapp: prefix
	Name                string              `json:"name,omitempty"`
	Preferences         Preferences         `json:"preferences"`
	KitchenInventory    KitchenInventory    `json:"kitchen_inventory"`
	ConversationHistory []ConversationEntry `json:"conversation_history"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	IsActive            bool                `json:"is_active"`
}

// NewUser creates a user document for a phone number seen for the first time,
// with default preferences and an empty inventory. The user ID embeds a
// timestamp and the last four digits of the phone number.
func NewUser(phoneNumber string, now time.Time) *User {
	suffix := phoneNumber
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return &User{
		UserID:      fmt.Sprintf("USER_%s_%s", now.UTC().Format("20060102150405"), suffix),
		PhoneNumber: phoneNumber,
		Preferences: DefaultPreferences(),
		KitchenInventory: KitchenInventory{
			Ingredients: []InventoryItem{},
			LastUpdated: now.UTC(),
		},
		ConversationHistory: []ConversationEntry{},
		CreatedAt:           now.UTC(),
		UpdatedAt:           now.UTC(),
		IsActive:            true,
	}
}
