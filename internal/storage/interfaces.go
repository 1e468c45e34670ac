// Package storage provides the persistence interface for user documents.
//
// The store is deliberately document-shaped: each user is one row whose
// nested structures (preferences, inventory, conversation history) are JSON
// columns, and every update replaces whole fields in a single statement.
// The dispatch pipeline never needs cross-user consistency, so no
// multi-document transactions exist.
package storage

import (
	"context"
	"time"

	"github.com/scrypster/sous/pkg/types"
)

// UserStore provides lookup and field-level updates for user documents.
// Updates are atomic per document: one statement, no partial-field races
// within a single call.
type UserStore interface {
	// FindByPhone retrieves a user by phone number.
	// Returns ErrNotFound if no user exists for that number.
	FindByPhone(ctx context.Context, phoneNumber string) (*types.User, error)

	// Insert creates a new user. Returns an error if the phone number is
	// already taken; callers re-read on conflict (concurrent first contact).
	Insert(ctx context.Context, user *types.User) error

	// UpdateInventory atomically replaces the user's kitchen inventory.
	// Returns ErrNotFound if the user doesn't exist.
	UpdateInventory(ctx context.Context, userID string, inventory types.KitchenInventory, updatedAt time.Time) error

	// UpdateConversation atomically replaces the user's conversation history.
	// Returns ErrNotFound if the user doesn't exist.
	UpdateConversation(ctx context.Context, userID string, history []types.ConversationEntry, updatedAt time.Time) error

	// UpdatePreferences atomically replaces the user's preferences.
	// Returns ErrNotFound if the user doesn't exist.
	UpdatePreferences(ctx context.Context, userID string, prefs types.Preferences, updatedAt time.Time) error

	// CountUsers returns the number of users, for stats reporting.
	CountUsers(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
