// Package sqlite implements storage.UserStore on SQLite via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/pkg/types"
)

// Schema creates the users table. Nested document structures are stored as
// JSON text columns so each field update is one atomic statement.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id              TEXT PRIMARY KEY,
    phone_number         TEXT NOT NULL UNIQUE,
    name                 TEXT NOT NULL DEFAULT '',
    preferences          TEXT NOT NULL DEFAULT '{}',
    kitchen_inventory    TEXT NOT NULL DEFAULT '{}',
    conversation_history TEXT NOT NULL DEFAULT '[]',
    created_at           TIMESTAMP NOT NULL,
    updated_at           TIMESTAMP NOT NULL,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone_number);
`

// UserStore implements storage.UserStore using SQLite.
type UserStore struct {
	db *sql.DB
}

// NewUserStore opens a SQLite database, configures WAL mode and creates the
// schema.
func NewUserStore(dsn string) (*UserStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &UserStore{db: db}, nil
}

// FindByPhone retrieves a user by phone number.
func (s *UserStore) FindByPhone(ctx context.Context, phoneNumber string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, phone_number, name, preferences, kitchen_inventory,
		       conversation_history, created_at, updated_at, is_active
		FROM users WHERE phone_number = ?
	`, phoneNumber)
	return scanUser(row)
}

// Insert creates a new user row.
func (s *UserStore) Insert(ctx context.Context, user *types.User) error {
	prefs, inventory, history, err := marshalDocFields(user)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, phone_number, name, preferences,
		                   kitchen_inventory, conversation_history,
		                   created_at, updated_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.UserID, user.PhoneNumber, user.Name, prefs, inventory, history,
		user.CreatedAt, user.UpdatedAt, boolToInt(user.IsActive))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", storage.ErrDuplicatePhone, user.PhoneNumber)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateInventory atomically replaces the user's kitchen inventory column.
func (s *UserStore) UpdateInventory(ctx context.Context, userID string, inventory types.KitchenInventory, updatedAt time.Time) error {
	data, err := json.Marshal(inventory)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}
	return s.updateField(ctx, userID, "kitchen_inventory", string(data), updatedAt)
}

// UpdateConversation atomically replaces the user's conversation history column.
func (s *UserStore) UpdateConversation(ctx context.Context, userID string, history []types.ConversationEntry, updatedAt time.Time) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	return s.updateField(ctx, userID, "conversation_history", string(data), updatedAt)
}

// UpdatePreferences atomically replaces the user's preferences column.
func (s *UserStore) UpdatePreferences(ctx context.Context, userID string, prefs types.Preferences, updatedAt time.Time) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	return s.updateField(ctx, userID, "preferences", string(data), updatedAt)
}

// CountUsers returns the total number of users.
func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (s *UserStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying connection for stats handlers.
func (s *UserStore) GetDB() *sql.DB {
	return s.db
}

func (s *UserStore) updateField(ctx context.Context, userID, column, value string, updatedAt time.Time) error {
	// Column names come from a fixed internal set, never from input.
	query := fmt.Sprintf("UPDATE users SET %s = ?, updated_at = ? WHERE user_id = ?", column)
	result, err := s.db.ExecContext(ctx, query, value, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*types.User, error) {
	var user types.User
	var prefs, inventory, history string
	var isActive int

	err := row.Scan(&user.UserID, &user.PhoneNumber, &user.Name, &prefs,
		&inventory, &history, &user.CreatedAt, &user.UpdatedAt, &isActive)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if err := json.Unmarshal([]byte(prefs), &user.Preferences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(inventory), &user.KitchenInventory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &user.ConversationHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	user.IsActive = isActive != 0
	return &user, nil
}

func marshalDocFields(user *types.User) (prefs, inventory, history string, err error) {
	p, err := json.Marshal(user.Preferences)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal preferences: %w", err)
	}
	i, err := json.Marshal(user.KitchenInventory)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal inventory: %w", err)
	}
	h, err := json.Marshal(user.ConversationHistory)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	return string(p), string(i), string(h), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time assertion.
var _ storage.UserStore = (*UserStore)(nil)
