package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	store, err := NewUserStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertAndFindByPhone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	user := types.NewUser("+4915112345678", now)
	user.KitchenInventory.Ingredients = []types.InventoryItem{
		{Name: "Tomatoes", Amount: "2 kg"},
		{Name: "rice", Amount: "500 g"},
	}

	if err := store.Insert(ctx, user); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	got, err := store.FindByPhone(ctx, "+4915112345678")
	if err != nil {
		t.Fatalf("FindByPhone() failed: %v", err)
	}
	if got.UserID != user.UserID {
		t.Errorf("UserID: got %q, want %q", got.UserID, user.UserID)
	}
	if got.Preferences.ChefPersonality != types.PersonalityWarm {
		t.Errorf("ChefPersonality: got %q, want %q", got.Preferences.ChefPersonality, types.PersonalityWarm)
	}
	if len(got.KitchenInventory.Ingredients) != 2 {
		t.Fatalf("Ingredients: got %d items, want 2", len(got.KitchenInventory.Ingredients))
	}
	if got.KitchenInventory.Ingredients[0].Name != "Tomatoes" {
		t.Errorf("first ingredient: got %q, want %q", got.KitchenInventory.Ingredients[0].Name, "Tomatoes")
	}
	if !got.IsActive {
		t.Error("IsActive: got false, want true")
	}
}

func TestFindByPhoneNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindByPhone(context.Background(), "+10000000000")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindByPhone() error = %v, want ErrNotFound", err)
	}
}

func TestInsertDuplicatePhone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	first := types.NewUser("+4915112345678", now)
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("first Insert() failed: %v", err)
	}

	second := types.NewUser("+4915112345678", now.Add(time.Second))
	err := store.Insert(ctx, second)
	if !errors.Is(err, storage.ErrDuplicatePhone) {
		t.Errorf("second Insert() error = %v, want ErrDuplicatePhone", err)
	}
}

func TestUpdateInventory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	user := types.NewUser("+4915112345678", now)
	if err := store.Insert(ctx, user); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	updated := types.KitchenInventory{
		Ingredients: []types.InventoryItem{{Name: "onion", Amount: "3 piece"}},
		LastUpdated: now.Add(time.Minute),
	}
	if err := store.UpdateInventory(ctx, user.UserID, updated, now.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateInventory() failed: %v", err)
	}

	got, err := store.FindByPhone(ctx, user.PhoneNumber)
	if err != nil {
		t.Fatalf("FindByPhone() failed: %v", err)
	}
	if len(got.KitchenInventory.Ingredients) != 1 || got.KitchenInventory.Ingredients[0].Name != "onion" {
		t.Errorf("inventory after update: got %+v, want single onion entry", got.KitchenInventory.Ingredients)
	}
	if !got.UpdatedAt.After(user.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: got %v, insert was %v", got.UpdatedAt, user.UpdatedAt)
	}
}

func TestUpdateInventoryUnknownUser(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateInventory(context.Background(), "USER_nope", types.KitchenInventory{}, time.Now())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateInventory() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	user := types.NewUser("+4915112345678", now)
	if err := store.Insert(ctx, user); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	history := []types.ConversationEntry{
		{Role: "user", Content: "Add 2 kg rice", Timestamp: now},
		{Role: "assistant", Content: "Done!", Timestamp: now},
	}
	if err := store.UpdateConversation(ctx, user.UserID, history, now); err != nil {
		t.Fatalf("UpdateConversation() failed: %v", err)
	}

	got, err := store.FindByPhone(ctx, user.PhoneNumber)
	if err != nil {
		t.Fatalf("FindByPhone() failed: %v", err)
	}
	if len(got.ConversationHistory) != 2 {
		t.Fatalf("ConversationHistory: got %d entries, want 2", len(got.ConversationHistory))
	}
	if got.ConversationHistory[1].Role != "assistant" {
		t.Errorf("second entry role: got %q, want %q", got.ConversationHistory[1].Role, "assistant")
	}
}

func TestUpdatePreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	user := types.NewUser("+4915112345678", now)
	if err := store.Insert(ctx, user); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	prefs := user.Preferences
	prefs.ChefPersonality = types.PersonalityFunny
	prefs.DietaryRestrictions = []string{"vegetarian"}
	if err := store.UpdatePreferences(ctx, user.UserID, prefs, now); err != nil {
		t.Fatalf("UpdatePreferences() failed: %v", err)
	}

	got, err := store.FindByPhone(ctx, user.PhoneNumber)
	if err != nil {
		t.Fatalf("FindByPhone() failed: %v", err)
	}
	if got.Preferences.ChefPersonality != types.PersonalityFunny {
		t.Errorf("ChefPersonality: got %q, want %q", got.Preferences.ChefPersonality, types.PersonalityFunny)
	}
	if len(got.Preferences.DietaryRestrictions) != 1 {
		t.Errorf("DietaryRestrictions: got %v, want one entry", got.Preferences.DietaryRestrictions)
	}
}

func TestCountUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("empty store count: got %d, want 0", count)
	}

	now := time.Now().UTC()
	for i, phone := range []string{"+491511111111", "+491512222222"} {
		if err := store.Insert(ctx, types.NewUser(phone, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Insert(%s) failed: %v", phone, err)
		}
	}

	count, err = store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}
}
