package intent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/sous/internal/intent"
	"github.com/scrypster/sous/pkg/types"
)

type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteJSON(ctx, prompt)
}

func (f *fakeGenerator) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) GetModel() string { return "fake" }

func classify(t *testing.T, response string) types.Intent {
	t.Helper()
	c := intent.NewClassifier(&fakeGenerator{response: response})
	return c.Classify(context.Background(), "message", types.DefaultPreferences())
}

func TestClassify_UpdateInventory(t *testing.T) {
	got := classify(t, `{"action": "update_inventory", "items": [{"name": "tomatoes", "amount": "2 kg"}]}`)

	assert.Equal(t, types.ActionUpdateInventory, got.Action)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "tomatoes", got.Items[0].Name)
	assert.Equal(t, "2 kg", got.Items[0].Amount)
}

func TestClassify_RemoveAll(t *testing.T) {
	got := classify(t, `{"action": "remove_inventory", "items": [], "remove_all": true}`)

	assert.Equal(t, types.ActionRemoveInventory, got.Action)
	assert.True(t, got.RemoveAll)
	assert.Empty(t, got.Items)
}

func TestClassify_MarkdownFencedJSON(t *testing.T) {
	got := classify(t, "```json\n{\"action\": \"get_inventory\"}\n```")
	assert.Equal(t, types.ActionGetInventory, got.Action)
}

func TestClassify_DegradesToGeneralConversation(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"invalid json", "not json at all"},
		{"missing action", `{"items": []}`},
		{"unknown action", `{"action": "order_pizza"}`},
		{"item missing amount", `{"action": "update_inventory", "items": [{"name": "tomatoes"}]}`},
		{"item missing name", `{"action": "remove_inventory", "items": [{"amount": "2 kg"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(t, tt.response)
			assert.Equal(t, types.ActionGeneralConversation, got.Action)
		})
	}
}

func TestClassify_ProviderErrorDegrades(t *testing.T) {
	c := intent.NewClassifier(&fakeGenerator{err: errors.New("provider down")})

	got := c.Classify(context.Background(), "I have 2 kg of tomatoes", types.DefaultPreferences())
	assert.Equal(t, types.ActionGeneralConversation, got.Action)
}

func TestClassifyInventoryQuery(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     types.InventoryQuery
	}{
		{
			name:     "all",
			response: `{"type": "all"}`,
			want:     types.InventoryQuery{Type: types.InventoryQueryAll},
		},
		{
			name:     "specific",
			response: `{"type": "specific", "items": ["tomato"]}`,
			want:     types.InventoryQuery{Type: types.InventoryQuerySpecific, Items: []string{"tomato"}},
		},
		{
			name:     "category",
			response: `{"type": "category", "categories": ["vegetable"]}`,
			want:     types.InventoryQuery{Type: types.InventoryQueryCategory, Categories: []string{"vegetable"}},
		},
		{
			name:     "specific without items falls back to all",
			response: `{"type": "specific"}`,
			want:     types.InventoryQuery{Type: types.InventoryQueryAll},
		},
		{
			name: "provider error falls back to all",
			err:  errors.New("provider down"),
			want: types.InventoryQuery{Type: types.InventoryQueryAll},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := intent.NewClassifier(&fakeGenerator{response: tt.response, err: tt.err})
			got := c.ClassifyInventoryQuery(context.Background(), "show my inventory")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorizeItem_FallsBackToOther(t *testing.T) {
	c := intent.NewClassifier(&fakeGenerator{err: errors.New("provider down")})
	assert.Equal(t, []string{"other"}, c.CategorizeItem(context.Background(), "tomato"))

	c = intent.NewClassifier(&fakeGenerator{response: `{"categories": ["fruit"]}`})
	assert.Equal(t, []string{"fruit"}, c.CategorizeItem(context.Background(), "apple"))
}
