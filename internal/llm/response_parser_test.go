package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipesResponseDropsInvalid(t *testing.T) {
	raw := `{"recipes": [
		{"name": "Toast", "description": "Bread", "steps": ["Toast it"]},
		{"name": "", "description": "No name", "steps": ["x"]},
		{"name": "No steps", "description": "x", "steps": []}
	]}`

	recipes, err := ParseRecipesResponse(raw)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Toast", recipes[0].Name)
}

func TestParseRecipesResponseCapsAtRuneBoundaries(t *testing.T) {
	// 120 two-byte runes: a byte-offset slice at 97 would split a rune.
	desc := strings.Repeat("ü", 120)
	step := strings.Repeat("é", 200)
	raw := `{"recipes": [{"name": "Test", "description": "` + desc + `", "steps": ["` + step + `"]}]}`

	recipes, err := ParseRecipesResponse(raw)
	require.NoError(t, err)
	require.Len(t, recipes, 1)

	got := recipes[0]
	assert.True(t, utf8.ValidString(got.Description), "description must stay valid UTF-8")
	assert.True(t, utf8.ValidString(got.Steps[0]), "step must stay valid UTF-8")
	assert.Len(t, []rune(got.Description), 100)
	assert.Len(t, []rune(got.Steps[0]), 150)
	assert.True(t, strings.HasSuffix(got.Description, "..."))
	assert.True(t, strings.HasSuffix(got.Steps[0], "..."))
}

func TestParseRecipesResponseShortFieldsUntouched(t *testing.T) {
	raw := `{"recipes": [{"name": "Toast", "description": "Bread, toasted", "steps": ["Toast the bread"]}]}`

	recipes, err := ParseRecipesResponse(raw)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Bread, toasted", recipes[0].Description)
	assert.Equal(t, "Toast the bread", recipes[0].Steps[0])
}

func TestParseRecipesResponseStripsFences(t *testing.T) {
	raw := "```json\n{\"recipes\": [{\"name\": \"Toast\", \"description\": \"x\", \"steps\": [\"y\"]}]}\n```"

	recipes, err := ParseRecipesResponse(raw)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
}
