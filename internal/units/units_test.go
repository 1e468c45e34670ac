package units_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/sous/internal/units"
)

func TestValidate_KnownAliases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"g", "g"},
		{"G", "g"},
		{"grams", "gram"},
		{"kg", "kg"},
		{"Kilos", "kilo"},
		{"kilograms", "kilogram"},
		{"ml", "ml"},
		{"liters", "liter"},
		{"l", "l"},
		{"piece", "piece"},
		{"pieces", "piece"},
		{"pcs", "pcs"},
		{"pc", "pc"},
		{"whole", "whole"},
		{" kg ", "kg"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := units.Validate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_UnknownUnit(t *testing.T) {
	_, err := units.Validate("ltr")
	require.Error(t, err)

	var unknownErr *units.UnknownUnitError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "ltr", unknownErr.Unit)
}

func TestValidate_SuggestionsShareSubstring(t *testing.T) {
	tests := []struct {
		input string
	}{
		{"kilogramme"},
		{"gra"},
		{"milli"},
		{"oz"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := units.Validate(tt.input)
			require.Error(t, err)

			var unknownErr *units.UnknownUnitError
			require.True(t, errors.As(err, &unknownErr))

			normalized := strings.ToLower(tt.input)
			for _, s := range unknownErr.Suggestions {
				// Every suggestion must share a substring with the input in
				// one direction or the other. Never a blind guess.
				sharesSubstring := strings.Contains(s, normalized) || strings.Contains(normalized, s)
				assert.True(t, sharesSubstring, "suggestion %q unrelated to %q", s, tt.input)
			}
		})
	}
}

func TestConvert_SameClass(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		from  string
		to    string
		want  float64
	}{
		{"kg to g", 2, "kg", "g", 2000},
		{"g to kg", 500, "g", "kg", 0.5},
		{"l to ml", 1.5, "l", "ml", 1500},
		{"ml to l", 250, "ml", "l", 0.25},
		{"pieces to pieces", 3, "pieces", "piece", 3},
		{"same unit", 42, "g", "g", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := units.Convert(tt.value, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.Value, 1e-9)
		})
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	pairs := []struct {
		from string
		to   string
	}{
		{"g", "kg"},
		{"kg", "gram"},
		{"ml", "l"},
		{"liter", "milliliter"},
		{"piece", "whole"},
	}

	for _, p := range pairs {
		t.Run(p.from+"_"+p.to, func(t *testing.T) {
			const value = 123.456
			there, err := units.Convert(value, p.from, p.to)
			require.NoError(t, err)
			back, err := units.Convert(there.Value, p.to, p.from)
			require.NoError(t, err)
			assert.InDelta(t, value, back.Value, 1e-9)
		})
	}
}

func TestConvert_CrossClassFails(t *testing.T) {
	tests := []struct {
		from string
		to   string
	}{
		{"g", "ml"},
		{"kg", "l"},
		{"piece", "g"},
		{"ml", "piece"},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_"+tt.to, func(t *testing.T) {
			_, err := units.Convert(1, tt.from, tt.to)
			require.Error(t, err)

			var incompatible *units.IncompatibleUnitsError
			assert.True(t, errors.As(err, &incompatible))
		})
	}
}

func TestConvert_UnknownUnitFails(t *testing.T) {
	_, err := units.Convert(1, "ltr", "ml")
	var unknownErr *units.UnknownUnitError
	assert.True(t, errors.As(err, &unknownErr))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		value float64
		unit  string
		want  string
	}{
		{2, "kg", "2 kg"},
		{2.5, "kg", "2.5 kg"},
		{0.3333333, "l", "0.33 l"},
		{1000, "g", "1000 g"},
		{1.999, "kg", "2 kg"},
		{3, "pieces", "3 pieces"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, units.Format(tt.value, tt.unit))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue float64
		wantUnit  string
	}{
		{"bare numeral defaults to piece", "5", 5, "piece"},
		{"bare decimal", "2.5", 2.5, "piece"},
		{"glued unit", "500g", 500, "g"},
		{"glued decimal unit", "1.5kg", 1.5, "kg"},
		{"spaced unit", "2 kg", 2, "kg"},
		{"spaced decimal", "0.5 l", 0.5, "l"},
		{"surrounding whitespace", "  3 pieces ", 3, "pieces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, unit, err := units.ParseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	tests := []string{
		"",
		"some",
		"kg 2",
		"2 kg extra",
		"two kg",
		"1,5 kg",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, _, err := units.ParseAmount(input)
			assert.ErrorIs(t, err, units.ErrInvalidAmountFormat)
		})
	}
}

func TestQuantityString(t *testing.T) {
	q := units.Quantity{Value: 2.5, Unit: "kg"}
	assert.Equal(t, "2.5 kg", q.String())
}
