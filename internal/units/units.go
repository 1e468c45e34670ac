// Package units implements parsing, validation, conversion and formatting of
// kitchen measurement amounts. Units belong to one of three dimension
// classes (weight, volume, count); arithmetic is only defined between units
// of the same class and never coerces across classes.
package units

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Class is a dimension class. Units of different classes are never
// convertible.
type Class string

const (
	ClassWeight Class = "weight" // base unit: gram
	ClassVolume Class = "volume" // base unit: milliliter
	ClassCount  Class = "count"  // base unit: piece
)

// DefaultUnit is assumed when an amount is a bare numeral.
const DefaultUnit = "piece"

// Quantity is a value with its unit, e.g. {2, "kg"}.
type Quantity struct {
	Value float64
	Unit  string
}

// String renders the quantity the way it is stored and shown to users.
func (q Quantity) String() string {
	return Format(q.Value, q.Unit)
}

// unitInfo describes one alias in the conversion table.
type unitInfo struct {
	class  Class
	factor float64 // multiplier to the class base unit
}

// conversionTable maps every accepted unit alias to its class and
// factor-to-base. Aliases are stored in singular form; Validate strips one
// trailing "s" before lookup so both "kilo" and "kilos" resolve here.
var conversionTable = map[string]unitInfo{
	// Weight (base: gram)
	"g":        {ClassWeight, 1},
	"gram":     {ClassWeight, 1},
	"kg":       {ClassWeight, 1000},
	"kilo":     {ClassWeight, 1000},
	"kilogram": {ClassWeight, 1000},
	// Volume (base: milliliter)
	"ml":         {ClassVolume, 1},
	"milliliter": {ClassVolume, 1},
	"l":          {ClassVolume, 1000},
	"liter":      {ClassVolume, 1000},
	// Count (base: piece)
	"piece": {ClassCount, 1},
	"pc":    {ClassCount, 1},
	"pcs":   {ClassCount, 1},
	"whole": {ClassCount, 1},
}

// ErrInvalidAmountFormat is returned by ParseAmount when the text matches
// none of the three accepted forms.
var ErrInvalidAmountFormat = errors.New("invalid amount format")

// UnknownUnitError is returned when a unit is not in the conversion table.
// Suggestions lists known aliases sharing a substring with the input, for a
// "did you mean" message; callers surface the ambiguity, never auto-correct.
type UnknownUnitError struct {
	Unit        string
	Suggestions []string
}

func (e *UnknownUnitError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("unknown unit %q, did you mean: %s?", e.Unit, strings.Join(e.Suggestions, ", "))
	}
	return fmt.Sprintf("unknown unit %q, supported units are: g, kg, ml, l, piece", e.Unit)
}

// IncompatibleUnitsError is returned when a conversion crosses dimension
// classes, e.g. grams to liters.
type IncompatibleUnitsError struct {
	From string
	To   string
}

func (e *IncompatibleUnitsError) Error() string {
	return fmt.Sprintf("cannot convert between %s and %s", e.From, e.To)
}

// Validate normalizes a unit token (lowercase, one trailing "s" stripped) and
// looks it up in the conversion table. On failure it returns an
// *UnknownUnitError carrying substring-based suggestions.
func Validate(unit string) (string, error) {
	normalized := normalizeUnit(unit)
	if _, ok := conversionTable[normalized]; ok {
		return normalized, nil
	}

	var suggestions []string
	for alias := range conversionTable {
		if normalized != "" && (strings.Contains(alias, normalized) || strings.Contains(normalized, alias)) {
			suggestions = append(suggestions, alias)
		}
	}
	sort.Strings(suggestions)
	return "", &UnknownUnitError{Unit: unit, Suggestions: suggestions}
}

// ClassOf returns the dimension class of a unit.
func ClassOf(unit string) (Class, error) {
	normalized, err := Validate(unit)
	if err != nil {
		return "", err
	}
	return conversionTable[normalized].class, nil
}

// Convert converts value from one unit to another within the same dimension
// class. It returns *UnknownUnitError for units outside the table and
// *IncompatibleUnitsError when the classes differ.
func Convert(value float64, from, to string) (Quantity, error) {
	fromNorm, err := Validate(from)
	if err != nil {
		return Quantity{}, err
	}
	toNorm, err := Validate(to)
	if err != nil {
		return Quantity{}, err
	}

	fromInfo := conversionTable[fromNorm]
	toInfo := conversionTable[toNorm]
	if fromInfo.class != toInfo.class {
		return Quantity{}, &IncompatibleUnitsError{From: fromNorm, To: toNorm}
	}

	converted := value * fromInfo.factor / toInfo.factor
	return Quantity{Value: converted, Unit: toNorm}, nil
}

// Format renders a value with its unit: integral values without a fractional
// part, others rounded to two decimals. The unit token is used as given;
// pluralization is deliberately not applied.
func Format(value float64, unit string) string {
	if value == math.Trunc(value) && !math.IsInf(value, 0) {
		return fmt.Sprintf("%d %s", int64(value), unit)
	}
	rounded := math.Round(value*100) / 100
	return fmt.Sprintf("%s %s", strconv.FormatFloat(rounded, 'f', -1, 64), unit)
}

// amountPattern matches a numeral directly concatenated with a unit token,
// e.g. "500g" or "1.5kg".
var amountPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([a-zA-Z]+)$`)

// ParseAmount parses an amount string into value and unit. Three forms are
// accepted, tried in order: a bare numeral (unit defaults to "piece"), a
// numeral glued to a unit token ("500g"), and a numeral and unit separated by
// exactly one space token ("2 kg"). Anything else fails with
// ErrInvalidAmountFormat; there is no fallback guessing.
func ParseAmount(text string) (float64, string, error) {
	trimmed := strings.TrimSpace(text)

	if value, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return value, DefaultUnit, nil
	}

	if m := amountPattern.FindStringSubmatch(trimmed); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return value, m[2], nil
		}
	}

	parts := strings.Fields(trimmed)
	if len(parts) == 2 {
		if value, err := strconv.ParseFloat(parts[0], 64); err == nil {
			return value, parts[1], nil
		}
	}

	return 0, "", fmt.Errorf("%w: %q", ErrInvalidAmountFormat, text)
}

// normalizeUnit lowercases and strips a single trailing pluralizing "s",
// unless the token is itself a known alias ("pcs").
func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if len(u) > 1 && strings.HasSuffix(u, "s") {
		if _, ok := conversionTable[u]; !ok {
			u = strings.TrimSuffix(u, "s")
		}
	}
	return u
}
