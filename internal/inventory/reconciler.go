// Package inventory implements unit-aware reconciliation of item deltas
// against a user's kitchen inventory. The current inventory is treated as an
// immutable snapshot; reconciliation produces a fresh item list plus one
// outcome record per input item, in input order.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrypster/sous/internal/units"
	"github.com/scrypster/sous/pkg/types"
)

// Mode selects whether a delta batch adds to or removes from the inventory.
type Mode string

const (
	ModeAdd    Mode = "add"
	ModeRemove Mode = "remove"
)

// OutcomeStatus classifies the result of one delta item.
type OutcomeStatus string

const (
	// OutcomeApplied means the delta was applied in full.
	OutcomeApplied OutcomeStatus = "applied"

	// OutcomePartialError means the item failed (bad unit, bad amount,
	// incompatible conversion, over-removal) and its stock is unchanged.
	OutcomePartialError OutcomeStatus = "partial_error"

	// OutcomeNotFound means a removal referenced an item not in the inventory.
	OutcomeNotFound OutcomeStatus = "not_found"

	// OutcomeCleared is the single summary record for a remove-all request.
	OutcomeCleared OutcomeStatus = "cleared"
)

// Outcome reports what happened to one delta item. Every input item produces
// exactly one outcome; nothing is silently dropped.
type Outcome struct {
	Name        string        // Display name (stored name when the item matched an entry)
	Status      OutcomeStatus // What happened
	FinalAmount string        // New stored amount after an applied add, or remainder after a partial removal
	Delta       string        // The amount added or removed in the stored unit; for a failed add, the attempted amount as given
	Reason      string        // Human-readable failure reason for PartialError/NotFound
}

// Result is the output of one reconciliation batch.
type Result struct {
	// Items is the reconciled inventory. When Committed is false it equals
	// the input snapshot: an add batch with any failing item is not
	// committed at all.
	Items []types.InventoryItem

	// Outcomes has one entry per input delta item, in input order
	// (or a single cleared record for remove-all).
	Outcomes []Outcome

	// Committed reports whether Items differs from the snapshot and should
	// be persisted. Add batches are all-or-nothing; remove batches commit
	// per item and are always committed.
	Committed bool
}

// Normalizer is the name-canonicalization dependency.
type Normalizer interface {
	Normalize(ctx context.Context, rawName string) string
}

// Reconciler applies delta batches to inventories.
type Reconciler struct {
	normalizer Normalizer
}

// NewReconciler creates a Reconciler using the given name normalizer.
func NewReconciler(normalizer Normalizer) *Reconciler {
	return &Reconciler{normalizer: normalizer}
}

// Reconcile applies a delta batch to the current inventory.
//
// Add mode: per-item parse, unit validation and conversion into the stored
// unit; one failing item marks the whole batch uncommitted (all-or-nothing)
// while the outcome report still lists every item's result so the user sees
// exactly what was wrong before retrying.
//
// Remove mode: removeAll clears everything with a single summary outcome.
// Otherwise each item commits as it goes; one item's failure never blocks
// its siblings. The amount token "all" removes the whole entry. Removal
// never drives stock negative: requesting more than is stocked reports an
// over-removal error and leaves the entry untouched.
func (r *Reconciler) Reconcile(ctx context.Context, current []types.InventoryItem, delta []types.IntentItem, mode Mode, removeAll bool) Result {
	if mode == ModeRemove && removeAll {
		return Result{
			Items: []types.InventoryItem{},
			Outcomes: []Outcome{{
				Status: OutcomeCleared,
				Delta:  fmt.Sprintf("%d items", len(current)),
			}},
			Committed: true,
		}
	}

	// Snapshot the current inventory keyed by normalized name, preserving
	// order. Identity is the normalized key, never the display name.
	keys := make([]string, 0, len(current))
	byKey := make(map[string]types.InventoryItem, len(current))
	for _, item := range current {
		key := r.normalizer.Normalize(ctx, item.Name)
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = item
	}

	switch mode {
	case ModeRemove:
		return r.removeItems(ctx, current, keys, byKey, delta)
	default:
		return r.addItems(ctx, current, keys, byKey, delta)
	}
}

func (r *Reconciler) addItems(ctx context.Context, current []types.InventoryItem, keys []string, byKey map[string]types.InventoryItem, delta []types.IntentItem) Result {
	outcomes := make([]Outcome, 0, len(delta))
	hasErrors := false

	for _, d := range delta {
		key := r.normalizer.Normalize(ctx, d.Name)

		value, unit, err := units.ParseAmount(d.Amount)
		if err != nil {
			outcomes = append(outcomes, Outcome{Name: d.Name, Status: OutcomePartialError, Delta: d.Amount, Reason: "invalid amount format"})
			hasErrors = true
			continue
		}
		if _, err := units.Validate(unit); err != nil {
			outcomes = append(outcomes, Outcome{Name: d.Name, Status: OutcomePartialError, Delta: d.Amount, Reason: err.Error()})
			hasErrors = true
			continue
		}

		existing, exists := byKey[key]
		if !exists {
			formatted := units.Format(value, unit)
			byKey[key] = types.InventoryItem{Name: d.Name, Amount: formatted}
			keys = append(keys, key)
			outcomes = append(outcomes, Outcome{
				Name:        d.Name,
				Status:      OutcomeApplied,
				FinalAmount: formatted,
				Delta:       formatted,
			})
			continue
		}

		currentValue, currentUnit, err := units.ParseAmount(existing.Amount)
		if err != nil {
			outcomes = append(outcomes, Outcome{Name: d.Name, Status: OutcomePartialError, Delta: d.Amount, Reason: fmt.Sprintf("stored amount %q has invalid format", existing.Amount)})
			hasErrors = true
			continue
		}
		// Stored data may carry a legacy unit that is no longer valid.
		// That fails the item loudly instead of crashing the batch.
		if _, err := units.Validate(currentUnit); err != nil {
			outcomes = append(outcomes, Outcome{Name: d.Name, Status: OutcomePartialError, Delta: d.Amount, Reason: fmt.Sprintf("stored amount has %v", err)})
			hasErrors = true
			continue
		}

		addValue := value
		if !sameUnit(unit, currentUnit) {
			converted, err := units.Convert(value, unit, currentUnit)
			if err != nil {
				outcomes = append(outcomes, Outcome{Name: d.Name, Status: OutcomePartialError, Delta: d.Amount, Reason: err.Error()})
				hasErrors = true
				continue
			}
			addValue = converted.Value
		}

		total := currentValue + addValue
		formatted := units.Format(total, currentUnit)
		existing.Amount = formatted
		byKey[key] = existing
		outcomes = append(outcomes, Outcome{
			Name:        d.Name,
			Status:      OutcomeApplied,
			FinalAmount: formatted,
			Delta:       units.Format(addValue, currentUnit),
		})
	}

	if hasErrors {
		// All-or-nothing: the batch is not committed, the report stands.
		return Result{Items: current, Outcomes: outcomes, Committed: false}
	}

	return Result{Items: itemsInOrder(keys, byKey), Outcomes: outcomes, Committed: true}
}

func (r *Reconciler) removeItems(ctx context.Context, current []types.InventoryItem, keys []string, byKey map[string]types.InventoryItem, delta []types.IntentItem) Result {
	outcomes := make([]Outcome, 0, len(delta))

	for _, d := range delta {
		key := r.normalizer.Normalize(ctx, d.Name)

		existing, exists := byKey[key]
		if !exists {
			outcomes = append(outcomes, Outcome{Name: d.Name, Status: OutcomeNotFound, Reason: "item not found in inventory"})
			continue
		}

		if strings.EqualFold(strings.TrimSpace(d.Amount), "all") {
			delete(byKey, key)
			outcomes = append(outcomes, Outcome{
				Name:   existing.Name,
				Status: OutcomeApplied,
				Delta:  existing.Amount,
			})
			continue
		}

		currentValue, currentUnit, err := units.ParseAmount(existing.Amount)
		if err != nil {
			outcomes = append(outcomes, Outcome{Name: existing.Name, Status: OutcomePartialError, Reason: fmt.Sprintf("stored amount %q has invalid format", existing.Amount)})
			continue
		}
		removeValue, removeUnit, err := units.ParseAmount(d.Amount)
		if err != nil {
			outcomes = append(outcomes, Outcome{Name: existing.Name, Status: OutcomePartialError, Reason: "invalid amount format"})
			continue
		}

		if !sameUnit(removeUnit, currentUnit) {
			converted, err := units.Convert(removeValue, removeUnit, currentUnit)
			if err != nil {
				// Conversion failure never removes partial stock.
				outcomes = append(outcomes, Outcome{Name: existing.Name, Status: OutcomePartialError, Reason: err.Error()})
				continue
			}
			removeValue = converted.Value
		}

		switch {
		case currentValue > removeValue:
			remaining := currentValue - removeValue
			existing.Amount = units.Format(remaining, currentUnit)
			byKey[key] = existing
			outcomes = append(outcomes, Outcome{
				Name:        existing.Name,
				Status:      OutcomeApplied,
				FinalAmount: existing.Amount,
				Delta:       units.Format(removeValue, currentUnit),
			})
		case currentValue == removeValue:
			delete(byKey, key)
			outcomes = append(outcomes, Outcome{
				Name:   existing.Name,
				Status: OutcomeApplied,
				Delta:  existing.Amount,
			})
		default:
			outcomes = append(outcomes, Outcome{
				Name:        existing.Name,
				Status:      OutcomePartialError,
				FinalAmount: existing.Amount,
				Reason:      "requested amount exceeds available amount",
			})
		}
	}

	// Remove commits per item: whatever succeeded stays applied even when
	// sibling items failed.
	return Result{Items: itemsInOrder(keys, byKey), Outcomes: outcomes, Committed: true}
}

// itemsInOrder rebuilds the inventory list in stable key order, skipping
// removed entries.
func itemsInOrder(keys []string, byKey map[string]types.InventoryItem) []types.InventoryItem {
	items := make([]types.InventoryItem, 0, len(byKey))
	for _, key := range keys {
		if item, ok := byKey[key]; ok {
			items = append(items, item)
		}
	}
	return items
}

// sameUnit reports whether two unit tokens normalize to the same alias.
func sameUnit(a, b string) bool {
	na, errA := units.Validate(a)
	nb, errB := units.Validate(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	return na == nb
}
