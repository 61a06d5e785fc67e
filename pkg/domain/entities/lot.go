package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LotID represents a unique purchase lot identifier
type LotID string

// Lot represents one purchase event's individually cost-tracked quantity of an ingredient
type Lot struct {
	ID           LotID
	IngredientID IngredientID
	PurchaseDate time.Time
	InitialQty   decimal.Decimal // stock units, immutable
	UnitCost     decimal.Decimal // per stock unit, immutable
	RemainingQty decimal.Decimal
	Sequence     int64 // insertion order, assigned by the repository
}

// NewLot creates a validated Lot with its full quantity remaining
func NewLot(id LotID, ingredientID IngredientID, initialQty, unitCost decimal.Decimal, purchaseDate time.Time) (*Lot, error) {
	if id == "" {
		return nil, NewValidationError("lot_id", "lot id cannot be empty")
	}
	if ingredientID == "" {
		return nil, NewValidationError("ingredient_id", "ingredient id cannot be empty")
	}
	if !initialQty.IsPositive() {
		return nil, NewValidationError("initial_qty_stock", fmt.Sprintf("initial quantity must be positive, got %s", initialQty))
	}
	if unitCost.IsNegative() {
		return nil, NewValidationError("unit_cost", fmt.Sprintf("unit cost cannot be negative, got %s", unitCost))
	}

	return &Lot{
		ID:           id,
		IngredientID: ingredientID,
		PurchaseDate: purchaseDate,
		InitialQty:   initialQty,
		UnitCost:     unitCost,
		RemainingQty: initialQty,
	}, nil
}

// IsDepleted reports whether nothing remains in the lot
func (l Lot) IsDepleted() bool {
	return !l.RemainingQty.IsPositive()
}

// Consume removes qty from the lot and returns the cost of the consumed portion
func (l *Lot) Consume(qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("consume quantity must be positive, got %s", qty)
	}
	if qty.GreaterThan(l.RemainingQty) {
		return decimal.Zero, fmt.Errorf("cannot consume %s from lot %s with %s remaining", qty, l.ID, l.RemainingQty)
	}
	l.RemainingQty = l.RemainingQty.Sub(qty)
	return qty.Mul(l.UnitCost), nil
}

// Value returns the cost of the stock still held in the lot
func (l Lot) Value() decimal.Decimal {
	return l.RemainingQty.Mul(l.UnitCost)
}

// Before reports whether l is consumed before other under FIFO ordering
func (l Lot) Before(other Lot) bool {
	if !l.PurchaseDate.Equal(other.PurchaseDate) {
		return l.PurchaseDate.Before(other.PurchaseDate)
	}
	return l.Sequence < other.Sequence
}
