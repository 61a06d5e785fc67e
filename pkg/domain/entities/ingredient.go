package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IngredientID represents a unique ingredient identifier
type IngredientID string

// Ingredient represents a stocked ingredient with its units and cached ledger figures
type Ingredient struct {
	ID              IngredientID
	Name            string
	StockUnit       string
	BuyUnit         string
	BuyToStockRatio decimal.Decimal // one buy unit equals this many stock units
	MinStock        decimal.Decimal

	// Derived from the lot ledger after every mutation. Never authoritative.
	CurrentStock       decimal.Decimal
	CurrentCostPerUnit decimal.Decimal
	UpdatedAt          time.Time
}

// NewIngredient creates a validated Ingredient
func NewIngredient(id IngredientID, name, stockUnit, buyUnit string, ratio, minStock decimal.Decimal) (*Ingredient, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, NewValidationError("id", "ingredient id cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "ingredient name cannot be empty")
	}
	if strings.TrimSpace(stockUnit) == "" {
		return nil, NewValidationError("stock_unit", "stock unit cannot be empty")
	}
	if !ratio.IsPositive() {
		return nil, NewValidationError("buy_to_stock_ratio", fmt.Sprintf("ratio must be positive, got %s", ratio))
	}
	if minStock.IsNegative() {
		return nil, NewValidationError("min_stock", fmt.Sprintf("minimum stock cannot be negative, got %s", minStock))
	}

	return &Ingredient{
		ID:              id,
		Name:            name,
		StockUnit:       stockUnit,
		BuyUnit:         buyUnit,
		BuyToStockRatio: ratio,
		MinStock:        minStock,
	}, nil
}

// IsLowStock reports whether the cached stock is below the minimum threshold
func (i Ingredient) IsLowStock() bool {
	return i.CurrentStock.LessThan(i.MinStock)
}

// Match reports how the lookup key matches this ingredient
func (i Ingredient) Match(key string) MatchRank {
	return MatchIDOrName(string(i.ID), i.Name, key)
}

// IngredientPatch carries the fields an upsert may change. Nil fields are left alone.
type IngredientPatch struct {
	Name            *string
	StockUnit       *string
	BuyUnit         *string
	BuyToStockRatio *decimal.Decimal
	MinStock        *decimal.Decimal
}

// Apply merges the non-nil fields of the patch into the ingredient
func (p IngredientPatch) Apply(i *Ingredient) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.StockUnit != nil {
		i.StockUnit = *p.StockUnit
	}
	if p.BuyUnit != nil {
		i.BuyUnit = *p.BuyUnit
	}
	if p.BuyToStockRatio != nil {
		i.BuyToStockRatio = *p.BuyToStockRatio
	}
	if p.MinStock != nil {
		i.MinStock = *p.MinStock
	}
}

// MatchRank orders lookup matches. Higher ranks win.
type MatchRank int

const (
	NoMatch MatchRank = iota
	NameMatch
	IDMatch
)

// MatchIDOrName compares a lookup key against an id and a name, case-insensitively
func MatchIDOrName(id, name, key string) MatchRank {
	key = strings.TrimSpace(key)
	if key == "" {
		return NoMatch
	}
	if strings.EqualFold(strings.TrimSpace(id), key) {
		return IDMatch
	}
	if strings.EqualFold(strings.TrimSpace(name), key) {
		return NameMatch
	}
	return NoMatch
}
