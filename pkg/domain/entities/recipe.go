package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MenuID represents a unique menu item identifier
type MenuID string

// Menu represents a sellable dish
type Menu struct {
	ID    MenuID
	Name  string
	Price decimal.Decimal // list price per serving, zero when unpriced
}

// NewMenu creates a validated Menu
func NewMenu(id MenuID, name string, price decimal.Decimal) (*Menu, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, NewValidationError("menu_id", "menu id cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "menu name cannot be empty")
	}
	if price.IsNegative() {
		return nil, NewValidationError("price", fmt.Sprintf("price cannot be negative, got %s", price))
	}
	return &Menu{ID: id, Name: name, Price: price}, nil
}

// Match reports how the lookup key matches this menu
func (m Menu) Match(key string) MatchRank {
	return MatchIDOrName(string(m.ID), m.Name, key)
}

// RecipeLine represents one ingredient requirement per serving of a menu.
// A menu may list the same ingredient on several lines.
type RecipeLine struct {
	MenuID        MenuID
	IngredientID  IngredientID
	QtyPerServing decimal.Decimal
	Unit          string // stock unit, buy unit or free text
	Note          string
}

// NewRecipeLine creates a validated RecipeLine
func NewRecipeLine(menuID MenuID, ingredientID IngredientID, qtyPerServing decimal.Decimal, unit, note string) (*RecipeLine, error) {
	if menuID == "" {
		return nil, NewValidationError("menu_id", "menu id cannot be empty")
	}
	if ingredientID == "" {
		return nil, NewValidationError("ingredient_id", "ingredient id cannot be empty")
	}
	if !qtyPerServing.IsPositive() {
		return nil, NewValidationError("qty_per_serving", fmt.Sprintf("quantity per serving must be positive, got %s", qtyPerServing))
	}

	return &RecipeLine{
		MenuID:        menuID,
		IngredientID:  ingredientID,
		QtyPerServing: qtyPerServing,
		Unit:          unit,
		Note:          note,
	}, nil
}
