package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnitAssumption is attached to a successful result when a unit could not be
// resolved for an ingredient and the quantity was taken 1:1 in stock units.
type UnitAssumption struct {
	IngredientID IngredientID    `json:"ingredient_id"`
	Unit         string          `json:"unit"`
	Qty          decimal.Decimal `json:"qty"`
	StockUnit    string          `json:"stock_unit"`
}

func (w UnitAssumption) String() string {
	return fmt.Sprintf("unit '%s' unrecognized for %s → assumed 1:1 (%s %s)", w.Unit, w.IngredientID, w.Qty, w.StockUnit)
}
