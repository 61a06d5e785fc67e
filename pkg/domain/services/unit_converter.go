package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// ConversionRule identifies which branch of the conversion policy produced a result
type ConversionRule string

const (
	RuleStockUnit   ConversionRule = "stock-unit"
	RuleBuyToStock  ConversionRule = "buy-to-stock"
	RuleAssumed     ConversionRule = "assumed-1:1"
	RuleNonPositive ConversionRule = "non-positive"
)

// Conversion is the result of converting a quantity into stock units
type Conversion struct {
	StockQty   decimal.Decimal
	Rule       ConversionRule
	Ratio      decimal.Decimal
	SourceUnit string
	// Set only for RuleAssumed.
	Assumption *entities.UnitAssumption
}

// Note renders the conversion for audit output
func (c Conversion) Note() string {
	switch c.Rule {
	case RuleStockUnit:
		return "stock-unit"
	case RuleBuyToStock:
		return fmt.Sprintf("buy→stock x%s", c.Ratio)
	case RuleAssumed:
		return fmt.Sprintf("unit '%s' unrecognized → assumed 1:1", c.SourceUnit)
	default:
		return "non-positive quantity → 0"
	}
}

// UnitConverter converts buy-unit and recipe-unit quantities into an ingredient's stock unit.
// Conversion never fails: unknown units are taken 1:1 and flagged.
type UnitConverter struct{}

// NewUnitConverter creates a new unit converter
func NewUnitConverter() *UnitConverter {
	return &UnitConverter{}
}

// ToStockUnits converts qty expressed in sourceUnit into the ingredient's stock unit
func (uc *UnitConverter) ToStockUnits(qty decimal.Decimal, sourceUnit string, ingredient *entities.Ingredient) Conversion {
	unit := strings.TrimSpace(sourceUnit)

	if !qty.IsPositive() {
		return Conversion{StockQty: decimal.Zero, Rule: RuleNonPositive, Ratio: decimal.Zero, SourceUnit: unit}
	}

	if unit == "" || sameUnit(unit, ingredient.StockUnit) {
		return Conversion{StockQty: qty, Rule: RuleStockUnit, Ratio: decimal.NewFromInt(1), SourceUnit: unit}
	}

	if sameUnit(unit, ingredient.BuyUnit) && ingredient.BuyToStockRatio.IsPositive() {
		return Conversion{
			StockQty:   qty.Mul(ingredient.BuyToStockRatio),
			Rule:       RuleBuyToStock,
			Ratio:      ingredient.BuyToStockRatio,
			SourceUnit: unit,
		}
	}

	return Conversion{
		StockQty:   qty,
		Rule:       RuleAssumed,
		Ratio:      decimal.NewFromInt(1),
		SourceUnit: unit,
		Assumption: &entities.UnitAssumption{
			IngredientID: ingredient.ID,
			Unit:         unit,
			Qty:          qty,
			StockUnit:    ingredient.StockUnit,
		},
	}
}

// FromStockUnits converts a stock-unit quantity back into the ingredient's buy unit
func (uc *UnitConverter) FromStockUnits(stockQty decimal.Decimal, ingredient *entities.Ingredient) decimal.Decimal {
	if !ingredient.BuyToStockRatio.IsPositive() {
		return stockQty
	}
	return stockQty.Div(ingredient.BuyToStockRatio)
}

func sameUnit(a, b string) bool {
	b = strings.TrimSpace(b)
	return b != "" && strings.EqualFold(a, b)
}
