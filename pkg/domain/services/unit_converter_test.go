package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

func flour() *entities.Ingredient {
	return &entities.Ingredient{
		ID:              "ING1",
		Name:            "Flour",
		StockUnit:       "g",
		BuyUnit:         "kg",
		BuyToStockRatio: decimal.NewFromInt(1000),
	}
}

func TestUnitConverter_ToStockUnits(t *testing.T) {
	uc := NewUnitConverter()

	testCases := []struct {
		name       string
		qty        decimal.Decimal
		unit       string
		wantQty    decimal.Decimal
		wantRule   ConversionRule
		wantNote   string
		assumption bool
	}{
		{"stock unit passes through", decimal.NewFromInt(500), "g", decimal.NewFromInt(500), RuleStockUnit, "stock-unit", false},
		{"empty unit passes through", decimal.NewFromInt(7), "", decimal.NewFromInt(7), RuleStockUnit, "stock-unit", false},
		{"stock unit case-insensitive", decimal.NewFromInt(3), " G ", decimal.NewFromInt(3), RuleStockUnit, "stock-unit", false},
		{"buy unit multiplies", decimal.NewFromInt(2), "kg", decimal.NewFromInt(2000), RuleBuyToStock, "buy→stock x1000", false},
		{"fractional buy unit", decimal.RequireFromString("0.25"), "KG", decimal.NewFromInt(250), RuleBuyToStock, "buy→stock x1000", false},
		{"unknown unit assumed", decimal.NewFromInt(4), "cup", decimal.NewFromInt(4), RuleAssumed, "unit 'cup' unrecognized → assumed 1:1", true},
		{"zero quantity", decimal.Zero, "kg", decimal.Zero, RuleNonPositive, "non-positive quantity → 0", false},
		{"negative quantity", decimal.NewFromInt(-3), "g", decimal.Zero, RuleNonPositive, "non-positive quantity → 0", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conv := uc.ToStockUnits(tc.qty, tc.unit, flour())

			if !conv.StockQty.Equal(tc.wantQty) {
				t.Errorf("Expected stock qty %s, got %s", tc.wantQty, conv.StockQty)
			}
			if conv.Rule != tc.wantRule {
				t.Errorf("Expected rule %s, got %s", tc.wantRule, conv.Rule)
			}
			if conv.Note() != tc.wantNote {
				t.Errorf("Expected note %q, got %q", tc.wantNote, conv.Note())
			}
			if (conv.Assumption != nil) != tc.assumption {
				t.Errorf("Expected assumption present=%v, got %+v", tc.assumption, conv.Assumption)
			}
		})
	}
}

func TestUnitConverter_BuyUnitWithoutRatioIsAssumed(t *testing.T) {
	ing := flour()
	ing.BuyToStockRatio = decimal.Zero

	conv := NewUnitConverter().ToStockUnits(decimal.NewFromInt(2), "kg", ing)
	if conv.Rule != RuleAssumed {
		t.Fatalf("Expected assumed rule for buy unit without ratio, got %s", conv.Rule)
	}
	if conv.Assumption.IngredientID != "ING1" || conv.Assumption.Unit != "kg" {
		t.Errorf("Unexpected assumption %+v", conv.Assumption)
	}
}

func TestUnitConverter_RoundTrip(t *testing.T) {
	uc := NewUnitConverter()
	ing := flour()
	ing.BuyToStockRatio = decimal.RequireFromString("453.592")
	ing.BuyUnit = "lb"

	for _, raw := range []string{"1", "2.5", "0.001", "17.75"} {
		qty := decimal.RequireFromString(raw)
		stock := uc.ToStockUnits(qty, "lb", ing).StockQty
		back := uc.FromStockUnits(stock, ing)

		if back.Sub(qty).Abs().GreaterThan(decimal.RequireFromString("0.000000001")) {
			t.Errorf("Round trip of %s lb returned %s", qty, back)
		}
	}
}
