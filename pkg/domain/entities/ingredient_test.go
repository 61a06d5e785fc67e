package entities

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIngredient_Validation(t *testing.T) {
	valid, err := NewIngredient("ING1", "Flour", "g", "kg", decimal.NewFromInt(1000), decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Expected valid ingredient creation to succeed: %v", err)
	}
	if valid.ID != "ING1" {
		t.Errorf("Expected id ING1, got %s", valid.ID)
	}
	if !valid.CurrentStock.IsZero() {
		t.Errorf("Expected zero cached stock, got %s", valid.CurrentStock)
	}

	testCases := []struct {
		name      string
		id        IngredientID
		ingName   string
		stockUnit string
		ratio     decimal.Decimal
		minStock  decimal.Decimal
		field     string
	}{
		{"empty id", "", "Flour", "g", decimal.NewFromInt(1), decimal.Zero, "id"},
		{"blank name", "ING1", "  ", "g", decimal.NewFromInt(1), decimal.Zero, "name"},
		{"empty stock unit", "ING1", "Flour", "", decimal.NewFromInt(1), decimal.Zero, "stock_unit"},
		{"zero ratio", "ING1", "Flour", "g", decimal.Zero, decimal.Zero, "buy_to_stock_ratio"},
		{"negative ratio", "ING1", "Flour", "g", decimal.NewFromInt(-5), decimal.Zero, "buy_to_stock_ratio"},
		{"negative min stock", "ING1", "Flour", "g", decimal.NewFromInt(1), decimal.NewFromInt(-1), "min_stock"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewIngredient(tc.id, tc.ingName, tc.stockUnit, "kg", tc.ratio, tc.minStock)
			if err == nil {
				t.Fatalf("Expected error for %s", tc.name)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("Expected field %s, got %s", tc.field, vErr.Field)
			}
		})
	}
}

func TestIngredient_IsLowStock(t *testing.T) {
	ing := Ingredient{ID: "ING1", MinStock: decimal.NewFromInt(100)}

	ing.CurrentStock = decimal.NewFromInt(99)
	if !ing.IsLowStock() {
		t.Error("Expected 99 < 100 to be low stock")
	}

	ing.CurrentStock = decimal.NewFromInt(100)
	if ing.IsLowStock() {
		t.Error("Expected stock equal to threshold not to be low")
	}
}

func TestMatchIDOrName(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		want MatchRank
	}{
		{"exact id", "ING1", IDMatch},
		{"id different case", "ing1", IDMatch},
		{"name different case", "FLOUR", NameMatch},
		{"padded key", "  flour ", NameMatch},
		{"no match", "sugar", NoMatch},
		{"empty key", "", NoMatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchIDOrName("ING1", "Flour", tc.key); got != tc.want {
				t.Errorf("Expected rank %d, got %d", tc.want, got)
			}
		})
	}
}

func TestIngredientPatch_Apply(t *testing.T) {
	ing := Ingredient{
		ID:              "ING1",
		Name:            "Flour",
		StockUnit:       "g",
		BuyUnit:         "kg",
		BuyToStockRatio: decimal.NewFromInt(1000),
	}

	name := "Bread Flour"
	ratio := decimal.NewFromInt(500)
	IngredientPatch{Name: &name, BuyToStockRatio: &ratio}.Apply(&ing)

	if ing.Name != "Bread Flour" {
		t.Errorf("Expected patched name, got %s", ing.Name)
	}
	if !ing.BuyToStockRatio.Equal(ratio) {
		t.Errorf("Expected ratio 500, got %s", ing.BuyToStockRatio)
	}
	if ing.StockUnit != "g" || ing.BuyUnit != "kg" {
		t.Errorf("Expected untouched units, got %s/%s", ing.StockUnit, ing.BuyUnit)
	}
}
