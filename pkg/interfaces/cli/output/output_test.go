package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/application/dto"
)

func TestNewPrinterRejectsUnknownFormat(t *testing.T) {
	if _, err := NewPrinter(&bytes.Buffer{}, "csv"); err == nil {
		t.Error("Expected an error for csv format")
	}
}

func TestStockText(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, FormatText)
	if err != nil {
		t.Fatalf("Failed to create printer: %v", err)
	}

	err = p.Stock([]dto.StockLine{
		{IngredientID: "ING1", Name: "Flour", StockUnit: "g", CurrentStock: decimal.NewFromInt(1500),
			CostPerUnit: decimal.RequireFromString("0.05"), Value: decimal.NewFromInt(75), MinStock: decimal.NewFromInt(500)},
		{IngredientID: "ING3", Name: "Egg", StockUnit: "pc", CurrentStock: decimal.NewFromInt(6),
			CostPerUnit: decimal.NewFromInt(2), Value: decimal.NewFromInt(12), MinStock: decimal.NewFromInt(12), Low: true},
	})
	if err != nil {
		t.Fatalf("Failed to print stock: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Flour", "0.0500", "75.00", "low"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "low") != 1 {
		t.Errorf("Expected exactly one low-stock marker:\n%s", out)
	}
}

func TestStockJSON(t *testing.T) {
	var buf bytes.Buffer
	p, _ := NewPrinter(&buf, FormatJSON)

	if err := p.Stock([]dto.StockLine{{IngredientID: "ING1", CurrentStock: decimal.NewFromInt(10)}}); err != nil {
		t.Fatalf("Failed to print stock: %v", err)
	}
	if !strings.Contains(buf.String(), `"current_stock": "10"`) {
		t.Errorf("Unexpected JSON:\n%s", buf.String())
	}
}
