package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleKind distinguishes direct ingredient sales from recipe sales
type SaleKind string

const (
	SaleKindIngredient SaleKind = "ingredient"
	SaleKindMenu       SaleKind = "menu"
)

// Valid reports whether the kind is one of the known sale kinds
func (k SaleKind) Valid() bool {
	return k == SaleKindIngredient || k == SaleKindMenu
}

// Consumption records the portion of a single lot taken by a deduction
type Consumption struct {
	LotID        LotID           `json:"lot_id"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Qty          decimal.Decimal `json:"qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Cost         decimal.Decimal `json:"cost"`
}

// DeductionResult represents the outcome of a FIFO deduction for one ingredient
type DeductionResult struct {
	IngredientID IngredientID    `json:"ingredient_id"`
	RequiredQty  decimal.Decimal `json:"required_qty"`
	ConsumedLots []Consumption   `json:"consumed_lots"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
}

// SaleTransaction represents one immutable recorded sale
type SaleTransaction struct {
	ID         string            `json:"id"`
	Date       time.Time         `json:"date"`
	Platform   string            `json:"platform"`
	Kind       SaleKind          `json:"kind"`
	SubjectID  string            `json:"subject_id"`
	Qty        decimal.Decimal   `json:"qty"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Revenue    decimal.Decimal   `json:"revenue"`
	COGS       decimal.Decimal   `json:"cogs"`
	Profit     decimal.Decimal   `json:"profit"`
	Deductions []DeductionResult `json:"deductions"`
	Warnings   []UnitAssumption  `json:"warnings,omitempty"`
}

// TotalCOGS sums the cost of every deduction
func TotalCOGS(results []DeductionResult) decimal.Decimal {
	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.TotalCost)
	}
	return total
}
