package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// PurchaseResult reports the lot created by a purchase
type PurchaseResult struct {
	Lot            entities.Lot              `json:"lot"`
	StockUnit      string                    `json:"stock_unit"`
	ConversionNote string                    `json:"conversion_note"`
	Warnings       []entities.UnitAssumption `json:"warnings,omitempty"`
}

// StockLine is one row of the stock report
type StockLine struct {
	IngredientID entities.IngredientID `json:"ingredient_id"`
	Name         string                `json:"name"`
	StockUnit    string                `json:"stock_unit"`
	CurrentStock decimal.Decimal       `json:"current_stock"`
	CostPerUnit  decimal.Decimal       `json:"cost_per_unit"`
	Value        decimal.Decimal       `json:"value"`
	MinStock     decimal.Decimal       `json:"min_stock"`
	Low          bool                  `json:"low"`
}

// Drift reports an ingredient whose cached stock or cost disagrees with its lots
type Drift struct {
	IngredientID entities.IngredientID `json:"ingredient_id"`
	CachedStock  decimal.Decimal       `json:"cached_stock"`
	LedgerStock  decimal.Decimal       `json:"ledger_stock"`
	CachedCost   decimal.Decimal       `json:"cached_cost"`
	LedgerCost   decimal.Decimal       `json:"ledger_cost"`
}
