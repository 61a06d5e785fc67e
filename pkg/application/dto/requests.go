package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// PurchaseRequest records a purchase of an ingredient, usually in its buy unit
type PurchaseRequest struct {
	Ingredient string          `json:"ingredient" validate:"required"`
	Qty        decimal.Decimal `json:"qty" validate:"gt=0"`
	Unit       string          `json:"unit"`
	TotalPrice decimal.Decimal `json:"total_price" validate:"gt=0"`
	// Date defaults to the recorder's clock.
	Date time.Time `json:"purchase_date"`
}

// SaleRequest records a direct ingredient sale or a menu sale
type SaleRequest struct {
	Kind    entities.SaleKind `json:"kind" validate:"required,oneof=ingredient menu"`
	Subject string            `json:"subject" validate:"required"`
	Qty     decimal.Decimal   `json:"qty" validate:"gt=0"`
	// Unit applies to ingredient sales only; empty means the stock unit.
	Unit string `json:"unit"`
	// UnitPrice is derived when nil: from cost and markup for ingredients, from
	// the menu's list price for menus.
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,gt=0"`
	Platform  string           `json:"platform"`
	Date      time.Time        `json:"date"`
}
