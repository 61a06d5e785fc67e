package repositories

import (
	"context"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// SaleRepository stores recorded sales. Sales are never edited or deleted.
type SaleRepository interface {
	AppendSale(ctx context.Context, sale *entities.SaleTransaction) error
	GetAllSales(ctx context.Context) ([]*entities.SaleTransaction, error)
}
