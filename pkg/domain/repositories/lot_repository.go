package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// LotRepository provides access to the append-only purchase lot ledger
type LotRepository interface {
	// AppendLot stores a new lot and assigns its insertion Sequence.
	AppendLot(ctx context.Context, lot *entities.Lot) error
	// GetLotsByIngredient returns copies of the ingredient's lots in insertion order.
	GetLotsByIngredient(ctx context.Context, id entities.IngredientID) ([]entities.Lot, error)
	GetAllLots(ctx context.Context) ([]entities.Lot, error)
	UpdateRemaining(ctx context.Context, id entities.LotID, remaining decimal.Decimal) error
}
