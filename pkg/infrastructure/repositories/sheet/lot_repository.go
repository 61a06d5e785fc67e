package sheet

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

// LotRepository stores purchase lots in the Purchases table. A lot's Sequence is its row.
type LotRepository struct {
	book *Book
}

var _ repositories.LotRepository = (*LotRepository)(nil)

func lotFromRecord(r tablestore.Record) (entities.Lot, error) {
	lot := entities.Lot{
		ID:           entities.LotID(r.Get("lot_id")),
		IngredientID: entities.IngredientID(r.Get("ingredient_id")),
		Sequence:     int64(r.Ref),
	}
	var err error
	if lot.PurchaseDate, err = parseTime(TablePurchases, "purchase_date", r); err != nil {
		return lot, err
	}
	if lot.InitialQty, err = parseDecimal(TablePurchases, "initial_qty_stock", r); err != nil {
		return lot, err
	}
	if lot.UnitCost, err = parseDecimal(TablePurchases, "unit_cost", r); err != nil {
		return lot, err
	}
	if lot.RemainingQty, err = parseDecimal(TablePurchases, "remaining_qty_stock", r); err != nil {
		return lot, err
	}
	return lot, nil
}

func (r *LotRepository) AppendLot(ctx context.Context, lot *entities.Lot) error {
	_, exists, err := r.book.lookup(ctx, TablePurchases, "lot_id", string(lot.ID))
	if err != nil {
		return err
	}
	if exists {
		return entities.NewValidationError("lot_id", "duplicate lot "+string(lot.ID))
	}
	ref, err := r.book.store.AppendRow(ctx, TablePurchases, map[string]string{
		"lot_id":              string(lot.ID),
		"ingredient_id":       string(lot.IngredientID),
		"purchase_date":       formatTime(lot.PurchaseDate),
		"initial_qty_stock":   lot.InitialQty.String(),
		"unit_cost":           lot.UnitCost.String(),
		"remaining_qty_stock": lot.RemainingQty.String(),
	})
	if err != nil {
		return err
	}
	lot.Sequence = int64(ref)
	r.book.remember(TablePurchases, string(lot.ID), ref)
	return nil
}

func (r *LotRepository) GetLotsByIngredient(ctx context.Context, id entities.IngredientID) ([]entities.Lot, error) {
	all, err := r.GetAllLots(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Lot, 0)
	for _, lot := range all {
		if lot.IngredientID == id {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *LotRepository) GetAllLots(ctx context.Context) ([]entities.Lot, error) {
	rows, err := r.book.store.ReadAll(ctx, TablePurchases)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Lot, 0, len(rows))
	for _, row := range rows {
		lot, err := lotFromRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, lot)
	}
	return out, nil
}

func (r *LotRepository) UpdateRemaining(ctx context.Context, id entities.LotID, remaining decimal.Decimal) error {
	ref, found, err := r.book.lookup(ctx, TablePurchases, "lot_id", string(id))
	if err != nil {
		return err
	}
	if !found {
		return entities.NewNotFoundError("lot", string(id))
	}
	if remaining.IsNegative() {
		return entities.NewValidationError("remaining_qty_stock", "must not be negative")
	}
	return r.book.store.UpdateCell(ctx, TablePurchases, ref, "remaining_qty_stock", remaining.String())
}
