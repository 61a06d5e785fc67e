package sheet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

// IngredientRepository stores the catalog in the Ingredients table
type IngredientRepository struct {
	book *Book
}

var _ repositories.IngredientRepository = (*IngredientRepository)(nil)

func ingredientValues(ing *entities.Ingredient) map[string]string {
	return map[string]string{
		"id":                    string(ing.ID),
		"name":                  ing.Name,
		"stock_unit":            ing.StockUnit,
		"buy_unit":              ing.BuyUnit,
		"buy_to_stock_ratio":    ing.BuyToStockRatio.String(),
		"min_stock":             ing.MinStock.String(),
		"current_stock":         ing.CurrentStock.String(),
		"current_cost_per_unit": ing.CurrentCostPerUnit.String(),
		"updated_at":            formatTime(ing.UpdatedAt),
	}
}

func ingredientFromRecord(r tablestore.Record) (*entities.Ingredient, error) {
	ing := &entities.Ingredient{
		ID:        entities.IngredientID(r.Get("id")),
		Name:      r.Get("name"),
		StockUnit: r.Get("stock_unit"),
		BuyUnit:   r.Get("buy_unit"),
	}
	var err error
	if ing.BuyToStockRatio, err = parseDecimal(TableIngredients, "buy_to_stock_ratio", r); err != nil {
		return nil, err
	}
	if ing.MinStock, err = parseDecimal(TableIngredients, "min_stock", r); err != nil {
		return nil, err
	}
	if ing.CurrentStock, err = parseDecimal(TableIngredients, "current_stock", r); err != nil {
		return nil, err
	}
	if ing.CurrentCostPerUnit, err = parseDecimal(TableIngredients, "current_cost_per_unit", r); err != nil {
		return nil, err
	}
	if ing.UpdatedAt, err = parseTime(TableIngredients, "updated_at", r); err != nil {
		return nil, err
	}
	return ing, nil
}

func (r *IngredientRepository) GetIngredient(ctx context.Context, id entities.IngredientID) (*entities.Ingredient, error) {
	all, err := r.GetAllIngredients(ctx)
	if err != nil {
		return nil, err
	}
	for _, ing := range all {
		if ing.ID == id {
			return ing, nil
		}
	}
	return nil, entities.NewNotFoundError("ingredient", string(id))
}

func (r *IngredientRepository) GetAllIngredients(ctx context.Context) ([]*entities.Ingredient, error) {
	rows, err := r.book.store.ReadAll(ctx, TableIngredients)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Ingredient, 0, len(rows))
	seen := make(map[entities.IngredientID]bool, len(rows))
	for _, row := range rows {
		ing, err := ingredientFromRecord(row)
		if err != nil {
			return nil, err
		}
		// The first row of a duplicated id is authoritative.
		if seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true
		out = append(out, ing)
	}
	return out, nil
}

func (r *IngredientRepository) SaveIngredient(ctx context.Context, ing *entities.Ingredient) error {
	ref, found, err := r.book.lookup(ctx, TableIngredients, "id", string(ing.ID))
	if err != nil {
		return err
	}
	values := ingredientValues(ing)
	if found {
		return r.book.updateCells(ctx, TableIngredients, ref, values)
	}
	ref, err = r.book.store.AppendRow(ctx, TableIngredients, values)
	if err != nil {
		return err
	}
	r.book.remember(TableIngredients, string(ing.ID), ref)
	return nil
}

func (r *IngredientRepository) UpdateIngredientCache(
	ctx context.Context,
	id entities.IngredientID,
	stock decimal.Decimal,
	costPerUnit decimal.Decimal,
	at time.Time,
) error {
	ref, found, err := r.book.lookup(ctx, TableIngredients, "id", string(id))
	if err != nil {
		return err
	}
	if !found {
		return entities.NewNotFoundError("ingredient", string(id))
	}
	return r.book.updateCells(ctx, TableIngredients, ref, map[string]string{
		"current_stock":         stock.String(),
		"current_cost_per_unit": costPerUnit.String(),
		"updated_at":            formatTime(at),
	})
}
