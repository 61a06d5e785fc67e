package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// IngredientRepository provides access to the ingredient catalog
type IngredientRepository interface {
	GetIngredient(ctx context.Context, id entities.IngredientID) (*entities.Ingredient, error)
	// GetAllIngredients returns ingredients in insertion order.
	GetAllIngredients(ctx context.Context) ([]*entities.Ingredient, error)
	// SaveIngredient inserts the ingredient or replaces the one with the same id.
	SaveIngredient(ctx context.Context, ingredient *entities.Ingredient) error
	UpdateIngredientCache(
		ctx context.Context,
		id entities.IngredientID,
		stock decimal.Decimal,
		costPerUnit decimal.Decimal,
		at time.Time,
	) error
}
