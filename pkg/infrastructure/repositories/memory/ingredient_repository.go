package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
)

// IngredientRepository provides in-memory ingredient storage
type IngredientRepository struct {
	mu             sync.RWMutex
	ingredients    []entities.Ingredient
	ingredientsMap map[entities.IngredientID]int
}

// NewIngredientRepository creates a new in-memory ingredient repository
func NewIngredientRepository(expected int) *IngredientRepository {
	return &IngredientRepository{
		ingredients:    make([]entities.Ingredient, 0, expected),
		ingredientsMap: make(map[entities.IngredientID]int, expected),
	}
}

// Verify interface compliance
var _ repositories.IngredientRepository = (*IngredientRepository)(nil)

// LoadIngredients loads ingredients into the repository
func (r *IngredientRepository) LoadIngredients(ingredients []*entities.Ingredient) error {
	for _, ing := range ingredients {
		if err := r.SaveIngredient(context.Background(), ing); err != nil {
			return err
		}
	}
	return nil
}

func (r *IngredientRepository) GetIngredient(_ context.Context, id entities.IngredientID) (*entities.Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.ingredientsMap[id]
	if !exists {
		return nil, entities.NewNotFoundError("ingredient", string(id))
	}
	ing := r.ingredients[index]
	return &ing, nil
}

func (r *IngredientRepository) GetAllIngredients(_ context.Context) ([]*entities.Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Ingredient, 0, len(r.ingredients))
	for i := range r.ingredients {
		ing := r.ingredients[i]
		out = append(out, &ing)
	}
	return out, nil
}

func (r *IngredientRepository) SaveIngredient(_ context.Context, ingredient *entities.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.ingredientsMap[ingredient.ID]; exists {
		r.ingredients[index] = *ingredient
		return nil
	}
	r.ingredientsMap[ingredient.ID] = len(r.ingredients)
	r.ingredients = append(r.ingredients, *ingredient)
	return nil
}

func (r *IngredientRepository) UpdateIngredientCache(
	_ context.Context,
	id entities.IngredientID,
	stock decimal.Decimal,
	costPerUnit decimal.Decimal,
	at time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.ingredientsMap[id]
	if !exists {
		return entities.NewNotFoundError("ingredient", string(id))
	}
	r.ingredients[index].CurrentStock = stock
	r.ingredients[index].CurrentCostPerUnit = costPerUnit
	r.ingredients[index].UpdatedAt = at
	return nil
}
