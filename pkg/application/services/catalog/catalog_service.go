// Package catalog resolves ingredients by id or name and maintains their
// definitions and cached ledger figures.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/application/dto"
	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/domain/services"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/clock"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/locking"
)

// createKey serializes creations so two spellings of a new key cannot both insert.
const createKey = "catalog:create"

// Service is the ingredient catalog. Writes to an ingredient take the same
// per-ingredient lock as the ledger, so a definition change never overwrites a
// fresher cached stock figure.
type Service struct {
	ingredients repositories.IngredientRepository
	lots        repositories.LotRepository
	locker      locking.Locker
	logger      *zap.Logger
	clock       clock.Clock
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithLocker(locker locking.Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func NewService(ingredients repositories.IngredientRepository, lots repositories.LotRepository, opts ...Option) *Service {
	s := &Service{
		ingredients: ingredients,
		lots:        lots,
		locker:      locking.NewKeyedMutex(),
		logger:      zap.NewNop(),
		clock:       clock.System(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find resolves an ingredient by id or name, case-insensitively. An id match beats
// a name match; among equal matches the first inserted ingredient wins.
func (s *Service) Find(ctx context.Context, key string) (*entities.Ingredient, error) {
	all, err := s.ingredients.GetAllIngredients(ctx)
	if err != nil {
		return nil, err
	}
	best := services.ResolveIngredient(all, key)
	if best == nil {
		return nil, entities.NewNotFoundError("ingredient", key)
	}
	return best, nil
}

// All returns every ingredient in insertion order
func (s *Service) All(ctx context.Context) ([]*entities.Ingredient, error) {
	return s.ingredients.GetAllIngredients(ctx)
}

// Upsert creates the ingredient named by key when it does not resolve, or merges
// the patch into the existing one. The boolean reports a creation. A new ingredient
// takes key as its id, and as its name unless the patch names it; its ratio
// defaults to 1 and its stock unit is required.
func (s *Service) Upsert(ctx context.Context, key string, patch entities.IngredientPatch) (*entities.Ingredient, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, entities.NewValidationError("id", "ingredient key cannot be empty")
	}

	existing, err := s.Find(ctx, key)
	if err != nil && !errors.Is(err, entities.ErrNotFound) {
		return nil, false, err
	}
	if existing == nil {
		ing, raced, err := s.create(ctx, key, patch)
		if err != nil || raced == nil {
			return ing, err == nil, err
		}
		existing = raced
	}
	ing, err := s.update(ctx, existing.ID, patch)
	return ing, false, err
}

func (s *Service) update(ctx context.Context, id entities.IngredientID, patch entities.IngredientPatch) (*entities.Ingredient, error) {
	release, err := s.locker.Acquire(ctx, string(id))
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", id, err)
	}
	defer release()

	ing, err := s.ingredients.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(ing)
	if _, err := entities.NewIngredient(ing.ID, ing.Name, ing.StockUnit, ing.BuyUnit, ing.BuyToStockRatio, ing.MinStock); err != nil {
		return nil, err
	}
	ing.UpdatedAt = s.clock.Now()
	if err := s.ingredients.SaveIngredient(ctx, ing); err != nil {
		return nil, fmt.Errorf("save ingredient %s: %w", id, err)
	}

	s.logger.Info("ingredient updated", zap.String("ingredient_id", string(id)))
	return ing, nil
}

// create inserts a new ingredient. When another writer created a matching
// ingredient first, that one is returned as raced and nothing is written.
func (s *Service) create(ctx context.Context, key string, patch entities.IngredientPatch) (ing, raced *entities.Ingredient, err error) {
	release, err := s.locker.Acquire(ctx, createKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("lock %s: %w", key, err)
	}
	defer release()

	if existing, err := s.Find(ctx, key); err == nil {
		return nil, existing, nil
	}

	name := key
	if patch.Name != nil {
		name = *patch.Name
	}
	ratio := decimal.NewFromInt(1)
	if patch.BuyToStockRatio != nil {
		ratio = *patch.BuyToStockRatio
	}
	minStock := decimal.Zero
	if patch.MinStock != nil {
		minStock = *patch.MinStock
	}
	var stockUnit, buyUnit string
	if patch.StockUnit != nil {
		stockUnit = *patch.StockUnit
	}
	if patch.BuyUnit != nil {
		buyUnit = *patch.BuyUnit
	}

	ing, err = entities.NewIngredient(entities.IngredientID(key), name, stockUnit, buyUnit, ratio, minStock)
	if err != nil {
		return nil, nil, err
	}
	ing.UpdatedAt = s.clock.Now()
	if err := s.ingredients.SaveIngredient(ctx, ing); err != nil {
		return nil, nil, fmt.Errorf("save ingredient %s: %w", key, err)
	}

	s.logger.Info("ingredient created", zap.String("ingredient_id", key), zap.String("stock_unit", stockUnit))
	return ing, nil, nil
}

// LowStock reports the ingredients whose cached stock is below their minimum
func (s *Service) LowStock(ctx context.Context) ([]dto.StockLine, error) {
	all, err := s.ingredients.GetAllIngredients(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]dto.StockLine, 0)
	for _, ing := range all {
		if ing.IsLowStock() {
			lines = append(lines, stockLine(ing))
		}
	}
	return lines, nil
}

// StockReport lists every ingredient with its cached stock, cost and value
func (s *Service) StockReport(ctx context.Context) ([]dto.StockLine, error) {
	all, err := s.ingredients.GetAllIngredients(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]dto.StockLine, 0, len(all))
	for _, ing := range all {
		lines = append(lines, stockLine(ing))
	}
	return lines, nil
}

func stockLine(ing *entities.Ingredient) dto.StockLine {
	return dto.StockLine{
		IngredientID: ing.ID,
		Name:         ing.Name,
		StockUnit:    ing.StockUnit,
		CurrentStock: ing.CurrentStock,
		CostPerUnit:  ing.CurrentCostPerUnit,
		Value:        ing.CurrentStock.Mul(ing.CurrentCostPerUnit),
		MinStock:     ing.MinStock,
		Low:          ing.IsLowStock(),
	}
}

// Reconcile recomputes stock and cost of every ingredient from its lots and reports
// the ingredients whose cache disagrees. With repair set the cache is rewritten.
func (s *Service) Reconcile(ctx context.Context, repair bool) ([]dto.Drift, error) {
	all, err := s.ingredients.GetAllIngredients(ctx)
	if err != nil {
		return nil, err
	}
	drifts := make([]dto.Drift, 0)
	for _, ing := range all {
		drift, found, err := s.reconcileOne(ctx, ing.ID, repair)
		if err != nil {
			return nil, err
		}
		if found {
			drifts = append(drifts, drift)
		}
	}
	return drifts, nil
}

func (s *Service) reconcileOne(ctx context.Context, id entities.IngredientID, repair bool) (dto.Drift, bool, error) {
	release, err := s.locker.Acquire(ctx, string(id))
	if err != nil {
		return dto.Drift{}, false, fmt.Errorf("lock %s: %w", id, err)
	}
	defer release()

	ing, err := s.ingredients.GetIngredient(ctx, id)
	if err != nil {
		return dto.Drift{}, false, err
	}
	lots, err := s.lots.GetLotsByIngredient(ctx, id)
	if err != nil {
		return dto.Drift{}, false, err
	}
	drift := dto.Drift{
		IngredientID: id,
		CachedStock:  ing.CurrentStock,
		LedgerStock:  services.StockOnHand(id, lots),
		CachedCost:   ing.CurrentCostPerUnit,
		LedgerCost:   services.WeightedAverageCost(id, lots),
	}
	if drift.CachedStock.Equal(drift.LedgerStock) && drift.CachedCost.Equal(drift.LedgerCost) {
		return dto.Drift{}, false, nil
	}

	s.logger.Warn("ingredient cache drifted from ledger",
		zap.String("ingredient_id", string(id)),
		zap.String("cached_stock", drift.CachedStock.String()),
		zap.String("ledger_stock", drift.LedgerStock.String()))
	if repair {
		if err := s.ingredients.UpdateIngredientCache(ctx, id, drift.LedgerStock, drift.LedgerCost, s.clock.Now()); err != nil {
			return dto.Drift{}, false, fmt.Errorf("repair cache for %s: %w", id, err)
		}
	}
	return drift, true, nil
}
