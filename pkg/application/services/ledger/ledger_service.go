// Package ledger owns the purchase lot ledger: appending lots, FIFO deduction with
// all-or-nothing commit, and the derived cost queries.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/domain/services"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/clock"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/events"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/locking"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/metrics"
)

// Requirement is a quantity of one ingredient, in stock units, to deduct
type Requirement struct {
	IngredientID entities.IngredientID `json:"ingredient_id"`
	Qty          decimal.Decimal       `json:"qty"`
}

// Service serializes every lot mutation per ingredient. Reads run against a snapshot
// without the lock.
type Service struct {
	ingredients repositories.IngredientRepository
	lots        repositories.LotRepository

	locker  locking.Locker
	logger  *zap.Logger
	events  events.EventStore
	metrics *metrics.Ledger
	clock   clock.Clock
	newID   func() string
}

func NewService(
	ingredients repositories.IngredientRepository,
	lots repositories.LotRepository,
	opts ...Option,
) *Service {
	s := &Service{
		ingredients: ingredients,
		lots:        lots,
		locker:      locking.NewKeyedMutex(),
		logger:      zap.NewNop(),
		clock:       clock.System(),
		newID:       defaultIDGenerator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendLot records a purchase lot of qty stock units at unitCost per stock unit
func (s *Service) AppendLot(
	ctx context.Context,
	ingredientID entities.IngredientID,
	qty decimal.Decimal,
	unitCost decimal.Decimal,
	purchaseDate time.Time,
) (*entities.Lot, error) {
	lot, err := entities.NewLot(entities.LotID(s.newID()), ingredientID, qty, unitCost, purchaseDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.ingredients.GetIngredient(ctx, ingredientID); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, string(ingredientID))
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", ingredientID, err)
	}
	defer release()

	if err := s.lots.AppendLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("append lot for %s: %w", ingredientID, err)
	}
	// The lot is committed once stored; a stale cache is repaired by reconcile.
	if err := s.refreshLocked(ctx, ingredientID); err != nil {
		s.logger.Warn("cache refresh after append failed",
			zap.String("ingredient_id", string(ingredientID)),
			zap.String("lot_id", string(lot.ID)),
			zap.Error(err))
	}

	s.logger.Debug("lot appended",
		zap.String("ingredient_id", string(ingredientID)),
		zap.String("lot_id", string(lot.ID)),
		zap.String("qty", qty.String()),
		zap.String("unit_cost", unitCost.String()))
	s.metrics.LotAppended()
	s.emit(ctx, events.LotAppended(*lot, s.clock.Now()))
	return lot, nil
}

// Deduct consumes qty stock units of one ingredient, oldest lots first
func (s *Service) Deduct(ctx context.Context, ingredientID entities.IngredientID, qty decimal.Decimal) (*entities.DeductionResult, error) {
	results, err := s.DeductAll(ctx, []Requirement{{IngredientID: ingredientID, Qty: qty}})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// DeductAll deducts every requirement as one transaction. Every ingredient is planned
// against the current lots before anything is written; if any plan fails, or a write
// fails part way, no lot is left changed. Repeated ingredients are merged.
func (s *Service) DeductAll(ctx context.Context, reqs []Requirement) ([]entities.DeductionResult, error) {
	return s.DeductAllAndThen(ctx, reqs, nil)
}

// CommitFunc runs after the lot writes of a deduction and before its locks are
// released. A non-nil error rolls the deduction back.
type CommitFunc func(ctx context.Context, results []entities.DeductionResult) error

// DeductAllAndThen is DeductAll with then run inside the held locks, so a record
// that depends on the deduction is written or rejected together with it.
func (s *Service) DeductAllAndThen(ctx context.Context, reqs []Requirement, then CommitFunc) ([]entities.DeductionResult, error) {
	merged, err := mergeRequirements(reqs)
	if err != nil {
		return nil, err
	}
	for _, r := range merged {
		if _, err := s.ingredients.GetIngredient(ctx, r.IngredientID); err != nil {
			return nil, err
		}
	}

	release, err := s.locker.Acquire(ctx, ingredientKeys(merged)...)
	if err != nil {
		return nil, fmt.Errorf("lock ingredients: %w", err)
	}
	defer release()

	plans := make([]*services.DeductionPlan, 0, len(merged))
	for _, r := range merged {
		lots, err := s.lots.GetLotsByIngredient(ctx, r.IngredientID)
		if err != nil {
			return nil, err
		}
		plan, err := services.PlanFIFODeduction(r.IngredientID, lots, r.Qty)
		if err != nil {
			s.rejected(r.IngredientID, err)
			return nil, err
		}
		plans = append(plans, plan)
	}

	updates := make([]services.LotUpdate, 0)
	results := make([]entities.DeductionResult, 0, len(plans))
	for _, p := range plans {
		updates = append(updates, p.Updates...)
		results = append(results, p.Result())
	}
	var after func(context.Context) error
	if then != nil {
		after = func(ctx context.Context) error { return then(ctx, results) }
	}
	if err := s.commitLocked(ctx, updates, ingredientIDs(merged), after); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for _, result := range results {
		s.logger.Info("deduction committed",
			zap.String("ingredient_id", string(result.IngredientID)),
			zap.String("qty", result.RequiredQty.String()),
			zap.String("cost", result.TotalCost.String()),
			zap.Int("lots", len(result.ConsumedLots)))
		s.metrics.DeductionCommitted()
		s.emit(ctx, events.LotsDeducted(result, now))
	}
	return results, nil
}

// commitLocked writes staged lot updates in order, refreshes the catalog cache of
// every touched ingredient and then runs after, if set. On failure it writes back the
// Before values of everything already applied.
func (s *Service) commitLocked(ctx context.Context, updates []services.LotUpdate, ids []entities.IngredientID, after func(context.Context) error) error {
	applied := make([]services.LotUpdate, 0, len(updates))
	var commitErr error
	for _, u := range updates {
		if err := s.lots.UpdateRemaining(ctx, u.LotID, u.After); err != nil {
			commitErr = fmt.Errorf("update lot %s: %w", u.LotID, err)
			break
		}
		applied = append(applied, u)
	}
	if commitErr == nil {
		for _, id := range ids {
			if err := s.refreshLocked(ctx, id); err != nil {
				commitErr = err
				break
			}
		}
	}
	if commitErr == nil && after != nil {
		commitErr = after(ctx)
	}
	if commitErr == nil {
		return nil
	}

	// Use a context that outlives a cancelled caller so the rollback is not cut short.
	rollbackCtx := context.WithoutCancel(ctx)
	s.metrics.RolledBack()
	for i := len(applied) - 1; i >= 0; i-- {
		u := applied[i]
		if err := s.lots.UpdateRemaining(rollbackCtx, u.LotID, u.Before); err != nil {
			s.logger.Error("rollback failed; lot left modified",
				zap.String("lot_id", string(u.LotID)),
				zap.String("expected", u.Before.String()),
				zap.Error(err))
			commitErr = errors.Join(commitErr, fmt.Errorf("rollback lot %s: %w", u.LotID, err))
		}
	}
	for _, id := range ids {
		if err := s.refreshLocked(rollbackCtx, id); err != nil {
			s.logger.Warn("cache refresh after rollback failed", zap.String("ingredient_id", string(id)), zap.Error(err))
		}
	}
	return commitErr
}

// Refresh recomputes the cached stock and cost of the ingredients from their lots
func (s *Service) Refresh(ctx context.Context, ids ...entities.IngredientID) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, string(id))
	}
	release, err := s.locker.Acquire(ctx, keys...)
	if err != nil {
		return fmt.Errorf("lock ingredients: %w", err)
	}
	defer release()

	for _, id := range ids {
		if err := s.refreshLocked(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) refreshLocked(ctx context.Context, id entities.IngredientID) error {
	lots, err := s.lots.GetLotsByIngredient(ctx, id)
	if err != nil {
		return err
	}
	stock := services.StockOnHand(id, lots)
	cost := services.WeightedAverageCost(id, lots)
	if err := s.ingredients.UpdateIngredientCache(ctx, id, stock, cost, s.clock.Now()); err != nil {
		return fmt.Errorf("refresh cache for %s: %w", id, err)
	}
	return nil
}

// CurrentCost returns the stock-weighted average unit cost of the ingredient
func (s *Service) CurrentCost(ctx context.Context, id entities.IngredientID) (decimal.Decimal, error) {
	lots, err := s.lots.GetLotsByIngredient(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return services.WeightedAverageCost(id, lots), nil
}

// StockOnHand returns the sum of the ingredient's remaining lot quantities
func (s *Service) StockOnHand(ctx context.Context, id entities.IngredientID) (decimal.Decimal, error) {
	lots, err := s.lots.GetLotsByIngredient(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return services.StockOnHand(id, lots), nil
}

// Lots returns every lot of the ingredient, drained ones included, in FIFO order
func (s *Service) Lots(ctx context.Context, id entities.IngredientID) ([]entities.Lot, error) {
	lots, err := s.lots.GetLotsByIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lots, func(i, j int) bool { return lots[i].Before(lots[j]) })
	return lots, nil
}

func (s *Service) rejected(id entities.IngredientID, err error) {
	var stockErr *entities.InsufficientStockError
	insufficient := errors.As(err, &stockErr)
	s.metrics.DeductionRejected(insufficient)
	if insufficient {
		s.logger.Warn("insufficient stock",
			zap.String("ingredient_id", string(id)),
			zap.String("required", stockErr.Required.String()),
			zap.String("available", stockErr.Available.String()),
			zap.String("shortfall", stockErr.Shortfall.String()))
	}
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if _, err := s.events.AppendEvent(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", e.Type), zap.Error(err))
	}
}

func mergeRequirements(reqs []Requirement) ([]Requirement, error) {
	if len(reqs) == 0 {
		return nil, entities.NewValidationError("requirements", "nothing to deduct")
	}
	out := make([]Requirement, 0, len(reqs))
	index := make(map[entities.IngredientID]int, len(reqs))
	for _, r := range reqs {
		if r.IngredientID == "" {
			return nil, entities.NewValidationError("ingredient_id", "ingredient id cannot be empty")
		}
		if !r.Qty.IsPositive() {
			return nil, entities.NewValidationError("qty", fmt.Sprintf("deduction quantity must be positive, got %s", r.Qty))
		}
		if i, ok := index[r.IngredientID]; ok {
			out[i].Qty = out[i].Qty.Add(r.Qty)
			continue
		}
		index[r.IngredientID] = len(out)
		out = append(out, r)
	}
	return out, nil
}

func ingredientIDs(reqs []Requirement) []entities.IngredientID {
	ids := make([]entities.IngredientID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.IngredientID)
	}
	return ids
}

func ingredientKeys(reqs []Requirement) []string {
	keys := make([]string, 0, len(reqs))
	for _, r := range reqs {
		keys = append(keys, string(r.IngredientID))
	}
	return keys
}
