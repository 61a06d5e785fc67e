package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
)

// LotRepository provides in-memory purchase lot storage. Lots are kept in insertion order.
type LotRepository struct {
	mu      sync.RWMutex
	lots    []entities.Lot
	lotsMap map[entities.LotID]int
	nextSeq int64

	// failOn makes UpdateRemaining fail for a lot; used to exercise commit rollback.
	failOn map[entities.LotID]error
}

// NewLotRepository creates a new in-memory lot repository
func NewLotRepository() *LotRepository {
	return &LotRepository{
		lots:    []entities.Lot{},
		lotsMap: make(map[entities.LotID]int),
		failOn:  make(map[entities.LotID]error),
	}
}

// Verify interface compliance
var _ repositories.LotRepository = (*LotRepository)(nil)

func (r *LotRepository) AppendLot(_ context.Context, lot *entities.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.lotsMap[lot.ID]; exists {
		return entities.NewValidationError("lot_id", "duplicate lot "+string(lot.ID))
	}
	r.nextSeq++
	lot.Sequence = r.nextSeq
	r.lotsMap[lot.ID] = len(r.lots)
	r.lots = append(r.lots, *lot)
	return nil
}

func (r *LotRepository) GetLotsByIngredient(_ context.Context, id entities.IngredientID) ([]entities.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Lot, 0)
	for _, lot := range r.lots {
		if lot.IngredientID == id {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *LotRepository) GetAllLots(_ context.Context) ([]entities.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.Lot(nil), r.lots...), nil
}

func (r *LotRepository) UpdateRemaining(_ context.Context, id entities.LotID, remaining decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failOn[id]; err != nil {
		return err
	}
	index, exists := r.lotsMap[id]
	if !exists {
		return entities.NewNotFoundError("lot", string(id))
	}
	if remaining.IsNegative() || remaining.GreaterThan(r.lots[index].InitialQty) {
		return entities.NewValidationError("remaining_qty_stock", "must be within [0, initial]")
	}
	r.lots[index].RemainingQty = remaining
	return nil
}

// FailUpdatesOn makes every later UpdateRemaining for id return err. Pass nil to clear.
func (r *LotRepository) FailUpdatesOn(id entities.LotID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failOn, id)
		return
	}
	r.failOn[id] = err
}
