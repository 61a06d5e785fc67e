package memory

import (
	"context"
	"sync"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
)

// SaleRepository provides in-memory append-only sale storage
type SaleRepository struct {
	mu    sync.RWMutex
	sales []entities.SaleTransaction
	err   error
}

// NewSaleRepository creates a new in-memory sale repository
func NewSaleRepository() *SaleRepository {
	return &SaleRepository{}
}

// Verify interface compliance
var _ repositories.SaleRepository = (*SaleRepository)(nil)

func (r *SaleRepository) AppendSale(_ context.Context, sale *entities.SaleTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.sales = append(r.sales, *sale)
	return nil
}

func (r *SaleRepository) GetAllSales(_ context.Context) ([]*entities.SaleTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.SaleTransaction, 0, len(r.sales))
	for i := range r.sales {
		sale := r.sales[i]
		out = append(out, &sale)
	}
	return out, nil
}

// FailAppends makes every later AppendSale return err. Pass nil to clear.
func (r *SaleRepository) FailAppends(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}
