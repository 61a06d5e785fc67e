// Package sales records purchases and sales against the lot ledger.
package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/application/dto"
	"github.com/vsinha/kitchenledger/pkg/application/services/ledger"
	"github.com/vsinha/kitchenledger/pkg/application/services/recipe"
	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/domain/services"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/clock"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/events"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/metrics"
)

// IngredientFinder resolves the ingredient named by a request
type IngredientFinder interface {
	Find(ctx context.Context, key string) (*entities.Ingredient, error)
}

// Recorder is the purchase and sale boundary. Every rejected request leaves lots,
// caches and the sales table as they were.
type Recorder struct {
	catalog   IngredientFinder
	recipes   *recipe.Service
	ledger    *ledger.Service
	sales     repositories.SaleRepository
	markups   MarkupTable
	converter *services.UnitConverter
	validate  *validator.Validate

	logger  *zap.Logger
	events  events.EventStore
	metrics *metrics.Ledger
	clock   clock.Clock
	newID   func() string
}

type Option func(*Recorder)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMarkups(markups MarkupTable) Option {
	return func(r *Recorder) { r.markups = markups }
}

func WithEventStore(store events.EventStore) Option {
	return func(r *Recorder) { r.events = store }
}

func WithMetrics(m *metrics.Ledger) Option {
	return func(r *Recorder) { r.metrics = m }
}

func WithClock(c clock.Clock) Option {
	return func(r *Recorder) {
		if c != nil {
			r.clock = c
		}
	}
}

func WithIDGenerator(next func() string) Option {
	return func(r *Recorder) {
		if next != nil {
			r.newID = next
		}
	}
}

func NewRecorder(
	catalog IngredientFinder,
	recipes *recipe.Service,
	ledgerService *ledger.Service,
	sales repositories.SaleRepository,
	opts ...Option,
) *Recorder {
	r := &Recorder{
		catalog:   catalog,
		recipes:   recipes,
		ledger:    ledgerService,
		sales:     sales,
		converter: services.NewUnitConverter(),
		validate:  newValidator(),
		logger:    zap.NewNop(),
		clock:     clock.System(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordPurchase converts the purchased quantity to stock units and appends it as a
// lot whose unit cost is the total price spread over those stock units.
func (r *Recorder) RecordPurchase(ctx context.Context, req dto.PurchaseRequest) (*dto.PurchaseResult, error) {
	if err := checkRequest(r.validate, req); err != nil {
		return nil, err
	}
	ing, err := r.catalog.Find(ctx, req.Ingredient)
	if err != nil {
		return nil, err
	}

	conv := r.converter.ToStockUnits(req.Qty, req.Unit, ing)
	unitCost := req.TotalPrice.Div(conv.StockQty)
	date := req.Date
	if date.IsZero() {
		date = r.clock.Now()
	}

	lot, err := r.ledger.AppendLot(ctx, ing.ID, conv.StockQty, unitCost, date)
	if err != nil {
		return nil, err
	}

	result := &dto.PurchaseResult{Lot: *lot, StockUnit: ing.StockUnit, ConversionNote: conv.Note()}
	if conv.Assumption != nil {
		result.Warnings = append(result.Warnings, *conv.Assumption)
		r.assumed(result.Warnings)
	}
	r.logger.Info("purchase recorded",
		zap.String("ingredient_id", string(ing.ID)),
		zap.String("lot_id", string(lot.ID)),
		zap.String("stock_qty", conv.StockQty.String()),
		zap.String("unit_cost", unitCost.String()),
		zap.String("conversion", result.ConversionNote))
	return result, nil
}

// RecordSale deducts the sale's stock through FIFO and appends one sale record.
// Ingredient sales without a price are priced at current cost times the platform
// markup; menu sales without a price use the menu's list price.
func (r *Recorder) RecordSale(ctx context.Context, req dto.SaleRequest) (*entities.SaleTransaction, error) {
	if err := checkRequest(r.validate, req); err != nil {
		return nil, err
	}
	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		platform = DefaultPlatform
	}

	var (
		sale = &entities.SaleTransaction{
			Platform: platform,
			Kind:     req.Kind,
			Qty:      req.Qty,
			Date:     req.Date,
		}
		reqs []ledger.Requirement
		err  error
	)
	switch req.Kind {
	case entities.SaleKindIngredient:
		reqs, err = r.planIngredientSale(ctx, req, sale)
	case entities.SaleKindMenu:
		reqs, err = r.planMenuSale(ctx, req, sale)
	default:
		err = entities.NewValidationError("kind", fmt.Sprintf("unknown sale kind %q", req.Kind))
	}
	if err != nil {
		return nil, err
	}

	sale.ID = r.newID()
	if sale.Date.IsZero() {
		sale.Date = r.clock.Now()
	}
	// The sale row is written while the ingredients are still locked; if it cannot
	// be stored the deduction is rolled back before anyone else sees it.
	_, err = r.ledger.DeductAllAndThen(ctx, reqs, func(ctx context.Context, results []entities.DeductionResult) error {
		sale.Deductions = results
		sale.Revenue = sale.UnitPrice.Mul(sale.Qty)
		sale.COGS = entities.TotalCOGS(results)
		sale.Profit = sale.Revenue.Sub(sale.COGS)
		if err := r.sales.AppendSale(ctx, sale); err != nil {
			return fmt.Errorf("append sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.assumed(sale.Warnings)
	cogs, _ := sale.COGS.Float64()
	r.metrics.SaleRecorded(string(sale.Kind), sale.Platform, cogs)
	r.emit(ctx, events.SaleRecorded(*sale, r.clock.Now()))
	r.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("kind", string(sale.Kind)),
		zap.String("subject_id", sale.SubjectID),
		zap.String("qty", sale.Qty.String()),
		zap.String("revenue", sale.Revenue.String()),
		zap.String("cogs", sale.COGS.String()),
		zap.String("profit", sale.Profit.String()))
	return sale, nil
}

func (r *Recorder) planIngredientSale(ctx context.Context, req dto.SaleRequest, sale *entities.SaleTransaction) ([]ledger.Requirement, error) {
	ing, err := r.catalog.Find(ctx, req.Subject)
	if err != nil {
		return nil, err
	}
	conv := r.converter.ToStockUnits(req.Qty, req.Unit, ing)
	if conv.Assumption != nil {
		sale.Warnings = append(sale.Warnings, *conv.Assumption)
	}
	sale.SubjectID = string(ing.ID)

	if req.UnitPrice != nil {
		sale.UnitPrice = *req.UnitPrice
	} else {
		cost, err := r.ledger.CurrentCost(ctx, ing.ID)
		if err != nil {
			return nil, err
		}
		// Priced per sold unit, so a sale in buy units carries the buy-unit cost.
		perSold := cost.Mul(conv.StockQty).Div(req.Qty)
		sale.UnitPrice = perSold.Mul(r.markups.For(sale.Platform))
	}
	return []ledger.Requirement{{IngredientID: ing.ID, Qty: conv.StockQty}}, nil
}

func (r *Recorder) planMenuSale(ctx context.Context, req dto.SaleRequest, sale *entities.SaleTransaction) ([]ledger.Requirement, error) {
	if strings.TrimSpace(req.Unit) != "" {
		return nil, entities.NewValidationError("unit", "menu sales are counted in servings")
	}
	exp, err := r.recipes.ExpandSale(ctx, req.Subject, req.Qty)
	if err != nil {
		return nil, err
	}
	sale.SubjectID = string(exp.Menu.ID)
	sale.Warnings = append(sale.Warnings, exp.Warnings...)

	switch {
	case req.UnitPrice != nil:
		sale.UnitPrice = *req.UnitPrice
	case exp.Menu.Price.IsPositive():
		sale.UnitPrice = exp.Menu.Price
	default:
		return nil, entities.NewValidationError("unit_price", fmt.Sprintf("menu %s has no list price; a unit price is required", exp.Menu.ID))
	}
	return exp.Requirements, nil
}

// Sales returns every recorded sale
func (r *Recorder) Sales(ctx context.Context) ([]*entities.SaleTransaction, error) {
	return r.sales.GetAllSales(ctx)
}

func (r *Recorder) assumed(warnings []entities.UnitAssumption) {
	for _, w := range warnings {
		r.logger.Warn("unit assumed 1:1", zap.String("warning", w.String()))
	}
	r.metrics.UnitAssumed(len(warnings))
}

func (r *Recorder) emit(ctx context.Context, e events.Event) {
	if r.events == nil {
		return
	}
	if _, err := r.events.AppendEvent(ctx, e); err != nil {
		r.logger.Warn("failed to publish event", zap.String("type", e.Type), zap.Error(err))
	}
}
