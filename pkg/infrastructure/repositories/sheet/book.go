// Package sheet implements the ledger repositories over a tablestore.Store laid out like
// the kitchen's workbook: one table per record kind, one row per record.
package sheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

const (
	TableIngredients = "Ingredients"
	TablePurchases   = "Purchases"
	TableSales       = "Sales"
	TableSaleLots    = "SaleLots"
	TableMenu        = "Menu"
	TableRecipes     = "MenuRecipes"
)

var schema = map[string][]string{
	TableIngredients: {"id", "name", "stock_unit", "buy_unit", "buy_to_stock_ratio", "min_stock", "current_stock", "current_cost_per_unit", "updated_at"},
	TablePurchases:   {"lot_id", "ingredient_id", "purchase_date", "initial_qty_stock", "unit_cost", "remaining_qty_stock"},
	TableSales:       {"sale_id", "date", "platform", "kind", "subject_id", "qty", "unit_price", "revenue", "cogs", "profit", "warnings"},
	TableSaleLots:    {"sale_id", "ingredient_id", "lot_id", "purchase_date", "qty", "unit_cost", "cost"},
	TableMenu:        {"menu_id", "name", "price"},
	TableRecipes:     {"menu_id", "ingredient_id", "qty_per_serving", "unit", "note"},
}

// tableOrder fixes sheet creation order so new workbooks open on Ingredients.
var tableOrder = []string{TableIngredients, TablePurchases, TableSales, TableSaleLots, TableMenu, TableRecipes}

// Book owns the store and the key→row caches shared by the sheet repositories.
type Book struct {
	store  tablestore.Store
	logger *zap.Logger

	mu    sync.Mutex
	index map[string]map[string]tablestore.RowRef
}

// Open ensures every ledger table exists with its full header
func Open(ctx context.Context, store tablestore.Store, logger *zap.Logger) (*Book, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, table := range tableOrder {
		if err := store.EnsureTable(ctx, table, schema[table]); err != nil {
			return nil, fmt.Errorf("ensure table %s: %w", table, err)
		}
	}
	return &Book{
		store:  store,
		logger: logger,
		index:  make(map[string]map[string]tablestore.RowRef),
	}, nil
}

func (b *Book) Close() error { return b.store.Close() }

// Ingredients, Lots, Menus and Sales return repositories sharing this book.
func (b *Book) Ingredients() *IngredientRepository { return &IngredientRepository{book: b} }
func (b *Book) Lots() *LotRepository               { return &LotRepository{book: b} }
func (b *Book) Menus() *MenuRepository             { return &MenuRepository{book: b} }
func (b *Book) Sales() *SaleRepository             { return &SaleRepository{book: b} }

// lookup finds the row holding key in keyColumn. A cache miss reloads the table once so
// rows written by another process are found.
func (b *Book) lookup(ctx context.Context, table, keyColumn, key string) (tablestore.RowRef, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, ok := b.index[table]; ok {
		if ref, ok := idx[key]; ok {
			return ref, true, nil
		}
	}
	if err := b.reindexLocked(ctx, table, keyColumn); err != nil {
		return 0, false, err
	}
	ref, ok := b.index[table][key]
	return ref, ok, nil
}

func (b *Book) reindexLocked(ctx context.Context, table, keyColumn string) error {
	rows, err := b.store.ReadAll(ctx, table)
	if err != nil {
		return err
	}
	idx := make(map[string]tablestore.RowRef, len(rows))
	for _, r := range rows {
		k := r.Get(keyColumn)
		if _, dup := idx[k]; !dup {
			idx[k] = r.Ref
		}
	}
	b.index[table] = idx
	return nil
}

func (b *Book) remember(table, key string, ref tablestore.RowRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, ok := b.index[table]; ok {
		if _, dup := idx[key]; !dup {
			idx[key] = ref
		}
	}
}

func (b *Book) updateCells(ctx context.Context, table string, ref tablestore.RowRef, values map[string]string) error {
	for _, col := range schema[table] {
		v, ok := values[col]
		if !ok {
			continue
		}
		if err := b.store.UpdateCell(ctx, table, ref, col, v); err != nil {
			return err
		}
	}
	return nil
}

func parseDecimal(table, column string, r tablestore.Record) (decimal.Decimal, error) {
	raw := r.Get(column)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s row %d column %s: %w", table, r.Ref, column, err)
	}
	return d, nil
}

func parseTime(table, column string, r tablestore.Record) (time.Time, error) {
	raw := r.Get(column)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		if d, dateErr := time.Parse(time.DateOnly, raw); dateErr == nil {
			return d, nil
		}
		return time.Time{}, fmt.Errorf("%s row %d column %s: %w", table, r.Ref, column, err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
