package sheet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

// SaleRepository appends sales to the Sales table and their lot consumptions to SaleLots.
// The lot rows are written first; a sale exists once its Sales row does.
type SaleRepository struct {
	book *Book
}

var _ repositories.SaleRepository = (*SaleRepository)(nil)

func (r *SaleRepository) AppendSale(ctx context.Context, sale *entities.SaleTransaction) error {
	for _, d := range sale.Deductions {
		for _, c := range d.ConsumedLots {
			if _, err := r.book.store.AppendRow(ctx, TableSaleLots, map[string]string{
				"sale_id":       sale.ID,
				"ingredient_id": string(d.IngredientID),
				"lot_id":        string(c.LotID),
				"purchase_date": formatTime(c.PurchaseDate),
				"qty":           c.Qty.String(),
				"unit_cost":     c.UnitCost.String(),
				"cost":          c.Cost.String(),
			}); err != nil {
				return fmt.Errorf("append sale lot: %w", err)
			}
		}
	}

	warnings := ""
	if len(sale.Warnings) > 0 {
		raw, err := json.Marshal(sale.Warnings)
		if err != nil {
			return err
		}
		warnings = string(raw)
	}

	_, err := r.book.store.AppendRow(ctx, TableSales, map[string]string{
		"sale_id":    sale.ID,
		"date":       formatTime(sale.Date),
		"platform":   sale.Platform,
		"kind":       string(sale.Kind),
		"subject_id": sale.SubjectID,
		"qty":        sale.Qty.String(),
		"unit_price": sale.UnitPrice.String(),
		"revenue":    sale.Revenue.String(),
		"cogs":       sale.COGS.String(),
		"profit":     sale.Profit.String(),
		"warnings":   warnings,
	})
	return err
}

func (r *SaleRepository) GetAllSales(ctx context.Context) ([]*entities.SaleTransaction, error) {
	lotRows, err := r.book.store.ReadAll(ctx, TableSaleLots)
	if err != nil {
		return nil, err
	}
	deductions, err := groupSaleLots(lotRows)
	if err != nil {
		return nil, err
	}

	rows, err := r.book.store.ReadAll(ctx, TableSales)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.SaleTransaction, 0, len(rows))
	for _, row := range rows {
		sale := &entities.SaleTransaction{
			ID:         row.Get("sale_id"),
			Platform:   row.Get("platform"),
			Kind:       entities.SaleKind(row.Get("kind")),
			SubjectID:  row.Get("subject_id"),
			Deductions: deductions[row.Get("sale_id")],
		}
		if sale.Date, err = parseTime(TableSales, "date", row); err != nil {
			return nil, err
		}
		if sale.Qty, err = parseDecimal(TableSales, "qty", row); err != nil {
			return nil, err
		}
		if sale.UnitPrice, err = parseDecimal(TableSales, "unit_price", row); err != nil {
			return nil, err
		}
		if sale.Revenue, err = parseDecimal(TableSales, "revenue", row); err != nil {
			return nil, err
		}
		if sale.COGS, err = parseDecimal(TableSales, "cogs", row); err != nil {
			return nil, err
		}
		if sale.Profit, err = parseDecimal(TableSales, "profit", row); err != nil {
			return nil, err
		}
		if raw := row.Get("warnings"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &sale.Warnings); err != nil {
				return nil, fmt.Errorf("%s row %d warnings: %w", TableSales, row.Ref, err)
			}
		}
		out = append(out, sale)
	}
	return out, nil
}

// groupSaleLots rebuilds per-ingredient deductions of each sale, in row order.
func groupSaleLots(rows []tablestore.Record) (map[string][]entities.DeductionResult, error) {
	out := make(map[string][]entities.DeductionResult)
	for _, row := range rows {
		c := entities.Consumption{LotID: entities.LotID(row.Get("lot_id"))}
		var err error
		if c.PurchaseDate, err = parseTime(TableSaleLots, "purchase_date", row); err != nil {
			return nil, err
		}
		if c.Qty, err = parseDecimal(TableSaleLots, "qty", row); err != nil {
			return nil, err
		}
		if c.UnitCost, err = parseDecimal(TableSaleLots, "unit_cost", row); err != nil {
			return nil, err
		}
		if c.Cost, err = parseDecimal(TableSaleLots, "cost", row); err != nil {
			return nil, err
		}

		saleID := row.Get("sale_id")
		ingID := entities.IngredientID(row.Get("ingredient_id"))
		results := out[saleID]
		i := len(results) - 1
		for ; i >= 0; i-- {
			if results[i].IngredientID == ingID {
				break
			}
		}
		if i < 0 {
			results = append(results, entities.DeductionResult{IngredientID: ingID})
			i = len(results) - 1
		}
		d := &results[i]
		d.ConsumedLots = append(d.ConsumedLots, c)
		d.RequiredQty = d.RequiredQty.Add(c.Qty)
		d.TotalCost = d.TotalCost.Add(c.Cost)
		if d.RequiredQty.IsPositive() {
			d.AvgCost = d.TotalCost.Div(d.RequiredQty)
		}
		out[saleID] = results
	}
	return out, nil
}
