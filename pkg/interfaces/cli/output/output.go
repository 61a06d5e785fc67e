package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vsinha/kitchenledger/pkg/application/dto"
	"github.com/vsinha/kitchenledger/pkg/application/services/recipe"
	"github.com/vsinha/kitchenledger/pkg/application/services/seed"
	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/services"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Printer renders command results as text tables or indented JSON
type Printer struct {
	w      io.Writer
	format string
}

// NewPrinter creates a printer for the given format
func NewPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case FormatText, FormatJSON:
		return &Printer{w: w, format: format}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func (p *Printer) json(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// Stock prints the stock report
func (p *Printer) Stock(lines []dto.StockLine) error {
	if p.format == FormatJSON {
		return p.json(lines)
	}

	fmt.Fprintf(p.w, "📊 Stock Report\n")
	fmt.Fprintf(p.w, "===============\n\n")
	fmt.Fprintf(p.w, "%-10s %-18s %-6s %12s %12s %12s %10s\n",
		"ID", "Name", "Unit", "Stock", "Cost/Unit", "Value", "Min")
	fmt.Fprintf(p.w, "%-10s %-18s %-6s %12s %12s %12s %10s\n",
		"----------", "------------------", "------", "------------", "------------", "------------", "----------")
	for _, l := range lines {
		flag := ""
		if l.Low {
			flag = " ⚠️ low"
		}
		fmt.Fprintf(p.w, "%-10s %-18s %-6s %12s %12s %12s %10s%s\n",
			l.IngredientID, l.Name, l.StockUnit,
			l.CurrentStock.String(),
			l.CostPerUnit.StringFixed(4),
			l.Value.StringFixed(2),
			l.MinStock.String(),
			flag)
	}
	return nil
}

// Lots prints an ingredient's lots in FIFO order
func (p *Printer) Lots(ing *entities.Ingredient, lots []entities.Lot) error {
	if p.format == FormatJSON {
		return p.json(struct {
			Ingredient *entities.Ingredient `json:"ingredient"`
			Lots       []entities.Lot       `json:"lots"`
		}{ing, lots})
	}

	fmt.Fprintf(p.w, "📦 Lots for %s (%s, in %s)\n\n", ing.ID, ing.Name, ing.StockUnit)
	fmt.Fprintf(p.w, "%-38s %-12s %12s %12s %12s\n", "Lot", "Purchased", "Initial", "Remaining", "Unit Cost")
	fmt.Fprintf(p.w, "%-38s %-12s %12s %12s %12s\n",
		"--------------------------------------", "------------", "------------", "------------", "------------")
	for _, l := range lots {
		fmt.Fprintf(p.w, "%-38s %-12s %12s %12s %12s\n",
			l.ID, l.PurchaseDate.Format("2006-01-02"),
			l.InitialQty.String(), l.RemainingQty.String(), l.UnitCost.StringFixed(4))
	}
	return nil
}

// Purchase prints the lot created by a purchase
func (p *Printer) Purchase(res *dto.PurchaseResult) error {
	if p.format == FormatJSON {
		return p.json(res)
	}

	fmt.Fprintf(p.w, "✅ Lot %s: %s %s of %s at %s per unit (%s)\n",
		res.Lot.ID, res.Lot.InitialQty, res.StockUnit, res.Lot.IngredientID,
		res.Lot.UnitCost.StringFixed(4), res.ConversionNote)
	p.warnings(res.Warnings)
	return nil
}

// Sale prints a recorded sale and the lots it consumed
func (p *Printer) Sale(sale *entities.SaleTransaction) error {
	if p.format == FormatJSON {
		return p.json(sale)
	}

	fmt.Fprintf(p.w, "✅ Sale %s: %s x %s on %s\n", sale.ID, sale.Qty, sale.SubjectID, sale.Platform)
	fmt.Fprintf(p.w, "  Revenue: %s  COGS: %s  Profit: %s\n\n",
		sale.Revenue.StringFixed(2), sale.COGS.StringFixed(2), sale.Profit.StringFixed(2))
	fmt.Fprintf(p.w, "%-10s %-38s %12s %12s %12s\n", "Ingredient", "Lot", "Qty", "Unit Cost", "Cost")
	for _, d := range sale.Deductions {
		for _, c := range d.ConsumedLots {
			fmt.Fprintf(p.w, "%-10s %-38s %12s %12s %12s\n",
				d.IngredientID, c.LotID, c.Qty.String(), c.UnitCost.StringFixed(4), c.Cost.StringFixed(4))
		}
	}
	p.warnings(sale.Warnings)
	return nil
}

// Sales prints the recorded sales, oldest first
func (p *Printer) Sales(sales []*entities.SaleTransaction) error {
	if p.format == FormatJSON {
		return p.json(sales)
	}

	fmt.Fprintf(p.w, "%-38s %-12s %-10s %-10s %10s %12s %12s %12s\n",
		"Sale", "Date", "Platform", "Subject", "Qty", "Revenue", "COGS", "Profit")
	for _, s := range sales {
		fmt.Fprintf(p.w, "%-38s %-12s %-10s %-10s %10s %12s %12s %12s\n",
			s.ID, s.Date.Format("2006-01-02"), s.Platform, s.SubjectID, s.Qty.String(),
			s.Revenue.StringFixed(2), s.COGS.StringFixed(2), s.Profit.StringFixed(2))
	}
	return nil
}

// Cost prints an ingredient's current weighted-average unit cost
func (p *Printer) Cost(ing *entities.Ingredient, cost fmt.Stringer) error {
	if p.format == FormatJSON {
		return p.json(map[string]string{
			"ingredient_id": string(ing.ID),
			"stock_unit":    ing.StockUnit,
			"cost_per_unit": cost.String(),
		})
	}
	fmt.Fprintf(p.w, "💰 %s (%s): %s per %s\n", ing.ID, ing.Name, cost, ing.StockUnit)
	return nil
}

// PlateCost prints the ingredient cost of one menu serving
func (p *Printer) PlateCost(pc *recipe.PlateCost) error {
	if p.format == FormatJSON {
		return p.json(pc)
	}
	fmt.Fprintf(p.w, "🍽️  %s (%s): cost %s, price %s, margin %s\n",
		pc.Menu.ID, pc.Menu.Name, pc.Cost.StringFixed(4), pc.Menu.Price.StringFixed(2), pc.Margin.StringFixed(4))
	ids := make([]string, 0, len(pc.PerItem))
	for id := range pc.PerItem {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(p.w, "  %-10s %12s\n", id, pc.PerItem[entities.IngredientID(id)].StringFixed(4))
	}
	return nil
}

// Validation prints recipe data issues
func (p *Printer) Validation(result *services.ValidationResult) error {
	if p.format == FormatJSON {
		return p.json(result)
	}
	if len(result.Issues) == 0 {
		fmt.Fprintln(p.w, "✅ Recipe data is consistent")
		return nil
	}
	fmt.Fprintf(p.w, "🔍 %d issue(s) found:\n", len(result.Issues))
	for _, issue := range result.Issues {
		marker := "warn "
		if issue.Kind.Blocking() {
			marker = "ERROR"
		}
		fmt.Fprintf(p.w, "  [%s] %-20s %s\n", marker, issue.Kind, issue.Detail)
	}
	return nil
}

// Drift prints ingredients whose cache disagrees with the ledger
func (p *Printer) Drift(drifts []dto.Drift, repaired bool) error {
	if p.format == FormatJSON {
		return p.json(drifts)
	}
	if len(drifts) == 0 {
		fmt.Fprintln(p.w, "✅ Cached stock and cost match the ledger")
		return nil
	}
	verb := "found"
	if repaired {
		verb = "repaired"
	}
	fmt.Fprintf(p.w, "⚠️  Drift %s on %d ingredient(s):\n", verb, len(drifts))
	fmt.Fprintf(p.w, "%-10s %12s %12s %12s %12s\n", "ID", "Cached", "Ledger", "Cached Cost", "Ledger Cost")
	for _, d := range drifts {
		fmt.Fprintf(p.w, "%-10s %12s %12s %12s %12s\n",
			d.IngredientID, d.CachedStock.String(), d.LedgerStock.String(),
			d.CachedCost.StringFixed(4), d.LedgerCost.StringFixed(4))
	}
	return nil
}

// Import prints what a seed import changed
func (p *Printer) Import(sum *seed.Summary) error {
	if p.format == FormatJSON {
		return p.json(sum)
	}
	fmt.Fprintf(p.w, "✅ Seed imported:\n")
	fmt.Fprintf(p.w, "  Ingredients: %d created, %d updated\n", sum.IngredientsCreated, sum.IngredientsUpdated)
	fmt.Fprintf(p.w, "  Menus: %d\n", sum.Menus)
	fmt.Fprintf(p.w, "  Recipe lines: %d\n", sum.RecipeLines)
	fmt.Fprintf(p.w, "  Purchases: %d\n", sum.Purchases)
	p.warnings(sum.Warnings)
	return nil
}

func (p *Printer) warnings(ws []entities.UnitAssumption) {
	if len(ws) == 0 {
		return
	}
	lines := make([]string, 0, len(ws))
	for _, w := range ws {
		lines = append(lines, "  ⚠️  "+w.String())
	}
	fmt.Fprintln(p.w, strings.Join(lines, "\n"))
}
