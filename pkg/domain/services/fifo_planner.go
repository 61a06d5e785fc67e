package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// LotUpdate is a staged change to one lot's remaining quantity
type LotUpdate struct {
	LotID  entities.LotID
	Before decimal.Decimal
	After  decimal.Decimal
}

// DeductionPlan holds every lot mutation a FIFO deduction would make.
// Nothing is written until the plan is committed by the caller.
type DeductionPlan struct {
	IngredientID entities.IngredientID
	Required     decimal.Decimal
	Consumptions []entities.Consumption
	Updates      []LotUpdate
	TotalCost    decimal.Decimal
}

// Result converts the plan into the deduction report returned to callers
func (p *DeductionPlan) Result() entities.DeductionResult {
	consumed := make([]entities.Consumption, len(p.Consumptions))
	copy(consumed, p.Consumptions)

	return entities.DeductionResult{
		IngredientID: p.IngredientID,
		RequiredQty:  p.Required,
		ConsumedLots: consumed,
		TotalCost:    p.TotalCost,
		AvgCost:      p.TotalCost.Div(p.Required),
	}
}

// PlanFIFODeduction selects lots of the ingredient oldest first and stages the
// consumption of required stock units. Lots are taken by value; the caller's
// slice is never mutated.
func PlanFIFODeduction(ingredientID entities.IngredientID, lots []entities.Lot, required decimal.Decimal) (*DeductionPlan, error) {
	if !required.IsPositive() {
		return nil, entities.NewValidationError("qty", fmt.Sprintf("deduction quantity must be positive, got %s", required))
	}

	candidates := AvailableLots(ingredientID, lots)

	plan := &DeductionPlan{
		IngredientID: ingredientID,
		Required:     required,
		TotalCost:    decimal.Zero,
	}

	remaining := required
	for i := range candidates {
		if !remaining.IsPositive() {
			break
		}
		lot := &candidates[i]

		take := decimal.Min(remaining, lot.RemainingQty)
		before := lot.RemainingQty
		cost, err := lot.Consume(take)
		if err != nil {
			return nil, fmt.Errorf("planning deduction for %s: %w", ingredientID, err)
		}

		plan.Updates = append(plan.Updates, LotUpdate{LotID: lot.ID, Before: before, After: lot.RemainingQty})
		plan.Consumptions = append(plan.Consumptions, entities.Consumption{
			LotID:        lot.ID,
			PurchaseDate: lot.PurchaseDate,
			Qty:          take,
			UnitCost:     lot.UnitCost,
			Cost:         cost,
		})
		plan.TotalCost = plan.TotalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return nil, entities.NewInsufficientStockError(ingredientID, required, StockOnHand(ingredientID, lots))
	}

	return plan, nil
}

// AvailableLots returns copies of the ingredient's lots that still hold stock, in FIFO order
func AvailableLots(ingredientID entities.IngredientID, lots []entities.Lot) []entities.Lot {
	available := make([]entities.Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.IngredientID == ingredientID && lot.RemainingQty.IsPositive() {
			available = append(available, lot)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Before(available[j])
	})
	return available
}
