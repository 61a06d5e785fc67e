package services

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// StockOnHand sums the remaining quantity of the ingredient's lots
func StockOnHand(ingredientID entities.IngredientID, lots []entities.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		if lot.IngredientID == ingredientID && lot.RemainingQty.IsPositive() {
			total = total.Add(lot.RemainingQty)
		}
	}
	return total
}

// WeightedAverageCost returns the stock-weighted mean unit cost of the lots that
// still hold stock. With no stock left it falls back to the unit cost of the lot
// with the latest purchase date, and to zero when there are no lots at all.
func WeightedAverageCost(ingredientID entities.IngredientID, lots []entities.Lot) decimal.Decimal {
	totalQty := decimal.Zero
	totalCost := decimal.Zero

	var latest *entities.Lot
	for i := range lots {
		lot := &lots[i]
		if lot.IngredientID != ingredientID {
			continue
		}
		// Latest by purchase date; insertion order breaks ties.
		if latest == nil || latest.Before(*lot) {
			latest = lot
		}
		if lot.RemainingQty.IsPositive() {
			totalQty = totalQty.Add(lot.RemainingQty)
			totalCost = totalCost.Add(lot.Value())
		}
	}

	if totalQty.IsPositive() {
		return totalCost.Div(totalQty)
	}
	if latest != nil {
		return latest.UnitCost
	}
	return decimal.Zero
}

// InventoryValue returns the cost of all stock still held for the ingredient
func InventoryValue(ingredientID entities.IngredientID, lots []entities.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		if lot.IngredientID == ingredientID && lot.RemainingQty.IsPositive() {
			total = total.Add(lot.Value())
		}
	}
	return total
}
