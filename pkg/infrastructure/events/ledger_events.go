package events

import (
	"strconv"
	"time"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

const (
	LotAppendedEvent  = "lot.appended"
	LotsDeductedEvent = "lots.deducted"
	SaleRecordedEvent = "sale.recorded"
)

func ingredientStream(id entities.IngredientID) string { return "ingredient-" + string(id) }

func LotAppended(lot entities.Lot, at time.Time) Event {
	return NewEvent(LotAppendedEvent, ingredientStream(lot.IngredientID), at, map[string]string{
		"lot_id":        string(lot.ID),
		"ingredient_id": string(lot.IngredientID),
		"qty":           lot.InitialQty.String(),
		"unit_cost":     lot.UnitCost.String(),
		"purchase_date": lot.PurchaseDate.Format(time.RFC3339),
	})
}

func LotsDeducted(result entities.DeductionResult, at time.Time) Event {
	return NewEvent(LotsDeductedEvent, ingredientStream(result.IngredientID), at, map[string]string{
		"ingredient_id": string(result.IngredientID),
		"qty":           result.RequiredQty.String(),
		"total_cost":    result.TotalCost.String(),
		"lots":          strconv.Itoa(len(result.ConsumedLots)),
	})
}

func SaleRecorded(sale entities.SaleTransaction, at time.Time) Event {
	return NewEvent(SaleRecordedEvent, "sale-"+sale.ID, at, map[string]string{
		"sale_id":  sale.ID,
		"kind":     string(sale.Kind),
		"subject":  sale.SubjectID,
		"platform": sale.Platform,
		"qty":      sale.Qty.String(),
		"revenue":  sale.Revenue.String(),
		"cogs":     sale.COGS.String(),
		"profit":   sale.Profit.String(),
	})
}
