package testing

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/repositories/memory"
)

// Day1 is the purchase date used by the kitchen scenario
var Day1 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// Kitchen bundles in-memory repositories loaded with a scenario
type Kitchen struct {
	Ingredients *memory.IngredientRepository
	Lots        *memory.LotRepository
	Menus       *memory.MenuRepository
	Sales       *memory.SaleRepository
}

// NewKitchen returns empty repositories
func NewKitchen() *Kitchen {
	return &Kitchen{
		Ingredients: memory.NewIngredientRepository(8),
		Lots:        memory.NewLotRepository(),
		Menus:       memory.NewMenuRepository(),
		Sales:       memory.NewSaleRepository(),
	}
}

// BuildBakeryTestData builds the bakery scenario:
//
//	ING1 Flour  g / kg x1000
//	ING2 Sugar  g / kg x1000
//	ING3 Egg    pc / tray x30
//	M1 Bread    100 g flour per serving, list price 40
//	M2 Cake     2 + 3 pc egg per serving on two lines, 50 g sugar, 80 g flour
//	M3 Water    no recipe lines
//
// No lots are loaded; tests add the purchases they need.
func BuildBakeryTestData() *Kitchen {
	k := NewKitchen()
	ctx := context.Background()

	ingredients := []*entities.Ingredient{
		mustIngredient("ING1", "Flour", "g", "kg", 1000, 500),
		mustIngredient("ING2", "Sugar", "g", "kg", 1000, 200),
		mustIngredient("ING3", "Egg", "pc", "tray", 30, 12),
	}
	if err := k.Ingredients.LoadIngredients(ingredients); err != nil {
		panic(err)
	}

	menus := []*entities.Menu{
		{ID: "M1", Name: "Bread", Price: decimal.NewFromInt(40)},
		{ID: "M2", Name: "Cake", Price: decimal.NewFromInt(120)},
		{ID: "M3", Name: "Water"},
	}
	for _, m := range menus {
		if err := k.Menus.SaveMenu(ctx, m); err != nil {
			panic(err)
		}
	}

	lines := []entities.RecipeLine{
		{MenuID: "M1", IngredientID: "ING1", QtyPerServing: decimal.NewFromInt(100), Unit: "g"},
		{MenuID: "M2", IngredientID: "ING3", QtyPerServing: decimal.NewFromInt(2), Unit: "pc"},
		{MenuID: "M2", IngredientID: "ING2", QtyPerServing: decimal.NewFromInt(50), Unit: "g"},
		{MenuID: "M2", IngredientID: "ING3", QtyPerServing: decimal.NewFromInt(3), Unit: "pc", Note: "glaze"},
		{MenuID: "M2", IngredientID: "ING1", QtyPerServing: decimal.RequireFromString("0.08"), Unit: "kg"},
	}
	for _, l := range lines {
		if err := k.Menus.AddRecipeLine(ctx, l); err != nil {
			panic(err)
		}
	}

	return k
}

// AddLot appends a lot directly to the repository, bypassing the ledger
func (k *Kitchen) AddLot(id entities.LotID, ingredient entities.IngredientID, date time.Time, qty, unitCost string) entities.Lot {
	lot, err := entities.NewLot(id, ingredient, decimal.RequireFromString(qty), decimal.RequireFromString(unitCost), date)
	if err != nil {
		panic(err)
	}
	if err := k.Lots.AppendLot(context.Background(), lot); err != nil {
		panic(err)
	}
	return *lot
}

// Remaining returns the remaining quantity of every lot keyed by id
func (k *Kitchen) Remaining() map[entities.LotID]string {
	lots, err := k.Lots.GetAllLots(context.Background())
	if err != nil {
		panic(err)
	}
	out := make(map[entities.LotID]string, len(lots))
	for _, l := range lots {
		out[l.ID] = l.RemainingQty.String()
	}
	return out
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10)
	}
}

func mustIngredient(id entities.IngredientID, name, stockUnit, buyUnit string, ratio, minStock int64) *entities.Ingredient {
	ing, err := entities.NewIngredient(id, name, stockUnit, buyUnit, decimal.NewFromInt(ratio), decimal.NewFromInt(minStock))
	if err != nil {
		panic(err)
	}
	return ing
}
