package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

func TestIngredientRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository(4)

	first := &entities.Ingredient{ID: "ING1", Name: "Flour", StockUnit: "g"}
	second := &entities.Ingredient{ID: "ING2", Name: "Sugar", StockUnit: "g"}
	if err := repo.LoadIngredients([]*entities.Ingredient{first, second}); err != nil {
		t.Fatalf("Failed to load ingredients: %v", err)
	}

	replaced := *first
	replaced.Name = "Bread Flour"
	if err := repo.SaveIngredient(ctx, &replaced); err != nil {
		t.Fatalf("Failed to save ingredient: %v", err)
	}

	all, _ := repo.GetAllIngredients(ctx)
	if len(all) != 2 {
		t.Fatalf("Expected 2 ingredients, got %d", len(all))
	}
	if all[0].ID != "ING1" || all[0].Name != "Bread Flour" {
		t.Errorf("Expected replace in place, got %+v", all[0])
	}

	got, err := repo.GetIngredient(ctx, "ING1")
	if err != nil {
		t.Fatalf("Failed to get ingredient: %v", err)
	}
	got.Name = "mutated"
	again, _ := repo.GetIngredient(ctx, "ING1")
	if again.Name != "Bread Flour" {
		t.Error("Returned ingredient must be a copy")
	}

	if _, err := repo.GetIngredient(ctx, "NOPE"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestIngredientRepository_UpdateCache(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository(1)
	_ = repo.SaveIngredient(ctx, &entities.Ingredient{ID: "ING1", Name: "Flour"})

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := repo.UpdateIngredientCache(ctx, "ING1", decimal.NewFromInt(1500), decimal.RequireFromString("0.05"), at); err != nil {
		t.Fatalf("Failed to update cache: %v", err)
	}
	got, _ := repo.GetIngredient(ctx, "ING1")
	if !got.CurrentStock.Equal(decimal.NewFromInt(1500)) || !got.UpdatedAt.Equal(at) {
		t.Errorf("Unexpected cache %+v", got)
	}
	if err := repo.UpdateIngredientCache(ctx, "ING9", decimal.Zero, decimal.Zero, at); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLotRepository_AppendAssignsSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewLotRepository()

	for _, id := range []entities.LotID{"L1", "L2", "L3"} {
		lot := &entities.Lot{ID: id, IngredientID: "ING1", InitialQty: decimal.NewFromInt(10), RemainingQty: decimal.NewFromInt(10)}
		if id == "L2" {
			lot.IngredientID = "ING2"
		}
		if err := repo.AppendLot(ctx, lot); err != nil {
			t.Fatalf("Failed to append lot: %v", err)
		}
	}

	lots, _ := repo.GetLotsByIngredient(ctx, "ING1")
	if len(lots) != 2 || lots[0].Sequence != 1 || lots[1].Sequence != 3 {
		t.Errorf("Unexpected lots %+v", lots)
	}

	if err := repo.AppendLot(ctx, &entities.Lot{ID: "L1"}); !errors.Is(err, entities.ErrValidation) {
		t.Errorf("Expected duplicate lot to be rejected, got %v", err)
	}
}

func TestLotRepository_UpdateRemaining(t *testing.T) {
	ctx := context.Background()
	repo := NewLotRepository()
	_ = repo.AppendLot(ctx, &entities.Lot{ID: "L1", IngredientID: "ING1", InitialQty: decimal.NewFromInt(10), RemainingQty: decimal.NewFromInt(10)})

	lots, _ := repo.GetLotsByIngredient(ctx, "ING1")
	lots[0].RemainingQty = decimal.Zero

	if err := repo.UpdateRemaining(ctx, "L1", decimal.NewFromInt(4)); err != nil {
		t.Fatalf("Failed to update remaining: %v", err)
	}
	lots, _ = repo.GetLotsByIngredient(ctx, "ING1")
	if !lots[0].RemainingQty.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected remaining 4, got %s", lots[0].RemainingQty)
	}

	testCases := []struct {
		name string
		id   entities.LotID
		qty  int64
		want error
	}{
		{"negative", "L1", -1, entities.ErrValidation},
		{"above initial", "L1", 11, entities.ErrValidation},
		{"unknown lot", "L9", 1, entities.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := repo.UpdateRemaining(ctx, tc.id, decimal.NewFromInt(tc.qty))
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	boom := errors.New("disk full")
	repo.FailUpdatesOn("L1", boom)
	if err := repo.UpdateRemaining(ctx, "L1", decimal.NewFromInt(1)); !errors.Is(err, boom) {
		t.Errorf("Expected injected failure, got %v", err)
	}
}

func TestMenuRepository_RecipeLinesInOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMenuRepository()
	_ = repo.SaveMenu(ctx, &entities.Menu{ID: "M1", Name: "Bread"})

	for _, ing := range []entities.IngredientID{"ING2", "ING1", "ING3"} {
		_ = repo.AddRecipeLine(ctx, entities.RecipeLine{MenuID: "M1", IngredientID: ing, QtyPerServing: decimal.NewFromInt(1)})
	}
	_ = repo.AddRecipeLine(ctx, entities.RecipeLine{MenuID: "M2", IngredientID: "ING1", QtyPerServing: decimal.NewFromInt(1)})

	lines, _ := repo.GetRecipeLines(ctx, "M1")
	if len(lines) != 3 || lines[0].IngredientID != "ING2" || lines[2].IngredientID != "ING3" {
		t.Errorf("Unexpected lines %+v", lines)
	}
	all, _ := repo.GetAllRecipeLines(ctx)
	if len(all) != 4 {
		t.Errorf("Expected 4 lines, got %d", len(all))
	}
	if _, err := repo.GetMenu(ctx, "M2"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for M2, got %v", err)
	}
}

func TestSaleRepository_AppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewSaleRepository()

	if err := repo.AppendSale(ctx, &entities.SaleTransaction{ID: "S1"}); err != nil {
		t.Fatalf("Failed to append sale: %v", err)
	}
	boom := errors.New("sheet locked")
	repo.FailAppends(boom)
	if err := repo.AppendSale(ctx, &entities.SaleTransaction{ID: "S2"}); !errors.Is(err, boom) {
		t.Errorf("Expected injected failure, got %v", err)
	}

	sales, _ := repo.GetAllSales(ctx)
	if len(sales) != 1 || sales[0].ID != "S1" {
		t.Errorf("Unexpected sales %+v", sales)
	}
}
