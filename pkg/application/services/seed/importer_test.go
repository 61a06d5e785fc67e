package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/kitchenledger/pkg/application/services/catalog"
	"github.com/vsinha/kitchenledger/pkg/application/services/ledger"
	"github.com/vsinha/kitchenledger/pkg/application/services/recipe"
	"github.com/vsinha/kitchenledger/pkg/application/services/sales"
	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/repositories/csv"
	testhelpers "github.com/vsinha/kitchenledger/pkg/infrastructure/testing"
)

func writeSeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		csv.IngredientsFile: "id,name,stock_unit,buy_unit,buy_to_stock_ratio,min_stock\n" +
			"ING1,Flour,g,kg,1000,500\n" +
			"ING3,Egg,pc,tray,30,12\n",
		csv.MenusFile: "menu_id,name,price\n" +
			"M1,Bread,40\n",
		csv.RecipesFile: "menu_id,ingredient_id,qty_per_serving,unit,note\n" +
			"M1,ING1,100,g,\n" +
			"M1,ING3,1,pc,wash\n",
		csv.PurchasesFile: "ingredient,qty,unit,total_price,purchase_date\n" +
			"flour,2,kg,100,2025-01-01\n" +
			"Egg,1,tray,60,2025-01-02\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func newImporter(k *testhelpers.Kitchen) *Importer {
	cat := catalog.NewService(k.Ingredients, k.Lots)
	led := ledger.NewService(k.Ingredients, k.Lots)
	rec := sales.NewRecorder(cat, recipe.NewService(k.Menus, cat, nil), led, k.Sales)
	return NewImporter(cat, k.Menus, rec, nil)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	seedData, err := csv.NewLoader().LoadDir(writeSeed(t))
	require.NoError(t, err)

	k := testhelpers.NewKitchen()
	im := newImporter(k)

	sum, err := im.Import(ctx, seedData)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.IngredientsCreated)
	assert.Equal(t, 1, sum.Menus)
	assert.Equal(t, 2, sum.RecipeLines)
	assert.Equal(t, 2, sum.Purchases)

	flour, err := k.Ingredients.GetIngredient(ctx, "ING1")
	require.NoError(t, err)
	assert.Equal(t, "2000", flour.CurrentStock.String())
	assert.Equal(t, "0.05", flour.CurrentCostPerUnit.String())

	eggs, err := k.Ingredients.GetIngredient(ctx, "ING3")
	require.NoError(t, err)
	assert.Equal(t, "30", eggs.CurrentStock.String())
	assert.Equal(t, "2", eggs.CurrentCostPerUnit.String())

	// Definitions and recipes are idempotent; purchases are recorded again.
	sum, err = im.Import(ctx, seedData)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.IngredientsCreated)
	assert.Equal(t, 2, sum.IngredientsUpdated)
	assert.Equal(t, 0, sum.RecipeLines)

	lines, _ := k.Menus.GetRecipeLines(ctx, "M1")
	assert.Len(t, lines, 2)
	lots, _ := k.Lots.GetLotsByIngredient(ctx, entities.IngredientID("ING1"))
	assert.Len(t, lots, 2)
}

func TestImport_StopsAtUnknownPurchaseIngredient(t *testing.T) {
	seedData := &csv.Seed{Purchases: []csv.PurchaseSeed{
		{Ingredient: "saffron", Qty: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(9)},
	}}

	_, err := newImporter(testhelpers.BuildBakeryTestData()).Import(context.Background(), seedData)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
