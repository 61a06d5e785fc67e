package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/clock"
	testhelpers "github.com/vsinha/kitchenledger/pkg/infrastructure/testing"
)

func ptr[T any](v T) *T { return &v }

func TestFind(t *testing.T) {
	ctx := context.Background()
	k := testhelpers.BuildBakeryTestData()
	s := NewService(k.Ingredients, k.Lots)

	testCases := []struct {
		key  string
		want entities.IngredientID
	}{
		{"ING1", "ING1"},
		{"ing1", "ING1"},
		{"Sugar", "ING2"},
		{"  egg ", "ING3"},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			ing, err := s.Find(ctx, tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ing.ID)
		})
	}

	_, err := s.Find(ctx, "butter")
	assert.ErrorIs(t, err, entities.ErrNotFound)
	_, err = s.Find(ctx, "")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestFind_IDBeatsNameAndFirstWins(t *testing.T) {
	ctx := context.Background()
	k := testhelpers.NewKitchen()
	require.NoError(t, k.Ingredients.LoadIngredients([]*entities.Ingredient{
		{ID: "A1", Name: "salt", StockUnit: "g", BuyToStockRatio: decimal.NewFromInt(1)},
		{ID: "A2", Name: "Salt", StockUnit: "g", BuyToStockRatio: decimal.NewFromInt(1)},
		{ID: "SALT", Name: "Sea Salt", StockUnit: "g", BuyToStockRatio: decimal.NewFromInt(1)},
		{ID: "B1", Name: "pepper", StockUnit: "g", BuyToStockRatio: decimal.NewFromInt(1)},
		{ID: "B2", Name: "Pepper", StockUnit: "g", BuyToStockRatio: decimal.NewFromInt(1)},
	}))
	s := NewService(k.Ingredients, k.Lots)

	ing, err := s.Find(ctx, "salt")
	require.NoError(t, err)
	assert.Equal(t, entities.IngredientID("SALT"), ing.ID, "id match beats earlier name matches")

	ing, err = s.Find(ctx, "PEPPER")
	require.NoError(t, err)
	assert.Equal(t, entities.IngredientID("B1"), ing.ID, "first inserted name match wins")
}

func TestUpsert_Create(t *testing.T) {
	ctx := context.Background()
	k := testhelpers.BuildBakeryTestData()
	fake := clock.NewFakeClock(testhelpers.Day1)
	s := NewService(k.Ingredients, k.Lots, WithClock(fake))

	ing, created, err := s.Upsert(ctx, "BUTTER", entities.IngredientPatch{StockUnit: ptr("g"), BuyUnit: ptr("block")})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entities.IngredientID("BUTTER"), ing.ID)
	assert.Equal(t, "BUTTER", ing.Name)
	assert.Equal(t, "1", ing.BuyToStockRatio.String())
	assert.True(t, ing.MinStock.IsZero())
	assert.Equal(t, testhelpers.Day1, ing.UpdatedAt)

	stored, err := k.Ingredients.GetIngredient(ctx, "BUTTER")
	require.NoError(t, err)
	assert.Equal(t, "block", stored.BuyUnit)

	all, _ := s.All(ctx)
	assert.Len(t, all, 4)
}

func TestUpsert_CreateRequiresStockUnit(t *testing.T) {
	k := testhelpers.BuildBakeryTestData()
	s := NewService(k.Ingredients, k.Lots)

	_, _, err := s.Upsert(context.Background(), "BUTTER", entities.IngredientPatch{Name: ptr("Butter")})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, _, err = s.Upsert(context.Background(), "  ", entities.IngredientPatch{StockUnit: ptr("g")})
	assert.ErrorIs(t, err, entities.ErrValidation)

	all, _ := s.All(context.Background())
	assert.Len(t, all, 3)
}

func TestUpsert_MergesNonNilFields(t *testing.T) {
	ctx := context.Background()
	k := testhelpers.BuildBakeryTestData()
	fake := clock.NewFakeClock(testhelpers.Day1)
	s := NewService(k.Ingredients, k.Lots, WithClock(fake))
	require.NoError(t, k.Ingredients.UpdateIngredientCache(ctx, "ING1", decimal.NewFromInt(700), decimal.RequireFromString("0.05"), testhelpers.Day1))

	fake.Advance(time.Hour)
	ing, created, err := s.Upsert(ctx, "flour", entities.IngredientPatch{MinStock: ptr(decimal.NewFromInt(800))})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, entities.IngredientID("ING1"), ing.ID)
	assert.Equal(t, "Flour", ing.Name)
	assert.Equal(t, "800", ing.MinStock.String())
	assert.Equal(t, "700", ing.CurrentStock.String(), "cached stock survives a definition change")
	assert.Equal(t, testhelpers.Day1.Add(time.Hour), ing.UpdatedAt)

	_, _, err = s.Upsert(ctx, "ING1", entities.IngredientPatch{BuyToStockRatio: ptr(decimal.Zero)})
	assert.ErrorIs(t, err, entities.ErrValidation)
	stored, _ := k.Ingredients.GetIngredient(ctx, "ING1")
	assert.Equal(t, "1000", stored.BuyToStockRatio.String())
}

func TestUpsert_ConcurrentCreatesInsertOnce(t *testing.T) {
	ctx := context.Background()
	k := testhelpers.NewKitchen()
	s := NewService(k.Ingredients, k.Lots)

	var wg sync.WaitGroup
	for _, key := range []string{"basil", "BASIL", "Basil", "basil"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.Upsert(ctx, key, entities.IngredientPatch{StockUnit: ptr("g")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, _ := s.All(ctx)
	assert.Len(t, all, 1)
}

func TestLowStockAndReport(t *testing.T) {
	ctx := context.Background()
	k := testhelpers.BuildBakeryTestData()
	s := NewService(k.Ingredients, k.Lots)
	require.NoError(t, k.Ingredients.UpdateIngredientCache(ctx, "ING1", decimal.NewFromInt(2000), decimal.RequireFromString("0.05"), testhelpers.Day1))
	require.NoError(t, k.Ingredients.UpdateIngredientCache(ctx, "ING3", decimal.NewFromInt(6), decimal.NewFromInt(4), testhelpers.Day1))

	low, err := s.LowStock(ctx)
	require.NoError(t, err)
	ids := make([]entities.IngredientID, 0, len(low))
	for _, line := range low {
		assert.True(t, line.Low)
		ids = append(ids, line.IngredientID)
	}
	assert.Equal(t, []entities.IngredientID{"ING2", "ING3"}, ids)

	report, err := s.StockReport(ctx)
	require.NoError(t, err)
	require.Len(t, report, 3)
	assert.Equal(t, "100", report[0].Value.String())
	assert.False(t, report[0].Low)
	assert.Equal(t, "24", report[2].Value.String())
	assert.True(t, report[2].Low)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	k := testhelpers.BuildBakeryTestData()
	k.AddLot("L1", "ING1", testhelpers.Day1, "10", "1")
	k.AddLot("L2", "ING1", testhelpers.Day1.AddDate(0, 0, 1), "30", "2")
	s := NewService(k.Ingredients, k.Lots)

	drifts, err := s.Reconcile(ctx, false)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, entities.IngredientID("ING1"), drifts[0].IngredientID)
	assert.Equal(t, "40", drifts[0].LedgerStock.String())
	assert.True(t, drifts[0].LedgerCost.Equal(decimal.RequireFromString("1.75")))

	drifts, err = s.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.Len(t, drifts, 1)

	drifts, err = s.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	ing, _ := k.Ingredients.GetIngredient(ctx, "ING1")
	assert.Equal(t, "40", ing.CurrentStock.String())
}
