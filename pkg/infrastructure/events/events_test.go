package events

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

var at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleLot() entities.Lot {
	return entities.Lot{
		ID:           "L1",
		IngredientID: "ING1",
		PurchaseDate: at,
		InitialQty:   decimal.NewFromInt(2000),
		RemainingQty: decimal.NewFromInt(2000),
		UnitCost:     decimal.RequireFromString("0.05"),
	}
}

func TestAppendAssignsStreamVersions(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	ctx := context.Background()

	first, err := store.AppendEvent(ctx, LotAppended(sampleLot(), at))
	require.NoError(t, err)
	second, err := store.AppendEvent(ctx, LotsDeducted(entities.DeductionResult{IngredientID: "ING1"}, at))
	require.NoError(t, err)
	_, err = store.AppendEvent(ctx, SaleRecorded(entities.SaleTransaction{ID: "S1", Kind: entities.SaleKindMenu}, at))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	stream, err := store.ReadEvents("ingredient-ING1", 2)
	require.NoError(t, err)
	require.Len(t, stream, 1)
	assert.Equal(t, LotsDeductedEvent, stream[0].Type)

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.ReadAllEvents(10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSubscribersNotified(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	var seen []string
	require.NoError(t, store.Subscribe([]string{SaleRecordedEvent}, HandlerFunc(func(_ context.Context, e Event) error {
		seen = append(seen, e.Payload["sale_id"])
		return errors.New("handler errors are logged, not returned")
	})))

	_, err := store.AppendEvent(context.Background(), LotAppended(sampleLot(), at))
	require.NoError(t, err)
	_, err = store.AppendEvent(context.Background(), SaleRecorded(entities.SaleTransaction{ID: "S9"}, at))
	require.NoError(t, err)

	assert.Equal(t, []string{"S9"}, seen)
}

func TestJournalRoundTrip(t *testing.T) {
	src := NewInMemoryEventStore(nil)
	ctx := context.Background()
	_, err := src.AppendEvent(ctx, LotAppended(sampleLot(), at))
	require.NoError(t, err)
	_, err = src.AppendEvent(ctx, SaleRecorded(entities.SaleTransaction{ID: "S1", Revenue: decimal.NewFromInt(40)}, at))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := ExportJournal(&buf, src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dst := NewInMemoryEventStore(nil)
	n, err = ImportJournal(ctx, &buf, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := dst.ReadAllEvents(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "0.05", all[0].Payload["unit_cost"])
	assert.Equal(t, "40", all[1].Payload["revenue"])
	assert.True(t, all[0].Timestamp.Equal(at))
}
