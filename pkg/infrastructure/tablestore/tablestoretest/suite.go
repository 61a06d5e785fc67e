// Package tablestoretest runs the behaviour every tablestore backend must share.
package tablestoretest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

// Factory returns a fresh, empty store. Reopen, when set, returns a store over the same
// persisted data after the first one is closed.
type Factory struct {
	New    func(t *testing.T) tablestore.Store
	Reopen func(t *testing.T) tablestore.Store
}

func Run(t *testing.T, f Factory) {
	t.Run("append and read", func(t *testing.T) { appendAndRead(t, f.New(t)) })
	t.Run("update cell", func(t *testing.T) { updateCell(t, f.New(t)) })
	t.Run("header extension", func(t *testing.T) { headerExtension(t, f.New(t)) })
	t.Run("errors", func(t *testing.T) { errorsBehaviour(t, f.New(t)) })
	if f.Reopen != nil {
		t.Run("persistence", func(t *testing.T) { persistence(t, f) })
	}
}

func appendAndRead(t *testing.T, s tablestore.Store) {
	ctx := context.Background()
	defer s.Close()

	require.NoError(t, s.EnsureTable(ctx, "Lots", []string{"lot_id", "qty"}))
	ref1, err := s.AppendRow(ctx, "Lots", map[string]string{"lot_id": "L1", "qty": "2000"})
	require.NoError(t, err)
	ref2, err := s.AppendRow(ctx, "Lots", map[string]string{"lot_id": "L2"})
	require.NoError(t, err)
	assert.Equal(t, tablestore.RowRef(1), ref1)
	assert.Equal(t, tablestore.RowRef(2), ref2)

	rows, err := s.ReadAll(ctx, "Lots")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "L1", rows[0].Get("lot_id"))
	assert.Equal(t, "2000", rows[0].Get("qty"))
	assert.Equal(t, "", rows[1].Get("qty"))
	assert.Equal(t, ref2, rows[1].Ref)
}

func updateCell(t *testing.T, s tablestore.Store) {
	ctx := context.Background()
	defer s.Close()

	require.NoError(t, s.EnsureTable(ctx, "Lots", []string{"lot_id", "remaining"}))
	_, err := s.AppendRow(ctx, "Lots", map[string]string{"lot_id": "L1", "remaining": "10"})
	require.NoError(t, err)
	ref, err := s.AppendRow(ctx, "Lots", map[string]string{"lot_id": "L2", "remaining": "10"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateCell(ctx, "Lots", ref, "remaining", "0.125"))

	rows, err := s.ReadAll(ctx, "Lots")
	require.NoError(t, err)
	assert.Equal(t, "10", rows[0].Get("remaining"))
	assert.Equal(t, "0.125", rows[1].Get("remaining"))
}

func headerExtension(t *testing.T, s tablestore.Store) {
	ctx := context.Background()
	defer s.Close()

	require.NoError(t, s.EnsureTable(ctx, "Sales", []string{"sale_id"}))
	_, err := s.AppendRow(ctx, "Sales", map[string]string{"sale_id": "S1"})
	require.NoError(t, err)
	require.NoError(t, s.EnsureTable(ctx, "Sales", []string{"sale_id", "platform"}))

	ref, err := s.AppendRow(ctx, "Sales", map[string]string{"sale_id": "S2", "platform": "grab"})
	require.NoError(t, err)

	rows, err := s.ReadAll(ctx, "Sales")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Get("platform"))
	assert.Equal(t, "grab", rows[1].Get("platform"))
	assert.Equal(t, tablestore.RowRef(2), ref)
}

func errorsBehaviour(t *testing.T, s tablestore.Store) {
	ctx := context.Background()
	defer s.Close()

	_, err := s.ReadAll(ctx, "Missing")
	assert.ErrorIs(t, err, tablestore.ErrTableNotFound)

	require.NoError(t, s.EnsureTable(ctx, "Lots", []string{"lot_id"}))
	_, err = s.AppendRow(ctx, "Lots", map[string]string{"bogus": "x"})
	assert.ErrorIs(t, err, tablestore.ErrUnknownColumn)

	err = s.UpdateCell(ctx, "Lots", 7, "lot_id", "x")
	assert.ErrorIs(t, err, tablestore.ErrRowNotFound)

	_, err = s.AppendRow(ctx, "Lots", map[string]string{"lot_id": "L1"})
	require.NoError(t, err)
	err = s.UpdateCell(ctx, "Lots", 1, "bogus", "x")
	assert.ErrorIs(t, err, tablestore.ErrUnknownColumn)
}

func persistence(t *testing.T, f Factory) {
	ctx := context.Background()
	s := f.New(t)
	require.NoError(t, s.EnsureTable(ctx, "Ingredients", []string{"id", "stock"}))
	ref, err := s.AppendRow(ctx, "Ingredients", map[string]string{"id": "ING1", "stock": "0"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateCell(ctx, "Ingredients", ref, "stock", "1500"))
	require.NoError(t, s.Close())

	reopened := f.Reopen(t)
	defer reopened.Close()
	rows, err := reopened.ReadAll(ctx, "Ingredients")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1500", rows[0].Get("stock"))
}
