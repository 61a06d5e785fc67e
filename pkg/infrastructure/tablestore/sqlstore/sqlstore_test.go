package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore/tablestoretest"
)

var dbSeq atomic.Int64

func TestSQLiteMemory(t *testing.T) {
	tablestoretest.Run(t, tablestoretest.Factory{
		New: func(t *testing.T) tablestore.Store {
			dsn := fmt.Sprintf("file:sqlstore_%d?mode=memory&cache=shared", dbSeq.Add(1))
			s, err := OpenSQLite(dsn, nil)
			require.NoError(t, err)
			return s
		},
	})
}

func TestSQLiteFile(t *testing.T) {
	var path string
	open := func(t *testing.T) tablestore.Store {
		s, err := OpenSQLite(path, nil)
		require.NoError(t, err)
		return s
	}
	tablestoretest.Run(t, tablestoretest.Factory{
		New: func(t *testing.T) tablestore.Store {
			path = filepath.Join(t.TempDir(), "ledger.db")
			return open(t)
		},
		Reopen: open,
	})
}

func concurrentAppends(t *testing.T, s tablestore.Store, table string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.EnsureTable(ctx, table, []string{"sale_id"}))

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendRow(ctx, table, map[string]string{"sale_id": strconv.Itoa(i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := s.ReadAll(ctx, table)
	require.NoError(t, err)
	require.Len(t, rows, n)
	seen := make(map[string]bool, n)
	for i, row := range rows {
		assert.Equal(t, tablestore.RowRef(i+1), row.Ref)
		seen[row.Get("sale_id")] = true
	}
	assert.Len(t, seen, n)
}

func TestSQLiteConcurrentAppends(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	defer s.Close()
	concurrentAppends(t, s, "Sales")
}

func TestPostgresConcurrentAppends(t *testing.T) {
	dsn := os.Getenv("KITCHENLEDGER_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("KITCHENLEDGER_TEST_POSTGRES not set")
	}
	s, err := OpenPostgres(dsn, nil)
	require.NoError(t, err)
	defer s.Close()
	concurrentAppends(t, s, fmt.Sprintf("Sales_%d", time.Now().UnixNano()))
}
