package memtable

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

type table struct {
	header []string
	rows   []map[string]string
}

// Store keeps tables in process memory
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

var _ tablestore.Store = (*Store)(nil)

func (s *Store) EnsureTable(_ context.Context, name string, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		s.tables[name] = &table{header: append([]string(nil), columns...)}
		return nil
	}
	t.header, _ = tablestore.MergeColumns(t.header, columns)
	return nil
}

func (s *Store) ReadAll(_ context.Context, name string) ([]tablestore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tablestore.ErrTableNotFound, name)
	}
	out := make([]tablestore.Record, 0, len(t.rows))
	for i, row := range t.rows {
		if tablestore.IsBlank(row) {
			continue
		}
		values := make(map[string]string, len(t.header))
		for _, c := range t.header {
			values[c] = row[c]
		}
		out = append(out, tablestore.Record{Ref: tablestore.RowRef(i + 1), Values: values})
	}
	return out, nil
}

func (s *Store) AppendRow(_ context.Context, name string, values map[string]string) (tablestore.RowRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", tablestore.ErrTableNotFound, name)
	}
	if err := tablestore.CheckColumns(name, t.header, values); err != nil {
		return 0, err
	}
	row := make(map[string]string, len(values))
	for k, v := range values {
		row[k] = v
	}
	t.rows = append(t.rows, row)
	return tablestore.RowRef(len(t.rows)), nil
}

func (s *Store) UpdateCell(_ context.Context, name string, ref tablestore.RowRef, column, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", tablestore.ErrTableNotFound, name)
	}
	if _, err := tablestore.ColumnIndex(name, t.header, column); err != nil {
		return err
	}
	if ref < 1 || int(ref) > len(t.rows) {
		return fmt.Errorf("%w: %s row %d", tablestore.ErrRowNotFound, name, ref)
	}
	t.rows[ref-1][column] = value
	return nil
}

func (s *Store) Close() error { return nil }
