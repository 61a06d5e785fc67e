// Package tablestore abstracts the tabular backing store of the ledger: named tables with
// a header row and string cells, addressed by row reference.
package tablestore

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrUnknownColumn = errors.New("unknown column")
	ErrRowNotFound   = errors.New("row not found")
)

// RowRef addresses a data row. The first data row below the header is 1.
type RowRef int

// Record is one data row keyed by column name
type Record struct {
	Ref    RowRef
	Values map[string]string
}

func (r Record) Get(column string) string { return r.Values[column] }

// Store is implemented by every backend. Rows are never removed.
type Store interface {
	// EnsureTable creates the table or appends missing columns to its header.
	EnsureTable(ctx context.Context, table string, columns []string) error
	// ReadAll returns the non-blank rows of the table in row order.
	ReadAll(ctx context.Context, table string) ([]Record, error)
	AppendRow(ctx context.Context, table string, values map[string]string) (RowRef, error)
	UpdateCell(ctx context.Context, table string, ref RowRef, column, value string) error
	Close() error
}

// MergeColumns appends the columns of want missing from have, preserving order.
func MergeColumns(have, want []string) ([]string, bool) {
	seen := make(map[string]bool, len(have))
	for _, c := range have {
		seen[c] = true
	}
	out := append([]string(nil), have...)
	changed := false
	for _, c := range want {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
			changed = true
		}
	}
	return out, changed
}

// CheckColumns rejects values keyed by a column that is not in header.
func CheckColumns(table string, header []string, values map[string]string) error {
	known := make(map[string]bool, len(header))
	for _, c := range header {
		known[c] = true
	}
	for c := range values {
		if !known[c] {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, c)
		}
	}
	return nil
}

// ColumnIndex returns the position of column in header, or an ErrUnknownColumn error.
func ColumnIndex(table string, header []string, column string) (int, error) {
	for i, c := range header {
		if c == column {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, column)
}

// IsBlank reports whether every value of a row is empty
func IsBlank(values map[string]string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}
