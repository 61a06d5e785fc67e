// Package xlsx stores ledger tables as sheets of an Excel workbook. Row 1 of each sheet is
// the header; data rows start at row 2.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

const defaultSheet = "Sheet1"

type sheetCache struct {
	header []string
	// rows is the number of used rows including the header.
	rows int
}

// Workbook is a tablestore.Store over one .xlsx file. Every write is saved immediately.
type Workbook struct {
	mu     sync.Mutex
	path   string
	file   *excelize.File
	cache  map[string]*sheetCache
	fresh  bool
	logger *zap.Logger
}

var _ tablestore.Store = (*Workbook)(nil)

// Open loads the workbook at path, or starts a new one that is written on first save.
func Open(path string, logger *zap.Logger) (*Workbook, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workbook{path: path, cache: make(map[string]*sheetCache), logger: logger}

	f, err := excelize.OpenFile(path)
	switch {
	case err == nil:
		w.file = f
	case errors.Is(err, os.ErrNotExist):
		w.file = excelize.NewFile()
		w.fresh = true
	default:
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return w, nil
}

func (w *Workbook) sheet(name string) (*sheetCache, error) {
	if c, ok := w.cache[name]; ok {
		return c, nil
	}
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", tablestore.ErrTableNotFound, name)
	}
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}
	c := &sheetCache{rows: len(rows)}
	if len(rows) > 0 {
		c.header = append([]string(nil), rows[0]...)
	}
	if c.rows == 0 {
		c.rows = 1
	}
	w.cache[name] = c
	return c, nil
}

func (w *Workbook) EnsureTable(_ context.Context, name string, columns []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.sheet(name)
	if errors.Is(err, tablestore.ErrTableNotFound) {
		if w.fresh {
			err = w.file.SetSheetName(defaultSheet, name)
			w.fresh = false
		} else {
			_, err = w.file.NewSheet(name)
		}
		if err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		c = &sheetCache{rows: 1}
		w.cache[name] = c
	} else if err != nil {
		return err
	}

	header, changed := tablestore.MergeColumns(c.header, columns)
	if !changed && len(c.header) > 0 {
		return nil
	}
	if err := w.writeRow(name, 1, header); err != nil {
		return err
	}
	c.header = header
	w.logger.Debug("sheet header written", zap.String("sheet", name), zap.Strings("columns", header))
	return w.save()
}

func (w *Workbook) ReadAll(_ context.Context, name string) ([]tablestore.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.sheet(name)
	if err != nil {
		return nil, err
	}
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}

	out := make([]tablestore.Record, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		values := make(map[string]string, len(c.header))
		for j, col := range c.header {
			if j < len(rows[i]) {
				values[col] = rows[i][j]
			} else {
				values[col] = ""
			}
		}
		if tablestore.IsBlank(values) {
			continue
		}
		out = append(out, tablestore.Record{Ref: tablestore.RowRef(i), Values: values})
	}
	return out, nil
}

func (w *Workbook) AppendRow(_ context.Context, name string, values map[string]string) (tablestore.RowRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.sheet(name)
	if err != nil {
		return 0, err
	}
	if err := tablestore.CheckColumns(name, c.header, values); err != nil {
		return 0, err
	}

	row := make([]string, len(c.header))
	for i, col := range c.header {
		row[i] = values[col]
	}
	next := c.rows + 1
	if err := w.writeRow(name, next, row); err != nil {
		return 0, err
	}
	c.rows = next
	return tablestore.RowRef(next - 1), w.save()
}

func (w *Workbook) UpdateCell(_ context.Context, name string, ref tablestore.RowRef, column, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.sheet(name)
	if err != nil {
		return err
	}
	col, err := tablestore.ColumnIndex(name, c.header, column)
	if err != nil {
		return err
	}
	if ref < 1 || int(ref)+1 > c.rows {
		return fmt.Errorf("%w: %s row %d", tablestore.ErrRowNotFound, name, ref)
	}
	cell, err := excelize.CoordinatesToCellName(col+1, int(ref)+1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStr(name, cell, value); err != nil {
		return fmt.Errorf("write %s!%s: %w", name, cell, err)
	}
	return w.save()
}

func (w *Workbook) writeRow(sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	// Cells are written as strings so decimals keep their exact text.
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := w.file.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func (w *Workbook) save() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
