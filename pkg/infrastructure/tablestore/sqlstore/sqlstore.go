// Package sqlstore keeps ledger tables in a relational database as one cell per row.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
)

const columnSep = "\t"

type tableMeta struct {
	Name     string `gorm:"primaryKey;column:table_name"`
	Columns  string `gorm:"column:columns;not null"`
	RowCount int    `gorm:"column:row_count;not null"`
}

func (tableMeta) TableName() string { return "kl_tables" }

type cellRecord struct {
	Table  string `gorm:"primaryKey;column:table_name"`
	Row    int    `gorm:"primaryKey;column:row_num"`
	Column string `gorm:"primaryKey;column:column_name"`
	Value  string `gorm:"column:value;not null"`
}

func (cellRecord) TableName() string { return "kl_cells" }

// Store is a tablestore.Store backed by gorm
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ tablestore.Store = (*Store)(nil)

// OpenSQLite opens a SQLite database. SQLite allows one writer, so the pool holds a
// single connection and concurrent callers queue for it.
func OpenSQLite(dsn string, logger *zap.Logger) (*Store, error) {
	s, err := Open(sqlite.Open(dsn), logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

func OpenPostgres(dsn string, logger *zap.Logger) (*Store, error) {
	return Open(postgres.Open(dsn), logger)
}

// Open connects with dialector and migrates the cell schema
func Open(dialector gorm.Dialector, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&tableMeta{}, &cellRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func splitColumns(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, columnSep)
}

func loadMeta(tx *gorm.DB, name string) (*tableMeta, error) {
	var meta tableMeta
	err := tx.Where("table_name = ?", name).Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", tablestore.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) EnsureTable(ctx context.Context, name string, columns []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta, err := loadMeta(tx, name)
		if errors.Is(err, tablestore.ErrTableNotFound) {
			return tx.Create(&tableMeta{Name: name, Columns: strings.Join(columns, columnSep)}).Error
		}
		if err != nil {
			return err
		}
		merged, changed := tablestore.MergeColumns(splitColumns(meta.Columns), columns)
		if !changed {
			return nil
		}
		s.logger.Debug("table header extended", zap.String("table", name), zap.Strings("columns", merged))
		return tx.Model(&tableMeta{}).
			Where("table_name = ?", name).
			Update("columns", strings.Join(merged, columnSep)).Error
	})
}

func (s *Store) ReadAll(ctx context.Context, name string) ([]tablestore.Record, error) {
	db := s.db.WithContext(ctx)
	meta, err := loadMeta(db, name)
	if err != nil {
		return nil, err
	}
	header := splitColumns(meta.Columns)

	var cells []cellRecord
	if err := db.Where("table_name = ?", name).Order("row_num").Find(&cells).Error; err != nil {
		return nil, err
	}

	byRow := make(map[int]map[string]string, meta.RowCount)
	for _, c := range cells {
		if byRow[c.Row] == nil {
			byRow[c.Row] = make(map[string]string, len(header))
		}
		byRow[c.Row][c.Column] = c.Value
	}

	out := make([]tablestore.Record, 0, meta.RowCount)
	for row := 1; row <= meta.RowCount; row++ {
		values := make(map[string]string, len(header))
		for _, col := range header {
			values[col] = byRow[row][col]
		}
		if tablestore.IsBlank(values) {
			continue
		}
		out = append(out, tablestore.Record{Ref: tablestore.RowRef(row), Values: values})
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, name string, values map[string]string) (tablestore.RowRef, error) {
	var ref tablestore.RowRef
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The meta row stays locked until commit so concurrent appends get distinct rows.
		meta, err := loadMeta(tx.Clauses(clause.Locking{Strength: "UPDATE"}), name)
		if err != nil {
			return err
		}
		if err := tablestore.CheckColumns(name, splitColumns(meta.Columns), values); err != nil {
			return err
		}
		if err := tx.Model(&tableMeta{}).
			Where("table_name = ?", name).
			Update("row_count", gorm.Expr("row_count + 1")).Error; err != nil {
			return err
		}
		row := meta.RowCount + 1

		cells := make([]cellRecord, 0, len(values))
		for col, v := range values {
			if v == "" {
				continue
			}
			cells = append(cells, cellRecord{Table: name, Row: row, Column: col, Value: v})
		}
		if len(cells) > 0 {
			if err := tx.Create(&cells).Error; err != nil {
				return err
			}
		}
		ref = tablestore.RowRef(row)
		return nil
	})
	return ref, err
}

func (s *Store) UpdateCell(ctx context.Context, name string, ref tablestore.RowRef, column, value string) error {
	db := s.db.WithContext(ctx)
	meta, err := loadMeta(db, name)
	if err != nil {
		return err
	}
	if _, err := tablestore.ColumnIndex(name, splitColumns(meta.Columns), column); err != nil {
		return err
	}
	if ref < 1 || int(ref) > meta.RowCount {
		return fmt.Errorf("%w: %s row %d", tablestore.ErrRowNotFound, name, ref)
	}

	cell := cellRecord{Table: name, Row: int(ref), Column: column, Value: value}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_name"}, {Name: "row_num"}, {Name: "column_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&cell).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
