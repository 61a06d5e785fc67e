package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

const (
	IngredientsFile = "ingredients.csv"
	MenusFile       = "menus.csv"
	RecipesFile     = "recipes.csv"
	PurchasesFile   = "purchases.csv"
)

var (
	ingredientsHeader = []string{"id", "name", "stock_unit", "buy_unit", "buy_to_stock_ratio", "min_stock"}
	menusHeader       = []string{"menu_id", "name", "price"}
	recipesHeader     = []string{"menu_id", "ingredient_id", "qty_per_serving", "unit", "note"}
	purchasesHeader   = []string{"ingredient", "qty", "unit", "total_price", "purchase_date"}
)

// PurchaseSeed is one purchase row; it is recorded through the ledger, not stored directly.
type PurchaseSeed struct {
	Ingredient   string
	Qty          decimal.Decimal
	Unit         string
	TotalPrice   decimal.Decimal
	PurchaseDate time.Time
}

// Seed is the content of a seed directory. Files that are absent leave their slice empty.
type Seed struct {
	Ingredients []*entities.Ingredient
	Menus       []*entities.Menu
	Recipes     []*entities.RecipeLine
	Purchases   []PurchaseSeed
}

// Loader handles loading kitchen seed data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir loads every known seed file present in dir
func (l *Loader) LoadDir(dir string) (*Seed, error) {
	seed := &Seed{}
	var err error

	if seed.Ingredients, err = optional(filepath.Join(dir, IngredientsFile), l.LoadIngredients); err != nil {
		return nil, err
	}
	if seed.Menus, err = optional(filepath.Join(dir, MenusFile), l.LoadMenus); err != nil {
		return nil, err
	}
	if seed.Recipes, err = optional(filepath.Join(dir, RecipesFile), l.LoadRecipes); err != nil {
		return nil, err
	}
	if seed.Purchases, err = optional(filepath.Join(dir, PurchasesFile), l.LoadPurchases); err != nil {
		return nil, err
	}
	return seed, nil
}

func optional[T any](path string, load func(string) ([]T, error)) ([]T, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return load(path)
}

// LoadIngredients loads the ingredient catalog from a CSV file
func (l *Loader) LoadIngredients(filename string) ([]*entities.Ingredient, error) {
	records, err := readTable(filename, "ingredients", ingredientsHeader)
	if err != nil {
		return nil, err
	}

	ingredients := make([]*entities.Ingredient, 0, len(records))
	for i, record := range records {
		ratio := decimal.NewFromInt(1)
		if strings.TrimSpace(record[4]) != "" {
			if ratio, err = parseDecimal(record[4]); err != nil {
				return nil, fmt.Errorf("ingredients CSV row %d: invalid buy_to_stock_ratio: %w", i+2, err)
			}
		}
		minStock, err := parseDecimal(record[5])
		if err != nil {
			return nil, fmt.Errorf("ingredients CSV row %d: invalid min_stock: %w", i+2, err)
		}
		ing, err := entities.NewIngredient(
			entities.IngredientID(strings.TrimSpace(record[0])),
			strings.TrimSpace(record[1]),
			strings.TrimSpace(record[2]),
			strings.TrimSpace(record[3]),
			ratio,
			minStock,
		)
		if err != nil {
			return nil, fmt.Errorf("ingredients CSV row %d: %w", i+2, err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

// LoadMenus loads menus from a CSV file
func (l *Loader) LoadMenus(filename string) ([]*entities.Menu, error) {
	records, err := readTable(filename, "menus", menusHeader)
	if err != nil {
		return nil, err
	}

	menus := make([]*entities.Menu, 0, len(records))
	for i, record := range records {
		price, err := parseDecimal(record[2])
		if err != nil {
			return nil, fmt.Errorf("menus CSV row %d: invalid price: %w", i+2, err)
		}
		menu, err := entities.NewMenu(entities.MenuID(strings.TrimSpace(record[0])), strings.TrimSpace(record[1]), price)
		if err != nil {
			return nil, fmt.Errorf("menus CSV row %d: %w", i+2, err)
		}
		menus = append(menus, menu)
	}
	return menus, nil
}

// LoadRecipes loads recipe lines from a CSV file
func (l *Loader) LoadRecipes(filename string) ([]*entities.RecipeLine, error) {
	records, err := readTable(filename, "recipes", recipesHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.RecipeLine, 0, len(records))
	for i, record := range records {
		qty, err := parseDecimal(record[2])
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: invalid qty_per_serving: %w", i+2, err)
		}
		line, err := entities.NewRecipeLine(
			entities.MenuID(strings.TrimSpace(record[0])),
			entities.IngredientID(strings.TrimSpace(record[1])),
			qty,
			strings.TrimSpace(record[3]),
			strings.TrimSpace(record[4]),
		)
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// LoadPurchases loads purchase rows from a CSV file
func (l *Loader) LoadPurchases(filename string) ([]PurchaseSeed, error) {
	records, err := readTable(filename, "purchases", purchasesHeader)
	if err != nil {
		return nil, err
	}

	purchases := make([]PurchaseSeed, 0, len(records))
	for i, record := range records {
		qty, err := parseDecimal(record[1])
		if err != nil {
			return nil, fmt.Errorf("purchases CSV row %d: invalid qty: %w", i+2, err)
		}
		total, err := parseDecimal(record[3])
		if err != nil {
			return nil, fmt.Errorf("purchases CSV row %d: invalid total_price: %w", i+2, err)
		}
		date, err := parseDate(record[4])
		if err != nil {
			return nil, fmt.Errorf("purchases CSV row %d: invalid purchase_date: %w", i+2, err)
		}
		purchases = append(purchases, PurchaseSeed{
			Ingredient:   strings.TrimSpace(record[0]),
			Qty:          qty,
			Unit:         strings.TrimSpace(record[2]),
			TotalPrice:   total,
			PurchaseDate: date,
		})
	}
	return purchases, nil
}

// readTable returns the data rows of a CSV file after checking its header
func readTable(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	return parseTable(file, kind, expectedHeader)
}

func parseTable(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := make([][]string, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff")) != col {
			return false
		}
	}
	return true
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
