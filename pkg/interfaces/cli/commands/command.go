package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/application/dto"
	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/config"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/events"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/logger"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/kitchenledger/pkg/interfaces/cli/output"
)

// Config holds the global command line options
type Config struct {
	ConfigFile  string
	Format      string
	SeedDir     string
	JournalFile string
	MetricsFile string
	Verbose     bool
	Help        bool
}

// Command dispatches a kitchenledger subcommand against the configured store
type Command struct {
	config Config
	out    io.Writer
}

// NewCommand creates a command writing its results to out
func NewCommand(config Config, out io.Writer) *Command {
	return &Command{config: config, out: out}
}

type handler func(ctx context.Context, app *App, p *output.Printer, args []string) error

func (c *Command) handlers() map[string]handler {
	return map[string]handler{
		"stock":     c.stock,
		"cost":      c.cost,
		"lots":      c.lots,
		"purchase":  c.purchase,
		"sell":      c.sell,
		"sales":     c.sales,
		"validate":  c.validate,
		"reconcile": c.reconcile,
		"import":    c.importSeed,
	}
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(ctx context.Context, args []string) error {
	if c.config.Help || len(args) == 0 {
		c.showHelp()
		return nil
	}
	run, ok := c.handlers()[args[0]]
	if !ok {
		c.showHelp()
		return fmt.Errorf("unknown command %q", args[0])
	}

	printer, err := output.NewPrinter(c.out, c.config.Format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if c.config.Verbose {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close failed", zap.Error(err))
		}
	}()

	if err := c.loadJournal(ctx, app); err != nil {
		return err
	}
	if c.config.SeedDir != "" {
		seedData, err := csv.NewLoader().LoadDir(c.config.SeedDir)
		if err != nil {
			return fmt.Errorf("error loading seed: %w", err)
		}
		if _, err := app.Importer.Import(ctx, seedData); err != nil {
			return fmt.Errorf("error importing seed: %w", err)
		}
	}

	runErr := run(ctx, app, printer, args[1:])

	// The journal and metrics record rejected operations too.
	if err := c.saveJournal(app); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if c.config.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(c.config.MetricsFile, app.Registry); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("write metrics: %w", err))
		}
	}
	return runErr
}

func (c *Command) loadJournal(ctx context.Context, app *App) error {
	if c.config.JournalFile == "" {
		return nil
	}
	f, err := os.Open(c.config.JournalFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	if _, err := events.ImportJournal(ctx, f, app.Events); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return nil
}

func (c *Command) saveJournal(app *App) error {
	if c.config.JournalFile == "" {
		return nil
	}
	f, err := os.Create(c.config.JournalFile)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	if _, err := events.ExportJournal(f, app.Events); err != nil {
		f.Close()
		return fmt.Errorf("write journal: %w", err)
	}
	return f.Close()
}

func (c *Command) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *Command) stock(ctx context.Context, app *App, p *output.Printer, args []string) error {
	fs := c.flags("stock")
	lowOnly := fs.Bool("low", false, "Only list ingredients below their minimum stock")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report := app.Catalog.StockReport
	if *lowOnly {
		report = app.Catalog.LowStock
	}
	lines, err := report(ctx)
	if err != nil {
		return err
	}
	return p.Stock(lines)
}

func (c *Command) cost(ctx context.Context, app *App, p *output.Printer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: cost <ingredient-or-menu>")
	}
	ing, err := app.Catalog.Find(ctx, args[0])
	if errors.Is(err, entities.ErrNotFound) {
		pc, menuErr := app.Recipes.PlateCost(ctx, args[0], app.Ledger)
		if menuErr != nil {
			return errors.Join(err, menuErr)
		}
		return p.PlateCost(pc)
	}
	if err != nil {
		return err
	}
	cost, err := app.Ledger.CurrentCost(ctx, ing.ID)
	if err != nil {
		return err
	}
	return p.Cost(ing, cost)
}

func (c *Command) lots(ctx context.Context, app *App, p *output.Printer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: lots <ingredient>")
	}
	ing, err := app.Catalog.Find(ctx, args[0])
	if err != nil {
		return err
	}
	lots, err := app.Ledger.Lots(ctx, ing.ID)
	if err != nil {
		return err
	}
	return p.Lots(ing, lots)
}

func (c *Command) purchase(ctx context.Context, app *App, p *output.Printer, args []string) error {
	fs := c.flags("purchase")
	ingredient := fs.String("ingredient", "", "Ingredient id or name")
	qty := fs.String("qty", "", "Quantity purchased")
	unit := fs.String("unit", "", "Unit of the quantity (default: stock unit)")
	total := fs.String("total", "0", "Total price paid")
	date := fs.String("date", "", "Purchase date, YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := dto.PurchaseRequest{Ingredient: *ingredient, Unit: *unit}
	var err error
	if req.Qty, err = parseDecimal("qty", *qty); err != nil {
		return err
	}
	if req.TotalPrice, err = parseDecimal("total", *total); err != nil {
		return err
	}
	if req.Date, err = parseDate(*date); err != nil {
		return err
	}

	res, err := app.Recorder.RecordPurchase(ctx, req)
	if err != nil {
		return err
	}
	return p.Purchase(res)
}

func (c *Command) sell(ctx context.Context, app *App, p *output.Printer, args []string) error {
	fs := c.flags("sell")
	menu := fs.String("menu", "", "Menu id or name to sell")
	ingredient := fs.String("ingredient", "", "Ingredient id or name to sell directly")
	qty := fs.String("qty", "", "Servings or units sold")
	unit := fs.String("unit", "", "Unit of an ingredient sale (default: stock unit)")
	price := fs.String("price", "", "Unit price (default: menu price, or cost times platform markup)")
	platform := fs.String("platform", "", "Sales platform")
	date := fs.String("date", "", "Sale date, YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := dto.SaleRequest{Unit: *unit, Platform: *platform}
	switch {
	case *menu != "" && *ingredient == "":
		req.Kind, req.Subject = entities.SaleKindMenu, *menu
	case *ingredient != "" && *menu == "":
		req.Kind, req.Subject = entities.SaleKindIngredient, *ingredient
	default:
		return errors.New("exactly one of -menu or -ingredient is required")
	}

	var err error
	if req.Qty, err = parseDecimal("qty", *qty); err != nil {
		return err
	}
	if *price != "" {
		up, err := parseDecimal("price", *price)
		if err != nil {
			return err
		}
		req.UnitPrice = &up
	}
	if req.Date, err = parseDate(*date); err != nil {
		return err
	}

	sale, err := app.Recorder.RecordSale(ctx, req)
	if err != nil {
		return err
	}
	return p.Sale(sale)
}

func (c *Command) sales(ctx context.Context, app *App, p *output.Printer, _ []string) error {
	all, err := app.Recorder.Sales(ctx)
	if err != nil {
		return err
	}
	return p.Sales(all)
}

func (c *Command) validate(ctx context.Context, app *App, p *output.Printer, _ []string) error {
	result, err := app.Recipes.Validate(ctx)
	if err != nil {
		return err
	}
	if err := p.Validation(result); err != nil {
		return err
	}
	if result.HasBlockingIssues() {
		return fmt.Errorf("recipe validation failed: %s", strings.Join(result.Errors, "; "))
	}
	return nil
}

func (c *Command) reconcile(ctx context.Context, app *App, p *output.Printer, args []string) error {
	fs := c.flags("reconcile")
	repair := fs.Bool("repair", false, "Rewrite drifted caches from the ledger")
	if err := fs.Parse(args); err != nil {
		return err
	}
	drifts, err := app.Catalog.Reconcile(ctx, *repair)
	if err != nil {
		return err
	}
	return p.Drift(drifts, *repair)
}

func (c *Command) importSeed(ctx context.Context, app *App, p *output.Printer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: import <seed-dir>")
	}
	seedData, err := csv.NewLoader().LoadDir(args[0])
	if err != nil {
		return fmt.Errorf("error loading seed: %w", err)
	}
	sum, err := app.Importer.Import(ctx, seedData)
	if err != nil {
		return err
	}
	return p.Import(sum)
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, entities.NewValidationError(field, "is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, entities.NewValidationError(field, fmt.Sprintf("not a number: %q", raw))
	}
	return d, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, entities.NewValidationError("date", fmt.Sprintf("expected YYYY-MM-DD, got %q", raw))
	}
	return t, nil
}

func (c *Command) showHelp() {
	fmt.Fprint(c.out, `kitchenledger - restaurant inventory lot ledger with FIFO costing

Usage:
  kitchenledger [flags] <command> [command flags]

Commands:
  stock [-low]                     Stock, cost and value per ingredient
  cost <ingredient|menu>           Weighted-average unit cost, or plate cost of a menu
  lots <ingredient>                Purchase lots in FIFO order
  purchase -ingredient -qty [-unit] [-total] [-date]
                                   Record a purchase as a new lot
  sell (-menu|-ingredient) -qty [-unit] [-price] [-platform] [-date]
                                   Record a sale, deducting stock oldest lot first
  sales                            Recorded sales
  validate                         Check menus, recipes and ingredients
  reconcile [-repair]              Compare cached stock and cost with the ledger
  import <dir>                     Import ingredients.csv, menus.csv, recipes.csv, purchases.csv

Flags:
  -config <file>    Config file (default: ./kitchenledger.yaml when present)
  -format <fmt>     Output format: text, json
  -seed <dir>       Import a seed directory before running the command
  -journal <file>   Event journal to load before and save after the command
  -metrics <file>   Write Prometheus metrics in text format after the command
  -verbose          Debug logging

Store, lock and markups are configured in the config file or with
KITCHENLEDGER_* environment variables (e.g. KITCHENLEDGER_STORE_BACKEND=xlsx).
`)
}
