package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/application/services/catalog"
	"github.com/vsinha/kitchenledger/pkg/application/services/ledger"
	"github.com/vsinha/kitchenledger/pkg/application/services/recipe"
	"github.com/vsinha/kitchenledger/pkg/application/services/sales"
	"github.com/vsinha/kitchenledger/pkg/application/services/seed"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/clock"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/config"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/events"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/locking"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/metrics"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/repositories/sheet"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore/memtable"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore/sqlstore"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/tablestore/xlsx"
)

// App is the wired kitchen: repositories on the configured backend and the
// services built on them.
type App struct {
	Catalog  *catalog.Service
	Ledger   *ledger.Service
	Recipes  *recipe.Service
	Recorder *sales.Recorder
	Importer *seed.Importer
	Events   *events.InMemoryEventStore
	Registry *prometheus.Registry

	closers []func() error
}

type repos struct {
	ingredients repositories.IngredientRepository
	lots        repositories.LotRepository
	menus       repositories.MenuRepository
	sales       repositories.SaleRepository
}

// NewApp opens the configured store and lock backend and wires the services
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		Events:   events.NewInMemoryEventStore(logger),
		Registry: prometheus.NewRegistry(),
	}

	r, err := app.openRepositories(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	locker, err := app.openLocker(cfg.Lock, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	m := metrics.NewLedger(app.Registry)
	clk := clock.System()

	app.Catalog = catalog.NewService(r.ingredients, r.lots,
		catalog.WithLogger(logger),
		catalog.WithLocker(locker),
		catalog.WithClock(clk))
	app.Ledger = ledger.NewService(r.ingredients, r.lots,
		ledger.WithLogger(logger),
		ledger.WithLocker(locker),
		ledger.WithEventStore(app.Events),
		ledger.WithMetrics(m),
		ledger.WithClock(clk))
	app.Recipes = recipe.NewService(r.menus, app.Catalog, logger)
	app.Recorder = sales.NewRecorder(app.Catalog, app.Recipes, app.Ledger, r.sales,
		sales.WithLogger(logger),
		sales.WithMarkups(sales.MarkupTable(cfg.Markups)),
		sales.WithEventStore(app.Events),
		sales.WithMetrics(m),
		sales.WithClock(clk))
	app.Importer = seed.NewImporter(app.Catalog, r.menus, app.Recorder, logger)
	return app, nil
}

func (a *App) openRepositories(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*repos, error) {
	var (
		store tablestore.Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		return &repos{
			ingredients: memory.NewIngredientRepository(64),
			lots:        memory.NewLotRepository(),
			menus:       memory.NewMenuRepository(),
			sales:       memory.NewSaleRepository(),
		}, nil
	case config.BackendMemtable:
		store = memtable.New()
	case config.BackendXLSX:
		store, err = xlsx.Open(cfg.Path, logger)
	case config.BackendSQLite:
		store, err = sqlstore.OpenSQLite(cfg.DSN, logger)
	case config.BackendPostgres:
		store, err = sqlstore.OpenPostgres(cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	book, err := sheet.Open(ctx, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.closers = append(a.closers, book.Close)
	return &repos{
		ingredients: book.Ingredients(),
		lots:        book.Lots(),
		menus:       book.Menus(),
		sales:       book.Sales(),
	}, nil
}

func (a *App) openLocker(cfg config.LockConfig, logger *zap.Logger) (locking.Locker, error) {
	switch cfg.Backend {
	case config.LockLocal:
		return locking.NewKeyedMutex(), nil
	case config.LockRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, rdb.Close)
		return locking.NewRedisLocker(rdb, locking.WithTTL(cfg.TTL), locking.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}

// Close releases the store and lock connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
