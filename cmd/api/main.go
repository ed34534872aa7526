package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	infracache "github.com/jhoicas/Inventario-kardex/internal/infrastructure/cache"
	"github.com/jhoicas/Inventario-kardex/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-kardex/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-kardex/internal/interfaces/http"
	"github.com/jhoicas/Inventario-kardex/pkg/config"
	"github.com/jhoicas/Inventario-kardex/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		os.Exit(1)
	}
	log.Info().Msg("aplicación detenida")
}

// run arma las dependencias y sirve HTTP hasta recibir una señal. Los recursos se
// liberan con defer antes de que main decida el código de salida.
func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var txRunner inventory.TxRunner
	switch cfg.App.Storage {
	case "memory":
		store := memory.NewStore()
		seedDemo(store)
		txRunner = store
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool)
	}

	// Caché opcional: interfaz nil cuando REDIS_ADDR está vacío.
	var costCache inventory.CostCache
	if cfg.Redis.Enabled() {
		client, err := infracache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("conexión a Redis: %w", err)
		}
		defer client.Close()
		costCache = infracache.NewCostCache(client, cfg.Redis.CostTTL)
	}

	movementSvc := inventory.NewMovementService(txRunner, costCache, log)
	balanceSvc := inventory.NewBalanceService(txRunner, costCache, log)
	ledgerSvc := inventory.NewLedgerService(txRunner, inventory.LedgerConfig{
		DefaultPageSize: cfg.Inventory.KardexPageSize,
		MaxPageSize:     cfg.Inventory.KardexMaxPageSize,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:              cfg.App.Name,
		Movements:            movementSvc,
		Ledger:               ledgerSvc,
		Balances:             balanceSvc,
		JWTSecret:            cfg.JWT.Secret,
		AllowNegativeDefault: cfg.Inventory.AllowNegativeDefault,
		ExportPageSize:       cfg.Inventory.KardexMaxPageSize,
		SwaggerFile:          cfg.HTTP.SwaggerFile,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("servidor HTTP: %w", err)
	}
	return nil
}

// seedDemo catálogo mínimo para el modo en memoria; el maestro real vive en PostgreSQL.
func seedDemo(store *memory.Store) {
	store.AddItem(entity.Item{ID: "item-demo-1", SKU: "DEMO-001", Name: "Tornillo 1/4"})
	store.AddItem(entity.Item{ID: "item-demo-2", SKU: "DEMO-002", Name: "Tuerca 1/4"})
	store.AddWarehouse(entity.Warehouse{ID: "wh-demo-1", Name: "Bodega principal"})
	store.AddWarehouse(entity.Warehouse{ID: "wh-demo-2", Name: "Bodega sucursal"})
}
