package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
	"github.com/jhoicas/facturacion-ncf/internal/infrastructure/memory"
	"github.com/jhoicas/facturacion-ncf/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/facturacion-ncf/internal/interfaces/http"
	"github.com/jhoicas/facturacion-ncf/pkg/config"
	"github.com/jhoicas/facturacion-ncf/pkg/logger"
)

// backend repositorios fuera de transacción más el runner transaccional del driver elegido.
type backend struct {
	tx       sequencing.TxRunner
	types    repository.ReceiptTypeRepository
	series   repository.ReceiptSeriesRepository
	receipts repository.ReceiptRepository
	invoices repository.InvoiceRepository
	quotes   repository.QuoteRepository
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		s := memory.New()
		return &backend{
			tx: s, types: s.ReceiptTypes(), series: s.Series(), receipts: s.Receipts(),
			invoices: s.Invoices(), quotes: s.Quotes(), close: func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &backend{
		tx:       postgres.NewTxRunner(pool),
		types:    postgres.NewReceiptTypeRepository(pool),
		series:   postgres.NewReceiptSeriesRepository(pool),
		receipts: postgres.NewReceiptRepository(pool),
		invoices: postgres.NewInvoiceRepository(pool),
		quotes:   postgres.NewQuoteRepository(pool),
		close:    pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	seriesUC := sequencing.NewSeriesUseCase(be.tx, be.types, be.series, be.receipts, log)
	invoiceUC := sequencing.NewInvoiceUseCase(be.tx, be.invoices, be.types, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ReceiptTypeUC:  sequencing.NewReceiptTypeUseCase(be.tx, be.types),
		SeriesUC:       seriesUC,
		Monitor:        sequencing.NewExhaustionMonitor(be.types, be.series, log),
		InvoiceUC:      invoiceUC,
		QuoteUC:        sequencing.NewQuoteUseCase(be.tx, be.quotes),
		AlertThreshold: cfg.Sequencing.AlertThreshold,
		JWTSecret:      cfg.JWT.Secret,
		JWTIssuer:      cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
