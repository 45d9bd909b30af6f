package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fekuna/omnipos-stock-sync-service/config"
	"github.com/fekuna/omnipos-stock-sync-service/internal/app"
	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/internal/supplier"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// sampleSize bounds how many records of the first supplier are logged for
// verification after a run.
const sampleSize = 5

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := app.NewLogger(cfg)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire backends
	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Could not initialize stock sync", zap.Error(err))
	}
	defer a.Close()

	// 4. Load suppliers
	suppliers, err := a.Directory.Load(ctx)
	if err != nil {
		var cfgErr *supplier.ConfigError
		if errors.As(err, &cfgErr) {
			appLogger.Error("Supplier directory is unusable", zap.String("source", cfgErr.Source), zap.Error(cfgErr.Err))
		} else {
			appLogger.Error("Could not load suppliers", zap.Error(err))
		}
		a.Close()
		appLogger.Sync()
		os.Exit(1)
	}

	// 5. Run
	summary, err := a.UseCase.SyncAll(ctx, suppliers, a.FetchOptions())
	if err != nil {
		if errors.Is(err, stock.ErrSyncInProgress) {
			appLogger.Warn("Another stock sync run holds the lock, exiting")
			return
		}
		appLogger.Error("Stock sync could not start", zap.Error(err))
		a.Close()
		appLogger.Sync()
		os.Exit(1)
	}

	logSummary(appLogger, summary)
	verify(context.WithoutCancel(ctx), a, summary, appLogger)

	if summary.Succeeded == 0 && summary.Failed > 0 {
		a.Close()
		appLogger.Sync()
		os.Exit(2)
	}
}

func logSummary(log logger.ZapLogger, summary *dto.SyncSummary) {
	for _, out := range summary.Suppliers {
		log.Info("Supplier result",
			zap.String("supplier_gln", out.Supplier.SupplierGLN),
			zap.String("supplier_name", out.Supplier.SupplierName),
			zap.String("status", string(out.Status)),
			zap.String("error_kind", out.ErrorKind),
			zap.Int("gtins", out.TotalGtins),
			zap.Int("batches", out.TotalBatches),
			zap.Int("failed_batches", out.FailedBatches),
			zap.Int("items_saved", out.ItemsSaved),
			zap.Duration("duration", out.Duration),
		)
	}
	log.Info("Synchronization summary",
		zap.String("run_id", summary.RunID),
		zap.Int("successful_suppliers", summary.Succeeded),
		zap.Int("failed_suppliers", summary.Failed),
		zap.Int("items_saved", summary.ItemsSaved),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)
}

// verify reads back what the run stored and logs repository statistics
// plus a sample of the first successful supplier's records.
func verify(ctx context.Context, a *app.App, summary *dto.SyncSummary, log logger.ZapLogger) {
	stats, err := a.UseCase.GetStatistics(ctx)
	if err != nil {
		log.Warn("Could not read stock statistics", zap.Error(err))
		return
	}
	log.Info("Stock statistics",
		zap.Int("gtins", stats.GtinCount),
		zap.Int("suppliers", stats.SupplierCount),
		zap.Int("pairs", stats.PairCount),
		zap.Float64("average_pairs_per_supplier", stats.AveragePairsPerSupplier),
	)

	var sc *model.SupplierContext
	for i := range summary.Suppliers {
		if summary.Suppliers[i].Status == dto.SupplierSucceeded {
			sc = &summary.Suppliers[i].Supplier
			break
		}
	}
	if sc == nil {
		return
	}

	records, err := a.UseCase.GetSupplierStock(ctx, *sc)
	if err != nil {
		log.Warn("Could not read back supplier stock", zap.String("supplier_gln", sc.SupplierGLN), zap.Error(err))
		return
	}
	log.Info("Stored stock for supplier", zap.String("supplier_gln", sc.SupplierGLN), zap.Int("records", len(records)))

	for i, rec := range records {
		if i == sampleSize {
			break
		}
		synced, err := a.UseCase.IsSynced(ctx, rec.GTIN, rec.SupplierGLN)
		if err != nil {
			log.Warn("Could not verify stock record", zap.String("gtin", rec.GTIN), zap.Error(err))
			continue
		}
		fields := []zap.Field{
			zap.String("gtin", rec.GTIN),
			zap.Bool("synced", synced),
			zap.Time("synced_at", rec.SyncedAt),
		}
		if rec.Quantity != nil {
			fields = append(fields, zap.Int("quantity", *rec.Quantity))
		}
		if rec.StockTrafficLight != nil {
			fields = append(fields, zap.String("traffic_light", *rec.StockTrafficLight))
		}
		if rec.ItemType != nil {
			fields = append(fields, zap.String("item_type", *rec.ItemType))
		}
		log.Info("Sample stock record", fields...)
	}
}
