package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SyncLockKey        = "lock:stock-sync"
	StatisticsCacheKey = "stock:statistics"

	DefaultLockTTL       = 6 * time.Hour
	DefaultStatisticsTTL = 5 * time.Minute
)

const (
	ErrorKindAPI        = "api"
	ErrorKindDatabase   = "database"
	ErrorKindCanceled   = "canceled"
	ErrorKindUnexpected = "unexpected"
)

type Config struct {
	Retailer      model.Retailer
	LockTTL       time.Duration
	StatisticsTTL time.Duration
}

type stockUseCase struct {
	repo   stock.Repository
	client stock.Client
	sink   stock.BatchSink
	cache  stock.Cache
	cfg    Config
	logger logger.ZapLogger
}

// NewStockUseCase wires the orchestrator. cache may be nil, which disables
// the run lock and statistics caching.
func NewStockUseCase(repo stock.Repository, client stock.Client, sink stock.BatchSink, cache stock.Cache, cfg Config, log logger.ZapLogger) stock.UseCase {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.StatisticsTTL <= 0 {
		cfg.StatisticsTTL = DefaultStatisticsTTL
	}
	return &stockUseCase{
		repo:   repo,
		client: client,
		sink:   sink,
		cache:  cache,
		cfg:    cfg,
		logger: log,
	}
}

// SyncAll processes every supplier in order. Failures are isolated per
// supplier; an error is returned only when the run could not start.
func (uc *stockUseCase) SyncAll(ctx context.Context, suppliers []model.Supplier, opts dto.FetchOptions) (*dto.SyncSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := uc.logger.With(zap.String("run_id", runID))

	if uc.cache != nil {
		acquired, err := uc.cache.AcquireLock(ctx, SyncLockKey, runID, uc.cfg.LockTTL)
		switch {
		case err != nil:
			log.Warn("Failed to acquire sync lock, continuing without it", zap.Error(err))
		case !acquired:
			return nil, stock.ErrSyncInProgress
		default:
			stopRenewal := uc.renewLock(ctx, runID, log)
			defer func() {
				stopRenewal()
				if err := uc.cache.ReleaseLock(context.WithoutCancel(ctx), SyncLockKey, runID); err != nil {
					log.Warn("Failed to release sync lock", zap.Error(err))
				}
			}()
		}
	}

	opts = opts.WithDefaults()
	summary := &dto.SyncSummary{
		RunID:     runID,
		StartedAt: time.Now(),
		Suppliers: make([]dto.SupplierOutcome, 0, len(suppliers)),
	}
	log.Info("Starting stock sync",
		zap.Int("suppliers", len(suppliers)),
		zap.Int("batch_size", opts.BatchSize),
		zap.Int("max_workers", opts.MaxWorkers),
	)

	for i, s := range suppliers {
		var out dto.SupplierOutcome
		if ctx.Err() != nil {
			out = dto.SupplierOutcome{
				Supplier:  model.NewSupplierContext(uc.cfg.Retailer, s),
				Status:    dto.SupplierFailed,
				ErrorKind: ErrorKindCanceled,
				Error:     ctx.Err().Error(),
			}
		} else {
			log.Info("Processing supplier",
				zap.Int("index", i+1),
				zap.Int("total", len(suppliers)),
				zap.Int64("supplier_id", s.ID),
				zap.String("supplier_gln", s.GLN),
				zap.String("supplier_name", s.Name),
			)
			out = uc.syncSupplier(ctx, s, opts)
		}

		summary.Suppliers = append(summary.Suppliers, out)
		summary.ItemsSaved += out.ItemsSaved
		metrics.RecordSupplier(string(out.Status))

		supplierFields := []zap.Field{
			zap.Int64("supplier_id", out.Supplier.SupplierID),
			zap.String("supplier_gln", out.Supplier.SupplierGLN),
			zap.String("supplier_name", out.Supplier.SupplierName),
			zap.Int("items_saved", out.ItemsSaved),
			zap.Duration("duration", out.Duration),
		}
		if out.Status == dto.SupplierSucceeded {
			summary.Succeeded++
			log.Info("Supplier synced", supplierFields...)
		} else {
			summary.Failed++
			log.Error("Supplier sync failed", append(supplierFields,
				zap.String("error_kind", out.ErrorKind),
				zap.String("error", out.Error),
			)...)
		}
	}

	summary.FinishedAt = time.Now()
	metrics.RecordRun(summary.FinishedAt.Sub(summary.StartedAt))
	uc.invalidateStatistics(context.WithoutCancel(ctx))

	log.Info("Stock sync completed",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("items_saved", summary.ItemsSaved),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

// renewLock extends the run lock every third of its TTL until the returned
// stop func is called, so runs longer than LockTTL stay exclusive.
func (uc *stockUseCase) renewLock(ctx context.Context, runID string, log logger.ZapLogger) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(uc.cfg.LockTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				held, err := uc.cache.ExtendLock(ctx, SyncLockKey, runID, uc.cfg.LockTTL)
				switch {
				case err != nil:
					log.Warn("Failed to extend sync lock", zap.Error(err))
				case !held:
					log.Warn("Sync lock lost, another run may start")
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

// syncSupplier never panics; a panic below it becomes an unexpected failure.
func (uc *stockUseCase) syncSupplier(ctx context.Context, s model.Supplier, opts dto.FetchOptions) (out dto.SupplierOutcome) {
	start := time.Now()
	sc := model.NewSupplierContext(uc.cfg.Retailer, s)
	out.Supplier = sc

	defer func() {
		if p := recover(); p != nil {
			out.Status = dto.SupplierFailed
			out.ErrorKind = ErrorKindUnexpected
			out.Error = fmt.Sprintf("panic: %v", p)
		}
		out.Duration = time.Since(start)
	}()

	result, err := uc.client.FetchAll(ctx, sc, opts, uc.sink)
	if result != nil {
		out.TotalGtins = result.TotalGtins
		out.TotalBatches = result.TotalBatches
		out.FailedBatches = result.FailedBatches
		out.ItemsSaved = result.SavedItems
	}
	if err != nil {
		out.Status = dto.SupplierFailed
		out.ErrorKind = classify(err)
		out.Error = err.Error()
		return out
	}

	out.Status = dto.SupplierSucceeded
	return out
}

func classify(err error) string {
	var apiErr *stock.APIError
	var dbErr *stock.DatabaseError
	switch {
	case errors.As(err, &apiErr):
		return ErrorKindAPI
	case errors.As(err, &dbErr):
		return ErrorKindDatabase
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCanceled
	default:
		return ErrorKindUnexpected
	}
}

func (uc *stockUseCase) GetSupplierStock(ctx context.Context, sc model.SupplierContext) ([]model.StockRecord, error) {
	return uc.repo.FindBySupplier(ctx, sc)
}

func (uc *stockUseCase) GetStockItem(ctx context.Context, gtin, supplierGLN string) (*model.StockRecord, error) {
	return uc.repo.GetByGtinAndSupplier(ctx, gtin, supplierGLN)
}

func (uc *stockUseCase) IsSynced(ctx context.Context, gtin, supplierGLN string) (bool, error) {
	return uc.repo.Exists(ctx, gtin, supplierGLN)
}

func (uc *stockUseCase) ListGtinSupplierPairs(ctx context.Context) ([]model.GtinSupplierPair, error) {
	return uc.repo.ListGtinSupplierPairs(ctx)
}

func (uc *stockUseCase) GetStatistics(ctx context.Context) (*dto.Statistics, error) {
	if uc.cache != nil {
		raw, err := uc.cache.Get(ctx, StatisticsCacheKey)
		if err == nil {
			var cached dto.Statistics
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
			uc.logger.Warn("Discarding malformed cached statistics")
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			uc.logger.Warn("Failed to read cached statistics", zap.Error(err))
		}
	}

	st, err := uc.repo.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.Statistics{
		GtinCount:     st.GtinCount,
		SupplierCount: st.SupplierCount,
		PairCount:     st.PairCount,
	}
	if st.SupplierCount > 0 {
		stats.AveragePairsPerSupplier = float64(st.PairCount) / float64(st.SupplierCount)
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := uc.cache.Set(ctx, StatisticsCacheKey, string(raw), uc.cfg.StatisticsTTL); err != nil {
				uc.logger.Warn("Failed to cache statistics", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (uc *stockUseCase) invalidateStatistics(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, StatisticsCacheKey); err != nil {
		uc.logger.Warn("Failed to invalidate cached statistics", zap.Error(err))
	}
}
