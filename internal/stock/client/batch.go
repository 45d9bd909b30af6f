package client

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/fekuna/omnipos-stock-sync-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Partition splits gtins into consecutive chunks of at most size elements.
func Partition(gtins []string, size int) [][]string {
	if size <= 0 {
		size = dto.DefaultBatchSize
	}
	batches := make([][]string, 0, (len(gtins)+size-1)/size)
	for start := 0; start < len(gtins); start += size {
		end := start + size
		if end > len(gtins) {
			end = len(gtins)
		}
		batches = append(batches, gtins[start:end])
	}
	return batches
}

// FetchBatch looks up every GTIN in order, pacing calls by callDelay. Only
// context cancellation produces an error; items fetched so far are returned
// with it.
func (c *Client) FetchBatch(ctx context.Context, gtins []string, supplierGLN string) ([]model.StockItem, error) {
	return c.fetchBatch(ctx, gtins, supplierGLN, 0, 0, nil)
}

func (c *Client) fetchBatch(ctx context.Context, gtins []string, supplierGLN string, batchNum, totalBatches int, processed *atomic.Int64) ([]model.StockItem, error) {
	limiter := rate.NewLimiter(rate.Every(c.callDelay), 1)
	items := make([]model.StockItem, 0, len(gtins))

	for _, gtin := range gtins {
		if err := limiter.Wait(ctx); err != nil {
			return items, err
		}

		if processed != nil {
			n := processed.Add(1)
			c.logger.Debug("Processing GTIN",
				zap.Int("batch", batchNum),
				zap.Int("total_batches", totalBatches),
				zap.Int64("processed", n),
				zap.String("gtin", gtin),
			)
		}

		resp := c.GetAvailability(ctx, gtin, supplierGLN)
		if resp.IsEmpty() {
			continue
		}
		items = append(items, c.toStockItems(resp.StocksQueryResult)...)
	}

	return items, ctx.Err()
}

// FetchAll discovers the supplier's GTINs and fetches them batch by batch,
// handing each completed batch to sink before it is forgotten. A crash
// therefore loses at most the batches still in flight.
//
// With MaxWorkers <= 1 batches run strictly in order. Otherwise up to
// MaxWorkers batches are fetched at once and saved in completion order. In
// both modes sink is only ever called from the calling goroutine.
func (c *Client) FetchAll(ctx context.Context, sc model.SupplierContext, opts dto.FetchOptions, sink stock.BatchSink) (*dto.FetchResult, error) {
	opts = opts.WithDefaults()
	log := c.logger.With(
		zap.Int64("supplier_id", sc.SupplierID),
		zap.String("supplier_gln", sc.SupplierGLN),
		zap.String("supplier_name", sc.SupplierName),
	)

	log.Info("Discovering GTINs with stock")
	gtins, err := c.ListGtinsWithStock(ctx, sc.SupplierGLN)
	if err != nil {
		return nil, err
	}

	batches := Partition(gtins, opts.BatchSize)
	result := &dto.FetchResult{
		Supplier:     sc,
		TotalGtins:   len(gtins),
		TotalBatches: len(batches),
	}
	log.Info("Fetching availability",
		zap.Int("gtins", len(gtins)),
		zap.Int("batches", len(batches)),
		zap.Int("batch_size", opts.BatchSize),
		zap.Int("max_workers", opts.MaxWorkers),
	)

	run := &batchRun{client: c, sc: sc, sink: sink, result: result, log: log, total: len(batches)}
	if opts.MaxWorkers <= 1 {
		err = run.sequential(ctx, batches)
	} else {
		err = run.concurrent(ctx, batches, opts.MaxWorkers)
	}

	log.Info("Stock query completed",
		zap.Int("gtins", result.TotalGtins),
		zap.Int("fetched_items", result.FetchedItems),
		zap.Int("saved_items", result.SavedItems),
		zap.Int("saved_batches", result.SavedBatches),
		zap.Int("failed_batches", result.FailedBatches),
	)
	return result, err
}

type batchRun struct {
	client    *Client
	sc        model.SupplierContext
	sink      stock.BatchSink
	result    *dto.FetchResult
	log       logger.ZapLogger
	total     int
	processed atomic.Int64
}

type batchOutcome struct {
	num   int
	items []model.StockItem
	err   error
}

func (r *batchRun) sequential(ctx context.Context, batches [][]string) error {
	for i, gtins := range batches {
		num := i + 1
		r.log.Info("Processing batch", zap.Int("batch", num), zap.Int("total_batches", r.total), zap.Int("gtins", len(gtins)))

		out := r.fetch(ctx, num, gtins)
		r.complete(ctx, out)
		if out.err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		if num < r.total && !sleep(ctx, r.client.batchPause) {
			return ctx.Err()
		}
	}
	return nil
}

func (r *batchRun) concurrent(ctx context.Context, batches [][]string, workers int) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	outcomes := make(chan batchOutcome)
	// Workers block on outcomes, so it must be drained on every exit path.
	defer func() {
		cancel()
		for range outcomes {
		}
	}()

	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, gtins := range batches {
			num, gtins := i+1, gtins
			g.Go(func() error {
				outcomes <- r.fetch(fetchCtx, num, gtins)
				return nil
			})
		}
		g.Wait()
		close(outcomes)
	}()

	for out := range outcomes {
		r.complete(ctx, out)
	}
	return ctx.Err()
}

// fetch runs one batch and converts a panic into a batch error.
func (r *batchRun) fetch(ctx context.Context, num int, gtins []string) (out batchOutcome) {
	out.num = num
	defer func() {
		if p := recover(); p != nil {
			out.err = fmt.Errorf("batch %d panicked: %v", num, p)
		}
	}()
	out.items, out.err = r.client.fetchBatch(ctx, gtins, r.sc.SupplierGLN, num, r.total, &r.processed)
	return out
}

func (r *batchRun) complete(ctx context.Context, out batchOutcome) {
	if out.err != nil {
		r.result.FailedBatches++
		metrics.RecordBatch(metrics.BatchFailed, len(out.items))
		r.log.Error("Batch failed", zap.Int("batch", out.num), zap.Int("fetched_items", len(out.items)), zap.Error(out.err))
		return
	}

	if len(out.items) == 0 {
		r.result.EmptyBatches++
		metrics.RecordBatch(metrics.BatchEmpty, 0)
		r.log.Info("Batch produced no stock items", zap.Int("batch", out.num))
		return
	}
	r.result.FetchedItems += len(out.items)

	if r.sink == nil {
		return
	}
	if err := r.save(ctx, out.items); err != nil {
		r.result.FailedBatches++
		metrics.RecordBatch(metrics.BatchFailed, len(out.items))
		r.log.Error("Failed to save batch", zap.Int("batch", out.num), zap.Int("items", len(out.items)), zap.Error(err))
		return
	}

	r.result.SavedBatches++
	r.result.SavedItems += len(out.items)
	metrics.RecordBatch(metrics.BatchSaved, len(out.items))
	r.log.Info("Saved batch", zap.Int("batch", out.num), zap.Int("total_batches", r.total), zap.Int("items", len(out.items)))
}

// save hands items to the sink, converting a panic into a batch error.
func (r *batchRun) save(ctx context.Context, items []model.StockItem) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("batch sink panicked: %v", p)
		}
	}()
	return r.sink.SaveBatch(ctx, r.sc, items)
}
