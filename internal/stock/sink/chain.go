package sink

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// Chain saves a batch to the primary sink and, only if that succeeded,
// forwards it to every secondary sink. Secondary failures are logged and
// never fail the batch.
type Chain struct {
	primary     stock.BatchSink
	secondaries []stock.BatchSink
	logger      logger.ZapLogger
}

func NewChain(log logger.ZapLogger, primary stock.BatchSink, secondaries ...stock.BatchSink) *Chain {
	filtered := make([]stock.BatchSink, 0, len(secondaries))
	for _, s := range secondaries {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &Chain{primary: primary, secondaries: filtered, logger: log}
}

func (c *Chain) SaveBatch(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
	if err := c.primary.SaveBatch(ctx, sc, items); err != nil {
		return err
	}

	for _, s := range c.secondaries {
		if err := s.SaveBatch(ctx, sc, items); err != nil {
			c.logger.Warn("Secondary batch sink failed",
				zap.String("supplier_gln", sc.SupplierGLN),
				zap.Int("items", len(items)),
				zap.Error(err),
			)
		}
	}
	return nil
}
