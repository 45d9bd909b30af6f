package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
)

// BatchSink receives each completed batch exactly once. Calls for one
// supplier run are never concurrent.
type BatchSink interface {
	SaveBatch(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error
}

type BatchSinkFunc func(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error

func (f BatchSinkFunc) SaveBatch(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
	return f(ctx, sc, items)
}
