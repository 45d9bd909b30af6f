package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
)

type UseCase interface {
	SyncAll(ctx context.Context, suppliers []model.Supplier, opts dto.FetchOptions) (*dto.SyncSummary, error)
	GetSupplierStock(ctx context.Context, sc model.SupplierContext) ([]model.StockRecord, error)
	GetStockItem(ctx context.Context, gtin, supplierGLN string) (*model.StockRecord, error)
	IsSynced(ctx context.Context, gtin, supplierGLN string) (bool, error)
	ListGtinSupplierPairs(ctx context.Context) ([]model.GtinSupplierPair, error)
	GetStatistics(ctx context.Context) (*dto.Statistics, error)
}
