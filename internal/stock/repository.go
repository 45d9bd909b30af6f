package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
)

type Repository interface {
	// Schema
	Migrate(ctx context.Context) error

	// Writes
	Upsert(ctx context.Context, sc model.SupplierContext, item model.StockItem) error
	BatchUpsert(ctx context.Context, sc model.SupplierContext, items []model.StockItem) (int, error)

	// Reads
	Exists(ctx context.Context, gtin, supplierGLN string) (bool, error)
	GetByGtinAndSupplier(ctx context.Context, gtin, supplierGLN string) (*model.StockRecord, error)
	FindBySupplier(ctx context.Context, sc model.SupplierContext) ([]model.StockRecord, error)

	// Aggregates
	ListGtins(ctx context.Context) ([]string, error)
	ListSupplierGLNs(ctx context.Context) ([]string, error)
	ListGtinSupplierPairs(ctx context.Context) ([]model.GtinSupplierPair, error)
	Statistics(ctx context.Context) (*model.StockStatistics, error)
}
