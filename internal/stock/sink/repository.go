package sink

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
)

// RepositorySink persists batches through the stock repository.
type RepositorySink struct {
	repo stock.Repository
}

func NewRepositorySink(repo stock.Repository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) SaveBatch(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
	_, err := s.repo.BatchUpsert(ctx, sc, items)
	return err
}
