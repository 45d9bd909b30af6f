package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
)

// Client fetches a supplier's stock from the external API and hands every
// completed batch to sink before moving on.
type Client interface {
	FetchAll(ctx context.Context, sc model.SupplierContext, opts dto.FetchOptions, sink BatchSink) (*dto.FetchResult, error)
}
