package sink

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/search"
)

const DefaultStockIndex = "supplier_stock"

const stockIndexMapping = `{
	"mappings": {
		"properties": {
			"gtin": { "type": "keyword" },
			"retailer_gln": { "type": "keyword" },
			"supplier_id": { "type": "long" },
			"supplier_gln": { "type": "keyword" },
			"supplier_name": { "type": "text" },
			"quantity": { "type": "integer" },
			"stock_traffic_light": { "type": "keyword" },
			"item_type": { "type": "keyword" },
			"stock_timestamp": { "type": "date" },
			"synced_at": { "type": "date" }
		}
	}
}`

// Indexer is satisfied by search.Client.
type Indexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	BulkIndex(ctx context.Context, index string, docs []search.Document) error
}

type stockDocument struct {
	GTIN              string     `json:"gtin"`
	RetailerGLN       string     `json:"retailer_gln"`
	SupplierID        int64      `json:"supplier_id"`
	SupplierGLN       string     `json:"supplier_gln"`
	SupplierName      string     `json:"supplier_name"`
	Quantity          *int       `json:"quantity"`
	StockTrafficLight *string    `json:"stock_traffic_light"`
	ItemType          string     `json:"item_type"`
	StockTimestamp    *time.Time `json:"stock_timestamp"`
	SyncedAt          time.Time  `json:"synced_at"`
}

// SearchSink mirrors saved batches into an Elasticsearch index keyed by
// supplier GLN and GTIN, so re-syncs overwrite documents in place.
type SearchSink struct {
	indexer Indexer
	index   string
	now     func() time.Time

	mu         sync.Mutex
	indexReady bool
}

func NewSearchSink(indexer Indexer, index string) *SearchSink {
	if index == "" {
		index = DefaultStockIndex
	}
	return &SearchSink{indexer: indexer, index: index, now: time.Now}
}

func (s *SearchSink) SaveBatch(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	syncedAt := s.now().UTC()
	docs := make([]search.Document, 0, len(items))
	for _, it := range items {
		doc := stockDocument{
			GTIN:           it.GTIN,
			RetailerGLN:    sc.RetailerGLN,
			SupplierID:     sc.SupplierID,
			SupplierGLN:    sc.SupplierGLN,
			SupplierName:   sc.SupplierName,
			Quantity:       it.Quantity,
			ItemType:       string(it.ItemType),
			StockTimestamp: it.ObservedAt,
			SyncedAt:       syncedAt,
		}
		if it.TrafficLight != nil {
			tl := string(*it.TrafficLight)
			doc.StockTrafficLight = &tl
		}
		docs = append(docs, search.Document{ID: sc.SupplierGLN + ":" + it.GTIN, Source: doc})
	}
	return s.indexer.BulkIndex(ctx, s.index, docs)
}

// ensureIndex creates the index until one attempt succeeds.
func (s *SearchSink) ensureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexReady {
		return nil
	}
	if err := s.indexer.CreateIndex(ctx, s.index, stockIndexMapping); err != nil {
		return err
	}
	s.indexReady = true
	return nil
}
