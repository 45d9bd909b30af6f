package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/google/uuid"
)

const EventStockBatchSaved = "StockBatchSaved"

// Publisher is satisfied by broker.KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type StockBatchSavedEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Payload   StockBatchSavedPayload `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

type StockBatchSavedPayload struct {
	RetailerGLN  string                   `json:"retailer_gln"`
	SupplierID   int64                    `json:"supplier_id"`
	SupplierGLN  string                   `json:"supplier_gln"`
	SupplierName string                   `json:"supplier_name"`
	ItemCount    int                      `json:"item_count"`
	Pairs        []model.GtinSupplierPair `json:"pairs"`
}

// EventSink announces saved batches so the article sync can pick up the
// GTIN/supplier pairs without rescanning the stock table.
type EventSink struct {
	publisher Publisher
	now       func() time.Time
}

func NewEventSink(publisher Publisher) *EventSink {
	return &EventSink{publisher: publisher, now: time.Now}
}

func (s *EventSink) SaveBatch(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
	seen := make(map[string]struct{}, len(items))
	pairs := make([]model.GtinSupplierPair, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.GTIN]; ok {
			continue
		}
		seen[it.GTIN] = struct{}{}
		pairs = append(pairs, model.GtinSupplierPair{GTIN: it.GTIN, SupplierGLN: sc.SupplierGLN})
	}

	event := StockBatchSavedEvent{
		EventID:   uuid.New().String(),
		EventType: EventStockBatchSaved,
		Payload: StockBatchSavedPayload{
			RetailerGLN:  sc.RetailerGLN,
			SupplierID:   sc.SupplierID,
			SupplierGLN:  sc.SupplierGLN,
			SupplierName: sc.SupplierName,
			ItemCount:    len(items),
			Pairs:        pairs,
		},
		Timestamp: s.now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", EventStockBatchSaved, err)
	}
	return s.publisher.Publish(ctx, []byte(sc.SupplierGLN), value)
}
