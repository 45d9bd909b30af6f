package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/internal/supplier"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventStockSyncRequested = "StockSyncRequested"

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// SyncListener starts a sync run for every StockSyncRequested command it
// reads. Runs are handled one at a time.
type SyncListener struct {
	consumer  MessageReader
	directory supplier.Directory
	uc        stock.UseCase
	defaults  dto.FetchOptions
	logger    logger.ZapLogger
}

func NewSyncListener(consumer MessageReader, directory supplier.Directory, uc stock.UseCase, defaults dto.FetchOptions, logger logger.ZapLogger) *SyncListener {
	return &SyncListener{
		consumer:  consumer,
		directory: directory,
		uc:        uc,
		defaults:  defaults,
		logger:    logger,
	}
}

func (l *SyncListener) Start(ctx context.Context) {
	l.logger.Info("Starting Stock Sync Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Stock Sync Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockSyncRequestedEvent struct {
	EventID   string                  `json:"event_id"`
	EventType string                  `json:"event_type"`
	Payload   StockSyncRequestPayload `json:"payload"`
	Timestamp time.Time               `json:"timestamp"`
}

type StockSyncRequestPayload struct {
	SupplierGLNs []string `json:"supplier_glns"`
	BatchSize    int      `json:"batch_size"`
	MaxWorkers   int      `json:"max_workers"`
}

func (l *SyncListener) processMessage(ctx context.Context, value []byte) {
	var event StockSyncRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventStockSyncRequested {
		return
	}

	log := l.logger.With(zap.String("event_id", event.EventID))
	log.Info("Processing StockSyncRequested event", zap.Strings("supplier_glns", event.Payload.SupplierGLNs))

	suppliers, err := l.directory.Load(ctx)
	if err != nil {
		log.Error("Failed to load supplier directory", zap.Error(err))
		return
	}

	suppliers = supplier.Filter(suppliers, event.Payload.SupplierGLNs)
	if len(suppliers) == 0 {
		log.Warn("No configured suppliers match the request")
		return
	}

	opts := l.defaults
	if event.Payload.BatchSize > 0 {
		opts.BatchSize = event.Payload.BatchSize
	}
	if event.Payload.MaxWorkers > 0 {
		opts.MaxWorkers = event.Payload.MaxWorkers
	}

	summary, err := l.uc.SyncAll(ctx, suppliers, opts)
	if err != nil {
		if errors.Is(err, stock.ErrSyncInProgress) {
			log.Warn("Skipping sync request, another run is in progress")
			return
		}
		log.Error("Stock sync run failed to start", zap.Error(err))
		return
	}

	log.Info("Stock sync request handled",
		zap.String("run_id", summary.RunID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("items_saved", summary.ItemsSaved),
	)
}
