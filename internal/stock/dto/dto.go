package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
)

const (
	DefaultBatchSize  = 100
	DefaultMaxWorkers = 1
)

type FetchOptions struct {
	BatchSize  int
	MaxWorkers int // 1 means sequential
}

func (o FetchOptions) WithDefaults() FetchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = DefaultMaxWorkers
	}
	return o
}

// FetchResult aggregates one supplier's FetchAll run.
type FetchResult struct {
	Supplier      model.SupplierContext
	TotalGtins    int
	TotalBatches  int
	SavedBatches  int
	EmptyBatches  int
	FailedBatches int
	FetchedItems  int
	SavedItems    int
}

type SupplierStatus string

const (
	SupplierSucceeded SupplierStatus = "succeeded"
	SupplierFailed    SupplierStatus = "failed"
)

type SupplierOutcome struct {
	Supplier      model.SupplierContext
	Status        SupplierStatus
	ErrorKind     string
	Error         string
	TotalGtins    int
	TotalBatches  int
	FailedBatches int
	ItemsSaved    int
	Duration      time.Duration
}

type SyncSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
	ItemsSaved int
	Suppliers  []SupplierOutcome
}

type Statistics struct {
	GtinCount               int     `json:"gtin_count"`
	SupplierCount           int     `json:"supplier_count"`
	PairCount               int     `json:"pair_count"`
	AveragePairsPerSupplier float64 `json:"average_pairs_per_supplier"`
}
