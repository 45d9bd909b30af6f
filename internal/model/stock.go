package model

import "time"

type ItemType string

const (
	ItemTypePair ItemType = "Pair"
	ItemTypeSet  ItemType = "Set"
)

// ItemTypeFromCode maps the API's numeric type code. Only 1 is a pair.
func ItemTypeFromCode(code *int) ItemType {
	if code != nil && *code == 1 {
		return ItemTypePair
	}
	return ItemTypeSet
}

type TrafficLight string

const (
	TrafficLightGreen  TrafficLight = "Green"
	TrafficLightYellow TrafficLight = "Yellow"
	TrafficLightRed    TrafficLight = "Red"
)

type Retailer struct {
	ID  string
	GLN string
}

// Supplier is the canonical supplier directory record.
type Supplier struct {
	ID   int64
	GLN  string
	Name string
}

// SupplierContext scopes one supplier sync. Treat as immutable.
type SupplierContext struct {
	RetailerID   string
	RetailerGLN  string
	SupplierID   int64
	SupplierGLN  string
	SupplierName string
}

func NewSupplierContext(r Retailer, s Supplier) SupplierContext {
	return SupplierContext{
		RetailerID:   r.ID,
		RetailerGLN:  r.GLN,
		SupplierID:   s.ID,
		SupplierGLN:  s.GLN,
		SupplierName: s.Name,
	}
}

type StockItem struct {
	GTIN         string
	Quantity     *int
	TrafficLight *TrafficLight
	ItemType     ItemType
	ObservedAt   *time.Time
}

type StockRecord struct {
	ID                int64      `db:"id"`
	RetailerID        string     `db:"retailer_id"`
	RetailerGLN       string     `db:"retailer_gln"`
	SupplierID        int64      `db:"supplier_id"`
	SupplierGLN       string     `db:"supplier_gln"`
	SupplierName      *string    `db:"supplier_name"`
	GTIN              string     `db:"gtin"`
	Quantity          *int       `db:"quantity"`
	StockTrafficLight *string    `db:"stock_traffic_light"`
	ItemType          *string    `db:"item_type"`
	StockTimestamp    *time.Time `db:"stock_timestamp"`
	SyncedAt          time.Time  `db:"synced_at"`
}

// NewStockRecord builds the row written for item within sc.
func NewStockRecord(sc SupplierContext, item StockItem) *StockRecord {
	rec := &StockRecord{
		RetailerID:     sc.RetailerID,
		RetailerGLN:    sc.RetailerGLN,
		SupplierID:     sc.SupplierID,
		SupplierGLN:    sc.SupplierGLN,
		GTIN:           item.GTIN,
		Quantity:       item.Quantity,
		StockTimestamp: item.ObservedAt,
	}
	if sc.SupplierName != "" {
		name := sc.SupplierName
		rec.SupplierName = &name
	}
	if item.TrafficLight != nil {
		tl := string(*item.TrafficLight)
		rec.StockTrafficLight = &tl
	}
	if item.ItemType != "" {
		it := string(item.ItemType)
		rec.ItemType = &it
	}
	return rec
}

type GtinSupplierPair struct {
	GTIN        string `db:"gtin" json:"gtin"`
	SupplierGLN string `db:"supplier_gln" json:"supplier_gln"`
}

type StockStatistics struct {
	GtinCount     int `db:"gtin_count"`
	SupplierCount int `db:"supplier_count"`
	PairCount     int `db:"pair_count"`
}
