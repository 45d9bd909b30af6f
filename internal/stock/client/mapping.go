package client

import (
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"go.uber.org/zap"
)

// toStockItems converts raw availability entries. Entries without a GTIN or
// with a negative quantity are dropped.
func (c *Client) toStockItems(entries []dto.AvailabilityEntry) []model.StockItem {
	items := make([]model.StockItem, 0, len(entries))
	for _, e := range entries {
		if e.GTIN == "" {
			c.logger.Warn("Dropping availability entry without gtin")
			continue
		}
		if e.Quantity != nil && *e.Quantity < 0 {
			c.logger.Warn("Dropping availability entry with negative quantity",
				zap.String("gtin", e.GTIN), zap.Int("quantity", *e.Quantity))
			continue
		}

		item := model.StockItem{
			GTIN:     e.GTIN,
			Quantity: e.Quantity,
			ItemType: model.ItemTypeFromCode(e.Type),
		}
		if e.StockTrafficLight != nil && *e.StockTrafficLight != "" {
			tl := model.TrafficLight(*e.StockTrafficLight)
			item.TrafficLight = &tl
		}
		if e.Timestamp != nil && *e.Timestamp != "" {
			ts, err := ParseTimestamp(*e.Timestamp)
			if err != nil {
				c.logger.Warn("Ignoring unparseable availability timestamp",
					zap.String("gtin", e.GTIN), zap.String("timestamp", *e.Timestamp), zap.Error(err))
			} else {
				item.ObservedAt = &ts
			}
		}
		items = append(items, item)
	}
	return items
}

// localTimestampLayout matches timestamps sent without an offset.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp parses an ISO-8601 timestamp such as 2023-01-01T10:00:00Z
// and returns it in UTC. Timestamps without an offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t.UTC(), nil
	}
	if local, lerr := time.ParseInLocation(localTimestampLayout, s, time.UTC); lerr == nil {
		return local, nil
	}
	return time.Time{}, err
}
