package client

import (
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestToStockItems(t *testing.T) {
	c := NewClient(Config{}, logger.NewNop())

	items := c.toStockItems([]dto.AvailabilityEntry{
		{GTIN: "1", Quantity: ptr(10), StockTrafficLight: ptr("Green"), Type: ptr(1), Timestamp: ptr("2023-01-01T10:00:00Z")},
		{GTIN: "2", Quantity: ptr(0), StockTrafficLight: ptr("Red"), Type: ptr(2)},
		{GTIN: "3"},
		{GTIN: "4", Quantity: ptr(-5)},
		{GTIN: "", Quantity: ptr(1)},
		{GTIN: "5", Timestamp: ptr("yesterday")},
	})

	require.Len(t, items, 4)

	assert.Equal(t, "1", items[0].GTIN)
	assert.Equal(t, 10, *items[0].Quantity)
	assert.Equal(t, model.TrafficLightGreen, *items[0].TrafficLight)
	assert.Equal(t, model.ItemTypePair, items[0].ItemType)
	require.NotNil(t, items[0].ObservedAt)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC), *items[0].ObservedAt)

	assert.Equal(t, model.ItemTypeSet, items[1].ItemType)
	assert.Equal(t, 0, *items[1].Quantity)

	assert.Equal(t, model.ItemTypeSet, items[2].ItemType)
	assert.Nil(t, items[2].Quantity)
	assert.Nil(t, items[2].TrafficLight)
	assert.Nil(t, items[2].ObservedAt)

	assert.Equal(t, "5", items[3].GTIN)
	assert.Nil(t, items[3].ObservedAt)
}

func TestItemTypeFromCode(t *testing.T) {
	assert.Equal(t, model.ItemTypePair, model.ItemTypeFromCode(ptr(1)))
	assert.Equal(t, model.ItemTypeSet, model.ItemTypeFromCode(ptr(0)))
	assert.Equal(t, model.ItemTypeSet, model.ItemTypeFromCode(ptr(2)))
	assert.Equal(t, model.ItemTypeSet, model.ItemTypeFromCode(nil))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2023-01-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC), ts)

	ts, err = ParseTimestamp("2023-01-01T12:00:00.5+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 500000000, time.UTC), ts)

	ts, err = ParseTimestamp("2023-01-01T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC), ts)

	ts, err = ParseTimestamp("2023-01-01T10:00:00.250")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 250000000, time.UTC), ts)

	_, err = ParseTimestamp("01/01/2023")
	assert.Error(t, err)
}
