package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) CreateIndex(ctx context.Context, index, mapping string) error {
	args := m.Called(ctx, index, mapping)
	return args.Error(0)
}

func (m *MockIndexer) BulkIndex(ctx context.Context, index string, docs []search.Document) error {
	args := m.Called(ctx, index, docs)
	return args.Error(0)
}

type MockRepository struct {
	stock.Repository
	mock.Mock
}

func (m *MockRepository) BatchUpsert(ctx context.Context, sc model.SupplierContext, items []model.StockItem) (int, error) {
	args := m.Called(ctx, sc, items)
	return args.Int(0), args.Error(1)
}

func testContext() model.SupplierContext {
	return model.NewSupplierContext(
		model.Retailer{ID: "retailer-1", GLN: "4399902421386"},
		model.Supplier{ID: 87, GLN: "4042834000005", Name: "Josef Seibel"},
	)
}

func testItems() []model.StockItem {
	qty := 10
	green := model.TrafficLightGreen
	return []model.StockItem{
		{GTIN: "1234567890001", Quantity: &qty, TrafficLight: &green, ItemType: model.ItemTypePair},
		{GTIN: "1234567890002", ItemType: model.ItemTypeSet},
		{GTIN: "1234567890001", Quantity: &qty, ItemType: model.ItemTypePair},
	}
}

func TestRepositorySink_SaveBatch(t *testing.T) {
	repo := new(MockRepository)
	sc, items := testContext(), testItems()
	repo.On("BatchUpsert", mock.Anything, sc, items).Return(len(items), nil)

	require.NoError(t, NewRepositorySink(repo).SaveBatch(context.Background(), sc, items))
	repo.AssertExpectations(t)
}

func TestRepositorySink_PropagatesError(t *testing.T) {
	repo := new(MockRepository)
	dbErr := &stock.DatabaseError{Op: "batch upsert", Err: errors.New("locked")}
	repo.On("BatchUpsert", mock.Anything, mock.Anything, mock.Anything).Return(0, dbErr)

	err := NewRepositorySink(repo).SaveBatch(context.Background(), testContext(), testItems())
	assert.ErrorIs(t, err, dbErr)
}

func TestChain_PrimaryFailureSkipsSecondaries(t *testing.T) {
	var secondaryCalls int
	primaryErr := errors.New("primary down")
	chain := NewChain(logger.NewNop(),
		stock.BatchSinkFunc(func(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
			return primaryErr
		}),
		stock.BatchSinkFunc(func(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
			secondaryCalls++
			return nil
		}),
	)

	err := chain.SaveBatch(context.Background(), testContext(), testItems())
	assert.ErrorIs(t, err, primaryErr)
	assert.Zero(t, secondaryCalls)
}

func TestChain_SecondaryFailureIsSwallowed(t *testing.T) {
	var calls []string
	record := func(name string, err error) stock.BatchSink {
		return stock.BatchSinkFunc(func(ctx context.Context, sc model.SupplierContext, items []model.StockItem) error {
			calls = append(calls, name)
			return err
		})
	}

	chain := NewChain(logger.NewNop(), record("primary", nil), record("events", errors.New("broker down")), nil, record("search", nil))

	require.NoError(t, chain.SaveBatch(context.Background(), testContext(), testItems()))
	assert.Equal(t, []string{"primary", "events", "search"}, calls)
}

func TestEventSink_PublishesDistinctPairs(t *testing.T) {
	pub := new(MockPublisher)
	var published []byte
	pub.On("Publish", mock.Anything, []byte("4042834000005"), mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).([]byte) }).
		Return(nil)

	s := NewEventSink(pub)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, s.SaveBatch(context.Background(), testContext(), testItems()))
	pub.AssertExpectations(t)

	var event StockBatchSavedEvent
	require.NoError(t, json.Unmarshal(published, &event))
	assert.Equal(t, EventStockBatchSaved, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), event.Timestamp)
	assert.Equal(t, 3, event.Payload.ItemCount)
	assert.Equal(t, int64(87), event.Payload.SupplierID)
	assert.Equal(t, []model.GtinSupplierPair{
		{GTIN: "1234567890001", SupplierGLN: "4042834000005"},
		{GTIN: "1234567890002", SupplierGLN: "4042834000005"},
	}, event.Payload.Pairs)
}

func TestEventSink_PublishError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no leader"))

	err := NewEventSink(pub).SaveBatch(context.Background(), testContext(), testItems())
	assert.EqualError(t, err, "no leader")
}

func TestSearchSink_IndexesDocuments(t *testing.T) {
	idx := new(MockIndexer)
	var docs []search.Document
	idx.On("CreateIndex", mock.Anything, DefaultStockIndex, stockIndexMapping).Return(nil).Once()
	idx.On("BulkIndex", mock.Anything, DefaultStockIndex, mock.Anything).
		Run(func(args mock.Arguments) { docs = args.Get(2).([]search.Document) }).
		Return(nil)

	s := NewSearchSink(idx, "")
	require.NoError(t, s.SaveBatch(context.Background(), testContext(), testItems()))
	require.NoError(t, s.SaveBatch(context.Background(), testContext(), testItems()))
	idx.AssertExpectations(t)
	idx.AssertNumberOfCalls(t, "CreateIndex", 1)

	require.Len(t, docs, 3)
	assert.Equal(t, "4042834000005:1234567890001", docs[0].ID)
	doc := docs[0].Source.(stockDocument)
	assert.Equal(t, "Green", *doc.StockTrafficLight)
	assert.Equal(t, "Pair", doc.ItemType)
	assert.Equal(t, "Josef Seibel", doc.SupplierName)
	assert.Nil(t, docs[1].Source.(stockDocument).StockTrafficLight)
}

func TestSearchSink_CreateIndexFailure(t *testing.T) {
	idx := new(MockIndexer)
	idx.On("CreateIndex", mock.Anything, "stock", mock.Anything).Return(errors.New("cluster red"))

	err := NewSearchSink(idx, "stock").SaveBatch(context.Background(), testContext(), testItems())
	assert.EqualError(t, err, "cluster red")
	idx.AssertNotCalled(t, "BulkIndex", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchSink_RetriesIndexCreationAfterFailure(t *testing.T) {
	idx := new(MockIndexer)
	idx.On("CreateIndex", mock.Anything, "stock", mock.Anything).Return(errors.New("timeout")).Once()
	idx.On("CreateIndex", mock.Anything, "stock", mock.Anything).Return(nil).Once()
	idx.On("BulkIndex", mock.Anything, "stock", mock.Anything).Return(nil)

	s := NewSearchSink(idx, "stock")
	assert.EqualError(t, s.SaveBatch(context.Background(), testContext(), testItems()), "timeout")
	require.NoError(t, s.SaveBatch(context.Background(), testContext(), testItems()))
	require.NoError(t, s.SaveBatch(context.Background(), testContext(), testItems()))

	idx.AssertNumberOfCalls(t, "CreateIndex", 2)
	idx.AssertNumberOfCalls(t, "BulkIndex", 2)
}
