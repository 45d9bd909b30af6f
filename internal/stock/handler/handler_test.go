package handler

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeUseCase struct {
	stats      *dto.Statistics
	records    []model.StockRecord
	record     *model.StockRecord
	pairs      []model.GtinSupplierPair
	err        error
	lastSupCtx model.SupplierContext
}

func (f *fakeUseCase) SyncAll(ctx context.Context, suppliers []model.Supplier, opts dto.FetchOptions) (*dto.SyncSummary, error) {
	return nil, errors.New("not used")
}

func (f *fakeUseCase) GetSupplierStock(ctx context.Context, sc model.SupplierContext) ([]model.StockRecord, error) {
	f.lastSupCtx = sc
	return f.records, f.err
}

func (f *fakeUseCase) GetStockItem(ctx context.Context, gtin, supplierGLN string) (*model.StockRecord, error) {
	return f.record, f.err
}

func (f *fakeUseCase) IsSynced(ctx context.Context, gtin, supplierGLN string) (bool, error) {
	return f.record != nil, f.err
}

func (f *fakeUseCase) ListGtinSupplierPairs(ctx context.Context) ([]model.GtinSupplierPair, error) {
	return f.pairs, f.err
}

func (f *fakeUseCase) GetStatistics(ctx context.Context) (*dto.Statistics, error) {
	return f.stats, f.err
}

func dial(t *testing.T, uc *fakeUseCase) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.ContextInterceptor(),
		middleware.LoggingInterceptor(logger.NewNop()),
	))
	RegisterStockQueryServiceServer(srv, NewStockHandler(uc, model.Retailer{ID: "retailer-1", GLN: "4399902421386"}, logger.NewNop()))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func ptr[T any](v T) *T { return &v }

func TestStockHandler_GetStatistics(t *testing.T) {
	conn := dial(t, &fakeUseCase{stats: &dto.Statistics{GtinCount: 3, SupplierCount: 2, PairCount: 5, AveragePairsPerSupplier: 2.5}})

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), FullMethod("GetStatistics"), &emptypb.Empty{}, out))

	got := out.AsMap()
	assert.Equal(t, float64(3), got["gtin_count"])
	assert.Equal(t, float64(2), got["supplier_count"])
	assert.Equal(t, float64(5), got["pair_count"])
	assert.Equal(t, 2.5, got["average_pairs_per_supplier"])
}

func TestStockHandler_GetStatisticsError(t *testing.T) {
	conn := dial(t, &fakeUseCase{err: errors.New("db down")})

	err := conn.Invoke(context.Background(), FullMethod("GetStatistics"), &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestStockHandler_GetSupplierStock(t *testing.T) {
	uc := &fakeUseCase{records: []model.StockRecord{{
		ID:                1,
		RetailerGLN:       "4399902421386",
		SupplierID:        87,
		SupplierGLN:       "4042834000005",
		SupplierName:      ptr("Josef Seibel"),
		GTIN:              "1234567890001",
		Quantity:          ptr(10),
		StockTrafficLight: ptr("Green"),
		ItemType:          ptr("Pair"),
		StockTimestamp:    ptr(time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)),
		SyncedAt:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}}
	conn := dial(t, uc)

	req, err := structpb.NewStruct(map[string]interface{}{"supplier_gln": "4042834000005"})
	require.NoError(t, err)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-retailer-gln", "4000000000001")
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, FullMethod("GetSupplierStock"), req, out))

	got := out.AsMap()
	assert.Equal(t, float64(1), got["total"])
	assert.Equal(t, "4000000000001", got["retailer_gln"])
	assert.Equal(t, "4000000000001", uc.lastSupCtx.RetailerGLN)
	assert.Equal(t, "4042834000005", uc.lastSupCtx.SupplierGLN)

	items := got["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "1234567890001", item["gtin"])
	assert.Equal(t, float64(10), item["quantity"])
	assert.Equal(t, "Pair", item["item_type"])
	assert.Equal(t, "2023-01-01T10:00:00Z", item["stock_timestamp"])
}

func TestStockHandler_GetSupplierStockDefaultsRetailer(t *testing.T) {
	uc := &fakeUseCase{}
	conn := dial(t, uc)

	req, err := structpb.NewStruct(map[string]interface{}{"supplier_gln": "4042834000005"})
	require.NoError(t, err)
	require.NoError(t, conn.Invoke(context.Background(), FullMethod("GetSupplierStock"), req, new(structpb.Struct)))
	assert.Equal(t, "4399902421386", uc.lastSupCtx.RetailerGLN)
}

func TestStockHandler_GetSupplierStockRequiresGLN(t *testing.T) {
	conn := dial(t, &fakeUseCase{})

	err := conn.Invoke(context.Background(), FullMethod("GetSupplierStock"), &structpb.Struct{}, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStockHandler_GetStockItem(t *testing.T) {
	req, err := structpb.NewStruct(map[string]interface{}{"gtin": "1234567890001", "supplier_gln": "4042834000005"})
	require.NoError(t, err)

	conn := dial(t, &fakeUseCase{record: &model.StockRecord{GTIN: "1234567890001", SupplierGLN: "4042834000005"}})
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), FullMethod("GetStockItem"), req, out))
	assert.Equal(t, "1234567890001", out.AsMap()["gtin"])
	assert.Nil(t, out.AsMap()["quantity"])

	conn = dial(t, &fakeUseCase{})
	err = conn.Invoke(context.Background(), FullMethod("GetStockItem"), req, new(structpb.Struct))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestStockHandler_ListGtinSupplierPairs(t *testing.T) {
	conn := dial(t, &fakeUseCase{pairs: []model.GtinSupplierPair{
		{GTIN: "1234567890001", SupplierGLN: "4042834000005"},
		{GTIN: "1234567890002", SupplierGLN: "4042834000005"},
	}})

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), FullMethod("ListGtinSupplierPairs"), &emptypb.Empty{}, out))

	got := out.AsMap()
	assert.Equal(t, float64(2), got["total"])
	pairs := got["pairs"].([]interface{})
	assert.Equal(t, map[string]interface{}{"gtin": "1234567890002", "supplier_gln": "4042834000005"}, pairs[1])
}
