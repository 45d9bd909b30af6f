package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/internal/auth"
	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type StockHandler struct {
	uc       stock.UseCase
	retailer model.Retailer
	logger   logger.ZapLogger
}

var _ StockQueryServiceServer = (*StockHandler)(nil)

func NewStockHandler(uc stock.UseCase, retailer model.Retailer, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:       uc,
		retailer: retailer,
		logger:   log,
	}
}

func (h *StockHandler) GetStatistics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	stats, err := h.uc.GetStatistics(ctx)
	if err != nil {
		h.logger.Error("Failed to get stock statistics", zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}

	return toStruct(map[string]interface{}{
		"gtin_count":                 stats.GtinCount,
		"supplier_count":             stats.SupplierCount,
		"pair_count":                 stats.PairCount,
		"average_pairs_per_supplier": stats.AveragePairsPerSupplier,
	})
}

func (h *StockHandler) GetSupplierStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	supplierGLN := stringParam(req, "supplier_gln")
	if supplierGLN == "" {
		return nil, status.Error(codes.InvalidArgument, "supplier_gln is required")
	}

	sc := model.SupplierContext{
		RetailerID:  h.retailer.ID,
		RetailerGLN: auth.GetRetailerGLN(ctx, h.retailer.GLN),
		SupplierGLN: supplierGLN,
	}
	records, err := h.uc.GetSupplierStock(ctx, sc)
	if err != nil {
		h.logger.Error("Failed to get supplier stock", zap.String("supplier_gln", supplierGLN), zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}

	items := make([]interface{}, len(records))
	for i := range records {
		items[i] = mapRecord(&records[i])
	}

	return toStruct(map[string]interface{}{
		"retailer_gln": sc.RetailerGLN,
		"supplier_gln": supplierGLN,
		"total":        len(records),
		"items":        items,
	})
}

func (h *StockHandler) GetStockItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	gtin := stringParam(req, "gtin")
	supplierGLN := stringParam(req, "supplier_gln")
	if gtin == "" || supplierGLN == "" {
		return nil, status.Error(codes.InvalidArgument, "gtin and supplier_gln are required")
	}

	rec, err := h.uc.GetStockItem(ctx, gtin, supplierGLN)
	if err != nil {
		h.logger.Error("Failed to get stock item", zap.String("gtin", gtin), zap.String("supplier_gln", supplierGLN), zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	if rec == nil {
		return nil, status.Errorf(codes.NotFound, "no stock for gtin %s at supplier %s", gtin, supplierGLN)
	}

	return toStruct(mapRecord(rec))
}

func (h *StockHandler) ListGtinSupplierPairs(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	pairs, err := h.uc.ListGtinSupplierPairs(ctx)
	if err != nil {
		h.logger.Error("Failed to list gtin supplier pairs", zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}

	items := make([]interface{}, len(pairs))
	for i, p := range pairs {
		items[i] = map[string]interface{}{
			"gtin":         p.GTIN,
			"supplier_gln": p.SupplierGLN,
		}
	}

	return toStruct(map[string]interface{}{
		"total": len(pairs),
		"pairs": items,
	})
}

func stringParam(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[key].GetStringValue()
}

func toStruct(m map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

func mapRecord(r *model.StockRecord) map[string]interface{} {
	m := map[string]interface{}{
		"id":                  r.ID,
		"retailer_id":         r.RetailerID,
		"retailer_gln":        r.RetailerGLN,
		"supplier_id":         r.SupplierID,
		"supplier_gln":        r.SupplierGLN,
		"supplier_name":       nil,
		"gtin":                r.GTIN,
		"quantity":            nil,
		"stock_traffic_light": nil,
		"item_type":           nil,
		"stock_timestamp":     nil,
		"synced_at":           r.SyncedAt.UTC().Format(time.RFC3339),
	}
	if r.SupplierName != nil {
		m["supplier_name"] = *r.SupplierName
	}
	if r.Quantity != nil {
		m["quantity"] = *r.Quantity
	}
	if r.StockTrafficLight != nil {
		m["stock_traffic_light"] = *r.StockTrafficLight
	}
	if r.ItemType != nil {
		m["item_type"] = *r.ItemType
	}
	if r.StockTimestamp != nil {
		m["stock_timestamp"] = r.StockTimestamp.UTC().Format(time.RFC3339)
	}
	return m
}
