package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.stocksync.v1.StockQueryService"

// StockQueryServiceServer is served over well-known protobuf types so the
// service needs no generated stubs.
type StockQueryServiceServer interface {
	GetStatistics(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetSupplierStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStockItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGtinSupplierPairs(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterStockQueryServiceServer(s grpc.ServiceRegistrar, srv StockQueryServiceServer) {
	s.RegisterService(&StockQueryServiceDesc, srv)
}

var StockQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StockQueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatistics", Handler: emptyHandler("GetStatistics", StockQueryServiceServer.GetStatistics)},
		{MethodName: "GetSupplierStock", Handler: structHandler("GetSupplierStock", StockQueryServiceServer.GetSupplierStock)},
		{MethodName: "GetStockItem", Handler: structHandler("GetStockItem", StockQueryServiceServer.GetStockItem)},
		{MethodName: "ListGtinSupplierPairs", Handler: emptyHandler("ListGtinSupplierPairs", StockQueryServiceServer.ListGtinSupplierPairs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/stocksync/v1/stock_query.proto",
}

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func emptyHandler(method string, call func(StockQueryServiceServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StockQueryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StockQueryServiceServer), ctx, req.(*emptypb.Empty))
		})
	}
}

func structHandler(method string, call func(StockQueryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StockQueryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StockQueryServiceServer), ctx, req.(*structpb.Struct))
		})
	}
}
