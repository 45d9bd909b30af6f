package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/omnipos.stocksync.v1.StockQueryService/GetStatistics"}

func TestContextInterceptor_PromotesRetailerGLN(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-retailer-gln", "4399902421386"))

	var got interface{}
	_, err := ContextInterceptor()(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		got = ctx.Value(RetailerGLNKey)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "4399902421386", got)
}

func TestContextInterceptor_WithoutMetadata(t *testing.T) {
	var got interface{}
	_, err := ContextInterceptor()(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		got = ctx.Value(RetailerGLNKey)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	wantErr := errors.New("boom")
	resp, err := LoggingInterceptor(logger.NewNop())(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "resp", wantErr
	})
	assert.Equal(t, "resp", resp)
	assert.ErrorIs(t, err, wantErr)
}
