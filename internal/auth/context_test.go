package auth

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-sync-service/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestGetRetailerGLN(t *testing.T) {
	fromValue := context.WithValue(context.Background(), middleware.RetailerGLNKey, "1111111111111")
	assert.Equal(t, "1111111111111", GetRetailerGLN(fromValue, "fallback"))

	fromMetadata := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-retailer-gln", "2222222222222"))
	assert.Equal(t, "2222222222222", GetRetailerGLN(fromMetadata, "fallback"))

	assert.Equal(t, "fallback", GetRetailerGLN(context.Background(), "fallback"))
}
