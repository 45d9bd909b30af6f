package auth

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync-service/pkg/middleware"
	"google.golang.org/grpc/metadata"
)

// GetRetailerGLN returns the retailer GLN the caller asked for, or fallback
// when the request did not carry one.
func GetRetailerGLN(ctx context.Context, fallback string) string {
	// Check if added to context by interceptor
	if val, ok := ctx.Value(middleware.RetailerGLNKey).(string); ok && val != "" {
		return val
	}

	// Fallback to metadata
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-retailer-gln"); len(val) > 0 && val[0] != "" {
			return val[0]
		}
	}
	return fallback
}
