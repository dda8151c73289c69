package control

import (
	"context"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/diffbell/internal/logger"
)

const (
	// DefaultRate is the sustained number of calls per second.
	DefaultRate = 5
	// DefaultBurst is the number of calls allowed at once.
	DefaultBurst = 10
)

// RateLimit rejects calls beyond the limiter budget with ResourceExhausted.
func RateLimit(limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.Allow() {
			logger.WarnKV(ctx, "Control call rate limited", "method", info.FullMethod)

			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(ctx, req)
	}
}
