package control

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"github.com/oshokin/diffbell/internal/logger"
)

// NewGRPCServer creates a grpc.Server with the control service and rate limiting.
func NewGRPCServer(srv ControlServiceServer, limiter *rate.Limiter) *grpc.Server {
	if limiter == nil {
		limiter = rate.NewLimiter(DefaultRate, DefaultBurst)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(RateLimit(limiter)))
	RegisterControlServiceServer(grpcServer, srv)

	return grpcServer
}

// Serve serves on lis until ctx is canceled, then stops gracefully.
func Serve(ctx context.Context, lis net.Listener, grpcServer *grpc.Server) error {
	ctx = logger.WithName(ctx, "control")

	logger.InfoKV(ctx, "Remote control listening", "listen_address", lis.Addr().String())

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Debug(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Debug(ctx, "GRPC server stopped")

	return nil
}
