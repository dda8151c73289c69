package control

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
	snapshot "github.com/oshokin/diffbell/internal/repository/status"
	"github.com/oshokin/diffbell/internal/service/coordinator"
)

// ActorMetadataKey carries "user@host" of the caller for audit logs.
const ActorMetadataKey = "x-diffbell-actor"

// Coordinator abstracts the coordinator operations the transport depends on.
type Coordinator interface {
	Submit(cmd alert.Command) error
	State(ctx context.Context) (alert.State, error)
}

// Snapshots provides the latest rendered snapshot.
type Snapshots interface {
	Latest() (snapshot.Snapshot, bool)
}

// Server implements ControlServiceServer.
type Server struct {
	// coordinator receives commands and answers state queries.
	coordinator Coordinator
	// snapshots holds the latest sample.
	snapshots Snapshots
}

// NewServer wires the coordinator and snapshot store into a gRPC handler.
func NewServer(coordinator Coordinator, snapshots Snapshots) *Server {
	return &Server{
		coordinator: coordinator,
		snapshots:   snapshots,
	}
}

// GetStatus returns the latest sample with the live alert state.
// The live state includes snooze expirations that were never rendered.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	latest, ok := s.snapshots.Latest()
	if !ok {
		return nil, status.Error(codes.NotFound, "no sample yet")
	}

	state, err := s.coordinator.State(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	latest.Event.State = state

	return latest.ToStruct(), nil
}

// Snooze snoozes the alert.
func (s *Server) Snooze(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	logger.InfoKV(ctx, "Remote snooze requested", "actor", actor(ctx))

	if err := s.coordinator.Submit(alert.Snooze()); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// TestAlert rings a test alert.
func (s *Server) TestAlert(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	logger.InfoKV(ctx, "Remote test alert requested", "actor", actor(ctx))

	if err := s.coordinator.Submit(alert.ManualAlertTest()); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// toStatus maps coordinator errors to gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, coordinator.ErrStopped):
		return status.Error(codes.Unavailable, "watch is shutting down")
	case errors.Is(err, coordinator.ErrStalled):
		return status.Error(codes.ResourceExhausted, "watch is busy")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "unable to reach the coordinator")
	}
}

// actor returns the caller identity sent in metadata, or "unknown".
func actor(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "unknown"
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return "unknown"
	}

	return values[0]
}
