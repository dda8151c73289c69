//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/diffbell/internal/api/grpc/control"
	"github.com/oshokin/diffbell/internal/config"
	"github.com/oshokin/diffbell/internal/repository/status"
	"github.com/oshokin/diffbell/internal/version"
)

// Client talks to the remote control of a running watch.
type Client struct {
	// conn is the underlying gRPC connection.
	conn *grpc.ClientConn
	// actor is sent with every call, empty when unknown.
	actor string

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the caller identity to every call.
func WithActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = actor.String()
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial creates a client for the watch listening on address.
// The control plane binds to loopback by default, so the transport is insecure.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial watch: %w", err)
	}

	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetStatus retrieves the latest sample and the live alert state.
func (c *Client) GetStatus(ctx context.Context) (status.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, control.GetStatusMethod, new(emptypb.Empty), response); err != nil {
		return status.Snapshot{}, fmt.Errorf("get status: %w", err)
	}

	return status.FromStruct(response)
}

// Snooze snoozes the alert.
func (c *Client) Snooze(ctx context.Context) error {
	return c.invokeEmpty(ctx, control.SnoozeMethod, "snooze")
}

// TestAlert rings a test alert.
func (c *Client) TestAlert(ctx context.Context) error {
	return c.invokeEmpty(ctx, control.TestAlertMethod, "test alert")
}

func (c *Client) invokeEmpty(ctx context.Context, method, operation string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.conn.Invoke(callCtx, method, new(emptypb.Empty), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor is
// attached as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.actor != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, control.ActorMetadataKey, c.actor)
	}

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
