package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
	"github.com/oshokin/diffbell/internal/repository/status"
)

// Transition kinds.
const (
	KindThresholdExceeded = "threshold_exceeded"
	KindThresholdCleared  = "threshold_cleared"
	KindSnoozed           = "snoozed"
	KindCommitted         = "committed"
)

// Extra fields added to the status fields.
const (
	FieldKind    = "kind"
	FieldSession = "session"
)

const (
	maxReconnects = 10
	reconnectWait = 2 * time.Second
)

// Publisher sends raw messages. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier turns render events into transition messages.
type Notifier struct {
	// publisher sends messages.
	publisher Publisher
	// previous is the last event seen, nil before the first one.
	previous *alert.RenderEvent
	// now returns the current time.
	now func() time.Time
	// subject is the NATS subject.
	subject string
	// session identifies this run.
	session string
	// threshold decides crossings.
	threshold int
}

// Connect dials NATS with reconnect handling.
func Connect(ctx context.Context, url string) (*nats.Conn, error) {
	ctx = logger.WithName(ctx, "notify")

	conn, err := nats.Connect(url,
		nats.Name("diffbell"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WarnKV(ctx, "NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.InfoKV(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	logger.InfoKV(ctx, "Connected to NATS", "url", url)

	return conn, nil
}

// New creates a Notifier. An empty session gets a random one.
func New(publisher Publisher, subject, session string, threshold int) *Notifier {
	if session == "" {
		session = uuid.NewString()
	}

	return &Notifier{
		publisher: publisher,
		now:       time.Now,
		subject:   subject,
		session:   session,
		threshold: threshold,
	}
}

// Session returns the session id stamped on messages.
func (n *Notifier) Session() string {
	return n.session
}

// Run publishes transitions until the channel is closed or ctx is done.
// Publishing failures are logged; NATS buffers while reconnecting.
func (n *Notifier) Run(ctx context.Context, events <-chan alert.RenderEvent) error {
	ctx = logger.WithKV(logger.WithName(ctx, "notify"), "session", n.session)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			for _, kind := range n.Transitions(event) {
				if err := n.publish(kind, event); err != nil {
					logger.ErrorKV(ctx, "Failed to publish transition", "kind", kind, "error", err)
				}
			}
		}
	}
}

// Transitions returns the transition kinds event represents and remembers it.
func (n *Notifier) Transitions(event alert.RenderEvent) []string {
	var (
		kinds    []string
		previous = n.previous
		above    = event.Sample.Above(n.threshold)
	)

	n.previous = &event

	wasAbove := previous != nil && previous.Sample.Above(n.threshold)
	wasSnoozed := previous != nil && previous.State.Snoozed

	switch {
	case above && !wasAbove:
		kinds = append(kinds, KindThresholdExceeded)
	case !above && wasAbove:
		kinds = append(kinds, KindThresholdCleared)
	}

	if event.State.Snoozed && !wasSnoozed {
		kinds = append(kinds, KindSnoozed)
	}

	if event.Sample.Committed() && (previous == nil || previous.Sample.Identity != event.Sample.Identity) {
		kinds = append(kinds, KindCommitted)
	}

	return kinds
}

func (n *Notifier) publish(kind string, event alert.RenderEvent) error {
	message := status.Snapshot{
		UpdatedAt: n.now(),
		Event:     event,
		Threshold: n.threshold,
	}.ToStruct()

	message.Fields[FieldKind] = structpb.NewStringValue(kind)
	message.Fields[FieldSession] = structpb.NewStringValue(n.session)

	data, err := protojson.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode transition: %w", err)
	}

	if err = n.publisher.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish transition: %w", err)
	}

	return nil
}
