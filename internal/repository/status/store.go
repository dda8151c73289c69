package status

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
)

// Store keeps the latest snapshot.
//
// The ringing flag follows the commands applied by the alert supervisor,
// because a render event carries the state from before the alert decision.
type Store struct {
	// repo mirrors snapshots, nil keeps them in memory only.
	repo Repository
	// latest is nil until the first event.
	latest atomic.Pointer[Snapshot]
	// ringing is true while the supervisor runs an alert loop.
	ringing atomic.Bool
	// changed wakes Run when ringing flips.
	changed chan struct{}
	// now returns the current time.
	now func() time.Time
	// threshold stamps every snapshot.
	threshold int
}

// NewStore creates a Store. repo may be nil.
func NewStore(threshold int, repo Repository) *Store {
	return &Store{
		repo:      repo,
		changed:   make(chan struct{}, 1),
		now:       time.Now,
		threshold: threshold,
	}
}

// Latest returns the newest snapshot and whether one exists.
func (s *Store) Latest() (Snapshot, bool) {
	snapshot := s.latest.Load()
	if snapshot == nil {
		return Snapshot{}, false
	}

	return *snapshot, true
}

// ObserveCommand tracks the alert device. It never blocks.
func (s *Store) ObserveCommand(command alert.SupervisorCommand) {
	ringing := command == alert.StartAlerting

	if s.ringing.Swap(ringing) == ringing {
		return
	}

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Record stores event as the newest snapshot and mirrors it.
// Mirroring failures are logged and do not stop the store.
func (s *Store) Record(ctx context.Context, event alert.RenderEvent) {
	event.State.Ringing = s.ringing.Load()

	snapshot := Snapshot{
		UpdatedAt: s.now(),
		Event:     event,
		Threshold: s.threshold,
	}

	s.latest.Store(&snapshot)

	if s.repo == nil {
		return
	}

	if err := s.repo.Save(ctx, snapshot); err != nil {
		logger.ErrorKV(ctx, "Failed to write status file", "error", err)
	}
}

// Run records events until the channel is closed or ctx is done.
func (s *Store) Run(ctx context.Context, events <-chan alert.RenderEvent) error {
	ctx = logger.WithName(ctx, "status")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			s.Record(ctx, event)
		case <-s.changed:
			// Rewrite the last snapshot with the new ringing flag.
			if latest, ok := s.Latest(); ok {
				s.Record(ctx, latest.Event)
			}
		}
	}
}
