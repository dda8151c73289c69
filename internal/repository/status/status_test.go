package status

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/diffbell/internal/domain/alert"
)

// sampleSnapshot is a snoozed snapshot with every field populated.
func sampleSnapshot() Snapshot {
	return Snapshot{
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Threshold: 100,
		Event: alert.RenderEvent{
			Sample: alert.NewSample(120, 30, "c0ffee", "deadbeef"),
			State: alert.State{
				SnoozedAt: time.Date(2026, 3, 1, 11, 58, 0, 0, time.UTC),
				Snoozed:   true,
			},
		},
	}
}

// failingRepository always fails to save.
type failingRepository struct{}

// Load implements Repository.
func (failingRepository) Load(context.Context) (Snapshot, error) { return Snapshot{}, ErrNotFound }

// Save implements Repository.
func (failingRepository) Save(context.Context, Snapshot) error { return errors.New("disk full") }

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileRepository_SaveLoad ensures Save followed by Load returns the same snapshot.
func TestFileRepository_SaveLoad(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "status.json")
	repo := NewFileRepository(file)
	want := sampleSnapshot()

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want.Event.Sample, got.Event.Sample)
	require.Equal(t, want.Event.State.Snoozed, got.Event.State.Snoozed)
	require.True(t, want.Event.State.SnoozedAt.Equal(got.Event.State.SnoozedAt))
	require.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	require.Equal(t, 100, got.Threshold)

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"total"`)

	_, err = os.Stat(file + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFileRepository_Corrupt reports undecodable files.
func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

// TestFromStruct_Timestamps accepts missing timestamps and rejects malformed ones.
func TestFromStruct_Timestamps(t *testing.T) {
	t.Parallel()

	message := sampleSnapshot().ToStruct()
	message.Fields[FieldSnoozedAt] = nil

	_, err := FromStruct(message)
	require.NoError(t, err)

	message = sampleSnapshot().ToStruct()
	message.Fields[FieldUpdatedAt].Kind = nil

	_, err = FromStruct(message)
	require.NoError(t, err)

	bad := sampleSnapshot().ToStruct()
	bad.Fields[FieldSnoozedAt] = bad.Fields[FieldIdentity]

	_, err = FromStruct(bad)
	require.Error(t, err)
}

// TestStore_RunRecordsLatest mirrors every event and keeps the newest.
func TestStore_RunRecordsLatest(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "status.json")
	store := NewStore(100, NewFileRepository(file))

	_, ok := store.Latest()
	require.False(t, ok)

	events := make(chan alert.RenderEvent, 2)
	events <- alert.RenderEvent{Sample: alert.NewSample(1, 0, "c0ffee", "")}
	events <- alert.RenderEvent{Sample: alert.NewSample(2, 0, "c0ffee", ""), State: alert.State{Ringing: true}}
	close(events)

	require.NoError(t, store.Run(context.Background(), events))

	latest, ok := store.Latest()
	require.True(t, ok)
	require.Equal(t, 2, latest.Event.Sample.Total)
	require.False(t, latest.Event.State.Ringing, "ringing follows the supervisor, not the render")

	saved, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, saved.Event.Sample.Total)
}

// TestStore_MirrorFailureIsNotFatal keeps the in-memory snapshot when saving fails.
func TestStore_MirrorFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	store := NewStore(100, failingRepository{})
	store.Record(context.Background(), alert.RenderEvent{Sample: alert.NewSample(7, 0, "c0ffee", "")})

	latest, ok := store.Latest()
	require.True(t, ok)
	require.Equal(t, 7, latest.Event.Sample.Total)
}

// TestStore_RingingFollowsSupervisor keeps the status file ringing while samples stay the same.
func TestStore_RingingFollowsSupervisor(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			file   = filepath.Join(t.TempDir(), "status.json")
			repo   = NewFileRepository(file)
			store  = NewStore(100, repo)
			events = make(chan alert.RenderEvent)
			done   = make(chan error, 1)
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			done <- store.Run(ctx, events)
		}()

		// The render of a crossing sample still carries the old flag.
		events <- alert.RenderEvent{Sample: alert.NewSample(150, 0, "c0ffee", "")}
		synctest.Wait()

		latest, ok := store.Latest()
		require.True(t, ok)
		require.False(t, latest.Event.State.Ringing)

		// The decision starts the alert and identical samples render nothing more.
		store.ObserveCommand(alert.StartAlerting)
		synctest.Wait()

		latest, _ = store.Latest()
		require.True(t, latest.Event.State.Ringing)

		saved, err := repo.Load(ctx)
		require.NoError(t, err)
		require.True(t, saved.Event.State.Ringing)
		require.Equal(t, 150, saved.Event.Sample.Total)

		// Repeated starts do not rewrite anything; a stop does.
		store.ObserveCommand(alert.StartAlerting)
		store.ObserveCommand(alert.StopAlerting)
		synctest.Wait()

		saved, err = repo.Load(ctx)
		require.NoError(t, err)
		require.False(t, saved.Event.State.Ringing)

		cancel()
		require.NoError(t, <-done)
	})
}

// TestStore_ObserveBeforeFirstEvent stamps the first snapshot with the known flag.
func TestStore_ObserveBeforeFirstEvent(t *testing.T) {
	t.Parallel()

	store := NewStore(100, nil)
	store.ObserveCommand(alert.StartAlerting)
	store.Record(context.Background(), alert.RenderEvent{Sample: alert.NewSample(1, 0, "c0ffee", "")})

	latest, ok := store.Latest()
	require.True(t, ok)
	require.True(t, latest.Event.State.Ringing)
}
