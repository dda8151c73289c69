package ui

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/service/coordinator"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type recordingSubmitter struct {
	err      error
	commands []alert.Command
	mu       sync.Mutex
}

func (s *recordingSubmitter) Submit(cmd alert.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, cmd)

	return s.err
}

func (s *recordingSubmitter) kinds() []alert.CommandKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make([]alert.CommandKind, 0, len(s.commands))
	for _, cmd := range s.commands {
		kinds = append(kinds, cmd.Kind)
	}

	return kinds
}

func newTestModel(submitter Submitter) *Model {
	m := NewModel(submitter, Settings{
		Threshold:    100,
		Interval:     10 * time.Second,
		SnoozeLength: 5 * time.Minute,
	})
	m.now = func() time.Time { return testNow }

	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()

	if cmd == nil {
		return false
	}

	_, ok := cmd().(tea.QuitMsg)

	return ok
}

func TestModel_KeysSubmitCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  tea.KeyMsg
		want alert.CommandKind
	}{
		{name: "space snoozes", key: tea.KeyMsg{Type: tea.KeySpace}, want: alert.CommandSnooze},
		{name: "b tests the bell", key: runeKey('b'), want: alert.CommandManualAlertTest},
		{name: "r redraws", key: runeKey('r'), want: alert.CommandRedraw},
		{name: "q quits", key: runeKey('q'), want: alert.CommandQuit},
		{name: "ctrl+c quits", key: tea.KeyMsg{Type: tea.KeyCtrlC}, want: alert.CommandQuit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			submitter := &recordingSubmitter{}
			m := newTestModel(submitter)

			_, cmd := m.Update(tt.key)

			require.False(t, isQuit(t, cmd), "the program waits for the render stream to close")
			require.Equal(t, []alert.CommandKind{tt.want}, submitter.kinds())
		})
	}
}

func TestModel_HelpToggle(t *testing.T) {
	t.Parallel()

	submitter := &recordingSubmitter{}
	m := newTestModel(submitter)

	_, cmd := m.Update(runeKey('?'))

	require.Nil(t, cmd)
	require.True(t, m.help.ShowAll)
	require.Empty(t, submitter.kinds())
}

func TestModel_ResizeRedraws(t *testing.T) {
	t.Parallel()

	submitter := &recordingSubmitter{}
	m := newTestModel(submitter)

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	require.Nil(t, cmd)
	require.Equal(t, 100, m.width)
	require.Equal(t, []alert.CommandKind{alert.CommandRedraw}, submitter.kinds())
}

func TestModel_SubmitFailureQuits(t *testing.T) {
	t.Parallel()

	t.Run("stalled coordinator is an error", func(t *testing.T) {
		t.Parallel()

		m := newTestModel(&recordingSubmitter{err: coordinator.ErrStalled})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})

		require.True(t, isQuit(t, cmd))
		require.ErrorIs(t, m.Err(), coordinator.ErrStalled)
		require.Contains(t, m.View(), "Error:")
	})

	t.Run("stopped coordinator is a clean exit", func(t *testing.T) {
		t.Parallel()

		m := newTestModel(&recordingSubmitter{err: coordinator.ErrStopped})

		_, cmd := m.Update(runeKey('q'))

		require.True(t, isQuit(t, cmd))
		require.NoError(t, m.Err())
	})

	t.Run("any other error is kept", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		m := newTestModel(&recordingSubmitter{err: boom})

		_, cmd := m.Update(runeKey('b'))

		require.True(t, isQuit(t, cmd))
		require.ErrorIs(t, m.Err(), boom)
	})
}

func TestModel_SourceClosedQuits(t *testing.T) {
	t.Parallel()

	m := newTestModel(&recordingSubmitter{})

	_, cmd := m.Update(SourceClosedMsg{})

	require.True(t, isQuit(t, cmd))
}

func TestModel_View(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   *alert.RenderEvent
		want    []string
		notWant []string
	}{
		{
			name: "before the first sample",
			want: []string{"DIFFBELL", "Watching for changes..."},
		},
		{
			name: "below threshold",
			event: &alert.RenderEvent{
				Sample: alert.NewSample(12, 3, "0123456789abcdef", "0123456789abcdef"),
			},
			want:    []string{"DIFFBELL @ 0123456", "STATUS", "+12", "-3", "15 / 100", "10s", "Keep up the good work!"},
			notWant: []string{"TIME TO COMMIT", "COMMITTED", "Snoozing"},
		},
		{
			name: "above threshold",
			event: &alert.RenderEvent{
				Sample: alert.NewSample(90, 30, "abc", "abc"),
				State:  alert.State{Ringing: true},
			},
			want:    []string{"!!! TIME TO COMMIT !!!", "Press space to snooze for 5 minutes", "120 / 100"},
			notWant: []string{"Keep up the good work!"},
		},
		{
			name: "snoozed",
			event: &alert.RenderEvent{
				Sample: alert.NewSample(90, 30, "abc", "abc"),
				State:  alert.State{Snoozed: true, SnoozedAt: testNow.Add(-2 * time.Minute)},
			},
			want:    []string{"!!! Snoozing !!!", "Just 3 more minutes...", "snoozed 2 minutes ago"},
			notWant: []string{"TIME TO COMMIT"},
		},
		{
			name: "expired snooze falls back to the threshold message",
			event: &alert.RenderEvent{
				Sample: alert.NewSample(90, 30, "abc", "abc"),
				State:  alert.State{Snoozed: true, SnoozedAt: testNow.Add(-10 * time.Minute)},
			},
			want:    []string{"!!! TIME TO COMMIT !!!"},
			notWant: []string{"Snoozing"},
		},
		{
			name: "committed",
			event: &alert.RenderEvent{
				Sample: alert.NewSample(0, 0, "def", "abc"),
			},
			want: []string{"COMMITTED", "Keep up the good work!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newTestModel(&recordingSubmitter{})
			if tt.event != nil {
				m.Update(RenderMsg{Event: *tt.event})
			}

			view := m.View()

			for _, want := range tt.want {
				require.Contains(t, view, want)
			}

			for _, notWant := range tt.notWant {
				require.NotContains(t, view, notWant)
			}
		})
	}
}

func TestModel_HistorySkipsRedraws(t *testing.T) {
	t.Parallel()

	m := newTestModel(&recordingSubmitter{})

	first := alert.RenderEvent{Sample: alert.NewSample(10, 0, "abc", "")}
	second := alert.RenderEvent{Sample: alert.NewSample(20, 5, "abc", "abc")}

	m.Update(RenderMsg{Event: first})
	m.Update(RenderMsg{Event: first})
	m.Update(RenderMsg{Event: second})
	m.Update(RenderMsg{Event: alert.RenderEvent{Sample: second.Sample, State: alert.State{Snoozed: true}}})

	require.Equal(t, 2, m.history.Len())
	require.Contains(t, m.View(), "changed lines")
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 5 * time.Minute, want: "5 minutes"},
		{in: 4*time.Minute + time.Second, want: "5 minutes"},
		{in: time.Minute, want: "1 minute"},
		{in: 30 * time.Second, want: "30 seconds"},
		{in: 500 * time.Millisecond, want: "1 second"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, formatDuration(tt.in), tt.in.String())
	}
}
