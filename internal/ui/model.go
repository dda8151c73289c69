package ui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/service/coordinator"
)

const (
	// tickInterval refreshes the snooze countdown.
	tickInterval = time.Second

	// defaultWidth is used until the terminal reports its size.
	defaultWidth = 60
)

// Submitter accepts commands for the coordinator.
type Submitter interface {
	Submit(cmd alert.Command) error
}

// Settings holds the values shown next to the samples.
type Settings struct {
	Threshold    int
	Interval     time.Duration
	SnoozeLength time.Duration
}

// Model is the dashboard state. It never mutates alert state itself:
// key presses become commands and the view follows render events.
type Model struct {
	submitter Submitter
	now       func() time.Time
	err       error
	keys      KeyMap
	help      help.Model
	history   History
	event     alert.RenderEvent
	settings  Settings
	width     int
	height    int
	hasSample bool
}

// NewModel creates a dashboard model that submits to submitter.
func NewModel(submitter Submitter, settings Settings) *Model {
	return &Model{
		submitter: submitter,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		settings:  settings,
	}
}

// Err returns the error that stopped the dashboard, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		return m, m.submit(alert.Redraw())
	case RenderMsg:
		m.render(msg.Event)

		return m, nil
	case SourceClosedMsg:
		return m, tea.Quit
	case tickMsg:
		return m, tick()
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Snooze):
		return m.submit(alert.Snooze())
	case key.Matches(msg, m.keys.Bell):
		return m.submit(alert.ManualAlertTest())
	case key.Matches(msg, m.keys.Redraw):
		return m.submit(alert.Redraw())
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Quit):
		// The program exits once the coordinator closes the render stream.
		return m.submit(alert.Quit())
	}

	return nil
}

// submit forwards cmd and stops the program when the coordinator cannot take it.
func (m *Model) submit(cmd alert.Command) tea.Cmd {
	err := m.submitter.Submit(cmd)
	if err == nil {
		return nil
	}

	if !errors.Is(err, coordinator.ErrStopped) {
		m.err = err
	}

	return tea.Quit
}

func (m *Model) render(event alert.RenderEvent) {
	if !m.hasSample || alert.MateriallyDifferent(&m.event.Sample, event.Sample) {
		m.history.Add(event.Sample.Total)
	}

	m.event = event
	m.hasSample = true
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}

	return m.width
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
