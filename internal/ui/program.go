package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/diffbell/internal/domain/alert"
)

// Dashboard runs the terminal dashboard.
type Dashboard struct {
	model   *Model
	options []tea.ProgramOption
}

// NewDashboard creates a dashboard. Extra options are appended to the defaults.
func NewDashboard(submitter Submitter, settings Settings, options ...tea.ProgramOption) *Dashboard {
	return &Dashboard{
		model:   NewModel(submitter, settings),
		options: options,
	}
}

// Run shows events until the channel closes or ctx is done.
// OS signals are left to the caller so that they reach the coordinator.
func (d *Dashboard) Run(ctx context.Context, events <-chan alert.RenderEvent) error {
	options := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
		tea.WithContext(ctx),
	}, d.options...)

	program := tea.NewProgram(d.model, options...)

	go func() {
		for event := range events {
			program.Send(RenderMsg{Event: event})
		}

		program.Send(SourceClosedMsg{})
	}()

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("run dashboard: %w", err)
	}

	return d.model.Err()
}
