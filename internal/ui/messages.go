package ui

import (
	"time"

	"github.com/oshokin/diffbell/internal/domain/alert"
)

// RenderMsg carries a render event from the coordinator to the model.
type RenderMsg struct {
	Event alert.RenderEvent
}

// SourceClosedMsg reports that no more render events will arrive.
type SourceClosedMsg struct{}

// tickMsg refreshes time dependent parts of the view.
type tickMsg time.Time
