package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// gaugeOverflow is how far past the threshold the gauge extends.
	gaugeOverflow = 1.5

	gaugeFilled = "█"
	gaugeEmpty  = "░"
	gaugeMarker = "┃"
)

// RenderGauge draws total against threshold in width cells.
// The scale ends at 1.5 times the threshold and a marker shows the threshold.
// Cells past the marker turn from yellow to red.
func RenderGauge(total, threshold, width int) string {
	if width < 3 || threshold <= 0 {
		return ""
	}

	var (
		maxValue    = float64(threshold) * gaugeOverflow
		filled      = int(float64(width) * min(float64(total), maxValue) / maxValue)
		markerIndex = int(float64(width) / gaugeOverflow)
		b           strings.Builder
	)

	markerIndex = min(markerIndex, width-1)

	for i := range width {
		switch {
		case i == markerIndex:
			b.WriteString(markerStyle.Render(gaugeMarker))
		case i < filled:
			b.WriteString(lipgloss.NewStyle().Foreground(gaugeColor(i, markerIndex, width)).Render(gaugeFilled))
		default:
			b.WriteString(mutedStyle.Render(gaugeEmpty))
		}
	}

	return b.String()
}

// gaugeColor returns green before the marker and a yellow to red ramp after it.
func gaugeColor(index, markerIndex, width int) lipgloss.Color {
	if index < markerIndex {
		return colorGood
	}

	span := width - markerIndex
	if span <= 0 {
		return colorAlarm
	}

	position := float64(index-markerIndex) / float64(span)

	switch {
	case position < 1.0/3:
		return colorWarning
	case position < 2.0/3:
		return colorHot
	default:
		return colorAlarm
	}
}
