package ui

import (
	"github.com/guptarohit/asciigraph"
)

const (
	// historyCapacity is the number of totals kept for the graph.
	historyCapacity = 120

	// historyHeight is the graph height in lines.
	historyHeight = 6
)

// History keeps the most recent totals.
type History struct {
	values []float64
}

// Add appends total, dropping the oldest value past capacity.
func (h *History) Add(total int) {
	h.values = append(h.values, float64(total))

	if len(h.values) > historyCapacity {
		h.values = h.values[len(h.values)-historyCapacity:]
	}
}

// Len returns the number of recorded totals.
func (h *History) Len() int {
	return len(h.values)
}

// Render plots the totals with the threshold as a second series.
// It returns an empty string until two totals are known.
func (h *History) Render(threshold, width int) string {
	if len(h.values) < 2 || width < 10 {
		return ""
	}

	line := make([]float64, len(h.values))
	for i := range line {
		line[i] = float64(threshold)
	}

	return asciigraph.PlotMany(
		[][]float64{h.values, line},
		asciigraph.Height(historyHeight),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption("changed lines"),
	)
}
