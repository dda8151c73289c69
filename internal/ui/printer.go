package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/oshokin/diffbell/internal/domain/alert"
)

// timeLayout prefixes every printed line.
const timeLayout = "15:04:05"

// Printer writes one line per render event for terminals without the dashboard.
type Printer struct {
	out       io.Writer
	now       func() time.Time
	settings  Settings
	alarm     func(a ...any) string
	snooze    func(a ...any) string
	good      func(a ...any) string
	celebrate func(a ...any) string
	muted     func(a ...any) string
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer, settings Settings) *Printer {
	return &Printer{
		out:       out,
		now:       time.Now,
		settings:  settings,
		alarm:     color.New(color.FgHiRed, color.Bold).SprintFunc(),
		snooze:    color.New(color.FgHiBlue).SprintFunc(),
		good:      color.New(color.FgGreen).SprintFunc(),
		celebrate: color.New(color.FgHiMagenta, color.Bold).SprintFunc(),
		muted:     color.New(color.FgHiBlack).SprintFunc(),
	}
}

// Run prints events until the channel closes or ctx is done.
func (p *Printer) Run(ctx context.Context, events <-chan alert.RenderEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			if _, err := fmt.Fprintln(p.out, p.Line(event)); err != nil {
				return fmt.Errorf("print render event: %w", err)
			}
		}
	}
}

// Line formats a single event.
func (p *Printer) Line(event alert.RenderEvent) string {
	var (
		now    = p.now()
		sample = event.Sample
		line   = fmt.Sprintf("%s %s +%d -%d total %d/%d",
			p.muted(now.Format(timeLayout)),
			sample.ShortIdentity(),
			sample.Insertions,
			sample.Deletions,
			sample.Total,
			p.settings.Threshold,
		)
	)

	if sample.Committed() {
		line += " " + p.celebrate("COMMITTED")
	}

	remaining := event.State.SnoozeRemaining(now, p.settings.SnoozeLength)

	switch {
	case remaining > 0:
		line += " " + p.snooze(fmt.Sprintf("snoozing, %s left (since %s)",
			formatDuration(remaining),
			humanize.RelTime(event.State.SnoozedAt, now, "ago", "from now"),
		))
	case sample.Above(p.settings.Threshold):
		line += " " + p.alarm("TIME TO COMMIT")
	default:
		line += " " + p.good("ok")
	}

	return line
}
