package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
	"github.com/oshokin/diffbell/internal/service/fanout"
)

const (
	namespace = "diffbell"

	// shutdownTimeout bounds the graceful stop of the HTTP server.
	shutdownTimeout = 5 * time.Second

	// readHeaderTimeout guards the scrape endpoint against slow clients.
	readHeaderTimeout = 5 * time.Second
)

// Metrics bundles the collectors.
type Metrics struct {
	PollsTotal         *prometheus.CounterVec
	ChangedLines       *prometheus.GaugeVec
	Threshold          prometheus.Gauge
	Ringing            prometheus.Gauge
	Snoozed            prometheus.Gauge
	Commits            prometheus.Counter
	SupervisorCommands *prometheus.CounterVec
	RenderEvents       prometheus.Counter
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry, threshold int) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Total number of working tree samples by result.",
		}, []string{"result"}),
		ChangedLines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "changed_lines",
			Help:      "Uncommitted changed lines in the last rendered sample.",
		}, []string{"kind"}),
		Threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold_lines",
			Help:      "Configured alert threshold.",
		}),
		Ringing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ringing",
			Help:      "1 while the alert is ringing.",
		}),
		Snoozed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snoozed",
			Help:      "1 while the alert is snoozed, as of the last render.",
		}),
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Total number of commits observed.",
		}),
		SupervisorCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supervisor_commands_total",
			Help:      "Total number of commands applied by the alert supervisor.",
		}, []string{"command"}),
		RenderEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_events_total",
			Help:      "Total number of render events received.",
		}),
	}

	registry.MustRegister(
		m.PollsTotal,
		m.ChangedLines,
		m.Threshold,
		m.Ringing,
		m.Snoozed,
		m.Commits,
		m.SupervisorCommands,
		m.RenderEvents,
	)

	m.Threshold.Set(float64(threshold))

	return m
}

// RegisterHub exposes the render hub drop counter.
func RegisterHub(registry *prometheus.Registry, hub *fanout.Hub) {
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "render_dropped_total",
		Help:      "Total number of render events discarded for slow displays.",
	}, func() float64 {
		var dropped uint64
		for _, s := range hub.Stats().Subscribers {
			dropped += s.Dropped
		}

		return float64(dropped)
	}))
}

// ObservePoll records one poll outcome.
func (m *Metrics) ObservePoll(sample alert.MetricSample, err error) {
	if err != nil {
		m.PollsTotal.WithLabelValues("error").Inc()
		return
	}

	m.PollsTotal.WithLabelValues("ok").Inc()

	if sample.Committed() {
		m.Commits.Inc()
	}
}

// ObserveCommand records one supervisor command and the device state it leaves.
func (m *Metrics) ObserveCommand(command alert.SupervisorCommand) {
	m.SupervisorCommands.WithLabelValues(command.String()).Inc()
	m.Ringing.Set(boolToFloat(command == alert.StartAlerting))
}

// Record updates the gauges from a render event.
// Ringing is left to ObserveCommand, a render precedes the alert decision.
func (m *Metrics) Record(event alert.RenderEvent) {
	m.RenderEvents.Inc()
	m.ChangedLines.WithLabelValues("insertions").Set(float64(event.Sample.Insertions))
	m.ChangedLines.WithLabelValues("deletions").Set(float64(event.Sample.Deletions))
	m.ChangedLines.WithLabelValues("total").Set(float64(event.Sample.Total))
	m.Snoozed.Set(boolToFloat(event.State.Snoozed))
}

// Run records events until the channel is closed or ctx is done.
func (m *Metrics) Run(ctx context.Context, events <-chan alert.RenderEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			m.Record(event)
		}
	}
}

// Serve exposes registry on /metrics at address until ctx is canceled.
func Serve(ctx context.Context, address string, registry *prometheus.Registry) error {
	ctx = logger.WithName(ctx, "metrics")

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.WarnKV(ctx, "Metrics server shutdown failed", "error", shutdownErr)
		}
	}()

	logger.InfoKV(ctx, "Metrics listening", "listen_address", lis.Addr().String())

	if err = server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	<-done

	return nil
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}

	return 0
}
