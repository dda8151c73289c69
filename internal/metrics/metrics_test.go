package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/service/fanout"
)

// TestMetrics_Observers checks every observer updates its collector.
func TestMetrics_Observers(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry(), 100)
	require.InDelta(t, 100, testutil.ToFloat64(m.Threshold), 0)

	m.ObservePoll(alert.NewSample(1, 2, "bbb", "aaa"), nil)
	m.ObservePoll(alert.MetricSample{}, errors.New("git exploded"))

	require.InDelta(t, 1, testutil.ToFloat64(m.PollsTotal.WithLabelValues("ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.PollsTotal.WithLabelValues("error")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Commits), 0)

	m.ObserveCommand(alert.StartAlerting)
	m.ObserveCommand(alert.StartAlerting)
	require.InDelta(t, 2, testutil.ToFloat64(m.SupervisorCommands.WithLabelValues("start_alerting")), 0)

	events := make(chan alert.RenderEvent, 1)
	events <- alert.RenderEvent{Sample: alert.NewSample(120, 30, "c0ffee", ""), State: alert.State{Ringing: true}}
	close(events)

	require.NoError(t, m.Run(context.Background(), events))
	require.InDelta(t, 150, testutil.ToFloat64(m.ChangedLines.WithLabelValues("total")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Ringing), 0)
	require.InDelta(t, 0, testutil.ToFloat64(m.Snoozed), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.RenderEvents), 0)
}

// TestMetrics_RingingFollowsCommands keeps the gauge up while identical samples render stale states.
func TestMetrics_RingingFollowsCommands(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry(), 100)
	stale := alert.RenderEvent{Sample: alert.NewSample(150, 0, "c0ffee", "")}

	// The crossing render is published before the supervisor starts.
	m.Record(stale)
	require.InDelta(t, 0, testutil.ToFloat64(m.Ringing), 0)

	m.ObserveCommand(alert.StartAlerting)

	for range 3 {
		m.Record(stale)
		require.InDelta(t, 1, testutil.ToFloat64(m.Ringing), 0)
	}

	m.ObserveCommand(alert.StopAlerting)
	m.Record(alert.RenderEvent{Sample: alert.NewSample(150, 0, "c0ffee", ""), State: alert.State{Ringing: true}})
	require.InDelta(t, 0, testutil.ToFloat64(m.Ringing), 0)
}

// TestRegisterHub reads drops from the hub on scrape.
func TestRegisterHub(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	hub := fanout.New()

	_, err := hub.Subscribe("slow", 1)
	require.NoError(t, err)

	RegisterHub(registry, hub)

	hub.Publish(alert.RenderEvent{})
	hub.Publish(alert.RenderEvent{})
	hub.Publish(alert.RenderEvent{})

	count, err := testutil.GatherAndCount(registry, "diffbell_render_dropped_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	expected := `
# HELP diffbell_render_dropped_total Total number of render events discarded for slow displays.
# TYPE diffbell_render_dropped_total counter
diffbell_render_dropped_total 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "diffbell_render_dropped_total"))
}

// TestServe exposes /metrics and stops with the context.
func TestServe(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	address := l.Addr().String()
	require.NoError(t, l.Close())

	registry := prometheus.NewRegistry()
	New(registry, 42)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Serve(ctx, address, registry)
	}()

	var body string

	require.Eventually(t, func() bool {
		request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+address+"/metrics", nil)
		if requestErr != nil {
			return false
		}

		response, getErr := http.DefaultClient.Do(request)
		if getErr != nil {
			return false
		}

		defer response.Body.Close()

		data, readErr := io.ReadAll(response.Body)
		if readErr != nil {
			return false
		}

		body = string(data)

		return response.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.Contains(t, body, "diffbell_threshold_lines 42")

	cancel()
	require.NoError(t, <-done)
}
