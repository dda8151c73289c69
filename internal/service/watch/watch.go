package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/diffbell/internal/api/grpc/control"
	"github.com/oshokin/diffbell/internal/config"
	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
	"github.com/oshokin/diffbell/internal/metrics"
	"github.com/oshokin/diffbell/internal/notify"
	"github.com/oshokin/diffbell/internal/repository/gitdiff"
	"github.com/oshokin/diffbell/internal/repository/status"
	"github.com/oshokin/diffbell/internal/service/coordinator"
	"github.com/oshokin/diffbell/internal/service/fanout"
	"github.com/oshokin/diffbell/internal/service/instance"
	"github.com/oshokin/diffbell/internal/service/poller"
	"github.com/oshokin/diffbell/internal/service/signals"
	"github.com/oshokin/diffbell/internal/service/sound"
	"github.com/oshokin/diffbell/internal/service/supervisor"
	"github.com/oshokin/diffbell/internal/ui"
)

// ErrFault marks failures that end the run with exit code 1.
var ErrFault = errors.New("internal fault")

// TerminatedError reports a run that ended because of an OS signal.
type TerminatedError struct {
	Signal os.Signal
}

// Error implements error.
func (e *TerminatedError) Error() string {
	return "terminated by signal " + e.Signal.String()
}

// ExitCode returns 128 plus the signal number.
func (e *TerminatedError) ExitCode() int {
	return signals.ExitCode(e.Signal)
}

// Options controls a single run.
type Options struct {
	// Output receives headless lines, os.Stdout when nil.
	Output io.Writer
	// Source replaces the git metric source.
	Source poller.Source
	// Effect replaces the sound player.
	Effect supervisor.Effect
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level.
	LogLevel string
	// Interval overrides the configured sampling interval.
	Interval time.Duration
	// Threshold overrides the configured threshold.
	Threshold int
	// Headless prints lines instead of running the dashboard.
	Headless bool
}

// runner holds everything built from the settings.
type runner struct {
	settings    *config.Config
	options     *Options
	coordinator *coordinator.Coordinator
	hub         *fanout.Hub
	store       *status.Store
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	publisher   *notify.Notifier
	session     string
	closers     []func()
	result      coordinator.Result
	resultMu    sync.Mutex
}

// Run watches the configured repository until the user quits, a signal
// arrives or ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	// Load settings first, flags override the file.
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	// The dashboard owns the terminal, so logs go to a file.
	if !opts.Headless {
		closer, err := logger.SetupFile(settings.LogPath())
		if err != nil {
			return fmt.Errorf("set up log file: %w", err)
		}

		defer func() {
			_ = closer.Close()
		}()
	}

	// Apply log level from settings.
	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	r := &runner{
		settings: settings,
		options:  opts,
		session:  uuid.NewString(),
	}

	// Set context with logger name and session for tracking.
	ctx = logger.WithName(ctx, "diffbell")
	ctx = logger.WithKV(ctx, "session", r.session)

	defer r.close()

	if err = r.build(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Watching repository",
		"repository", settings.Repository,
		"threshold", settings.Threshold,
		"interval", settings.Interval,
		"snooze_length", settings.SnoozeLength,
	)

	// Block until the coordinator quits and every task returns.
	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Run failed", "error", err)

		return err
	}

	// A termination signal maps to its own exit code.
	if r.result.Signal != nil {
		return &TerminatedError{Signal: r.result.Signal}
	}

	return nil
}

func loadSettings(opts *Options) (*config.Config, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.Threshold > 0 {
		settings.Threshold = opts.Threshold
	}

	if opts.Interval > 0 {
		settings.Interval = opts.Interval
	}

	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return settings, nil
}

// build creates the coordinator and the optional sinks.
func (r *runner) build(ctx context.Context) error {
	instance.WarnIfRunning(ctx)

	// Use git on the configured working tree unless a source was injected.
	if r.options.Source == nil {
		source := gitdiff.New(r.settings.Repository, gitdiff.WithStaged(r.settings.IncludeStaged))

		// Refuse to start outside a repository, other errors are retried by the poller.
		if _, err := source.Sample(ctx, ""); errors.Is(err, gitdiff.ErrNoRepository) {
			return fmt.Errorf("watch %s: %w", source.Dir(), err)
		}

		r.options.Source = source
	}

	// Default alert effect is the sound player.
	if r.options.Effect == nil {
		r.options.Effect = sound.New(r.settings.SoundPath(), r.settings.Volume, sound.WithSoundDir(r.settings.Dir))
	}

	var err error

	r.coordinator, err = coordinator.New(coordinator.Settings{
		Threshold:         r.settings.Threshold,
		SnoozeLength:      r.settings.SnoozeLength,
		TestAlertDuration: r.settings.TestAlertDuration,
	})
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}

	r.hub = fanout.New()

	// Status is always kept in memory, the file mirror is optional.
	var repo status.Repository
	if r.settings.StatusFile != "" {
		repo = status.NewFileRepository(r.settings.StatusFile)
	}

	r.store = status.NewStore(r.settings.Threshold, repo)

	// Metrics use a private registry.
	if r.settings.MetricsAddress != "" {
		r.registry = prometheus.NewRegistry()
		r.metrics = metrics.New(r.registry, r.settings.Threshold)
		metrics.RegisterHub(r.registry, r.hub)
	}

	// Connect to NATS and drain on close.
	if r.settings.NATSURL != "" {
		conn, err := notify.Connect(ctx, r.settings.NATSURL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}

		r.closers = append(r.closers, func() {
			if err := conn.Drain(); err != nil {
				logger.WarnKV(ctx, "Failed to drain NATS connection", "error", err)
			}
		})

		r.publisher = notify.New(conn, r.settings.NATSSubject, r.session, r.settings.Threshold)
	}

	return nil
}

func (r *runner) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// run starts every task and waits for all of them.
func (r *runner) run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	// Producers and listeners stop once the coordinator has returned.
	serviceCtx, stopServices := context.WithCancel(groupCtx)
	defer stopServices()

	// Start the coordinator, its exit stops the producers.
	group.Go(r.task(ctx, "coordinator", func() error {
		defer stopServices()

		result, err := r.coordinator.Run(groupCtx)

		r.resultMu.Lock()
		r.result = result
		r.resultMu.Unlock()

		return err
	}))

	// Supervisor applies alert commands.
	group.Go(r.task(ctx, "supervisor", func() error {
		return r.newSupervisor().Run(groupCtx, r.coordinator.SupervisorCommands())
	}))

	// Fan renders out to every sink.
	group.Go(r.task(ctx, "fanout", func() error {
		return r.hub.Run(groupCtx, r.coordinator.RenderEvents())
	}))

	// Subscribe sinks before any producer can trigger a render.
	if err := r.startSinks(ctx, groupCtx, group); err != nil {
		// Unwind what already started.
		stopServices()

		_ = r.coordinator.Submit(alert.Quit())
		_ = group.Wait()

		return err
	}

	// Start polling the working tree.
	group.Go(r.task(ctx, "poller", func() error {
		opts := []poller.Option{poller.WithInterval(r.settings.Interval)}
		if r.metrics != nil {
			opts = append(opts, poller.WithObserver(r.metrics.ObservePoll))
		}

		return poller.New(r.options.Source, r.coordinator, opts...).Run(serviceCtx)
	}))

	// Forward termination signals to the coordinator.
	group.Go(r.task(ctx, "signals", func() error {
		return signals.Run(serviceCtx, r.coordinator, signals.Termination()...)
	}))

	// Optional remote control and metrics endpoint.
	if r.settings.ControlAddress != "" {
		r.startControl(ctx, serviceCtx, group)
	}

	if r.registry != nil {
		group.Go(r.task(ctx, "metrics_server", func() error {
			return metrics.Serve(serviceCtx, r.settings.MetricsAddress, r.registry)
		}))
	}

	return group.Wait()
}

func (r *runner) newSupervisor() *supervisor.Supervisor {
	// Status and metrics report the device, not the last render.
	observe := func(command alert.SupervisorCommand) {
		r.store.ObserveCommand(command)

		if r.metrics != nil {
			r.metrics.ObserveCommand(command)
		}
	}

	return supervisor.New(r.options.Effect,
		supervisor.WithPeriod(r.settings.RingPeriod),
		supervisor.WithObserver(observe),
	)
}

// startSinks subscribes every sink before the first render can be published.
func (r *runner) startSinks(ctx, groupCtx context.Context, group *errgroup.Group) error {
	type sink struct {
		run  func(context.Context, <-chan alert.RenderEvent) error
		name string
	}

	sinks := []sink{
		{name: "status", run: r.store.Run},
		{name: "display", run: r.display()},
	}

	if r.metrics != nil {
		sinks = append(sinks, sink{name: "metrics", run: r.metrics.Run})
	}

	if r.publisher != nil {
		sinks = append(sinks, sink{name: "notify", run: r.publisher.Run})
	}

	// Each sink gets its own buffered subscription.
	for _, s := range sinks {
		events, err := r.hub.Subscribe(s.name, fanout.DefaultBuffer)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", s.name, err)
		}

		group.Go(r.task(ctx, s.name, func() error {
			return s.run(groupCtx, events)
		}))
	}

	return nil
}

func (r *runner) display() func(context.Context, <-chan alert.RenderEvent) error {
	settings := ui.Settings{
		Threshold:    r.settings.Threshold,
		Interval:     r.settings.Interval,
		SnoozeLength: r.settings.SnoozeLength,
	}

	// Headless mode prints plain lines instead of the dashboard.
	if r.options.Headless {
		return ui.NewPrinter(r.options.Output, settings).Run
	}

	return ui.NewDashboard(r.coordinator, settings).Run
}

// startControl serves the remote control. A busy address only disables it.
func (r *runner) startControl(ctx, serviceCtx context.Context, group *errgroup.Group) {
	// Setup TCP listener for the gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", r.settings.ControlAddress)
	if err != nil {
		logger.WarnKV(ctx, "Remote control disabled", "listen_address", r.settings.ControlAddress, "error", err)

		return
	}

	// Create gRPC server with the control service and default rate limit.
	grpcServer := control.NewGRPCServer(control.NewServer(r.coordinator, r.store), nil)

	group.Go(r.task(ctx, "control", func() error {
		return control.Serve(serviceCtx, lis, grpcServer)
	}))
}

// task names errors and turns panics into faults.
func (r *runner) task(ctx context.Context, name string, fn func() error) func() error {
	return func() (err error) {
		// Recover panics so the group can shut down cleanly.
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.ErrorKV(ctx, "Task panicked", "task", name, "panic", recovered)

				err = fmt.Errorf("%w: %s panicked: %v", ErrFault, name, recovered)
			}
		}()

		if err = fn(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		return nil
	}
}
