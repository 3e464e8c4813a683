package watcher

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/picopack/internal/build"
	"github.com/conneroisu/picopack/internal/errors"
	"github.com/conneroisu/picopack/internal/logging"
	"github.com/conneroisu/picopack/internal/scanner"
)

// Rebuilder is the part of build.Builder the controller drives.
type Rebuilder interface {
	Resolve() (scanner.FragmentSet, error)
	Rebuild(ctx context.Context, set scanner.FragmentSet) (build.BuildResult, error)
}

// Source delivers batches of change events.
type Source interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan []ChangeEvent
	Fatal() <-chan error
}

// Reporter receives progress for console output. Any method may be left
// as a no-op.
type Reporter interface {
	RebuildStarted(events []ChangeEvent)
	RebuildFinished(result build.BuildResult)
	Draining(waiting bool)
	Stopped()
}

// ControllerConfig holds the collaborators of a Controller.
type ControllerConfig struct {
	Builder  Rebuilder
	Source   Source
	State    *State
	Logger   logging.Logger
	Reporter Reporter
}

// Controller serializes change batches into rebuilds: Idle → Rebuilding →
// Idle, one batch at a time.
type Controller struct {
	builder  Rebuilder
	source   Source
	state    *State
	logger   logging.Logger
	errors   *errors.Handler
	reporter Reporter
}

// NewController creates a controller. State is required; it is usually
// seeded with the fragment set of the initial build.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Builder == nil || cfg.Source == nil || cfg.State == nil {
		return nil, fmt.Errorf("watcher: builder, source and state are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("watch")
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}

	return &Controller{
		builder:  cfg.Builder,
		source:   cfg.Source,
		state:    cfg.State,
		logger:   logger,
		errors:   errors.NewHandler(logger),
		reporter: reporter,
	}, nil
}

// Run processes change batches until ctx is cancelled or the source fails.
// On cancellation it lets an in-flight rebuild finish before returning nil.
func (c *Controller) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := c.source.Start(gctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	g.Go(func() error {
		return c.work(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		c.reporter.Draining(c.state.Compiling())
		c.state.Drain()
		if err := c.source.Stop(); err != nil {
			c.logger.Warn(ctx, err, "Failed to close file watcher")
		}
		c.reporter.Stopped()
		return nil
	})

	return g.Wait()
}

func (c *Controller) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-c.source.Fatal():
			return err
		case events, ok := <-c.source.Events():
			if !ok {
				return nil
			}
			if !c.handle(ctx, events) {
				return nil
			}
		}
	}
}

// handle runs one rebuild for a batch. It returns false once shutdown has
// begun.
func (c *Controller) handle(ctx context.Context, events []ChangeEvent) bool {
	if !c.state.Begin() {
		return false
	}
	defer c.state.End()

	// the rebuild runs to completion even if shutdown is requested meanwhile
	ctx = context.WithoutCancel(ctx)

	c.reporter.RebuildStarted(events)
	c.logger.Debug(ctx, "Change detected", "events", len(events))

	set := c.state.Fragments()
	if c.needsResolve(set, events) {
		resolved, err := c.builder.Resolve()
		if err != nil {
			c.errors.Handle(ctx, err)
			c.reporter.RebuildFinished(build.BuildResult{Error: err})
			return true
		}
		c.state.SetFragments(resolved)
		set = resolved
	}

	result, err := c.builder.Rebuild(ctx, set)
	if err != nil {
		c.errors.Handle(ctx, err)
	}
	c.reporter.RebuildFinished(result)
	return true
}

// needsResolve reports whether the batch may have changed which fragments
// exist. Content-only changes to known fragments reuse the current set.
func (c *Controller) needsResolve(set scanner.FragmentSet, events []ChangeEvent) bool {
	if len(set) == 0 {
		return true
	}
	paths := set.Paths()
	for _, event := range events {
		if event.Type.ChangesMembership() || !slices.Contains(paths, event.Path) {
			return true
		}
	}
	return false
}

type nopReporter struct{}

func (nopReporter) RebuildStarted([]ChangeEvent)      {}
func (nopReporter) RebuildFinished(build.BuildResult) {}
func (nopReporter) Draining(bool)                     {}
func (nopReporter) Stopped()                          {}
