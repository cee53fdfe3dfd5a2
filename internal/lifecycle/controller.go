package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"healthcare-interop-dashboard/internal/chart"
	"healthcare-interop-dashboard/internal/model"
	"healthcare-interop-dashboard/internal/scheduler"
)

// State of the dashboard lifecycle. Transitions only move forward:
// Uninitialized -> Initializing -> Running -> Stopped. Stopped is terminal;
// a fresh process is required to run again.
type State int

const (
	Uninitialized State = iota
	Initializing
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Controller wires startup (first chart render plus first widget refresh),
// the periodic refresh loop, and teardown.
type Controller struct {
	scheduler scheduler.RefreshScheduler
	charts    *chart.Manager
	catalog   []model.BoundQuery
	interval  time.Duration

	mu    sync.Mutex
	state State
}

func NewController(
	sched scheduler.RefreshScheduler,
	charts *chart.Manager,
	catalog []model.BoundQuery,
	interval time.Duration,
) *Controller {
	return &Controller{
		scheduler: sched,
		charts:    charts,
		catalog:   catalog,
		interval:  interval,
	}
}

// Start performs the initial full render and begins the refresh loop.
// Initialization never blocks on a single failing query: per-query failures
// are logged and skipped, and the controller still reaches Running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Uninitialized {
		state := c.state
		c.mu.Unlock()
		log.Warn().Str("state", state.String()).Msg("Dashboard lifecycle already started, ignoring")
		return nil
	}
	c.state = Initializing
	c.mu.Unlock()

	log.Info().Dur("interval", c.interval).Msg("Initializing dashboard")

	for _, bound := range c.catalog {
		if bound.Chart == nil {
			continue
		}
		if _, err := c.charts.Initialize(ctx, bound.Query, *bound.Chart); err != nil {
			var missing *chart.MissingSurfaceError
			if errors.As(err, &missing) {
				log.Warn().Str("query", bound.Query.Name).Str("surface", missing.Surface).Msg("Chart surface missing, skipping chart")
			} else {
				log.Warn().Err(err).Str("query", bound.Query.Name).Msg("Initial chart render failed, skipping chart")
			}
		}
	}

	// First widget fill. A partial failure leaves those widgets empty
	// until the next successful cycle.
	c.scheduler.RunOnce(ctx)

	// The loop is armed under the lock: a Stop that observes Running runs
	// strictly after the scheduler has started, so it always tears it down.
	c.mu.Lock()
	c.state = Running
	c.scheduler.Start(c.interval)
	c.mu.Unlock()
	log.Info().Msg("Dashboard running")
	return nil
}

// Stop halts the refresh loop and releases every chart handle. Stopped is
// terminal: a later Start is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != Running {
		state := c.state
		c.mu.Unlock()
		log.Debug().Str("state", state.String()).Msg("Dashboard not running, ignoring stop")
		return
	}
	c.state = Stopped
	c.mu.Unlock()

	c.scheduler.Stop()
	c.charts.DestroyAll()
	log.Info().Msg("Dashboard stopped")
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
