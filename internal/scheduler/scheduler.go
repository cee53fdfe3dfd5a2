package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"healthcare-interop-dashboard/internal/chart"
	"healthcare-interop-dashboard/internal/gateway"
	"healthcare-interop-dashboard/internal/metrics"
	"healthcare-interop-dashboard/internal/model"
	"healthcare-interop-dashboard/internal/widget"
)

// RefreshScheduler runs the recurring poll cycle: one fetch per registered
// metric group, results pushed to chart handles and text widgets. Failures
// are isolated per query and recorded for observability, never surfaced as
// a blocking error.
type RefreshScheduler interface {
	// Start begins the recurring cycle. Calling it while already
	// running is a logged no-op.
	Start(interval time.Duration)

	// Stop halts scheduling of new cycles. Fetches already in flight
	// are not cancelled; their results are discarded downstream if the
	// targets are gone. Stop when not running is a no-op.
	Stop()

	// RunOnce performs exactly one cycle, returning after every query
	// has resolved or failed.
	RunOnce(ctx context.Context)

	// State exposes the loop's cycle state.
	State() *CycleState
}

type refreshScheduler struct {
	client  gateway.Client
	charts  *chart.Manager
	widgets widget.TextUpdater
	catalog []model.BoundQuery
	collect *metrics.Collectors

	mu    sync.Mutex
	cron  *cron.Cron
	state *CycleState
	seq   atomic.Uint64
}

func NewRefreshScheduler(
	client gateway.Client,
	charts *chart.Manager,
	widgets widget.TextUpdater,
	catalog []model.BoundQuery,
	collect *metrics.Collectors,
) RefreshScheduler {
	return &refreshScheduler{
		client:  client,
		charts:  charts,
		widgets: widgets,
		catalog: catalog,
		collect: collect,
		state:   newCycleState(),
	}
}

func (s *refreshScheduler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		log.Warn().Msg("Refresh scheduler already running, ignoring start")
		return
	}

	c := cron.New()
	_, err := c.AddFunc("@every "+interval.String(), func() {
		s.runCycle(context.Background())
	})
	if err != nil {
		log.Error().Err(err).Dur("interval", interval).Msg("Failed to schedule refresh cycle")
		return
	}
	c.Start()
	s.cron = c
	s.state.setActive(interval)
	log.Info().Dur("interval", interval).Int("queries", len(s.catalog)).Msg("Started refresh scheduler")
}

func (s *refreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		log.Debug().Msg("Refresh scheduler not running, ignoring stop")
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.state.setStopped()
	log.Info().Msg("Stopped refresh scheduler")
}

func (s *refreshScheduler) RunOnce(ctx context.Context) {
	s.runCycle(ctx)
}

func (s *refreshScheduler) State() *CycleState {
	return s.state
}

// runCycle issues every query's fetch concurrently and waits for all of
// them. One query failing never prevents the others from updating.
func (s *refreshScheduler) runCycle(ctx context.Context) {
	seq := s.seq.Add(1)
	s.collect.CyclesTotal.Inc()
	started := time.Now()

	var wg sync.WaitGroup
	for _, bound := range s.catalog {
		wg.Add(1)
		go func(bound model.BoundQuery) {
			defer wg.Done()
			s.fetchAndApply(ctx, seq, bound)
		}(bound)
	}
	wg.Wait()

	log.Debug().Uint64("cycle", seq).Dur("duration", time.Since(started)).Msg("Finished refresh cycle")
}

func (s *refreshScheduler) fetchAndApply(ctx context.Context, seq uint64, bound model.BoundQuery) {
	name := bound.Query.Name
	started := time.Now()

	snapshot, err := s.client.FetchSnapshot(ctx, bound.Query)
	elapsed := time.Since(started)
	if err != nil {
		// Prior displayed data stays as-is; the failure is visible in
		// cycle state and counters only.
		s.collect.FetchFailures.WithLabelValues(name, errorKind(err)).Inc()
		s.state.record(QueryOutcome{
			Query:     name,
			Cycle:     seq,
			Succeeded: false,
			Error:     err.Error(),
			FetchedAt: started.UTC(),
			Duration:  elapsed,
		})
		log.Warn().Err(err).Str("query", name).Uint64("cycle", seq).Msg("Metric fetch failed, keeping stale data")
		return
	}
	s.collect.FetchDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	applied := s.state.applyIfCurrent(name, seq, func() {
		if bound.Chart != nil {
			if err := s.charts.ApplySnapshot(name, snapshot); err != nil {
				if errors.Is(err, chart.ErrNoHandle) {
					log.Debug().Str("query", name).Msg("No live chart handle, dropping snapshot")
				} else {
					log.Warn().Err(err).Str("query", name).Msg("Failed to apply snapshot to chart")
				}
			}
		}
		if len(bound.Bindings) > 0 {
			s.widgets.ApplyScalarSet(bound.Bindings, snapshot)
		}
	})
	if !applied {
		log.Debug().Str("query", name).Uint64("cycle", seq).Msg("Discarding snapshot from superseded cycle")
		return
	}

	s.state.record(QueryOutcome{
		Query:     name,
		Cycle:     seq,
		Succeeded: true,
		FetchedAt: snapshot.FetchedAt,
		Duration:  elapsed,
	})
}

func errorKind(err error) string {
	var netErr *gateway.NetworkError
	var statusErr *gateway.HTTPStatusError
	var decodeErr *gateway.DecodeError
	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.As(err, &decodeErr):
		return "decode"
	default:
		return "other"
	}
}
