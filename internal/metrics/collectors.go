package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds the refresh-loop instrumentation. Background fetch
// failures are invisible to the end user by design, so counters are the
// only place they surface besides logs.
type Collectors struct {
	CyclesTotal   prometheus.Counter
	FetchFailures *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_refresh_cycles_total",
			Help: "Number of refresh cycles started.",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fetch_failures_total",
			Help: "Metric fetches that failed, by query and error kind.",
		}, []string{"query", "kind"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_fetch_duration_seconds",
			Help:    "Latency of metric fetches, by query.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
	}
	reg.MustRegister(c.CyclesTotal, c.FetchFailures, c.FetchDuration)
	return c
}
