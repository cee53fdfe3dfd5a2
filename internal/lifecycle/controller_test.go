package lifecycle_test

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-interop-dashboard/internal/chart"
	"healthcare-interop-dashboard/internal/gateway"
	"healthcare-interop-dashboard/internal/lifecycle"
	"healthcare-interop-dashboard/internal/metrics"
	"healthcare-interop-dashboard/internal/model"
	"healthcare-interop-dashboard/internal/scheduler"
	"healthcare-interop-dashboard/internal/widget"
)

type fakeClient struct {
	mu        sync.Mutex
	snapshots map[string]*model.MetricSnapshot
	errors    map[string]error
}

func (c *fakeClient) FetchSnapshot(_ context.Context, query model.MetricQuery) (*model.MetricSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.errors[query.Name]; ok {
		return nil, err
	}
	return c.snapshots[query.Name], nil
}

func (c *fakeClient) Post(_ context.Context, _ string, _ interface{}, _ interface{}) error {
	return nil
}

func barSnapshot() *model.MetricSnapshot {
	return &model.MetricSnapshot{
		FetchedAt: time.Now(),
		Labels:    []string{"EpicAPI"},
		Values:    map[string]float64{"EpicAPI": 99.9},
	}
}

func testCatalog() []model.BoundQuery {
	return []model.BoundQuery{
		{
			Query: model.MetricQuery{Name: "system-health", Path: "/api/analytics/system-health", Shape: model.ShapeScalarSet},
			Chart: &model.EncodingConfig{Surface: "chart-system-health", Title: "System Health", Unit: "%", YMax: 100},
		},
		{
			Query: model.MetricQuery{Name: "fhir-metrics", Path: "/api/fhir/metrics", Shape: model.ShapeScalarSet},
			Bindings: []model.WidgetBinding{
				{Field: "active_patients", WidgetID: "fhir-active-patients", Format: model.FormatCount},
			},
		},
	}
}

func newController(client *fakeClient, registerSurfaces bool) (*lifecycle.Controller, *chart.Manager, widget.TextUpdater) {
	catalog := testCatalog()
	charts := chart.NewManager(client)
	if registerSurfaces {
		charts.RegisterSurface("chart-system-health")
	}
	widgets := widget.NewTextUpdater()
	collect := metrics.NewCollectors(prometheus.NewRegistry())
	sched := scheduler.NewRefreshScheduler(client, charts, widgets, catalog, collect)
	return lifecycle.NewController(sched, charts, catalog, time.Hour), charts, widgets
}

func healthyClient() *fakeClient {
	return &fakeClient{
		snapshots: map[string]*model.MetricSnapshot{
			"system-health": barSnapshot(),
			"fhir-metrics": {
				FetchedAt: time.Now(),
				Values:    map[string]float64{"active_patients": 2847},
			},
		},
		errors: map[string]error{},
	}
}

func TestStart_FullInitialRender(t *testing.T) {
	ctrl, charts, widgets := newController(healthyClient(), true)
	require.Equal(t, lifecycle.Uninitialized, ctrl.State())

	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Stop()

	assert.Equal(t, lifecycle.Running, ctrl.State())
	assert.Equal(t, 1, charts.HandleCount())
	assert.Equal(t, "2,847", widgets.Snapshot()["fhir-active-patients"].Value)
}

func TestStart_MissingSurfaceIsNotFatal(t *testing.T) {
	ctrl, charts, widgets := newController(healthyClient(), false)

	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Stop()

	// The chart is skipped, the rest of the dashboard still comes up.
	assert.Equal(t, lifecycle.Running, ctrl.State())
	assert.Equal(t, 0, charts.HandleCount())
	assert.Equal(t, "2,847", widgets.Snapshot()["fhir-active-patients"].Value)
}

func TestStart_FailingQueryDoesNotBlockInitialization(t *testing.T) {
	client := healthyClient()
	client.errors["system-health"] = &gateway.HTTPStatusError{Status: 500}

	ctrl, charts, widgets := newController(client, true)
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Stop()

	assert.Equal(t, lifecycle.Running, ctrl.State())
	assert.Equal(t, 0, charts.HandleCount())
	assert.Equal(t, "2,847", widgets.Snapshot()["fhir-active-patients"].Value)
}

func TestStart_IsSingleShot(t *testing.T) {
	ctrl, _, _ := newController(healthyClient(), true)
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Stop()

	// A second start while running is ignored.
	require.NoError(t, ctrl.Start(context.Background()))
	assert.Equal(t, lifecycle.Running, ctrl.State())
}

func TestStop_TearsDownAndIsTerminal(t *testing.T) {
	ctrl, charts, _ := newController(healthyClient(), true)
	require.NoError(t, ctrl.Start(context.Background()))
	require.Equal(t, 1, charts.HandleCount())

	ctrl.Stop()
	assert.Equal(t, lifecycle.Stopped, ctrl.State())
	assert.Equal(t, 0, charts.HandleCount())

	// Stopped is terminal: no restart path without a new process.
	require.NoError(t, ctrl.Start(context.Background()))
	assert.Equal(t, lifecycle.Stopped, ctrl.State())

	// Stop again is safe.
	ctrl.Stop()
	assert.Equal(t, lifecycle.Stopped, ctrl.State())
}

func TestStop_BeforeStartIsNoOp(t *testing.T) {
	ctrl, _, _ := newController(healthyClient(), true)
	assert.NotPanics(t, ctrl.Stop)
	assert.Equal(t, lifecycle.Uninitialized, ctrl.State())
}

func TestStop_RacingStartNeverLeavesLoopArmed(t *testing.T) {
	// A Stop landing the moment Start reaches Running must still tear the
	// refresh loop down; the loop may not keep running past Stopped.
	for i := 0; i < 10; i++ {
		client := healthyClient()
		catalog := testCatalog()
		charts := chart.NewManager(client)
		charts.RegisterSurface("chart-system-health")
		widgets := widget.NewTextUpdater()
		collect := metrics.NewCollectors(prometheus.NewRegistry())
		sched := scheduler.NewRefreshScheduler(client, charts, widgets, catalog, collect)
		ctrl := lifecycle.NewController(sched, charts, catalog, time.Hour)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, ctrl.Start(context.Background()))
		}()
		go func() {
			defer wg.Done()
			for ctrl.State() != lifecycle.Stopped {
				ctrl.Stop()
				runtime.Gosched()
			}
		}()
		wg.Wait()

		require.Equal(t, lifecycle.Stopped, ctrl.State())
		assert.False(t, sched.State().Active())
		assert.Equal(t, 0, charts.HandleCount())
	}
}
