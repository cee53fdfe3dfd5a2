package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-interop-dashboard/internal/chart"
	"healthcare-interop-dashboard/internal/gateway"
	"healthcare-interop-dashboard/internal/metrics"
	"healthcare-interop-dashboard/internal/model"
	"healthcare-interop-dashboard/internal/scheduler"
	"healthcare-interop-dashboard/internal/widget"
)

// fakeClient serves canned snapshots or errors per query name.
type fakeClient struct {
	mu        sync.Mutex
	snapshots map[string]*model.MetricSnapshot
	errors    map[string]error
	fetches   map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		snapshots: make(map[string]*model.MetricSnapshot),
		errors:    make(map[string]error),
		fetches:   make(map[string]int),
	}
}

func (c *fakeClient) FetchSnapshot(_ context.Context, query model.MetricQuery) (*model.MetricSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches[query.Name]++
	if err, ok := c.errors[query.Name]; ok {
		return nil, err
	}
	return c.snapshots[query.Name], nil
}

func (c *fakeClient) Post(_ context.Context, _ string, _ interface{}, _ interface{}) error {
	return nil
}

func scalarQuery(name string) model.BoundQuery {
	return model.BoundQuery{
		Query: model.MetricQuery{Name: name, Path: "/api/" + name, Shape: model.ShapeScalarSet},
		Bindings: []model.WidgetBinding{
			{Field: "value", WidgetID: name + "-widget", Format: model.FormatCount},
		},
	}
}

func scalarSnapshot(v float64) *model.MetricSnapshot {
	return &model.MetricSnapshot{
		FetchedAt: time.Now().UTC(),
		Values:    map[string]float64{"value": v},
	}
}

func newScheduler(client gateway.Client, catalog []model.BoundQuery, widgets widget.TextUpdater) scheduler.RefreshScheduler {
	charts := chart.NewManager(client)
	collect := metrics.NewCollectors(prometheus.NewRegistry())
	return scheduler.NewRefreshScheduler(client, charts, widgets, catalog, collect)
}

func TestRunOnce_UpdatesAllWidgets(t *testing.T) {
	client := newFakeClient()
	client.snapshots["fhir"] = scalarSnapshot(2847)
	client.snapshots["hl7"] = scalarSnapshot(1284)

	widgets := widget.NewTextUpdater()
	s := newScheduler(client, []model.BoundQuery{scalarQuery("fhir"), scalarQuery("hl7")}, widgets)

	s.RunOnce(context.Background())

	states := widgets.Snapshot()
	assert.Equal(t, "2,847", states["fhir-widget"].Value)
	assert.Equal(t, "1,284", states["hl7-widget"].Value)

	outcome, ok := s.State().Outcome("fhir")
	require.True(t, ok)
	assert.True(t, outcome.Succeeded)
}

func TestRunOnce_FailureIsolation(t *testing.T) {
	client := newFakeClient()
	client.snapshots["fhir"] = scalarSnapshot(2847)
	client.errors["hl7"] = &gateway.NetworkError{URL: "http://backend/api/hl7"}
	client.snapshots["epic"] = scalarSnapshot(847)

	widgets := widget.NewTextUpdater()
	catalog := []model.BoundQuery{scalarQuery("fhir"), scalarQuery("hl7"), scalarQuery("epic")}
	s := newScheduler(client, catalog, widgets)

	s.RunOnce(context.Background())

	// The two healthy queries updated their widgets.
	states := widgets.Snapshot()
	assert.Equal(t, "2,847", states["fhir-widget"].Value)
	assert.Equal(t, "847", states["epic-widget"].Value)

	// The failing query's widget shows no error: it keeps its prior
	// (here: empty) display, and the failure is recorded in cycle state.
	assert.NotContains(t, states, "hl7-widget")
	outcome, ok := s.State().Outcome("hl7")
	require.True(t, ok)
	assert.False(t, outcome.Succeeded)
	assert.Contains(t, outcome.Error, "network error")

	// Every fetch was attempted despite the failure.
	assert.Equal(t, 1, client.fetches["fhir"])
	assert.Equal(t, 1, client.fetches["hl7"])
	assert.Equal(t, 1, client.fetches["epic"])
}

func TestRunOnce_StaleDataSurvivesFailedCycle(t *testing.T) {
	client := newFakeClient()
	client.snapshots["fhir"] = scalarSnapshot(2847)

	widgets := widget.NewTextUpdater()
	s := newScheduler(client, []model.BoundQuery{scalarQuery("fhir")}, widgets)

	s.RunOnce(context.Background())
	require.Equal(t, "2,847", widgets.Snapshot()["fhir-widget"].Value)

	client.mu.Lock()
	client.errors["fhir"] = &gateway.HTTPStatusError{Status: 503}
	client.mu.Unlock()

	s.RunOnce(context.Background())

	// Last-known value stays on display, failure only shows in state.
	assert.Equal(t, "2,847", widgets.Snapshot()["fhir-widget"].Value)
	outcome, _ := s.State().Outcome("fhir")
	assert.False(t, outcome.Succeeded)
}

func TestStop_WithoutStartIsNoOp(t *testing.T) {
	s := newScheduler(newFakeClient(), nil, widget.NewTextUpdater())

	assert.NotPanics(t, func() { s.Stop() })
	assert.False(t, s.State().Active())
}

func TestStart_IsIdempotent(t *testing.T) {
	client := newFakeClient()
	client.snapshots["fhir"] = scalarSnapshot(1)
	s := newScheduler(client, []model.BoundQuery{scalarQuery("fhir")}, widget.NewTextUpdater())
	defer s.Stop()

	s.Start(time.Hour)
	require.True(t, s.State().Active())
	assert.Equal(t, time.Hour, s.State().Interval())

	// A second start while running changes nothing.
	s.Start(time.Minute)
	assert.Equal(t, time.Hour, s.State().Interval())
}

func TestStartStopCycle(t *testing.T) {
	s := newScheduler(newFakeClient(), nil, widget.NewTextUpdater())

	s.Start(time.Hour)
	require.True(t, s.State().Active())

	s.Stop()
	assert.False(t, s.State().Active())

	// Stop twice is safe.
	s.Stop()
}

func TestRunOnce_ChartlessQueryAfterTeardownIsSilent(t *testing.T) {
	client := newFakeClient()
	snapshot, err := model.NewSeriesSnapshot(time.Now(),
		[]string{"EpicAPI"}, map[string][]float64{model.DefaultSeriesKey: {99.9}})
	require.NoError(t, err)
	client.snapshots["message-volume"] = snapshot

	encoding := model.EncodingConfig{Surface: "chart-message-volume", Title: "HL7 Message Volume"}
	catalog := []model.BoundQuery{{
		Query: model.MetricQuery{Name: "message-volume", Path: "/api/analytics/message-volume", Shape: model.ShapeCategoryDist},
		Chart: &encoding,
	}}

	charts := chart.NewManager(client)
	collect := metrics.NewCollectors(prometheus.NewRegistry())
	s := scheduler.NewRefreshScheduler(client, charts, widget.NewTextUpdater(), catalog, collect)

	// No chart was ever initialized (surface never registered), so the
	// apply step must drop the snapshot without erroring.
	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })

	outcome, ok := s.State().Outcome("message-volume")
	require.True(t, ok)
	assert.True(t, outcome.Succeeded)
}
