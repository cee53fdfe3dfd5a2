package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/rs/zerolog/log"

	"healthcare-interop-dashboard/internal/gateway"
	"healthcare-interop-dashboard/internal/model"
)

// MissingSurfaceError means the render target a chart should bind to was
// never registered. It is recoverable: the caller logs it and skips the
// chart, the rest of the dashboard keeps working.
type MissingSurfaceError struct {
	Surface string
	Query   string
}

func (e *MissingSurfaceError) Error() string {
	return fmt.Sprintf("surface %q for query %q does not exist", e.Surface, e.Query)
}

// ErrNoHandle is returned when a snapshot targets a query with no live
// handle, e.g. a fetch resolving after teardown. Callers drop it silently.
var ErrNoHandle = errors.New("no live chart handle for query")

// Manager owns the registry of chart handles. It is the only component
// that mutates the registry; at most one handle exists per query name.
type Manager struct {
	client gateway.Client

	mu       sync.Mutex
	surfaces map[string]bool
	handles  map[string]*Handle
}

func NewManager(client gateway.Client) *Manager {
	return &Manager{
		client:   client,
		surfaces: make(map[string]bool),
		handles:  make(map[string]*Handle),
	}
}

// RegisterSurface declares a render target charts may bind to.
func (m *Manager) RegisterSurface(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surfaces[id] = true
}

// Initialize creates the chart for a query, performing its first fetch and
// render as part of initialization. A prior handle for the same query name
// is destroyed first, so exactly one handle per query ever lives.
func (m *Manager) Initialize(ctx context.Context, query model.MetricQuery, encoding model.EncodingConfig) (*Handle, error) {
	m.mu.Lock()
	if !m.surfaces[encoding.Surface] {
		m.mu.Unlock()
		return nil, &MissingSurfaceError{Surface: encoding.Surface, Query: query.Name}
	}
	if old, ok := m.handles[query.Name]; ok {
		log.Warn().Str("query", query.Name).Msg("Re-initializing chart, destroying prior handle")
		old.destroyed = true
		delete(m.handles, query.Name)
	}
	m.mu.Unlock()

	snapshot, err := m.client.FetchSnapshot(ctx, query)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.handles[query.Name]; ok {
		old.destroyed = true
	}
	handle := newHandle(query, encoding)
	handle.apply(snapshot)
	m.handles[query.Name] = handle

	log.Info().Str("query", query.Name).Str("surface", encoding.Surface).Msg("Initialized chart")
	return handle, nil
}

// ApplySnapshot updates an existing handle's data in place. The handle
// object is never recreated, so zoom/animation/hover state survives.
func (m *Manager) ApplySnapshot(queryName string, snapshot *model.MetricSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle, ok := m.handles[queryName]
	if !ok || handle.destroyed {
		return ErrNoHandle
	}
	handle.apply(snapshot)
	return nil
}

// Handle returns the live handle for a query, if any.
func (m *Manager) Handle(queryName string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle, ok := m.handles[queryName]
	return handle, ok
}

// HandleCount returns the number of live handles.
func (m *Manager) HandleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// Resize adapts every handle to new viewport dimensions. Presentation
// only, data is untouched.
func (m *Manager) Resize(width, height string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, handle := range m.handles {
		handle.resize(width, height)
	}
}

// RenderPage renders every live chart into one HTML page.
func (m *Manager) RenderPage(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := components.NewPage()
	for _, handle := range m.handles {
		page.AddCharts(handle.charter())
	}
	return page.Render(w)
}

// DestroyAll releases every handle. Safe to call repeatedly and with zero
// handles; snapshots arriving afterwards are rejected with ErrNoHandle.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	destroyed := len(m.handles)
	for name, handle := range m.handles {
		handle.destroyed = true
		delete(m.handles, name)
	}
	if destroyed > 0 {
		log.Info().Int("handles", destroyed).Msg("Destroyed all chart handles")
	}
}
