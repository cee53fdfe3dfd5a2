package widget

import (
	"sync"

	"github.com/rs/zerolog/log"

	"healthcare-interop-dashboard/internal/model"
)

// State is the display content of one text widget. Error states are kept
// visibly distinct from values so the page can style them differently.
type State struct {
	Value   string `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
	IsError bool   `json:"is_error"`
}

// TextUpdater pushes formatted scalar values into named display slots. It
// is a pure presentation sink: no retries, no fetch logic.
type TextUpdater interface {
	SetText(widgetID, value string)
	SetError(widgetID, message string)

	// ApplyScalarSet writes every bound field of a scalar-set snapshot.
	// Fields absent from the snapshot leave their widget untouched.
	ApplyScalarSet(bindings []model.WidgetBinding, snapshot *model.MetricSnapshot)

	// Snapshot returns a copy of all widget states for the HTTP layer.
	Snapshot() map[string]State
}

type textUpdater struct {
	mu      sync.RWMutex
	widgets map[string]State
}

func NewTextUpdater() TextUpdater {
	return &textUpdater{
		widgets: make(map[string]State),
	}
}

func (u *textUpdater) SetText(widgetID, value string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.widgets[widgetID] = State{Value: value}
}

func (u *textUpdater) SetError(widgetID, message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.widgets[widgetID] = State{Error: message, IsError: true}
}

func (u *textUpdater) ApplyScalarSet(bindings []model.WidgetBinding, snapshot *model.MetricSnapshot) {
	for _, binding := range bindings {
		if binding.Format == model.FormatText {
			text, ok := snapshot.TextValues[binding.Field]
			if !ok {
				log.Warn().Str("field", binding.Field).Str("widget", binding.WidgetID).Msg("Snapshot missing text field, leaving widget unchanged")
				continue
			}
			u.SetText(binding.WidgetID, text+binding.Suffix)
			continue
		}

		value, ok := snapshot.Values[binding.Field]
		if !ok {
			log.Warn().Str("field", binding.Field).Str("widget", binding.WidgetID).Msg("Snapshot missing numeric field, leaving widget unchanged")
			continue
		}
		u.SetText(binding.WidgetID, FormatValue(binding.Format, value)+binding.Suffix)
	}
}

func (u *textUpdater) Snapshot() map[string]State {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make(map[string]State, len(u.widgets))
	for id, state := range u.widgets {
		out[id] = state
	}
	return out
}
