package model

import (
	"fmt"
	"sort"
	"time"
)

// ResultShape describes how a metric group's response body is structured
// and therefore how it is decoded and displayed.
type ResultShape string

const (
	ShapeTimeSeries   ResultShape = "time-series"
	ShapeCategoryDist ResultShape = "category-distribution"
	ShapeScalarSet    ResultShape = "labeled-scalar-set"
)

// MetricQuery identifies one named metric group served by the remote
// metrics service. Name is unique across the dashboard.
type MetricQuery struct {
	Name  string      `json:"name"`
	Path  string      `json:"path"`
	Shape ResultShape `json:"shape"`
}

// DefaultSeriesKey is the series name used when a response carries a single
// anonymous data array.
const DefaultSeriesKey = "values"

// MetricSnapshot is the decoded response for one MetricQuery at one point
// in time. Snapshots are immutable after construction; a refresh produces a
// new snapshot, it never mutates a previous one.
type MetricSnapshot struct {
	FetchedAt time.Time

	// Labels is the ordered label sequence for time-series,
	// category-distribution and ordered scalar-set responses.
	Labels []string

	// Series maps series name to one value per label. Category
	// distributions carry a single series under DefaultSeriesKey.
	Series map[string][]float64

	// SeriesColors carries per-series color hints (line charts).
	SeriesColors map[string]string

	// Colors carries per-label color hints (donut and bar charts),
	// aligned with Labels when present.
	Colors []string

	// Values holds numeric fields of a labeled-scalar-set; for the
	// ordered form it is keyed by label.
	Values map[string]float64

	// TextValues holds non-numeric fields of a labeled-scalar-set.
	TextValues map[string]string
}

// NewSeriesSnapshot builds a snapshot for series-shaped data, enforcing
// that every series has exactly one value per label.
func NewSeriesSnapshot(fetchedAt time.Time, labels []string, series map[string][]float64) (*MetricSnapshot, error) {
	for name, data := range series {
		if len(data) != len(labels) {
			return nil, fmt.Errorf("series %q has %d values for %d labels", name, len(data), len(labels))
		}
	}
	return &MetricSnapshot{
		FetchedAt: fetchedAt,
		Labels:    labels,
		Series:    series,
	}, nil
}

// SeriesNames returns the series keys in deterministic order.
func (s *MetricSnapshot) SeriesNames() []string {
	names := make([]string, 0, len(s.Series))
	for name := range s.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LabelValues returns the values aligned with Labels for ordered
// scalar-set snapshots.
func (s *MetricSnapshot) LabelValues() []float64 {
	out := make([]float64, len(s.Labels))
	for i, label := range s.Labels {
		out[i] = s.Values[label]
	}
	return out
}
