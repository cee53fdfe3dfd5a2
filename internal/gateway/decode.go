package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"healthcare-interop-dashboard/internal/model"
)

// Wire forms served by the remote metrics service. Anything missing an
// expected field, or with mismatched label/series lengths, is rejected as a
// whole; a response is never applied partially.

type timeSeriesBody struct {
	Labels   []string         `json:"labels"`
	Datasets []timeSeriesLine `json:"datasets"`
}

type timeSeriesLine struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	BorderColor string    `json:"borderColor"`
}

type labeledDataBody struct {
	Labels          []string  `json:"labels"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
}

func decodeSnapshot(query model.MetricQuery, body []byte, fetchedAt time.Time) (*model.MetricSnapshot, error) {
	switch query.Shape {
	case model.ShapeTimeSeries:
		return decodeTimeSeries(body, fetchedAt)
	case model.ShapeCategoryDist:
		return decodeLabeledData(body, fetchedAt)
	case model.ShapeScalarSet:
		return decodeScalarSet(body, fetchedAt)
	default:
		return nil, fmt.Errorf("unknown result shape %q", query.Shape)
	}
}

func decodeTimeSeries(body []byte, fetchedAt time.Time) (*model.MetricSnapshot, error) {
	var decoded timeSeriesBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Labels) == 0 {
		return nil, errors.New("missing labels")
	}
	if len(decoded.Datasets) == 0 {
		return nil, errors.New("missing datasets")
	}

	series := make(map[string][]float64, len(decoded.Datasets))
	colors := make(map[string]string, len(decoded.Datasets))
	for i, ds := range decoded.Datasets {
		if ds.Label == "" {
			return nil, fmt.Errorf("dataset %d has no label", i)
		}
		series[ds.Label] = ds.Data
		colors[ds.Label] = ds.BorderColor
	}

	snapshot, err := model.NewSeriesSnapshot(fetchedAt, decoded.Labels, series)
	if err != nil {
		return nil, err
	}
	snapshot.SeriesColors = colors
	return snapshot, nil
}

func decodeLabeledData(body []byte, fetchedAt time.Time) (*model.MetricSnapshot, error) {
	decoded, err := unmarshalLabeledData(body)
	if err != nil {
		return nil, err
	}

	snapshot, err := model.NewSeriesSnapshot(fetchedAt, decoded.Labels, map[string][]float64{
		model.DefaultSeriesKey: decoded.Data,
	})
	if err != nil {
		return nil, err
	}
	snapshot.Colors = decoded.BackgroundColor
	return snapshot, nil
}

// decodeScalarSet accepts both scalar-set forms: the ordered
// {labels, data, backgroundColor} form used by bar panels, and the flat
// object form used by the per-service metric groups.
func decodeScalarSet(body []byte, fetchedAt time.Time) (*model.MetricSnapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, err
	}
	if len(probe) == 0 {
		return nil, errors.New("empty response object")
	}

	if _, ok := probe["labels"]; ok {
		decoded, err := unmarshalLabeledData(body)
		if err != nil {
			return nil, err
		}
		values := make(map[string]float64, len(decoded.Labels))
		for i, label := range decoded.Labels {
			values[label] = decoded.Data[i]
		}
		return &model.MetricSnapshot{
			FetchedAt: fetchedAt,
			Labels:    decoded.Labels,
			Colors:    decoded.BackgroundColor,
			Values:    values,
		}, nil
	}

	values := make(map[string]float64)
	texts := make(map[string]string)
	labels := make([]string, 0, len(probe))
	for field, raw := range probe {
		labels = append(labels, field)
		var num float64
		if err := json.Unmarshal(raw, &num); err == nil {
			values[field] = num
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("field %q is neither number nor string", field)
		}
		texts[field] = text
	}
	sort.Strings(labels)

	return &model.MetricSnapshot{
		FetchedAt:  fetchedAt,
		Labels:     labels,
		Values:     values,
		TextValues: texts,
	}, nil
}

func unmarshalLabeledData(body []byte) (*labeledDataBody, error) {
	var decoded labeledDataBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Labels) == 0 {
		return nil, errors.New("missing labels")
	}
	if len(decoded.Data) != len(decoded.Labels) {
		return nil, fmt.Errorf("data has %d values for %d labels", len(decoded.Data), len(decoded.Labels))
	}
	return &decoded, nil
}
