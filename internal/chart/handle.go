package chart

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"healthcare-interop-dashboard/internal/model"
	"healthcare-interop-dashboard/internal/widget"
)

const (
	defaultWidth  = "620px"
	defaultHeight = "420px"
)

// Handle is one live rendering surface bound to a single metric query. The
// underlying chart object is created exactly once and mutated in place on
// every refresh so visual state survives updates; it is destroyed exactly
// once at teardown.
type Handle struct {
	ID       string
	Query    model.MetricQuery
	Encoding model.EncodingConfig

	line *charts.Line
	pie  *charts.Pie
	bar  *charts.Bar

	last      *model.MetricSnapshot
	destroyed bool
}

func newHandle(query model.MetricQuery, encoding model.EncodingConfig) *Handle {
	h := &Handle{
		ID:       encoding.Surface,
		Query:    query,
		Encoding: encoding,
	}

	init := opts.Initialization{Width: defaultWidth, Height: defaultHeight}
	title := charts.WithTitleOpts(opts.Title{Title: encoding.Title})

	switch query.Shape {
	case model.ShapeTimeSeries:
		h.line = charts.NewLine()
		h.line.SetGlobalOptions(
			title,
			charts.WithInitializationOpts(init),
			charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: true}),
			charts.WithYAxisOpts(opts.YAxis{Min: 0}),
		)
	case model.ShapeCategoryDist:
		h.pie = charts.NewPie()
		h.pie.SetGlobalOptions(
			title,
			charts.WithInitializationOpts(init),
			charts.WithTooltipOpts(opts.Tooltip{Show: true}),
			charts.WithLegendOpts(opts.Legend{Show: true}),
		)
	case model.ShapeScalarSet:
		yAxis := opts.YAxis{Min: 0}
		if encoding.YMax > 0 {
			yAxis.Max = encoding.YMax
		}
		h.bar = charts.NewBar()
		h.bar.SetGlobalOptions(
			title,
			charts.WithInitializationOpts(init),
			charts.WithTooltipOpts(opts.Tooltip{Show: true}),
			charts.WithYAxisOpts(yAxis),
		)
	}

	return h
}

// apply replaces the chart's displayed data without recreating the chart
// object. Callers hold the manager lock.
func (h *Handle) apply(snapshot *model.MetricSnapshot) {
	switch {
	case h.line != nil:
		h.line.MultiSeries = h.line.MultiSeries[:0]
		h.line.SetXAxis(snapshot.Labels)
		for _, name := range snapshot.SeriesNames() {
			data := make([]opts.LineData, len(snapshot.Series[name]))
			for i, v := range snapshot.Series[name] {
				data[i] = opts.LineData{Value: v}
			}
			h.line.AddSeries(name, data,
				charts.WithLineStyleOpts(opts.LineStyle{Color: snapshot.SeriesColors[name]}),
			)
		}
	case h.pie != nil:
		values := snapshot.Series[model.DefaultSeriesKey]
		data := make([]opts.PieData, len(snapshot.Labels))
		for i, label := range snapshot.Labels {
			data[i] = opts.PieData{Name: label, Value: values[i]}
			if i < len(snapshot.Colors) {
				data[i].ItemStyle = &opts.ItemStyle{Color: snapshot.Colors[i]}
			}
		}
		h.pie.MultiSeries = h.pie.MultiSeries[:0]
		h.pie.AddSeries(h.Encoding.Title, data,
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{"45%", "75%"}}),
			charts.WithLabelOpts(opts.Label{Show: true, Formatter: "{b}: {c} ({d}%)"}),
		)
	case h.bar != nil:
		data := make([]opts.BarData, len(snapshot.Labels))
		for i, label := range snapshot.Labels {
			data[i] = opts.BarData{Value: snapshot.Values[label]}
			if i < len(snapshot.Colors) {
				data[i].ItemStyle = &opts.ItemStyle{Color: snapshot.Colors[i]}
			}
		}
		h.bar.MultiSeries = h.bar.MultiSeries[:0]
		h.bar.SetXAxis(snapshot.Labels)
		h.bar.AddSeries(h.Encoding.Title, data)
	}
	h.last = snapshot
}

func (h *Handle) resize(width, height string) {
	switch {
	case h.line != nil:
		h.line.Initialization.Width = width
		h.line.Initialization.Height = height
	case h.pie != nil:
		h.pie.Initialization.Width = width
		h.pie.Initialization.Height = height
	case h.bar != nil:
		h.bar.Initialization.Width = width
		h.bar.Initialization.Height = height
	}
}

func (h *Handle) charter() components.Charter {
	switch {
	case h.line != nil:
		return h.line
	case h.pie != nil:
		return h.pie
	default:
		return h.bar
	}
}

// LastSnapshot returns the most recently applied snapshot.
func (h *Handle) LastSnapshot() *model.MetricSnapshot {
	return h.last
}

// TooltipText renders the hover text for the label at index i, e.g.
// "Uptime: 99.9%" on a system-health bar.
func (h *Handle) TooltipText(i int) string {
	if h.last == nil || i < 0 || i >= len(h.last.Labels) {
		return ""
	}
	label := h.last.Labels[i]
	var value float64
	switch h.Query.Shape {
	case model.ShapeScalarSet:
		value = h.last.Values[label]
	case model.ShapeCategoryDist:
		value = h.last.Series[model.DefaultSeriesKey][i]
	default:
		return ""
	}
	if h.Encoding.Unit == "%" {
		return h.Encoding.ValuePrefix + widget.FormatPercent(value)
	}
	return fmt.Sprintf("%s%v%s", h.Encoding.ValuePrefix, value, h.Encoding.Unit)
}

// CategoryLabel renders the display text of one donut segment: the raw
// value accompanied by its share of this snapshot's total. The percentage
// is recomputed from the current snapshot on every call, never carried over
// from a prior one.
func (h *Handle) CategoryLabel(i int) string {
	if h.last == nil || i < 0 || i >= len(h.last.Labels) {
		return ""
	}
	values := h.last.Series[model.DefaultSeriesKey]
	pct := PercentOfTotal(values, i)
	return fmt.Sprintf("%s: %v (%s)", h.last.Labels[i], values[i], widget.FormatPercent(pct))
}

// PercentOfTotal returns values[i] as a percentage of the sum of values,
// rounded to one decimal place.
func PercentOfTotal(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return 0
	}
	return math.Round(values[i]/total*1000) / 10
}
