package model

// EncodingConfig is the static visual configuration of one chart, fixed at
// creation time and never changed by a refresh.
type EncodingConfig struct {
	// Surface is the identifier of the render target the chart binds to.
	Surface string

	Title string

	// Unit is appended to tooltip values, e.g. "%" or "ms".
	Unit string

	// ValuePrefix prefixes tooltip values, e.g. "Uptime: ".
	ValuePrefix string

	// YMax bounds the y-axis to the metric's natural range when > 0
	// (100 for percentage metrics). Zero leaves the axis unbounded.
	YMax float64
}

// ValueFormat selects how a widget binding renders a scalar.
type ValueFormat string

const (
	FormatCount   ValueFormat = "count"   // integer with locale grouping
	FormatPercent ValueFormat = "percent" // one decimal, trailing %
	FormatMillis  ValueFormat = "millis"  // integer with "ms" suffix
	FormatDecimal ValueFormat = "decimal" // one decimal place
	FormatText    ValueFormat = "text"    // passed through unchanged
)

// WidgetBinding maps one field of a labeled-scalar-set snapshot to a named
// text widget on the page.
type WidgetBinding struct {
	Field    string
	WidgetID string
	Format   ValueFormat

	// Suffix is appended after formatting, e.g. " TB".
	Suffix string
}
