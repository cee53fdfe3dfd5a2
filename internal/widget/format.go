package widget

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"healthcare-interop-dashboard/internal/model"
)

var printer = message.NewPrinter(language.English)

// FormatCount renders an integer with locale grouping, e.g. 2847 -> "2,847".
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatPercent renders a percentage to one decimal place with a trailing
// percent sign, e.g. 99.92 -> "99.9%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatValue applies a widget binding's format to a numeric value.
func FormatValue(format model.ValueFormat, v float64) string {
	switch format {
	case model.FormatCount:
		return FormatCount(v)
	case model.FormatPercent:
		return FormatPercent(v)
	case model.FormatMillis:
		return printer.Sprintf("%dms", int64(math.Round(v)))
	case model.FormatDecimal:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
