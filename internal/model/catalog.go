package model

// BoundQuery ties a MetricQuery to its presentation targets: either a chart
// encoding, a set of widget bindings, or both.
type BoundQuery struct {
	Query    MetricQuery
	Chart    *EncodingConfig
	Bindings []WidgetBinding
}

// DefaultCatalog returns the metric groups of the interoperability
// dashboard: three chart panels plus five partner/service widget groups.
func DefaultCatalog() []BoundQuery {
	return []BoundQuery{
		{
			Query: MetricQuery{Name: "response-times", Path: "/api/analytics/response-times", Shape: ShapeTimeSeries},
			Chart: &EncodingConfig{
				Surface: "chart-response-times",
				Title:   "API Response Times",
				Unit:    "ms",
			},
		},
		{
			Query: MetricQuery{Name: "message-volume", Path: "/api/analytics/message-volume", Shape: ShapeCategoryDist},
			Chart: &EncodingConfig{
				Surface: "chart-message-volume",
				Title:   "HL7 Message Volume",
			},
		},
		{
			Query: MetricQuery{Name: "system-health", Path: "/api/analytics/system-health", Shape: ShapeScalarSet},
			Chart: &EncodingConfig{
				Surface:     "chart-system-health",
				Title:       "System Health",
				Unit:        "%",
				ValuePrefix: "Uptime: ",
				YMax:        100,
			},
		},
		{
			Query: MetricQuery{Name: "fhir-metrics", Path: "/api/fhir/metrics", Shape: ShapeScalarSet},
			Bindings: []WidgetBinding{
				{Field: "active_patients", WidgetID: "fhir-active-patients", Format: FormatCount},
				{Field: "requests_per_minute", WidgetID: "fhir-requests-per-minute", Format: FormatCount},
				{Field: "uptime_percentage", WidgetID: "fhir-uptime", Format: FormatPercent},
				{Field: "response_time_ms", WidgetID: "fhir-response-time", Format: FormatMillis},
			},
		},
		{
			Query: MetricQuery{Name: "hl7-metrics", Path: "/api/hl7/metrics", Shape: ShapeScalarSet},
			Bindings: []WidgetBinding{
				{Field: "daily_message_count", WidgetID: "hl7-daily-messages", Format: FormatCount},
				{Field: "avg_processing_time", WidgetID: "hl7-avg-processing", Format: FormatDecimal, Suffix: "s"},
				{Field: "most_common_type", WidgetID: "hl7-common-type", Format: FormatText},
				{Field: "queue_depth", WidgetID: "hl7-queue-depth", Format: FormatCount},
			},
		},
		{
			Query: MetricQuery{Name: "epic-metrics", Path: "/api/epic/metrics", Shape: ShapeScalarSet},
			Bindings: []WidgetBinding{
				{Field: "provider_organizations", WidgetID: "epic-organizations", Format: FormatCount},
				{Field: "patient_records", WidgetID: "epic-patient-records", Format: FormatText},
				{Field: "response_time_ms", WidgetID: "epic-response-time", Format: FormatMillis},
				{Field: "api_calls_per_second", WidgetID: "epic-api-calls", Format: FormatCount},
			},
		},
		{
			Query: MetricQuery{Name: "cerner-metrics", Path: "/api/cerner/metrics", Shape: ShapeScalarSet},
			Bindings: []WidgetBinding{
				{Field: "connected_facilities", WidgetID: "cerner-facilities", Format: FormatCount},
				{Field: "medication_orders_today", WidgetID: "cerner-medication-orders", Format: FormatCount},
				{Field: "lab_results_processed", WidgetID: "cerner-lab-results", Format: FormatCount},
				{Field: "average_response_time", WidgetID: "cerner-response-time", Format: FormatMillis},
			},
		},
		{
			Query: MetricQuery{Name: "azure-metrics", Path: "/api/azure/metrics", Shape: ShapeScalarSet},
			Bindings: []WidgetBinding{
				{Field: "sla_compliance", WidgetID: "azure-sla", Format: FormatPercent},
				{Field: "data_processed_tb", WidgetID: "azure-data-processed", Format: FormatDecimal, Suffix: " TB"},
				{Field: "api_calls_per_second", WidgetID: "azure-api-calls", Format: FormatCount},
				{Field: "storage_used_gb", WidgetID: "azure-storage", Format: FormatCount},
			},
		},
	}
}
