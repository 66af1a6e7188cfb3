// Package domain models the weather-shield hazard session data.
//
// # Data Sources
//
// Numeric telemetry is merged from three providers fetched concurrently for a
// single coordinate: the Open-Meteo forecast API (current conditions plus a
// multi-day series), the Open-Meteo air quality API (US AQI), and the USGS
// FDSN event service (nearest seismic event within 500 km, capped to one
// result). A fetch is all-or-nothing: if any provider fails or returns a
// malformed body, no partial telemetry is surfaced.
//
// Narrative fields (risk analysis, infrastructure impact, protocols, alerts)
// come from the LLM synthesis provider as strict-schema JSON and are validated
// again at the boundary by [ParseSynthesisReport]. The alert set is replaced
// wholesale on every successful synthesis; alerts are never merged
// incrementally.
//
// # Severity
//
// Alert severity is a total order LOW < MEDIUM < HIGH < CRITICAL with
// [SeverityNone] below LOW. The session's single severity signal is always
// recomputed from the current alert list by [HighestSeverity]; an empty list
// is SeverityNone, never LOW.
//
// # AQI Classification
//
// The air quality label and color are derived locally from fixed US AQI
// breakpoints (see [ClassifyAQI]) so the classification is deterministic and
// independent of the LLM's wording:
//
//	>150  very unhealthy  #ef4444
//	>100  unhealthy       #f97316
//	>50   moderate        #eab308
//	else  good            #22c55e
//
// # Freshness
//
// A refresh is either cheap (numeric patch, narrative untouched) or full
// (telemetry + synthesis, wholesale state replacement). [DecideRefreshPath]
// encodes the rule: manual triggers and first loads always go full; periodic
// triggers go full once the last full synthesis is older than
// [StaleThreshold], cheap otherwise.
//
// # Alert Timestamps
//
// Alert timestamps are producer-supplied civil strings in "YYYY-MM-DD HH:mm"
// format. The core treats them as opaque display text; alerts are reduced by
// severity, never sorted by time.
package domain
