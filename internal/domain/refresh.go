package domain

import (
	"fmt"
	"time"
)

// StaleThreshold is the maximum age of the last full synthesis before a
// periodic trigger escalates from the cheap path to the full path.
const StaleThreshold = 30 * time.Minute

// RefreshPath selects between the cheap numeric-only refresh and the full
// telemetry-plus-synthesis refresh.
type RefreshPath int

const (
	// PathCheap fetches telemetry only and patches the numeric fields in
	// place, reusing prior narrative content.
	PathCheap RefreshPath = iota

	// PathFull fetches telemetry, runs narrative synthesis, and replaces the
	// WeatherState wholesale.
	PathFull
)

func (p RefreshPath) String() string {
	if p == PathFull {
		return "full"
	}
	return "cheap"
}

// DecideRefreshPath applies the freshness rule. Manual triggers always go
// full, as does the first load (no state yet) and any periodic trigger whose
// last full synthesis is older than StaleThreshold. lastFullSync's zero value
// means a full synthesis has never succeeded.
func DecideRefreshPath(manual, hasState bool, lastFullSync, now time.Time) RefreshPath {
	if manual || !hasState || lastFullSync.IsZero() {
		return PathFull
	}
	if now.Sub(lastFullSync) > StaleThreshold {
		return PathFull
	}
	return PathCheap
}

// Validate checks that the telemetry's daily series arrays are aligned.
// Misalignment is treated as a malformed provider body.
func (t RawTelemetry) Validate() error {
	n := len(t.Daily.Time)
	if len(t.Daily.MaxTemp) != n || len(t.Daily.MinTemp) != n || len(t.Daily.WeatherCode) != n {
		return fmt.Errorf("daily series misaligned: time=%d max=%d min=%d code=%d",
			n, len(t.Daily.MaxTemp), len(t.Daily.MinTemp), len(t.Daily.WeatherCode))
	}
	return nil
}

// ApplyObservations is the cheap-path merge: it overwrites only the live
// numeric fields and the timestamp, leaving every narrative field untouched.
// Applying it any number of times never changes riskAnalysis, protocols,
// forecast, or alerts.
func ApplyObservations(state WeatherState, raw RawTelemetry) WeatherState {
	state.Temp = raw.Temp
	state.Humidity = raw.Humidity
	state.WindSpeed = raw.WindSpeed
	state.Timestamp = clock.Now().Format("15:04:05")
	return state
}

// ComposeWeatherState merges a validated synthesis report with the numeric
// telemetry it was produced from into a complete WeatherState replacement.
// The AQI classification is derived here from breakpoints so it cannot drift
// with the provider's wording.
func ComposeWeatherState(report SynthesisReport, raw RawTelemetry) WeatherState {
	return WeatherState{
		Temp:          raw.Temp,
		Condition:     report.Condition,
		Location:      report.Location,
		Humidity:      raw.Humidity,
		WindSpeed:     raw.WindSpeed,
		WindDirection: fmt.Sprintf("%.0f°", raw.WindDirection),
		Visibility:    fmt.Sprintf("%.1f km", raw.Visibility/1000),
		Timestamp:     clock.Now().Format("15:04:05"),

		RiskAnalysis:         report.RiskAnalysis,
		InfrastructureImpact: report.InfrastructureImpact,
		Protocols:            report.Protocols,
		Forecast:             report.Forecast,
		Alerts:               report.Alerts,

		AQI:     ClassifyAQI(raw.AQI),
		Seismic: raw.Seismic,
	}
}
