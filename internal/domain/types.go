package domain

import "time"

// Coordinate is a WGS-84 latitude/longitude pair. A location is either fully
// resolved (a complete Coordinate) or unresolved (no Coordinate at all);
// half-filled pairs never appear in stored state.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Seismic activity labels reported in telemetry. Absence of any nearby event
// is the valid "stable" result, not an error.
const (
	SeismicStable   = "stable"
	SeismicObserved = "activity detected"
)

// SeismicSummary describes the nearest seismic event within the search radius.
type SeismicSummary struct {
	Activity  string   `json:"activity"`
	Magnitude *float64 `json:"magnitude,omitempty"`
	Nearest   string   `json:"nearest,omitempty"`
}

// DailySeries holds the multi-day numeric forecast as parallel arrays aligned
// by index. All four slices must have equal length; Validate enforces this.
type DailySeries struct {
	Time        []string  `json:"time"`
	MaxTemp     []float64 `json:"max_temp"`
	MinTemp     []float64 `json:"min_temp"`
	WeatherCode []int     `json:"weather_code"`
}

// RawTelemetry is the numeric snapshot merged from the three providers.
type RawTelemetry struct {
	Temp          float64        `json:"temp"`
	Humidity      float64        `json:"humidity"`
	WindSpeed     float64        `json:"wind_speed"`
	WindDirection float64        `json:"wind_direction"`
	Visibility    float64        `json:"visibility"`
	ApparentTemp  float64        `json:"apparent_temp"`
	WeatherCode   int            `json:"weather_code"`
	AQI           int            `json:"aqi"`
	Seismic       SeismicSummary `json:"seismic"`
	Daily         DailySeries    `json:"daily"`
}

// Alert is a single synthesized hazard alert. Alerts are created only by the
// synthesis provider and are immutable once received; the active set is
// wholesale-replaced on each full synthesis.
type Alert struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Type        string   `json:"type"`
	Timestamp   string   `json:"timestamp"` // opaque "YYYY-MM-DD HH:mm" display text
}

// ForecastDay is one narrative forecast entry produced by synthesis.
type ForecastDay struct {
	Day       string `json:"day"`
	Temp      string `json:"temp"`
	Condition string `json:"condition"`
}

// WeatherState is the unified, display-ready record. Numeric fields are always
// as fresh as the most recent fetch; narrative fields may be carried over from
// an earlier full synthesis. The session actor is the only writer.
type WeatherState struct {
	Temp          float64 `json:"temp"`
	Condition     string  `json:"condition"`
	Location      string  `json:"location"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection string  `json:"wind_direction"`
	Visibility    string  `json:"visibility"`
	Timestamp     string  `json:"timestamp"`

	RiskAnalysis         string        `json:"risk_analysis"`
	InfrastructureImpact string        `json:"infrastructure_impact"`
	Protocols            []string      `json:"protocols"`
	Forecast             []ForecastDay `json:"forecast"`
	Alerts               []Alert       `json:"alerts"`

	AQI     AQIClass       `json:"aqi"`
	Seismic SeismicSummary `json:"seismic"`
}

// ResolvedLocation is the result of geocoding a free-text query or a device fix.
type ResolvedLocation struct {
	Coord Coordinate `json:"coord"`
	Name  string     `json:"name"`
}

// SynthesisReport is the validated narrative payload returned by the synthesis
// provider, before it is composed into a WeatherState.
type SynthesisReport struct {
	Condition            string        `json:"condition"`
	Location             string        `json:"location"`
	RiskAnalysis         string        `json:"riskAnalysis"`
	InfrastructureImpact string        `json:"infrastructureImpact"`
	Protocols            []string      `json:"protocols"`
	Forecast             []ForecastDay `json:"forecast"`
	Alerts               []Alert       `json:"alerts"`
}

// RadarFrame is one RainViewer radar tile timestamp.
type RadarFrame struct {
	Time int64  `json:"time"`
	Path string `json:"path"`
}

// RadarMaps is the radar overlay metadata refreshed on the background tick.
type RadarMaps struct {
	Host      string       `json:"host"`
	Past      []RadarFrame `json:"past"`
	Nowcast   []RadarFrame `json:"nowcast"`
	FetchedAt time.Time    `json:"fetched_at"`
}
