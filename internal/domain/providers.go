package domain

import "context"

// ForecastObservation is the current-conditions slice returned by the
// forecast provider, before merging into a RawTelemetry.
type ForecastObservation struct {
	Temp          float64
	Humidity      float64
	WindSpeed     float64
	WindDirection float64
	Visibility    float64
	ApparentTemp  float64
	WeatherCode   int
	Daily         DailySeries
}

// ForecastProvider returns current and multi-day numeric weather for a coordinate.
type ForecastProvider interface {
	CurrentForecast(ctx context.Context, coord Coordinate) (ForecastObservation, error)
}

// AirQualityProvider returns the current US AQI for a coordinate.
type AirQualityProvider interface {
	CurrentAQI(ctx context.Context, coord Coordinate) (int, error)
}

// SeismicProvider returns the nearest seismic event within the configured
// radius. No nearby event is the valid stable result, not an error.
type SeismicProvider interface {
	NearestEvent(ctx context.Context, coord Coordinate) (SeismicSummary, error)
}

// Geocoder resolves a free-text query to coordinates and a canonical name.
type Geocoder interface {
	ResolveQuery(ctx context.Context, query string) (ResolvedLocation, error)
}

// Synthesizer produces the structured risk narrative for a coordinate's
// telemetry snapshot.
type Synthesizer interface {
	Synthesize(ctx context.Context, coord Coordinate, raw RawTelemetry) (SynthesisReport, error)
}

// Locator reports the device position. Denial or timeout surfaces as
// ErrGeolocationUnavailable.
type Locator interface {
	CurrentPosition(ctx context.Context) (Coordinate, error)
}

// RadarProvider returns radar overlay frame metadata.
type RadarProvider interface {
	Maps(ctx context.Context) (RadarMaps, error)
}
