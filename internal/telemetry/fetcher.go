// Package telemetry fetches the raw hazard snapshot for a coordinate by
// querying the forecast, air quality, and seismic providers concurrently.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/weather-shield/internal/domain"
	"github.com/couchcryptid/weather-shield/internal/observability"
)

// Fetcher fans out to the three telemetry providers and merges their results
// into a single RawTelemetry. Any provider failure fails the whole fetch.
type Fetcher struct {
	forecast   domain.ForecastProvider
	airQuality domain.AirQualityProvider
	seismic    domain.SeismicProvider
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFetcher creates a Fetcher over the given providers.
func NewFetcher(f domain.ForecastProvider, a domain.AirQualityProvider, s domain.SeismicProvider, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		forecast:   f,
		airQuality: a,
		seismic:    s,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch gathers forecast, AQI, and seismic data for coord in parallel. A
// partial snapshot is never returned: the first provider error cancels the
// rest and the call reports domain.ErrTelemetryFetch.
func (f *Fetcher) Fetch(ctx context.Context, coord domain.Coordinate) (domain.RawTelemetry, error) {
	var (
		obs     domain.ForecastObservation
		aqi     int
		seismic domain.SeismicSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(f.instrumented("forecast", func() error {
		var err error
		obs, err = f.forecast.CurrentForecast(gctx, coord)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		return nil
	}))
	g.Go(f.instrumented("air_quality", func() error {
		var err error
		aqi, err = f.airQuality.CurrentAQI(gctx, coord)
		if err != nil {
			return fmt.Errorf("air quality: %w", err)
		}
		return nil
	}))
	g.Go(f.instrumented("seismic", func() error {
		var err error
		seismic, err = f.seismic.NearestEvent(gctx, coord)
		if err != nil {
			return fmt.Errorf("seismic: %w", err)
		}
		return nil
	}))

	if err := g.Wait(); err != nil {
		f.logger.Warn("telemetry fetch failed", "lat", coord.Lat, "lon", coord.Lon, "error", err)
		return domain.RawTelemetry{}, fmt.Errorf("%w: %w", domain.ErrTelemetryFetch, err)
	}

	raw := domain.RawTelemetry{
		Temp:          obs.Temp,
		Humidity:      obs.Humidity,
		WindSpeed:     obs.WindSpeed,
		WindDirection: obs.WindDirection,
		Visibility:    obs.Visibility,
		ApparentTemp:  obs.ApparentTemp,
		WeatherCode:   obs.WeatherCode,
		AQI:           aqi,
		Seismic:       seismic,
		Daily:         obs.Daily,
	}
	if err := raw.Validate(); err != nil {
		return domain.RawTelemetry{}, fmt.Errorf("%w: %w", domain.ErrTelemetryFetch, err)
	}
	return raw, nil
}

// instrumented wraps one provider call with request and duration metrics.
func (f *Fetcher) instrumented(provider string, call func() error) func() error {
	return func() error {
		start := time.Now()
		err := call()
		f.metrics.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		f.metrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
		return err
	}
}
