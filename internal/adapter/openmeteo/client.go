// Package openmeteo implements the forecast and air quality providers using
// the Open-Meteo public APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

// Client implements domain.ForecastProvider and domain.AirQualityProvider.
type Client struct {
	forecastURL   string
	airQualityURL string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates an Open-Meteo client for both endpoints.
func NewClient(forecastURL, airQualityURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		forecastURL:   forecastURL,
		airQualityURL: airQualityURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// CurrentForecast fetches current conditions plus the multi-day series.
// Any missing required field is a malformed body.
func (c *Client) CurrentForecast(ctx context.Context, coord domain.Coordinate) (domain.ForecastObservation, error) {
	params := url.Values{
		"latitude":  {formatCoord(coord.Lat)},
		"longitude": {formatCoord(coord.Lon)},
		"current":   {"temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m,wind_direction_10m,visibility"},
		"daily":     {"weather_code,temperature_2m_max,temperature_2m_min"},
		"timezone":  {"auto"},
	}

	var resp forecastResponse
	if err := c.doRequest(ctx, c.forecastURL+"?"+params.Encode(), "forecast", &resp); err != nil {
		return domain.ForecastObservation{}, err
	}

	cur := resp.Current
	if cur == nil {
		return domain.ForecastObservation{}, fmt.Errorf("forecast body missing %q", "current")
	}
	switch {
	case cur.Temperature == nil:
		return domain.ForecastObservation{}, fmt.Errorf("forecast body missing %q", "temperature_2m")
	case cur.Humidity == nil:
		return domain.ForecastObservation{}, fmt.Errorf("forecast body missing %q", "relative_humidity_2m")
	case cur.WindSpeed == nil:
		return domain.ForecastObservation{}, fmt.Errorf("forecast body missing %q", "wind_speed_10m")
	case cur.WindDirection == nil:
		return domain.ForecastObservation{}, fmt.Errorf("forecast body missing %q", "wind_direction_10m")
	case cur.WeatherCode == nil:
		return domain.ForecastObservation{}, fmt.Errorf("forecast body missing %q", "weather_code")
	}

	obs := domain.ForecastObservation{
		Temp:          *cur.Temperature,
		Humidity:      *cur.Humidity,
		WindSpeed:     *cur.WindSpeed,
		WindDirection: *cur.WindDirection,
		WeatherCode:   *cur.WeatherCode,
	}
	if cur.ApparentTemp != nil {
		obs.ApparentTemp = *cur.ApparentTemp
	}
	if cur.Visibility != nil {
		obs.Visibility = *cur.Visibility
	}
	if resp.Daily != nil {
		obs.Daily = domain.DailySeries{
			Time:        resp.Daily.Time,
			MaxTemp:     resp.Daily.MaxTemp,
			MinTemp:     resp.Daily.MinTemp,
			WeatherCode: resp.Daily.WeatherCode,
		}
	}
	return obs, nil
}

// CurrentAQI fetches the current US AQI.
func (c *Client) CurrentAQI(ctx context.Context, coord domain.Coordinate) (int, error) {
	params := url.Values{
		"latitude":  {formatCoord(coord.Lat)},
		"longitude": {formatCoord(coord.Lon)},
		"current":   {"us_aqi"},
	}

	var resp airQualityResponse
	if err := c.doRequest(ctx, c.airQualityURL+"?"+params.Encode(), "air quality", &resp); err != nil {
		return 0, err
	}
	if resp.Current == nil || resp.Current.USAQI == nil {
		return 0, fmt.Errorf("air quality body missing %q", "us_aqi")
	}
	return int(*resp.Current.USAQI), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL, source string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", source, err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Open-Meteo API response types. Required fields use pointers so an absent
// field is distinguishable from zero.

type forecastResponse struct {
	Current *currentConditions `json:"current"`
	Daily   *dailySeries       `json:"daily"`
}

type currentConditions struct {
	Temperature   *float64 `json:"temperature_2m"`
	Humidity      *float64 `json:"relative_humidity_2m"`
	ApparentTemp  *float64 `json:"apparent_temperature"`
	WeatherCode   *int     `json:"weather_code"`
	WindSpeed     *float64 `json:"wind_speed_10m"`
	WindDirection *float64 `json:"wind_direction_10m"`
	Visibility    *float64 `json:"visibility"`
}

type dailySeries struct {
	Time        []string  `json:"time"`
	MaxTemp     []float64 `json:"temperature_2m_max"`
	MinTemp     []float64 `json:"temperature_2m_min"`
	WeatherCode []int     `json:"weather_code"`
}

type airQualityResponse struct {
	Current *struct {
		USAQI *float64 `json:"us_aqi"`
	} `json:"current"`
}
