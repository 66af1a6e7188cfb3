// Package usgs implements the seismic provider using the USGS FDSN event
// service.
package usgs

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

// Client implements domain.SeismicProvider.
type Client struct {
	baseURL    string
	radiusKm   int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a USGS event client searching within radiusKm of the
// queried coordinate.
func NewClient(baseURL string, radiusKm int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		radiusKm: radiusKm,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NearestEvent returns the nearest event capped to one result. Zero features
// is the valid stable result; a malformed body is an error.
func (c *Client) NearestEvent(ctx context.Context, coord domain.Coordinate) (domain.SeismicSummary, error) {
	params := url.Values{
		"format":      {"geojson"},
		"latitude":    {strconv.FormatFloat(coord.Lat, 'f', 4, 64)},
		"longitude":   {strconv.FormatFloat(coord.Lon, 'f', 4, 64)},
		"maxradiuskm": {strconv.Itoa(c.radiusKm)},
		"limit":       {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.SeismicSummary{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SeismicSummary{}, fmt.Errorf("seismic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.SeismicSummary{}, fmt.Errorf("USGS API error: status %d: %s", resp.StatusCode, body)
	}

	var geo geoJSONResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return domain.SeismicSummary{}, fmt.Errorf("decode seismic response: %w", err)
	}

	if len(geo.Features) == 0 {
		return domain.SeismicSummary{Activity: domain.SeismicStable}, nil
	}

	props := geo.Features[0].Properties
	return domain.SeismicSummary{
		Activity:  domain.SeismicObserved,
		Magnitude: props.Mag,
		Nearest:   props.Place,
	}, nil
}

// USGS FDSN geojson response types.

type geoJSONResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
}

type properties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
}
