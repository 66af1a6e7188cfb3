// Package rainviewer fetches radar overlay frame metadata from the RainViewer
// public weather-maps endpoint.
package rainviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

// Client implements domain.RadarProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a RainViewer metadata client.
func NewClient(baseURL string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:  clock,
		logger: logger,
	}
}

// Maps fetches the current radar frame metadata.
func (c *Client) Maps(ctx context.Context) (domain.RadarMaps, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return domain.RadarMaps{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RadarMaps{}, fmt.Errorf("radar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.RadarMaps{}, fmt.Errorf("rainviewer API error: status %d: %s", resp.StatusCode, body)
	}

	var maps mapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&maps); err != nil {
		return domain.RadarMaps{}, fmt.Errorf("decode radar response: %w", err)
	}
	if maps.Host == "" {
		return domain.RadarMaps{}, fmt.Errorf("radar body missing %q", "host")
	}

	return domain.RadarMaps{
		Host:      maps.Host,
		Past:      frames(maps.Radar.Past),
		Nowcast:   frames(maps.Radar.Nowcast),
		FetchedAt: c.clock.Now(),
	}, nil
}

func frames(in []frame) []domain.RadarFrame {
	out := make([]domain.RadarFrame, len(in))
	for i, f := range in {
		out[i] = domain.RadarFrame{Time: f.Time, Path: f.Path}
	}
	return out
}

// RainViewer weather-maps.json response types.

type mapsResponse struct {
	Host  string `json:"host"`
	Radar struct {
		Past    []frame `json:"past"`
		Nowcast []frame `json:"nowcast"`
	} `json:"radar"`
}

type frame struct {
	Time int64  `json:"time"`
	Path string `json:"path"`
}
