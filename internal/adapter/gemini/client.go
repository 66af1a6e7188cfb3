// Package gemini implements structured geocoding and narrative synthesis on
// the Gemini generateContent API. Both modes request strict-schema JSON and
// re-validate the payload at the boundary; a schema violation is a typed
// failure, never a partial result.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

// CredentialSource supplies the provider API key at call time. A missing key
// is reported as domain.ErrCredentialMissing before any network call.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// Client implements domain.Geocoder and domain.Synthesizer.
type Client struct {
	credentials CredentialSource
	model       string
	baseURL     string
	httpClient  *http.Client
	clock       clockwork.Clock
	logger      *slog.Logger
}

// NewClient creates a Gemini client for the given model.
func NewClient(credentials CredentialSource, model string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		credentials: credentials,
		model:       model,
		baseURL:     "https://generativelanguage.googleapis.com/v1beta",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}
}

// ResolveQuery turns a free-text location query into coordinates plus a
// canonical name via the structured-geocoding mode. Empty queries and any
// provider or schema failure surface as domain.ErrLocationResolution.
func (c *Client) ResolveQuery(ctx context.Context, query string) (domain.ResolvedLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: empty query", domain.ErrLocationResolution)
	}

	prompt := fmt.Sprintf("Convert the following location to coordinates and an official place name: %q. Respond with JSON only.", query)
	payload, err := c.generate(ctx, prompt, geocodeSchema)
	if err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %w", domain.ErrLocationResolution, err)
	}

	loc, err := domain.ParseResolvedLocation(payload)
	if err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %w", domain.ErrLocationResolution, err)
	}
	return loc, nil
}

// Synthesize sends the merged telemetry snapshot to the analysis model and
// returns the validated risk report. Failures surface as domain.ErrSynthesis.
func (c *Client) Synthesize(ctx context.Context, coord domain.Coordinate, raw domain.RawTelemetry) (domain.SynthesisReport, error) {
	payload, err := c.generate(ctx, c.synthesisPrompt(coord, raw), synthesisSchema)
	if err != nil {
		return domain.SynthesisReport{}, fmt.Errorf("%w: %w", domain.ErrSynthesis, err)
	}

	report, err := domain.ParseSynthesisReport(payload)
	if err != nil {
		return domain.SynthesisReport{}, fmt.Errorf("%w: %w", domain.ErrSynthesis, err)
	}
	return report, nil
}

func (c *Client) synthesisPrompt(coord domain.Coordinate, raw domain.RawTelemetry) string {
	magnitude := "none"
	if raw.Seismic.Magnitude != nil {
		magnitude = fmt.Sprintf("%.1f", *raw.Seismic.Magnitude)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are the strategic analyst for a weather and hazard operations center.\n")
	fmt.Fprintf(&b, "Analyze the following data for coordinate %.4f, %.4f:\n", coord.Lat, coord.Lon)
	fmt.Fprintf(&b, "- Weather: %.1f°C, wind %.1f km/h, humidity %.0f%%.\n", raw.Temp, raw.WindSpeed, raw.Humidity)
	fmt.Fprintf(&b, "- Air quality (US AQI): %d.\n", raw.AQI)
	fmt.Fprintf(&b, "- Nearby seismic activity: %s (magnitude %s).\n", raw.Seismic.Activity, magnitude)
	fmt.Fprintf(&b, "- Current time: %s.\n\n", c.clock.Now().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Tasks:\n")
	fmt.Fprintf(&b, "1. Cross-analyze the interaction between these factors.\n")
	fmt.Fprintf(&b, "2. Provide protective protocols.\n")
	fmt.Fprintf(&b, "3. Give every alert a \"timestamp\" field in YYYY-MM-DD HH:mm format.\n")
	fmt.Fprintf(&b, "Respond with JSON only.")
	return b.String()
}

// generate performs one generateContent call and returns the model's JSON text.
func (c *Client) generate(ctx context.Context, prompt string, schema json.RawMessage) ([]byte, error) {
	key, err := c.credentials.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, domain.ErrCredentialMissing
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, body)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty candidate in response")
	}
	return []byte(genResp.Candidates[0].Content.Parts[0].Text), nil
}

// Gemini API request/response types.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Response schemas constraining the model's JSON output. The same shapes are
// re-validated locally after decoding.

var geocodeSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"lat": {"type": "NUMBER"},
		"lng": {"type": "NUMBER"},
		"name": {"type": "STRING"}
	},
	"required": ["lat", "lng", "name"]
}`)

var synthesisSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"condition": {"type": "STRING"},
		"location": {"type": "STRING"},
		"riskAnalysis": {"type": "STRING"},
		"infrastructureImpact": {"type": "STRING"},
		"protocols": {"type": "ARRAY", "items": {"type": "STRING"}},
		"forecast": {
			"type": "ARRAY",
			"items": {
				"type": "OBJECT",
				"properties": {
					"day": {"type": "STRING"},
					"temp": {"type": "STRING"},
					"condition": {"type": "STRING"}
				},
				"required": ["day", "temp", "condition"]
			}
		},
		"alerts": {
			"type": "ARRAY",
			"items": {
				"type": "OBJECT",
				"properties": {
					"id": {"type": "STRING"},
					"title": {"type": "STRING"},
					"description": {"type": "STRING"},
					"severity": {"type": "STRING", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]},
					"type": {"type": "STRING"},
					"timestamp": {"type": "STRING"}
				},
				"required": ["id", "title", "description", "severity", "type", "timestamp"]
			}
		}
	},
	"required": ["condition", "location", "riskAnalysis", "infrastructureImpact", "protocols", "forecast", "alerts"]
}`)
