package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SQLitePath is the settings store holding the last known location and
	// the synthesis provider API key.
	SQLitePath string

	// Telemetry provider configuration.
	ForecastBaseURL   string
	AirQualityBaseURL string
	SeismicBaseURL    string
	SeismicRadiusKm   int
	ProviderTimeout   time.Duration

	// Synthesis provider (Gemini) configuration. The API key may also live in
	// the settings store; the store value wins when both are set.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration
	GeminiRPS     float64
	GeminiBurst   int
	GeocodeCache  int

	// Session timing.
	SyncInterval  time.Duration // periodic freshness check
	RadarInterval time.Duration // radar overlay metadata refresh
	RadarBaseURL  string

	// Optional fixed device position, used when no location was persisted.
	// Both must be set together.
	DeviceLat float64
	DeviceLon float64
	DeviceSet bool

	// Optional alert escalation publishing.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAlertTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geminiTimeout, err := parseDuration("GEMINI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	syncInterval, err := parseDuration("SYNC_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	radarInterval, err := parseDuration("RADAR_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	radiusKm, err := parseInt("SEISMIC_RADIUS_KM", 500)
	if err != nil {
		return nil, err
	}
	geocodeCache, err := parseInt("GEOCODE_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	geminiBurst, err := parseInt("GEMINI_BURST", 2)
	if err != nil {
		return nil, err
	}

	geminiRPS, err := parseFloat("GEMINI_RPS", 0.5)
	if err != nil {
		return nil, err
	}

	deviceLat, latSet, err := parseCoordinate("DEVICE_LAT")
	if err != nil {
		return nil, err
	}
	deviceLon, lonSet, err := parseCoordinate("DEVICE_LON")
	if err != nil {
		return nil, err
	}
	if latSet != lonSet {
		return nil, errors.New("DEVICE_LAT and DEVICE_LON must be set together")
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SQLitePath: envOrDefault("SQLITE_PATH", "weather-shield.db"),

		ForecastBaseURL:   envOrDefault("FORECAST_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		AirQualityBaseURL: envOrDefault("AIR_QUALITY_BASE_URL", "https://air-quality-api.open-meteo.com/v1/air-quality"),
		SeismicBaseURL:    envOrDefault("SEISMIC_BASE_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),
		SeismicRadiusKm:   radiusKm,
		ProviderTimeout:   providerTimeout,

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiTimeout: geminiTimeout,
		GeminiRPS:     geminiRPS,
		GeminiBurst:   geminiBurst,
		GeocodeCache:  geocodeCache,

		SyncInterval:  syncInterval,
		RadarInterval: radarInterval,
		RadarBaseURL:  envOrDefault("RADAR_BASE_URL", "https://api.rainviewer.com/public/weather-maps.json"),

		DeviceLat: deviceLat,
		DeviceLon: deviceLon,
		DeviceSet: latSet && lonSet,

		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    kafkaBrokers,
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "weather-shield-alerts"),
	}

	if cfg.SeismicRadiusKm <= 0 {
		return nil, errors.New("SEISMIC_RADIUS_KM must be positive")
	}
	if cfg.SyncInterval <= 0 {
		return nil, errors.New("SYNC_INTERVAL must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return f, nil
}

func parseCoordinate(key string) (float64, bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q", key, s)
	}
	return f, true, nil
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
