package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-shield/internal/adapter/gemini"
	httpadapter "github.com/couchcryptid/weather-shield/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-shield/internal/adapter/kafka"
	"github.com/couchcryptid/weather-shield/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-shield/internal/adapter/position"
	"github.com/couchcryptid/weather-shield/internal/adapter/rainviewer"
	"github.com/couchcryptid/weather-shield/internal/adapter/store"
	"github.com/couchcryptid/weather-shield/internal/adapter/usgs"
	"github.com/couchcryptid/weather-shield/internal/alarm"
	"github.com/couchcryptid/weather-shield/internal/config"
	"github.com/couchcryptid/weather-shield/internal/domain"
	"github.com/couchcryptid/weather-shield/internal/observability"
	"github.com/couchcryptid/weather-shield/internal/session"
	"github.com/couchcryptid/weather-shield/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	settings, err := store.Open(cfg.SQLitePath, logger)
	if err != nil {
		logger.Error("failed to open settings store", "error", err)
		os.Exit(1)
	}
	defer settings.Close()

	credentials := store.NewCredentials(settings, cfg.GeminiAPIKey)
	llm := gemini.NewRateLimited(
		gemini.NewClient(credentials, cfg.GeminiModel, cfg.GeminiTimeout, logger),
		cfg.GeminiRPS, cfg.GeminiBurst,
	)
	geocoder := gemini.NewCachedGeocoder(llm, cfg.GeocodeCache)

	meteo := openmeteo.NewClient(cfg.ForecastBaseURL, cfg.AirQualityBaseURL, cfg.ProviderTimeout, logger)
	seismic := usgs.NewClient(cfg.SeismicBaseURL, cfg.SeismicRadiusKm, cfg.ProviderTimeout, logger)
	radar := rainviewer.NewClient(cfg.RadarBaseURL, cfg.ProviderTimeout, clock, logger)
	fetcher := telemetry.NewFetcher(meteo, meteo, seismic, logger, metrics)

	var locator domain.Locator = position.Unavailable{}
	if cfg.DeviceSet {
		locator = position.NewStatic(cfg.DeviceLat, cfg.DeviceLon)
		logger.Info("fixed device position configured", "lat", cfg.DeviceLat, "lon", cfg.DeviceLon)
	}

	controller := alarm.NewController(alarm.NewLogSounder(logger), clock, logger, metrics)
	defer controller.Stop()

	// Alert escalation publishing (feature-flagged via KAFKA_ENABLED).
	var publisher session.AlertPublisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		defer kp.Close()
		publisher = kp
		logger.Info("alert escalation enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("alert escalation disabled")
	}

	sess := session.New(session.Deps{
		Telemetry:     fetcher,
		Geocoder:      geocoder,
		Synthesizer:   llm,
		Locator:       locator,
		Radar:         radar,
		Store:         settings,
		Alarm:         controller,
		Alerts:        publisher,
		Logger:        logger,
		Metrics:       metrics,
		Clock:         clock,
		SyncInterval:  cfg.SyncInterval,
		RadarInterval: cfg.RadarInterval,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, sess, sess, controller, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := sess.Run(ctx); err != nil {
			logger.Error("session error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
