package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-proxy/internal/api/http"
	"github.com/i474232898/weather-proxy/internal/config"
	"github.com/i474232898/weather-proxy/internal/logging"
	"github.com/i474232898/weather-proxy/internal/scheduler"
	"github.com/i474232898/weather-proxy/internal/store"
	"github.com/i474232898/weather-proxy/internal/weather"
	"github.com/i474232898/weather-proxy/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg, "weather-proxy")
	if cfg.DotEnvErr != nil {
		logger.Info("no .env file loaded", "error", cfg.DotEnvErr)
	}
	if cfg.HasAPIKey() {
		logger.Info("openweather api key configured", "key", cfg.MaskedAPIKey())
	} else {
		logger.Warn("OPENWEATHER_API_KEY is not set; provider calls will fail")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Provider with client-side rate limit and circuit breaker.
	provider := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherOptions{
		APIKey:  cfg.OpenWeatherAPIKey,
		BaseURL: cfg.OpenWeatherBaseURL,
		Lang:    cfg.OpenWeatherLang,
		RateLimit: providers.RateLimitConfig{
			RequestsPerSecond: cfg.UpstreamRateLimit,
			Burst:             cfg.UpstreamRateBurst,
		},
	}, logger)

	// In-memory probe history with configured retention.
	probes := store.NewMemoryStore(cfg.ProbeMaxHistory, cfg.ProbeMaxAge)

	service := weather.NewService(provider, probes, cfg.ProbeCity, logger)

	// Scheduler that periodically probes the provider.
	sched := scheduler.New(cfg.ProbeInterval, service, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, logger)

	go func() {
		logger.Info("http server listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
