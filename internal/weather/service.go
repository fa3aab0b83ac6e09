package weather

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// DefaultProbeCity is used by Probe when no city is configured.
const DefaultProbeCity = "London"

// Service validates requests, calls the provider and shapes forecasts.
type Service struct {
	provider  Provider
	probes    ProbeStore
	probeCity string
	logger    *slog.Logger
}

// NewService creates a new Service. probes may be nil, in which case probe
// results are not recorded.
func NewService(provider Provider, probes ProbeStore, probeCity string, logger *slog.Logger) *Service {
	if probeCity == "" {
		probeCity = DefaultProbeCity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:  provider,
		probes:    probes,
		probeCity: probeCity,
		logger:    logger.With("component", "weather.service"),
	}
}

// CurrentByCity returns current conditions for a city name.
func (s *Service) CurrentByCity(ctx context.Context, city string) (Record, error) {
	city, err := normalizeCity(city)
	if err != nil {
		return Record{}, err
	}

	rec, err := s.provider.CurrentByCity(ctx, city)
	if err != nil {
		s.logger.WarnContext(ctx, "current weather by city failed", "city", city, "error", err)
		return Record{}, err
	}
	return rec, nil
}

// CurrentByCoordinates returns current conditions for a geographic point.
func (s *Service) CurrentByCoordinates(ctx context.Context, c Coordinates) (Record, error) {
	if err := c.Validate(); err != nil {
		return Record{}, err
	}

	rec, err := s.provider.CurrentByCoordinates(ctx, c)
	if err != nil {
		s.logger.WarnContext(ctx, "current weather by coordinates failed", "coordinates", c.String(), "error", err)
		return Record{}, err
	}
	return rec, nil
}

// ForecastByCity returns the hourly forecast and daily summaries for a city name.
func (s *Service) ForecastByCity(ctx context.Context, city string) (Forecast, error) {
	city, err := normalizeCity(city)
	if err != nil {
		return Forecast{}, err
	}

	raw, err := s.provider.ForecastByCity(ctx, city)
	if err != nil {
		s.logger.WarnContext(ctx, "forecast by city failed", "city", city, "error", err)
		return Forecast{}, err
	}

	f := AggregateForecast(raw)
	s.logger.DebugContext(ctx, "forecast aggregated", "city", city, "hours", f.TotalHours, "days", f.TotalDays)
	return f, nil
}

// ForecastByCoordinates returns the hourly forecast and daily summaries for a geographic point.
func (s *Service) ForecastByCoordinates(ctx context.Context, c Coordinates) (Forecast, error) {
	if err := c.Validate(); err != nil {
		return Forecast{}, err
	}

	raw, err := s.provider.ForecastByCoordinates(ctx, c)
	if err != nil {
		s.logger.WarnContext(ctx, "forecast by coordinates failed", "coordinates", c.String(), "error", err)
		return Forecast{}, err
	}

	f := AggregateForecast(raw)
	s.logger.DebugContext(ctx, "forecast aggregated", "coordinates", c.String(), "hours", f.TotalHours, "days", f.TotalDays)
	return f, nil
}

// Probe checks the provider by fetching current weather for the probe city and
// records the outcome in the probe store.
func (s *Service) Probe(ctx context.Context) ProbeResult {
	start := time.Now()
	rec, err := s.provider.CurrentByCity(ctx, s.probeCity)

	result := ProbeResult{
		Timestamp: start.UTC(),
		City:      s.probeCity,
		Success:   err == nil,
		Latency:   time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
		result.err = err
		s.logger.WarnContext(ctx, "provider probe failed", "provider", s.provider.Name(), "city", s.probeCity, "error", err)
	} else {
		result.Location = rec.Location
		result.Temperature = rec.Temperature
		s.logger.InfoContext(ctx, "provider probe succeeded", "provider", s.provider.Name(), "location", rec.Location, "latency", result.Latency)
	}

	if s.probes != nil {
		s.probes.SaveProbe(result)
	}
	return result
}

// LatestProbe delegates to the underlying probe store.
func (s *Service) LatestProbe() (ProbeResult, bool) {
	if s.probes == nil {
		return ProbeResult{}, false
	}
	p, err := s.probes.LatestProbe()
	if err != nil {
		return ProbeResult{}, false
	}
	return p, true
}

// RecentProbes returns up to limit probe results, newest first. The result is
// never nil.
func (s *Service) RecentProbes(limit int) []ProbeResult {
	if s.probes == nil {
		return []ProbeResult{}
	}
	probes := s.probes.RecentProbes(limit)
	if probes == nil {
		return []ProbeResult{}
	}
	return probes
}

// ProviderName returns the name of the configured provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

func normalizeCity(city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", newValidationError("city", "El nombre de la ciudad es requerido")
	}
	return city, nil
}
