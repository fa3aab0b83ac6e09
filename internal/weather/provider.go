package weather

import (
	"context"
)

// Provider abstracts the upstream weather data source (e.g. OpenWeatherMap).
// Each call issues at most one outbound request.
type Provider interface {
	Name() string
	CurrentByCity(ctx context.Context, city string) (Record, error)
	CurrentByCoordinates(ctx context.Context, c Coordinates) (Record, error)
	ForecastByCity(ctx context.Context, city string) (RawForecast, error)
	ForecastByCoordinates(ctx context.Context, c Coordinates) (RawForecast, error)
}

// ProbeStore is the contract the in-memory probe history must satisfy.
type ProbeStore interface {
	SaveProbe(result ProbeResult)
	LatestProbe() (ProbeResult, error)
	RecentProbes(limit int) []ProbeResult
}
