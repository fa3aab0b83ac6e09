package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-proxy/internal/common"
	"github.com/i474232898/weather-proxy/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultOpenWeatherLang    = "es"

	iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"
)

// OpenWeatherOptions configures an OpenWeatherProvider. Zero values fall back to defaults.
type OpenWeatherOptions struct {
	APIKey    string
	BaseURL   string
	Lang      string
	RateLimit RateLimitConfig
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	lang    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)

func NewOpenWeatherProvider(client *http.Client, opts OpenWeatherOptions, logger *slog.Logger) *OpenWeatherProvider {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("provider", "openweathermap")

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	lang := opts.Lang
	if lang == "" {
		lang = DefaultOpenWeatherLang
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		lang:    lang,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("openweather", logger),
		limiter: newLimiter(opts.RateLimit),
		logger:  logger,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) CurrentByCity(ctx context.Context, city string) (weather.Record, error) {
	var payload owCurrentPayload
	if err := p.get(ctx, "weather", cityQuery(city), &payload); err != nil {
		return weather.Record{}, fmt.Errorf("current weather for %q: %w", city, err)
	}

	p.logger.DebugContext(ctx, "location resolved", "query", city, "location", payload.Name, "country", payload.Sys.Country)
	return formatCurrent(payload), nil
}

func (p *OpenWeatherProvider) CurrentByCoordinates(ctx context.Context, c weather.Coordinates) (weather.Record, error) {
	var payload owCurrentPayload
	if err := p.get(ctx, "weather", coordsQuery(c), &payload); err != nil {
		return weather.Record{}, fmt.Errorf("current weather for %s: %w", c, err)
	}
	return formatCurrent(payload), nil
}

func (p *OpenWeatherProvider) ForecastByCity(ctx context.Context, city string) (weather.RawForecast, error) {
	var payload owForecastPayload
	if err := p.get(ctx, "forecast", cityQuery(city), &payload); err != nil {
		return weather.RawForecast{}, fmt.Errorf("forecast for %q: %w", city, err)
	}
	return formatForecast(payload), nil
}

func (p *OpenWeatherProvider) ForecastByCoordinates(ctx context.Context, c weather.Coordinates) (weather.RawForecast, error) {
	var payload owForecastPayload
	if err := p.get(ctx, "forecast", coordsQuery(c), &payload); err != nil {
		return weather.RawForecast{}, fmt.Errorf("forecast for %s: %w", c, err)
	}
	return formatForecast(payload), nil
}

// get issues GET <baseURL>/<endpoint> with the shared query parameters and decodes the JSON body into out.
func (p *OpenWeatherProvider) get(ctx context.Context, endpoint string, values url.Values, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("%w: openweather api key is not configured", weather.ErrUnauthorized)
	}

	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lang", p.lang)
	u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())

	p.logger.DebugContext(ctx, "calling provider", "url", strings.ReplaceAll(u, url.QueryEscape(p.apiKey), "API_KEY_HIDDEN"))

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, p.limiter, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", weather.ErrUpstream, endpoint, err)
	}
	return nil
}

func cityQuery(city string) url.Values {
	values := url.Values{}
	values.Set("q", city)
	return values
}

func coordsQuery(c weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	return values
}

type owCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type owWind struct {
	Speed float64  `json:"speed"`
	Deg   *float64 `json:"deg"`
	Gust  *float64 `json:"gust"`
}

type owCurrentPayload struct {
	Name       string        `json:"name"`
	Main       owMain        `json:"main"`
	Wind       owWind        `json:"wind"`
	Visibility *float64      `json:"visibility"`
	Weather    []owCondition `json:"weather"`
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type owForecastPayload struct {
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Coord   struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Timezone int `json:"timezone"`
	} `json:"city"`
	List []owForecastItem `json:"list"`
}

type owForecastItem struct {
	Dt         int64         `json:"dt"`
	DtTxt      string        `json:"dt_txt"`
	Main       owMain        `json:"main"`
	Wind       owWind        `json:"wind"`
	Visibility *float64      `json:"visibility"`
	Weather    []owCondition `json:"weather"`
	Clouds     struct {
		All int `json:"all"`
	} `json:"clouds"`
	Rain *struct {
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Snow *struct {
		ThreeH float64 `json:"3h"`
	} `json:"snow"`
}

func formatCurrent(p owCurrentPayload) weather.Record {
	cond := firstCondition(p.Weather)
	return weather.Record{
		Location:      fmt.Sprintf("%s, %s", p.Name, p.Sys.Country),
		Temperature:   common.RoundHalfUp(p.Main.Temp),
		FeelsLike:     common.RoundHalfUp(p.Main.FeelsLike),
		Description:   cond.Description,
		Humidity:      common.RoundHalfUp(p.Main.Humidity),
		Pressure:      common.RoundHalfUp(p.Main.Pressure),
		WindSpeed:     common.MSToKmh(p.Wind.Speed),
		WindDirection: weather.CompassLabel(p.Wind.Deg),
		WindDegrees:   derefOrZero(p.Wind.Deg),
		WindGust:      gustKmh(p.Wind.Gust),
		Visibility:    visibilityKm(p.Visibility),
		Icon:          iconURL(cond.Icon),
	}
}

func formatForecast(p owForecastPayload) weather.RawForecast {
	hourly := make([]weather.HourlyForecastItem, 0, len(p.List))
	for _, item := range p.List {
		hourly = append(hourly, formatHourly(item))
	}

	return weather.RawForecast{
		Location: fmt.Sprintf("%s, %s", p.City.Name, p.City.Country),
		Coordinates: weather.Coordinates{
			Lat: p.City.Coord.Lat,
			Lon: p.City.Coord.Lon,
		},
		Timezone: p.City.Timezone,
		Hourly:   hourly,
	}
}

func formatHourly(item owForecastItem) weather.HourlyForecastItem {
	cond := firstCondition(item.Weather)

	var precip float64
	switch {
	case item.Rain != nil:
		precip = item.Rain.ThreeH
	case item.Snow != nil:
		precip = item.Snow.ThreeH
	}

	return weather.HourlyForecastItem{
		DateTime:      item.DtTxt,
		Timestamp:     item.Dt,
		Temperature:   common.RoundHalfUp(item.Main.Temp),
		FeelsLike:     common.RoundHalfUp(item.Main.FeelsLike),
		TempMin:       common.RoundHalfUp(item.Main.TempMin),
		TempMax:       common.RoundHalfUp(item.Main.TempMax),
		Description:   cond.Description,
		Humidity:      common.RoundHalfUp(item.Main.Humidity),
		Pressure:      common.RoundHalfUp(item.Main.Pressure),
		WindSpeed:     common.MSToKmh(item.Wind.Speed),
		WindDirection: weather.CompassLabel(item.Wind.Deg),
		WindDegrees:   derefOrZero(item.Wind.Deg),
		WindGust:      gustKmh(item.Wind.Gust),
		Visibility:    visibilityKm(item.Visibility),
		Cloudiness:    item.Clouds.All,
		Precipitation: precip,
		Icon:          iconURL(cond.Icon),
	}
}

func firstCondition(items []owCondition) owCondition {
	if len(items) == 0 {
		return owCondition{}
	}
	return items[0]
}

func iconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return fmt.Sprintf(iconURLFormat, icon)
}

// gustKmh and visibilityKm report a zero reading as missing.
func gustKmh(gust *float64) *int {
	if gust == nil || *gust == 0 {
		return nil
	}
	v := common.MSToKmh(*gust)
	return &v
}

func visibilityKm(meters *float64) *int {
	if meters == nil || *meters == 0 {
		return nil
	}
	v := common.MetersToKm(*meters)
	return &v
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
