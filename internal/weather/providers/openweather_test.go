package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-proxy/internal/weather"
)

const currentBody = `{
  "name": "Madrid",
  "sys": {"country": "ES"},
  "main": {"temp": 21.5, "feels_like": 20.4, "pressure": 1015, "humidity": 40},
  "wind": {"speed": 4.12, "deg": 200, "gust": 7.5},
  "visibility": 10000,
  "weather": [{"description": "cielo claro", "icon": "01d"}]
}`

const currentBodyNoWind = `{
  "name": "Quito",
  "sys": {"country": "EC"},
  "main": {"temp": -2.5, "feels_like": -6.6, "pressure": 1020, "humidity": 80},
  "wind": {"speed": 0},
  "weather": [{"description": "niebla", "icon": "50n"}]
}`

const currentBodyZeroWind = `{
  "name": "Quito",
  "sys": {"country": "EC"},
  "main": {"temp": 12, "feels_like": 11, "pressure": 1020, "humidity": 80},
  "wind": {"speed": 1, "deg": 0, "gust": 0},
  "visibility": 0,
  "weather": [{"description": "niebla", "icon": "50n"}]
}`

const forecastBody = `{
  "city": {"name": "Madrid", "country": "ES", "coord": {"lat": 40.4168, "lon": -3.7038}, "timezone": 7200},
  "list": [
    {"dt": 1717225200, "dt_txt": "2024-06-01 09:00:00",
     "main": {"temp": 10.2, "feels_like": 9.1, "temp_min": 9.6, "temp_max": 10.4, "pressure": 1012, "humidity": 50},
     "wind": {"speed": 2.0, "deg": 90, "gust": 3.0}, "visibility": 8000, "clouds": {"all": 20},
     "rain": {"3h": 0.4}, "weather": [{"description": "lluvia ligera", "icon": "10d"}]},
    {"dt": 1717236000, "dt_txt": "2024-06-01 12:00:00",
     "main": {"temp": 19.6, "feels_like": 19.0, "temp_min": 19.0, "temp_max": 20.0, "pressure": 1011, "humidity": 41},
     "wind": {"speed": 3.0, "deg": 100}, "clouds": {"all": 0},
     "weather": [{"description": "cielo claro", "icon": "01d"}]},
    {"dt": 1717286400, "dt_txt": "2024-06-02 00:00:00",
     "main": {"temp": 5, "feels_like": 3, "temp_min": 5, "temp_max": 5, "pressure": 1010, "humidity": 70},
     "wind": {"speed": 1.0}, "clouds": {"all": 90},
     "snow": {"3h": 1.2}, "weather": [{"description": "nevada ligera", "icon": "13n"}]}
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProvider(t *testing.T, handler http.HandlerFunc, opts OpenWeatherOptions) (*OpenWeatherProvider, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	if opts.APIKey == "" {
		opts.APIKey = "test-key"
	}
	opts.BaseURL = ts.URL
	return NewOpenWeatherProvider(ts.Client(), opts, discardLogger()), ts
}

func TestCurrentByCityFormatsRecord(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q": q.Get("q"), "appid": q.Get("appid"), "units": q.Get("units"), "lang": q.Get("lang"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentBody))
	}, OpenWeatherOptions{})

	rec, err := p.CurrentByCity(context.Background(), "Madrid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/weather" {
		t.Errorf("path = %q, want /weather", gotPath)
	}
	want := map[string]string{"q": "Madrid", "appid": "test-key", "units": "metric", "lang": "es"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if rec.Location != "Madrid, ES" {
		t.Errorf("location = %q", rec.Location)
	}
	if rec.Temperature != 22 || rec.FeelsLike != 20 {
		t.Errorf("temperature/feelsLike = %d/%d, want 22/20", rec.Temperature, rec.FeelsLike)
	}
	if rec.WindSpeed != 15 {
		t.Errorf("windSpeed = %d, want 15", rec.WindSpeed)
	}
	if rec.WindDirection != "SSW" || rec.WindDegrees != 200 {
		t.Errorf("wind direction = %q (%v), want SSW (200)", rec.WindDirection, rec.WindDegrees)
	}
	if rec.WindGust == nil || *rec.WindGust != 27 {
		t.Errorf("windGust = %v, want 27", rec.WindGust)
	}
	if rec.Visibility == nil || *rec.Visibility != 10 {
		t.Errorf("visibility = %v, want 10", rec.Visibility)
	}
	if rec.Humidity != 40 || rec.Pressure != 1015 {
		t.Errorf("humidity/pressure = %d/%d", rec.Humidity, rec.Pressure)
	}
	if rec.Description != "cielo claro" {
		t.Errorf("description = %q", rec.Description)
	}
	if rec.Icon != "https://openweathermap.org/img/wn/01d@2x.png" {
		t.Errorf("icon = %q", rec.Icon)
	}
}

func TestCurrentByCityMissingOptionalFields(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(currentBodyNoWind))
	}, OpenWeatherOptions{})

	rec, err := p.CurrentByCity(context.Background(), "Quito")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.WindDirection != weather.NoWindDirection || rec.WindDegrees != 0 {
		t.Errorf("wind direction = %q (%v), want N/A (0)", rec.WindDirection, rec.WindDegrees)
	}
	if rec.WindGust != nil || rec.Visibility != nil {
		t.Errorf("gust/visibility should be nil, got %v/%v", rec.WindGust, rec.Visibility)
	}
	// -2.5 rounds half up to -2, -6.6 to -7.
	if rec.Temperature != -2 || rec.FeelsLike != -7 {
		t.Errorf("temperature/feelsLike = %d/%d, want -2/-7", rec.Temperature, rec.FeelsLike)
	}

	// Zero readings are reported the same way as missing ones.
	p, _ = newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(currentBodyZeroWind))
	}, OpenWeatherOptions{})

	rec, err = p.CurrentByCity(context.Background(), "Quito")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.WindDirection != weather.NoWindDirection || rec.WindDegrees != 0 {
		t.Errorf("zero wind direction = %q (%v), want N/A (0)", rec.WindDirection, rec.WindDegrees)
	}
	if rec.WindGust != nil || rec.Visibility != nil {
		t.Errorf("zero gust/visibility should be nil, got %v/%v", rec.WindGust, rec.Visibility)
	}
	if rec.WindSpeed != 4 {
		t.Errorf("wind speed = %d, want 4", rec.WindSpeed)
	}
}

func TestCurrentByCoordinatesQuery(t *testing.T) {
	var lat, lon string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		lat, lon = r.URL.Query().Get("lat"), r.URL.Query().Get("lon")
		_, _ = w.Write([]byte(currentBody))
	}, OpenWeatherOptions{})

	if _, err := p.CurrentByCoordinates(context.Background(), weather.Coordinates{Lat: 40.4168, Lon: -3.7038}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat != "40.4168" || lon != "-3.7038" {
		t.Fatalf("lat/lon = %q/%q", lat, lon)
	}
}

func TestForecastByCityFormatsItems(t *testing.T) {
	var gotPath string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(forecastBody))
	}, OpenWeatherOptions{})

	raw, err := p.ForecastByCity(context.Background(), "Madrid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/forecast" {
		t.Errorf("path = %q, want /forecast", gotPath)
	}
	if raw.Location != "Madrid, ES" || raw.Timezone != 7200 {
		t.Errorf("location/timezone = %q/%d", raw.Location, raw.Timezone)
	}
	if raw.Coordinates.Lat != 40.4168 || raw.Coordinates.Lon != -3.7038 {
		t.Errorf("coordinates = %v", raw.Coordinates)
	}
	if len(raw.Hourly) != 3 {
		t.Fatalf("hourly = %d items, want 3", len(raw.Hourly))
	}

	first := raw.Hourly[0]
	if first.DateTime != "2024-06-01 09:00:00" || first.Timestamp != 1717225200 {
		t.Errorf("first item time = %q/%d", first.DateTime, first.Timestamp)
	}
	if first.Temperature != 10 || first.TempMin != 10 || first.TempMax != 10 {
		t.Errorf("first item temps = %d/%d/%d", first.Temperature, first.TempMin, first.TempMax)
	}
	if first.WindSpeed != 7 || first.WindDirection != "E" || first.WindGust == nil || *first.WindGust != 11 {
		t.Errorf("first item wind = %d %q %v", first.WindSpeed, first.WindDirection, first.WindGust)
	}
	if first.Visibility == nil || *first.Visibility != 8 {
		t.Errorf("first item visibility = %v", first.Visibility)
	}
	if first.Cloudiness != 20 || first.Precipitation != 0.4 {
		t.Errorf("first item clouds/precip = %d/%v", first.Cloudiness, first.Precipitation)
	}

	if raw.Hourly[1].Precipitation != 0 || raw.Hourly[1].WindGust != nil {
		t.Errorf("second item precip/gust = %v/%v", raw.Hourly[1].Precipitation, raw.Hourly[1].WindGust)
	}
	if raw.Hourly[2].Precipitation != 1.2 || raw.Hourly[2].WindDirection != weather.NoWindDirection {
		t.Errorf("third item precip/direction = %v/%q", raw.Hourly[2].Precipitation, raw.Hourly[2].WindDirection)
	}

	f := weather.AggregateForecast(raw)
	if f.TotalDays != 2 || f.DailySummary[0].TempMax != 20 {
		t.Errorf("aggregated forecast = %+v", f.DailySummary)
	}
}

func TestProviderStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, weather.ErrNotFound},
		{http.StatusUnauthorized, weather.ErrUnauthorized},
		{http.StatusTooManyRequests, weather.ErrRateLimited},
		{http.StatusBadGateway, weather.ErrUpstream},
		{http.StatusBadRequest, weather.ErrUpstream},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"cod":"x","message":"nope"}`))
			}, OpenWeatherOptions{})

			_, err := p.CurrentByCity(context.Background(), "Atlantis")
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: got %v, want %v", tc.status, err, tc.want)
			}
			_, err = p.ForecastByCity(context.Background(), "Atlantis")
			if !errors.Is(err, tc.want) {
				t.Fatalf("forecast status %d: got %v, want %v", tc.status, err, tc.want)
			}
		})
	}
}

func TestProviderMissingAPIKey(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	p := NewOpenWeatherProvider(ts.Client(), OpenWeatherOptions{BaseURL: ts.URL}, discardLogger())
	_, err := p.CurrentByCity(context.Background(), "Madrid")
	if !errors.Is(err, weather.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("no outbound call expected without an api key")
	}
}

func TestProviderNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	p := NewOpenWeatherProvider(&http.Client{Timeout: time.Second}, OpenWeatherOptions{APIKey: "k", BaseURL: url}, discardLogger())
	_, err := p.CurrentByCity(context.Background(), "Madrid")
	if !errors.Is(err, weather.ErrNetwork) {
		t.Fatalf("got %v, want ErrNetwork", err)
	}
}

func TestProviderInvalidJSON(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}, OpenWeatherOptions{})

	_, err := p.CurrentByCity(context.Background(), "Madrid")
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
}

func TestProviderLocalRateLimit(t *testing.T) {
	var calls int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(currentBody))
	}, OpenWeatherOptions{RateLimit: RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}})

	for i := 0; i < 2; i++ {
		if _, err := p.CurrentByCity(context.Background(), "Madrid"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}
	_, err := p.CurrentByCity(context.Background(), "Madrid")
	if !errors.Is(err, weather.ErrRateLimited) {
		t.Fatalf("third call: got %v, want ErrRateLimited", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("upstream calls = %d, want 2", got)
	}
}

func TestProviderNoLocalRateLimitByDefault(t *testing.T) {
	var calls int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(currentBody))
	}, OpenWeatherOptions{})

	for i := 0; i < 10; i++ {
		if _, err := p.CurrentByCity(context.Background(), "Madrid"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 10 {
		t.Fatalf("upstream calls = %d, want 10", got)
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	var calls int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}, OpenWeatherOptions{})

	// The default breaker trips after more than 5 consecutive failures.
	for i := 0; i < 10; i++ {
		_, err := p.CurrentByCity(context.Background(), "Atlantis")
		if !errors.Is(err, weather.ErrNotFound) {
			t.Fatalf("call %d: got %v, want ErrNotFound", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 10 {
		t.Fatalf("upstream calls = %d, want 10", got)
	}
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, OpenWeatherOptions{})

	for i := 0; i < 10; i++ {
		_, err := p.CurrentByCity(context.Background(), "Madrid")
		if !errors.Is(err, weather.ErrUpstream) {
			t.Fatalf("call %d: got %v, want ErrUpstream", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 6 {
		t.Fatalf("upstream calls = %d, want 6 before the breaker opens", got)
	}
}
