package weather

import (
	"time"
)

// Record is the normalized current-conditions view returned to consumers.
type Record struct {
	Location      string  `json:"location"`
	Temperature   int     `json:"temperature"`
	FeelsLike     int     `json:"feelsLike"`
	Description   string  `json:"description"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	WindSpeed     int     `json:"windSpeed"` // km/h
	WindDirection string  `json:"windDirection"`
	WindDegrees   float64 `json:"windDegrees"`
	WindGust      *int    `json:"windGust"`   // km/h, null when not reported
	Visibility    *int    `json:"visibility"` // km, null when not reported
	Icon          string  `json:"icon"`
}

// HourlyForecastItem is one 3-hour sample of the provider forecast.
type HourlyForecastItem struct {
	DateTime      string  `json:"dateTime"` // "YYYY-MM-DD HH:MM:SS"
	Timestamp     int64   `json:"timestamp"`
	Temperature   int     `json:"temperature"`
	FeelsLike     int     `json:"feelsLike"`
	TempMin       int     `json:"tempMin"`
	TempMax       int     `json:"tempMax"`
	Description   string  `json:"description"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	WindSpeed     int     `json:"windSpeed"`
	WindDirection string  `json:"windDirection"`
	WindDegrees   float64 `json:"windDegrees"`
	WindGust      *int    `json:"windGust"`
	Visibility    *int    `json:"visibility"`
	Cloudiness    int     `json:"cloudiness"`
	Precipitation float64 `json:"precipitation"`
	Icon          string  `json:"icon"`
}

// DailySummary aggregates every hourly sample sharing a calendar date.
type DailySummary struct {
	Date                string               `json:"date"`
	TempMin             int                  `json:"tempMin"`
	TempMax             int                  `json:"tempMax"`
	AvgHumidity         int                  `json:"avgHumidity"`
	MaxWindSpeed        int                  `json:"maxWindSpeed"`
	MaxWindGust         *int                 `json:"maxWindGust"`
	DominantDescription string               `json:"dominantDescription"`
	HourlyData          []HourlyForecastItem `json:"hourlyData"`
}

// RawForecast is the formatted provider forecast before daily aggregation.
type RawForecast struct {
	Location    string
	Coordinates Coordinates
	Timezone    int
	Hourly      []HourlyForecastItem
}

// Forecast is the forecast response contract.
type Forecast struct {
	Location       string               `json:"location"`
	Coordinates    Coordinates          `json:"coordinates"`
	Timezone       int                  `json:"timezone"` // offset from UTC in seconds
	TotalHours     int                  `json:"totalHours"`
	TotalDays      int                  `json:"totalDays"`
	HourlyForecast []HourlyForecastItem `json:"hourlyForecast"`
	DailySummary   []DailySummary       `json:"dailySummary"`
}

// LimitDays keeps the first n daily summaries and the hourly items that belong to them.
// n <= 0 or n >= TotalDays returns the forecast unchanged.
func (f Forecast) LimitDays(n int) Forecast {
	if n <= 0 || n >= len(f.DailySummary) {
		return f
	}

	days := f.DailySummary[:n]
	hourly := make([]HourlyForecastItem, 0, len(f.HourlyForecast))
	for _, d := range days {
		hourly = append(hourly, d.HourlyData...)
	}

	f.DailySummary = days
	f.HourlyForecast = hourly
	f.TotalDays = len(days)
	f.TotalHours = len(hourly)
	return f
}

// ProbeResult records one diagnostic call against the provider.
type ProbeResult struct {
	Timestamp   time.Time     `json:"timestamp"` // always UTC
	City        string        `json:"city"`
	Success     bool          `json:"success"`
	Location    string        `json:"location,omitempty"`
	Temperature int           `json:"temperature"`
	Error       string        `json:"error,omitempty"`
	Latency     time.Duration `json:"latencyNs"`

	// err keeps the original error for errors.Is checks; not serialized.
	err error
}

// Err returns the error that caused the probe to fail, if any.
func (p ProbeResult) Err() error {
	return p.err
}
