package weather

import (
	"sort"
	"strings"

	"github.com/i474232898/weather-proxy/internal/common"
)

// dayGroup collects the samples of one calendar date while aggregating.
type dayGroup struct {
	date         string
	items        []HourlyForecastItem
	descriptions []string
}

// AggregateForecast groups hourly samples by the date part of DateTime and
// computes one DailySummary per date, in order of first appearance.
func AggregateForecast(raw RawForecast) Forecast {
	var (
		order  []string
		groups = make(map[string]*dayGroup)
	)

	for _, item := range raw.Hourly {
		date := dateKey(item.DateTime)

		g, ok := groups[date]
		if !ok {
			g = &dayGroup{date: date}
			groups[date] = g
			order = append(order, date)
		}
		g.items = append(g.items, item)
		g.descriptions = append(g.descriptions, item.Description)
	}

	daily := make([]DailySummary, 0, len(order))
	for _, date := range order {
		daily = append(daily, summarizeDay(groups[date]))
	}

	hourly := raw.Hourly
	if hourly == nil {
		hourly = []HourlyForecastItem{}
	}

	return Forecast{
		Location:       raw.Location,
		Coordinates:    raw.Coordinates,
		Timezone:       raw.Timezone,
		TotalHours:     len(hourly),
		TotalDays:      len(order),
		HourlyForecast: hourly,
		DailySummary:   daily,
	}
}

// dateKey returns everything before the first space of "YYYY-MM-DD HH:MM:SS".
func dateKey(dateTime string) string {
	date, _, _ := strings.Cut(dateTime, " ")
	return date
}

func summarizeDay(g *dayGroup) DailySummary {
	first := g.items[0]
	summary := DailySummary{
		Date:         g.date,
		TempMin:      first.Temperature,
		TempMax:      first.Temperature,
		MaxWindSpeed: first.WindSpeed,
		HourlyData:   g.items,
	}

	humiditySum := 0
	for _, it := range g.items {
		if it.Temperature < summary.TempMin {
			summary.TempMin = it.Temperature
		}
		if it.Temperature > summary.TempMax {
			summary.TempMax = it.Temperature
		}
		if it.WindSpeed > summary.MaxWindSpeed {
			summary.MaxWindSpeed = it.WindSpeed
		}
		if it.WindGust != nil && (summary.MaxWindGust == nil || *it.WindGust > *summary.MaxWindGust) {
			gust := *it.WindGust
			summary.MaxWindGust = &gust
		}
		humiditySum += it.Humidity
	}

	summary.AvgHumidity = common.RoundHalfUp(float64(humiditySum) / float64(len(g.items)))
	summary.DominantDescription = dominantDescription(g.descriptions)
	return summary
}

// dominantDescription stable-sorts descriptions by ascending occurrence count and
// returns the last one. Among equally frequent descriptions this picks the one
// whose final occurrence in the day is latest.
func dominantDescription(descriptions []string) string {
	if len(descriptions) == 0 {
		return ""
	}

	counts := make(map[string]int, len(descriptions))
	for _, d := range descriptions {
		counts[d]++
	}

	sorted := make([]string, len(descriptions))
	copy(sorted, descriptions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return counts[sorted[i]] < counts[sorted[j]]
	})

	return sorted[len(sorted)-1]
}
