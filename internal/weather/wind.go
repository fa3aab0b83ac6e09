package weather

import (
	"fmt"
	"math"
	"strconv"

	"github.com/i474232898/weather-proxy/internal/common"
)

// NoWindDirection is reported when the provider omits wind degrees.
const NoWindDirection = "N/A"

var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

var compassDescriptions = map[string]string{
	"N":   "Norte",
	"NNE": "Norte-Noreste",
	"NE":  "Noreste",
	"ENE": "Este-Noreste",
	"E":   "Este",
	"ESE": "Este-Sureste",
	"SE":  "Sureste",
	"SSE": "Sur-Sureste",
	"S":   "Sur",
	"SSW": "Sur-Suroeste",
	"SW":  "Suroeste",
	"WSW": "Oeste-Suroeste",
	"W":   "Oeste",
	"WNW": "Oeste-Noroeste",
	"NW":  "Noroeste",
	"NNW": "Norte-Noroeste",
}

// WindDirection is a validated wind bearing and its 16-point compass label.
type WindDirection struct {
	Degrees     float64 `json:"degrees"`
	Direction   string  `json:"direction"`
	Description string  `json:"description"`
}

// NewWindDirection resolves degrees in [0, 360] to a compass sector using
// round(degrees/22.5) mod 16, so 11.25 is NNE and 360 wraps to N.
func NewWindDirection(degrees float64) (WindDirection, error) {
	if math.IsNaN(degrees) || degrees < 0 || degrees > 360 {
		return WindDirection{}, newValidationError("windDegrees",
			"Los grados del viento deben estar entre 0 y 360")
	}

	label := compassLabels[common.RoundHalfUp(degrees/22.5)%16]
	return WindDirection{
		Degrees:     degrees,
		Direction:   label,
		Description: compassDescriptions[label],
	}, nil
}

// CompassLabel returns the compass label for degrees reported by the provider.
// Absent, zero or out-of-range degrees yield NoWindDirection.
func CompassLabel(degrees *float64) string {
	if degrees == nil || *degrees == 0 {
		return NoWindDirection
	}
	wd, err := NewWindDirection(*degrees)
	if err != nil {
		return NoWindDirection
	}
	return wd.Direction
}

func (w WindDirection) IsNortherly() bool {
	return w.Direction == "N" || w.Direction == "NNE" || w.Direction == "NNW"
}

func (w WindDirection) IsSoutherly() bool {
	return w.Direction == "S" || w.Direction == "SSE" || w.Direction == "SSW"
}

func (w WindDirection) IsEasterly() bool {
	return w.Direction == "E" || w.Direction == "ENE" || w.Direction == "ESE"
}

func (w WindDirection) IsWesterly() bool {
	return w.Direction == "W" || w.Direction == "WNW" || w.Direction == "WSW"
}

// Equal compares by degrees.
func (w WindDirection) Equal(other WindDirection) bool {
	return w.Degrees == other.Degrees
}

func (w WindDirection) String() string {
	return fmt.Sprintf("%s (%s°)", w.Direction, strconv.FormatFloat(w.Degrees, 'f', -1, 64))
}
