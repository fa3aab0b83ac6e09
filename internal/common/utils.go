package common

import "math"

// RoundHalfUp rounds to the nearest integer with halves going toward +Inf,
// so -2.5 becomes -2 and 2.5 becomes 3.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// MSToKmh converts meters per second to kilometers per hour, rounded.
func MSToKmh(v float64) int {
	return RoundHalfUp(v * 3.6)
}

// MetersToKm converts meters to kilometers, rounded.
func MetersToKm(v float64) int {
	return RoundHalfUp(v / 1000)
}
