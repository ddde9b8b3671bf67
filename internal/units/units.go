// Package units provides shared constants and conversion for angle units
package units

import "math"

// Unit constants
const (
	Degrees = "deg"
	Radians = "rad"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Degrees, Radians}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "deg, rad"
}

// DegreesToRadians converts an angle in degrees to radians.
// The motor protocol expresses all positions in radians.
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadiansToDegrees converts an angle in radians to degrees.
func RadiansToDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

// ToRadians converts an angle from the given units to radians.
func ToRadians(value float64, fromUnits string) float64 {
	switch fromUnits {
	case Degrees:
		return DegreesToRadians(value)
	case Radians:
		return value
	default:
		return value // default to radians if unknown unit
	}
}
