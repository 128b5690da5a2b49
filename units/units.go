// Package units resolves physical and screen lengths into inches, the unit
// used for all page size computations.
package units

import "strings"

// DPI is the fixed reference resolution, in pixels per inch.
const DPI = 96

// Unit is a length unit, as found in a label stage.
type Unit string

const (
	Inch       Unit = "in"
	Centimeter Unit = "cm"
	Millimeter Unit = "mm"
	Pixel      Unit = "px"
)

// ToInches converts `value`, expressed in `unit`, to inches.
// An empty or unknown unit is treated as already being in inches.
func ToInches(unit Unit, value float64) float64 {
	switch Unit(strings.ToLower(string(unit))) {
	case Centimeter:
		return value / 2.54
	case Millimeter:
		return value / 25.4
	case Pixel:
		return value / DPI
	default: // Inch, empty or unknown
		return value
	}
}

// ToPixels converts inches to reference pixels.
func ToPixels(inches float64) float64 { return inches * DPI }
