// Package units provides shared constants and conversion for speed units.
package units

// Unit constants
const (
	MPS = "mps"
	KPH = "kph"
)

// ConvertSpeed converts a speed from meters per second to the target units.
// Feed records carry speeds in m/s; the tracker wants km/h.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case KPH:
		return speedMPS * 3.6 // m/s to km/h
	case MPS:
		return speedMPS // no conversion needed
	default:
		return speedMPS // default to m/s if unknown unit
	}
}
