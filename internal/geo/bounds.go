// Package geo holds the service-area envelope used to validate resolved
// coordinates before they are trusted anywhere else in the system.
package geo

// Bounds is a fixed rectangular envelope over the service area.
type Bounds struct {
	MinLng float64
	MaxLng float64
	MinLat float64
	MaxLat float64
}

// Contains reports whether the coordinate pair lies within the envelope.
func (b Bounds) Contains(lng, lat float64) bool {
	return lng >= b.MinLng && lng <= b.MaxLng &&
		lat >= b.MinLat && lat <= b.MaxLat
}
