// Package geocode resolves free-text place queries to coordinates through
// an external geocoding service.
package geocode

import "context"

// Result is the single best match for a query.
type Result struct {
	Lng         float64
	Lat         float64
	DisplayName string
}

// Geocoder returns the best match for a query, or nil when the service has
// no answer. A nil result is a miss, not an error.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}
