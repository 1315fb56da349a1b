package model

import (
	"encoding/json"
	"time"
)

// Point is a WGS84 coordinate pair, longitude first (GeoJSON order).
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// PlaceSource identifies which resolution strategy produced a place.
type PlaceSource string

const (
	SourceCache            PlaceSource = "cache"
	SourceGeocode          PlaceSource = "geocode"
	SourceSanitizedContext PlaceSource = "sanitized+context"
	SourceContextAppended  PlaceSource = "context-appended"
	SourceGPS              PlaceSource = "gps"
)

// ResolvedPlace is a place label bound to in-bounds coordinates.
// Immutable once produced.
type ResolvedPlace struct {
	Lng    float64     `json:"lng"`
	Lat    float64     `json:"lat"`
	Label  string      `json:"label"`
	Source PlaceSource `json:"source"`
}

// Point returns the place coordinates.
func (p *ResolvedPlace) Point() Point { return Point{Lng: p.Lng, Lat: p.Lat} }

// Intent classifies a user message.
type Intent string

const (
	IntentRoute     Intent = "route"
	IntentSmalltalk Intent = "smalltalk"
	IntentUnknown   Intent = "unknown"
)

// TripIntent is the outcome of extraction and arbitration for one message.
type TripIntent struct {
	OriginText      string          `json:"origin_text"`
	DestinationText string          `json:"destination_text"`
	Intent          Intent          `json:"intent"`
	Language        string          `json:"language,omitempty"`
	Source          string          `json:"source,omitempty"`
	Used            string          `json:"used,omitempty"`
	ModelUsed       string          `json:"model_used,omitempty"`
	ModelRaw        json.RawMessage `json:"model_raw,omitempty"`
	ModelError      string          `json:"model_error,omitempty"`
}

// Session remembers previously resolved endpoints for one conversation.
type Session struct {
	ID          string         `json:"id"`
	Origin      *ResolvedPlace `json:"origin,omitempty"`
	Destination *ResolvedPlace `json:"destination,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Line is a transit line from the catalog.
type Line struct {
	LineID    int64     `json:"line_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	ColorHex  string    `json:"color_hex"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineDirection is one directional run of a line.
type LineDirection struct {
	LineDirectionID int64  `json:"line_direction_id"`
	LineID          int64  `json:"line_id"`
	Code            string `json:"code"`
	LineName        string `json:"line_name"`
	ColorHex        string `json:"color_hex"`
	Direction       string `json:"direction"`
	Headsign        string `json:"headsign"`
}

// DirectionRoute is a direction together with its geometry and length.
type DirectionRoute struct {
	LineDirection
	LengthM  int             `json:"length_m"`
	Geometry json.RawMessage `json:"geom"`
}

// LineGeometry is the raw GeoJSON geometry of one direction of a line.
type LineGeometry struct {
	LineDirectionID int64           `json:"line_direction_id"`
	Direction       string          `json:"direction"`
	Geometry        json.RawMessage `json:"geom"`
}

// RouteCandidate is a measured candidate returned by the spatial store:
// a directional geometry near both trip endpoints, with both endpoints
// projected onto it and walk/ride leg lengths already computed. Costing
// and ranking happen in the matching engine.
type RouteCandidate struct {
	LineDirectionID int64  `json:"line_direction_id"`
	LineID          int64  `json:"line_id"`
	LineName        string `json:"line_name"`
	Code            string `json:"code"`
	ColorHex        string `json:"color_hex"`
	Direction       string `json:"direction"`
	Headsign        string `json:"headsign"`

	// Fractional positions of the projected endpoints along the geometry.
	LocOrigin float64 `json:"loc_o"`
	LocDest   float64 `json:"loc_d"`

	RideM     float64 `json:"ride_m"`
	WalkToM   float64 `json:"walk_to_m"`
	WalkFromM float64 `json:"walk_from_m"`

	// Per-line cost inputs, present when the catalog carries them.
	AvgSpeedKmh *float64 `json:"avg_speed_kmh,omitempty"`
	WaitMinutes *float64 `json:"wait_minutes,omitempty"`

	SegmentGeoJSON  json.RawMessage `json:"seg_geom_geojson,omitempty"`
	SnapOriginJSON  json.RawMessage `json:"snap_o_geojson,omitempty"`
	SnapDestJSON    json.RawMessage `json:"snap_d_geojson,omitempty"`
	WalkToGeoJSON   json.RawMessage `json:"walk_to_geojson,omitempty"`
	WalkFromGeoJSON json.RawMessage `json:"walk_from_geojson,omitempty"`
}

// RouteOption is a costed candidate ready for ranking.
type RouteOption struct {
	RouteCandidate
	ETAMinutes float64 `json:"eta_minutes"`
}

// WalkTotalM is the combined length of both walk legs.
func (o *RouteOption) WalkTotalM() float64 { return o.WalkToM + o.WalkFromM }
