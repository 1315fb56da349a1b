package geocode

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Mapbox queries the Mapbox Places API, locale-biased toward the service
// city. A missing token disables it (every lookup returns nil).
type Mapbox struct {
	client       *resty.Client
	token        string
	proximityLng float64
	proximityLat float64
}

// NewMapbox creates a Mapbox geocoder with the given access token and
// proximity bias.
func NewMapbox(token string, proximityLng, proximityLat float64) *Mapbox {
	c := resty.New().
		SetBaseURL("https://api.mapbox.com/geocoding/v5/mapbox.places").
		SetTimeout(10 * time.Second)
	return &Mapbox{client: c, token: token, proximityLng: proximityLng, proximityLat: proximityLat}
}

type mapboxResponse struct {
	Features []struct {
		Center    []float64 `json:"center"`
		PlaceName string    `json:"place_name"`
	} `json:"features"`
}

// Geocode returns the single best match or nil on a miss.
func (m *Mapbox) Geocode(ctx context.Context, query string) (*Result, error) {
	if m.token == "" {
		return nil, nil
	}

	var out mapboxResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_token": m.token,
			"limit":        "1",
			"language":     "es",
			"proximity":    fmt.Sprintf("%g,%g", m.proximityLng, m.proximityLat),
		}).
		SetResult(&out).
		Get("/" + url.PathEscape(query) + ".json")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		log.Warn().Int("status", resp.StatusCode()).Str("query", query).Msg("geocoder returned error status")
		return nil, nil
	}
	if len(out.Features) == 0 || len(out.Features[0].Center) < 2 {
		return nil, nil
	}
	f := out.Features[0]
	return &Result{Lng: f.Center[0], Lat: f.Center[1], DisplayName: f.PlaceName}, nil
}
