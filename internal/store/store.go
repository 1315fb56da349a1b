package store

import (
	"context"

	"github.com/milinea/milinea-backend/internal/model"
)

// Store exposes the read-only persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres).
type Store interface {
	Routes() Routes
	Catalog() Catalog

	// HealthPing verifies connectivity.
	HealthPing(ctx context.Context) error
	// Versions reports the database and spatial extension versions.
	Versions(ctx context.Context) (pg string, postgis string, err error)
}

// CandidateQuery describes one spatial candidate search.
type CandidateQuery struct {
	Origin      model.Point
	Destination model.Point
	ThresholdM  float64
}

// Routes is the spatial query primitive. Candidates returns every active
// line-direction geometry within ThresholdM of both endpoints, with
// projections, snap points and leg lengths already computed. Costing and
// ranking are the matching engine's job.
type Routes interface {
	Candidates(ctx context.Context, q CandidateQuery) ([]*model.RouteCandidate, error)
}

// Catalog lists active lines and their directional geometries. The core
// never mutates the catalog.
type Catalog interface {
	ListLines(ctx context.Context) ([]*model.Line, error)
	ListDirections(ctx context.Context, query string) ([]*model.LineDirection, error)
	LineRoutes(ctx context.Context, lineID int64) (*model.Line, []*model.LineGeometry, error)
	DirectionRoute(ctx context.Context, lineDirectionID int64) (*model.DirectionRoute, error)
}
