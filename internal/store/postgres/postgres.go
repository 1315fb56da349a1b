package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/milinea/milinea-backend/internal/model"
	"github.com/milinea/milinea-backend/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver. The
// database is expected to carry the PostGIS extension; connectivity is
// verified by the caller through Store.HealthPing.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	return sql.Open("pgx", dsn)
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Routes() store.Routes   { return &routes{db: s.db} }
func (s *pgStore) Catalog() store.Catalog { return &catalog{db: s.db} }

func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) Versions(ctx context.Context) (string, string, error) {
	var pg, postgis string
	row := s.db.QueryRowContext(ctx, `SELECT version(), 'PostGIS ' || postgis_version()`)
	if err := row.Scan(&pg, &postgis); err != nil {
		return "", "", err
	}
	return pg, postgis, nil
}

// --- Routes ---

type routes struct{ db *sql.DB }

// candidatesSQL measures every active directional geometry near both trip
// endpoints. Projections use linear referencing (fraction along the line);
// lengths and distances are geography (meters). ETA, ordering and the result
// cap are applied by the matching engine, not here, so both cost models can
// share one query.
const candidatesSQL = `
  WITH
  params AS (
    SELECT
      ST_SetSRID(ST_MakePoint($1, $2), 4326) AS o_geom,
      ST_SetSRID(ST_MakePoint($3, $4), 4326) AS d_geom,
      $5::double precision AS threshold_m
  ),
  candidates AS (
    SELECT
      lr.id AS line_direction_id,
      l.id  AS line_id,
      l.name AS line_name,
      l.code,
      l.color_hex,
      lr.direction,
      lr.avg_speed_kmh,
      lr.wait_minutes,
      lr.geom
    FROM line_routes lr
    JOIN lines l ON l.id = lr.line_id
    CROSS JOIN params p
    WHERE l.is_active
      AND ST_DWithin(lr.geom::geography, p.o_geom::geography, p.threshold_m)
      AND ST_DWithin(lr.geom::geography, p.d_geom::geography, p.threshold_m)
  ),
  measures AS (
    SELECT
      c.*,
      ST_LineLocatePoint(c.geom, p.o_geom) AS loc_o,
      ST_LineLocatePoint(c.geom, p.d_geom) AS loc_d,
      ST_ClosestPoint(c.geom, p.o_geom)    AS snap_o,
      ST_ClosestPoint(c.geom, p.d_geom)    AS snap_d
    FROM candidates c
    CROSS JOIN params p
  ),
  segments AS (
    SELECT
      m.*,
      ST_LineSubstring(m.geom, m.loc_o, m.loc_d) AS seg_geom
    FROM measures m
    WHERE m.loc_o < m.loc_d
  )
  SELECT
    s.line_direction_id,
    s.line_id,
    s.line_name,
    s.code,
    s.color_hex,
    s.direction,
    CASE WHEN s.direction='outbound' THEN 'Ida' ELSE 'Vuelta' END AS headsign,
    s.loc_o,
    s.loc_d,
    ST_Length(s.seg_geom::geography) AS ride_m,
    ST_Distance(s.snap_o::geography, p.o_geom::geography) AS walk_to_m,
    ST_Distance(s.snap_d::geography, p.d_geom::geography) AS walk_from_m,
    s.avg_speed_kmh,
    s.wait_minutes,
    ST_AsGeoJSON(s.seg_geom)                 AS seg_geojson,
    ST_AsGeoJSON(s.snap_o)                   AS snap_o_geojson,
    ST_AsGeoJSON(s.snap_d)                   AS snap_d_geojson,
    ST_AsGeoJSON(ST_MakeLine(p.o_geom, s.snap_o)) AS walk_to_geojson,
    ST_AsGeoJSON(ST_MakeLine(s.snap_d, p.d_geom)) AS walk_from_geojson
  FROM segments s
  CROSS JOIN params p`

func (r *routes) Candidates(ctx context.Context, q store.CandidateQuery) ([]*model.RouteCandidate, error) {
	rows, err := r.db.QueryContext(ctx, candidatesSQL,
		q.Origin.Lng, q.Origin.Lat,
		q.Destination.Lng, q.Destination.Lat,
		q.ThresholdM,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.RouteCandidate
	for rows.Next() {
		var c model.RouteCandidate
		var avgSpeed, waitMin sql.NullFloat64
		var seg, snapO, snapD, walkTo, walkFrom []byte
		if err := rows.Scan(
			&c.LineDirectionID, &c.LineID, &c.LineName, &c.Code, &c.ColorHex,
			&c.Direction, &c.Headsign,
			&c.LocOrigin, &c.LocDest,
			&c.RideM, &c.WalkToM, &c.WalkFromM,
			&avgSpeed, &waitMin,
			&seg, &snapO, &snapD, &walkTo, &walkFrom,
		); err != nil {
			return nil, err
		}
		if avgSpeed.Valid {
			c.AvgSpeedKmh = &avgSpeed.Float64
		}
		if waitMin.Valid {
			c.WaitMinutes = &waitMin.Float64
		}
		c.SegmentGeoJSON = seg
		c.SnapOriginJSON = snapO
		c.SnapDestJSON = snapD
		c.WalkToGeoJSON = walkTo
		c.WalkFromGeoJSON = walkFrom
		out = append(out, &c)
	}
	return out, rows.Err()
}

// --- Catalog ---

type catalog struct{ db *sql.DB }

func (c *catalog) ListLines(ctx context.Context) ([]*model.Line, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, code, name, color_hex, is_active, created_at, updated_at
        FROM lines
        ORDER BY name ASC, code ASC
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Line
	for rows.Next() {
		var l model.Line
		if err := rows.Scan(&l.LineID, &l.Code, &l.Name, &l.ColorHex, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (c *catalog) ListDirections(ctx context.Context, query string) ([]*model.LineDirection, error) {
	sqlText := `
        SELECT
          lr.id AS line_direction_id,
          l.id AS line_id,
          l.code,
          l.name AS line_name,
          l.color_hex,
          lr.direction,
          CASE WHEN lr.direction='outbound' THEN 'Ida' ELSE 'Vuelta' END AS headsign
        FROM lines l
        JOIN line_routes lr ON lr.line_id = l.id
        WHERE l.is_active`

	var args []interface{}
	if query != "" {
		args = append(args, "%"+query+"%")
		sqlText += `
          AND (
            l.code ILIKE $1
            OR l.name ILIKE $1
            OR (CASE WHEN lr.direction='outbound' THEN 'Ida' ELSE 'Vuelta' END) ILIKE $1
          )`
	}
	sqlText += ` ORDER BY l.name ASC, l.code ASC, lr.direction ASC`

	rows, err := c.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.LineDirection
	for rows.Next() {
		var d model.LineDirection
		if err := rows.Scan(&d.LineDirectionID, &d.LineID, &d.Code, &d.LineName, &d.ColorHex, &d.Direction, &d.Headsign); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (c *catalog) LineRoutes(ctx context.Context, lineID int64) (*model.Line, []*model.LineGeometry, error) {
	var line model.Line
	row := c.db.QueryRowContext(ctx, `
        SELECT id, code, name, color_hex, is_active, created_at, updated_at
        FROM lines WHERE id=$1
    `, lineID)
	if err := row.Scan(&line.LineID, &line.Code, &line.Name, &line.ColorHex, &line.IsActive, &line.CreatedAt, &line.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, model.ErrNotFound
		}
		return nil, nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
        SELECT id, direction, ST_AsGeoJSON(geom)
        FROM line_routes
        WHERE line_id=$1
    `, lineID)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var geoms []*model.LineGeometry
	for rows.Next() {
		var g model.LineGeometry
		var raw []byte
		if err := rows.Scan(&g.LineDirectionID, &g.Direction, &raw); err != nil {
			return nil, nil, err
		}
		g.Geometry = raw
		geoms = append(geoms, &g)
	}
	return &line, geoms, rows.Err()
}

func (c *catalog) DirectionRoute(ctx context.Context, lineDirectionID int64) (*model.DirectionRoute, error) {
	var d model.DirectionRoute
	var raw []byte
	row := c.db.QueryRowContext(ctx, `
        SELECT
          lr.id AS line_direction_id,
          lr.line_id,
          lr.direction,
          CASE WHEN lr.direction='outbound' THEN 'Ida' ELSE 'Vuelta' END AS headsign,
          l.code,
          l.name AS line_name,
          l.color_hex,
          ROUND(lr.length_m)::int AS length_m,
          ST_AsGeoJSON(lr.geom)
        FROM line_routes lr
        JOIN lines l ON l.id = lr.line_id
        WHERE lr.id = $1
    `, lineDirectionID)
	if err := row.Scan(&d.LineDirectionID, &d.LineID, &d.Direction, &d.Headsign, &d.Code, &d.LineName, &d.ColorHex, &d.LengthM, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	d.Geometry = raw
	return &d, nil
}
