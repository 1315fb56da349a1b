package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milinea/milinea-backend/internal/chat"
	"github.com/milinea/milinea-backend/internal/config"
	"github.com/milinea/milinea-backend/internal/geocode"
	"github.com/milinea/milinea-backend/internal/intent"
	"github.com/milinea/milinea-backend/internal/model"
	"github.com/milinea/milinea-backend/internal/places"
	"github.com/milinea/milinea-backend/internal/routing"
	"github.com/milinea/milinea-backend/internal/session"
	"github.com/milinea/milinea-backend/internal/store"
)

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	routes  fakeRoutes
	catalog fakeCatalog
	downErr error
}

func (s *fakeStore) Routes() store.Routes   { return &s.routes }
func (s *fakeStore) Catalog() store.Catalog { return &s.catalog }

func (s *fakeStore) HealthPing(context.Context) error { return s.downErr }

func (s *fakeStore) Versions(context.Context) (string, string, error) {
	if s.downErr != nil {
		return "", "", s.downErr
	}
	return "PostgreSQL 16.3", "PostGIS 3.4.2", nil
}

type fakeRoutes struct {
	cands []*model.RouteCandidate
	err   error
}

func (f *fakeRoutes) Candidates(context.Context, store.CandidateQuery) ([]*model.RouteCandidate, error) {
	return f.cands, f.err
}

type fakeCatalog struct {
	lines      []*model.Line
	directions []*model.LineDirection
	geoms      []*model.LineGeometry
	route      *model.DirectionRoute
}

func (c *fakeCatalog) ListLines(context.Context) ([]*model.Line, error) { return c.lines, nil }

func (c *fakeCatalog) ListDirections(_ context.Context, query string) ([]*model.LineDirection, error) {
	if query == "" {
		return c.directions, nil
	}
	out := make([]*model.LineDirection, 0, len(c.directions))
	for _, d := range c.directions {
		if strings.Contains(strings.ToLower(d.Code), strings.ToLower(query)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *fakeCatalog) LineRoutes(_ context.Context, lineID int64) (*model.Line, []*model.LineGeometry, error) {
	for _, l := range c.lines {
		if l.LineID == lineID {
			return l, c.geoms, nil
		}
	}
	return nil, nil, model.ErrNotFound
}

func (c *fakeCatalog) DirectionRoute(_ context.Context, id int64) (*model.DirectionRoute, error) {
	if c.route != nil && c.route.LineDirectionID == id {
		return c.route, nil
	}
	return nil, model.ErrNotFound
}

type nullGeocoder struct{}

func (nullGeocoder) Geocode(context.Context, string) (*geocode.Result, error) { return nil, nil }

func newTestRouter(t *testing.T, st *fakeStore) http.Handler {
	t.Helper()
	cfg := config.NewForTesting()
	log := zerolog.Nop()
	cache := places.NewCache(filepath.Join(t.TempDir(), "cache.json"), cfg.Bounds(), log)
	tracker := places.NewTracker(filepath.Join(t.TempDir(), "unresolved.json"), log)
	resolver := places.NewResolver(cache, nullGeocoder{}, cfg.Bounds(), cfg.CityContext, log)
	sessions := session.NewStore(cfg.SessionTTL, log)
	engine := routing.NewEngine(st.Routes(), routing.GlobalSpeedCost, log)
	chatSvc := chat.NewService(cfg, intent.NewExtractor(nil, log), resolver, tracker, sessions, engine, log)

	tracker.Register("perdido")
	tracker.Register("perdido")
	tracker.Register("olvidado")

	return NewRouter(Deps{
		Cfg:           cfg,
		Store:         st,
		Chat:          chatSvc,
		FastestEngine: engine,
		Tracker:       tracker,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	}
	return rec, decoded
}

func TestRootEndpoint(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec, body := doJSON(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "milinea-backend", body["service"])
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec, body := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PostgreSQL 16.3", body["pg"])
	assert.Equal(t, "PostGIS 3.4.2", body["postgis"])
}

func TestHealthEndpointFailure(t *testing.T) {
	h := newTestRouter(t, &fakeStore{downErr: fmt.Errorf("dial tcp: connection refused")})

	rec, body := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestChatInvalidJSON(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec, body := doJSON(t, h, http.MethodPost, "/chat", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON", body["error"])
}

func TestChatEmptyMessage(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec, body := doJSON(t, h, http.MethodPost, "/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "message is required")
}

func TestChatUnknownIntent(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec, body := doJSON(t, h, http.MethodPost, "/chat", `{"message":"hola"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["session_id"])
	needs, ok := body["needs"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, needs["destination"])
}

func TestFastestValidation(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec, _ := doJSON(t, h, http.MethodPost, "/routes/fastest", `{"origin":{"lng":-66.15,"lat":-17.39}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := doJSON(t, h, http.MethodPost, "/routes/fastest", "null")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestFastestSearch(t *testing.T) {
	st := &fakeStore{routes: fakeRoutes{cands: []*model.RouteCandidate{{
		LineDirectionID: 9,
		Code:            "3V",
		Headsign:        "Centro",
		LocOrigin:       0.2,
		LocDest:         0.9,
		RideM:           3000,
		WalkToM:         60,
		WalkFromM:       40,
	}}}}
	h := newTestRouter(t, st)

	rec, body := doJSON(t, h, http.MethodPost, "/routes/fastest",
		`{"origin":{"lng":-66.16,"lat":-17.38},"destination":{"lng":-66.15,"lat":-17.40},"bus_kmh":24}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])

	params, ok := body["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 100.0, params["threshold_m"])
	assert.Equal(t, 24.0, params["bus_kmh"])

	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
}

func TestListLines(t *testing.T) {
	st := &fakeStore{catalog: fakeCatalog{lines: []*model.Line{
		{LineID: 1, Code: "130", Name: "Línea 130", IsActive: true},
		{LineID: 2, Code: "3V", Name: "Línea 3V", IsActive: true},
	}}}
	h := newTestRouter(t, st)

	rec, body := doJSON(t, h, http.MethodGet, "/lines", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestListDirectionsFilters(t *testing.T) {
	st := &fakeStore{catalog: fakeCatalog{directions: []*model.LineDirection{
		{LineDirectionID: 1, Code: "130", Direction: "outbound"},
		{LineDirectionID: 2, Code: "3V", Direction: "outbound"},
	}}}
	h := newTestRouter(t, st)

	rec, body := doJSON(t, h, http.MethodGet, "/lines/directions?q=3v", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3v", body["query"])
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestLineRoutes(t *testing.T) {
	st := &fakeStore{catalog: fakeCatalog{
		lines: []*model.Line{{LineID: 1, Code: "130"}},
		geoms: []*model.LineGeometry{
			{LineDirectionID: 10, Direction: "outbound", Geometry: json.RawMessage(`{"type":"LineString","coordinates":[]}`)},
		},
	}}
	h := newTestRouter(t, st)

	rec, body := doJSON(t, h, http.MethodGet, "/lines/1/routes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	routes, ok := body["routes"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, routes["outbound"])
	assert.Nil(t, routes["inbound"])

	fc, ok := routes["outbound"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "FeatureCollection", fc["type"])
}

func TestLineRoutesNotFound(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	rec, body := doJSON(t, h, http.MethodGet, "/lines/42/routes", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestDirectionRoute(t *testing.T) {
	st := &fakeStore{catalog: fakeCatalog{route: &model.DirectionRoute{
		LineDirection: model.LineDirection{LineDirectionID: 10, Code: "130", Direction: "outbound", Headsign: "Av. América"},
		LengthM:       8400,
		Geometry:      json.RawMessage(`{"type":"LineString","coordinates":[]}`),
	}}}
	h := newTestRouter(t, st)

	rec, body := doJSON(t, h, http.MethodGet, "/directions/10/route", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8400.0, body["length_m_total"])

	rec, _ = doJSON(t, h, http.MethodGet, "/directions/11/route", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUnresolved(t *testing.T) {
	h := newTestRouter(t, &fakeStore{})

	// Default threshold hides single-hit terms.
	rec, body := doJSON(t, h, http.MethodGet, "/admin/unresolved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["min_hits"])
	assert.Equal(t, 1.0, body["count"])

	rec, body = doJSON(t, h, http.MethodGet, "/admin/unresolved?min_hits=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["count"])
}

func TestDirectionsListingNotShadowedByLineID(t *testing.T) {
	// "/lines/directions" must route to the directions listing, not match
	// the numeric line id pattern.
	h := newTestRouter(t, &fakeStore{})

	rec, body := doJSON(t, h, http.MethodGet, "/lines/directions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	_, hasQuery := body["query"]
	assert.True(t, hasQuery)
}
