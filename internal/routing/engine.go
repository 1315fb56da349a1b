// Package routing matches trip endpoints against transit-line geometries,
// costs the candidates and ranks them.
package routing

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/milinea/milinea-backend/internal/model"
	"github.com/milinea/milinea-backend/internal/store"
)

// MaxResults caps the ranked list.
const MaxResults = 5

// Threshold escalation is a bounded retry over a discrete schedule, only
// applied when the initial threshold is tight. Literal values kept
// reproducible on purpose.
const escalationLimitM = 250

// Params are the per-search tunables.
type Params struct {
	ThresholdM float64
	WalkKmh    float64
	BusKmh     float64
}

// CostFn computes ETA minutes for one measured candidate. walkRate and
// busRate are meters per minute.
type CostFn func(c *model.RouteCandidate, walkRate, busRate float64) float64

// GlobalSpeedCost is the canonical model: both walk legs at the walk rate,
// the ride leg at the single global bus rate.
func GlobalSpeedCost(c *model.RouteCandidate, walkRate, busRate float64) float64 {
	return c.WalkToM/walkRate + c.RideM/busRate + c.WalkFromM/walkRate
}

// PerLineCost uses the line's own average speed plus a fixed wait term when
// the catalog carries them, falling back to the global bus rate otherwise.
func PerLineCost(c *model.RouteCandidate, walkRate, busRate float64) float64 {
	rideRate := busRate
	if c.AvgSpeedKmh != nil && *c.AvgSpeedKmh > 0 {
		rideRate = *c.AvgSpeedKmh * 1000.0 / 60.0
	}
	wait := 0.0
	if c.WaitMinutes != nil {
		wait = *c.WaitMinutes
	}
	return c.WalkToM/walkRate + c.RideM/rideRate + c.WalkFromM/walkRate + wait
}

// Result is a ranked option list plus the threshold that produced it.
type Result struct {
	Options          []*model.RouteOption
	ThresholdInitial float64
	ThresholdUsedM   float64
}

// Engine runs the candidate search with adaptive threshold escalation.
type Engine struct {
	routes store.Routes
	cost   CostFn
	log    zerolog.Logger
}

// NewEngine builds an engine over the spatial query primitive with the
// given cost model.
func NewEngine(routes store.Routes, cost CostFn, log zerolog.Logger) *Engine {
	return &Engine{routes: routes, cost: cost, log: log.With().Str("component", "route_engine").Logger()}
}

// thresholdSchedule returns the thresholds to try in order.
func thresholdSchedule(initial float64) []float64 {
	if initial < escalationLimitM {
		return []float64{initial, initial + 80, 300, 400}
	}
	return []float64{initial}
}

// Search finds candidate lines near both endpoints, costs them and returns
// at most MaxResults options ranked by ETA. Queries run sequentially per
// the escalation schedule, stopping at the first non-empty result.
func (e *Engine) Search(ctx context.Context, origin, destination model.Point, p Params) (*Result, error) {
	walkRate := p.WalkKmh * 1000.0 / 60.0
	busRate := p.BusKmh * 1000.0 / 60.0

	res := &Result{ThresholdInitial: p.ThresholdM, ThresholdUsedM: p.ThresholdM}
	for _, t := range thresholdSchedule(p.ThresholdM) {
		cands, err := e.routes.Candidates(ctx, store.CandidateQuery{
			Origin:      origin,
			Destination: destination,
			ThresholdM:  t,
		})
		if err != nil {
			return nil, err
		}
		e.log.Debug().Float64("threshold_m", t).Int("candidates", len(cands)).Msg("spatial query")
		if len(cands) > 0 {
			res.Options = e.rank(cands, walkRate, busRate)
			res.ThresholdUsedM = t
			break
		}
	}
	return res, nil
}

// rank costs the candidates and orders them by (eta, total walk, ride
// distance) ascending, capped at MaxResults. Candidates whose origin
// projection is not strictly before the destination projection would mean
// riding backwards and are discarded; the spatial store filters these too,
// but the invariant is owned here.
func (e *Engine) rank(cands []*model.RouteCandidate, walkRate, busRate float64) []*model.RouteOption {
	opts := make([]*model.RouteOption, 0, len(cands))
	for _, c := range cands {
		if !(c.LocOrigin < c.LocDest) {
			continue
		}
		opts = append(opts, &model.RouteOption{
			RouteCandidate: *c,
			ETAMinutes:     e.cost(c, walkRate, busRate),
		})
	}
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].ETAMinutes != opts[j].ETAMinutes {
			return opts[i].ETAMinutes < opts[j].ETAMinutes
		}
		if opts[i].WalkTotalM() != opts[j].WalkTotalM() {
			return opts[i].WalkTotalM() < opts[j].WalkTotalM()
		}
		return opts[i].RideM < opts[j].RideM
	})
	if len(opts) > MaxResults {
		opts = opts[:MaxResults]
	}
	return opts
}
