// Package forecast reduces the ensemble member dimension of per-cell power
// estimates into P10/P50/P90 quantile forecasts and scores them against
// actual feed-in where available.
package forecast

import (
	"math"
	"sort"

	"gridcast/internal/model"
)

// DefaultMinMembers is the member count below which a forecast is flagged
// DEGRADED: half the ensemble.
const DefaultMinMembers = model.EnsembleSize / 2

// Aggregator holds the aggregation settings.
type Aggregator struct {
	// MinMembers is the minimum available member count for an OK forecast.
	MinMembers int
}

// New returns an Aggregator with the given minimum member count; values
// below 1 fall back to DefaultMinMembers.
func New(minMembers int) *Aggregator {
	if minMembers < 1 {
		minMembers = DefaultMinMembers
	}
	return &Aggregator{MinMembers: minMembers}
}

type groupKey struct {
	cell model.CellID
	lead int
}

type memberValue struct {
	powerMW     float64
	unavailable bool
}

// Aggregate computes one InfeedForecast per (cell, lead hour) from the
// member estimates. Per member, wind and PV estimates of a cell are summed;
// a member with any UNAVAILABLE estimate for the cell is excluded (a
// missing variable taints the member's total, it does not mean zero). The
// deterministic run never enters the statistics.
//
// The reduction is pure: re-running on an identical estimate set yields
// bit-identical quantiles. Output is sorted by cell, then lead hour.
func (a *Aggregator) Aggregate(estimates []model.PowerEstimate) []model.InfeedForecast {
	groups := map[groupKey]map[model.MemberID]*memberValue{}
	first := map[groupKey]model.PowerEstimate{}

	for _, e := range estimates {
		if e.Member == model.MemberDeterministic {
			continue
		}
		k := groupKey{e.Cell, e.LeadHour}
		g, ok := groups[k]
		if !ok {
			g = map[model.MemberID]*memberValue{}
			groups[k] = g
			first[k] = e
		}
		mv, ok := g[e.Member]
		if !ok {
			mv = &memberValue{}
			g[e.Member] = mv
		}
		if e.Available() {
			mv.powerMW += e.PowerMW
		} else {
			mv.unavailable = true
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].cell != keys[j].cell {
			return keys[i].cell < keys[j].cell
		}
		return keys[i].lead < keys[j].lead
	})

	out := make([]model.InfeedForecast, 0, len(keys))
	for _, k := range keys {
		vals := make([]float64, 0, len(groups[k]))
		for _, mv := range groups[k] {
			if mv.unavailable {
				continue
			}
			vals = append(vals, mv.powerMW)
		}
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)

		f := model.InfeedForecast{
			Cell:     k.cell,
			RunTime:  first[k].RunTime,
			LeadHour: k.lead,
			P10MW:    quantileSorted(vals, 0.10),
			P50MW:    quantileSorted(vals, 0.50),
			P90MW:    quantileSorted(vals, 0.90),
			Members:  len(vals),
			Quality:  model.QualityOK,
		}
		if len(vals) < a.MinMembers {
			f.Quality = model.QualityDegraded
		}
		out = append(out, f)
	}
	return out
}

// quantileSorted computes an empirical quantile by linear interpolation
// between order statistics. The input must be sorted ascending.
func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
