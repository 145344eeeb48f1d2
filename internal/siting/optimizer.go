// Package siting turns congestion statistics from DC power-flow runs into
// a ranked, sized, verified list of storage candidates. The feedback loop
// (simulate, rank, size, re-simulate, verify) is a bounded iteration over a
// fixed number of top candidates, never an open-ended search.
package siting

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"gridcast/internal/gridflow"
	"gridcast/internal/model"
)

// DefaultTopCandidates bounds the number of candidates processed per run.
const DefaultTopCandidates = 5

// Params configures one siting run.
type Params struct {
	// TopCandidates is the fixed number of top-ranked nodes to size and
	// verify (default DefaultTopCandidates).
	TopCandidates int

	// StopOnVerified stops after the first candidate whose verification
	// removes all adjacent congestion.
	StopOnVerified bool
}

// Optimizer runs the siting loop against one simulator.
type Optimizer struct {
	sim    *gridflow.Simulator
	params Params
	log    *zap.Logger
}

// New creates an Optimizer. A nil logger disables logging.
func New(sim *gridflow.Simulator, params Params, log *zap.Logger) (*Optimizer, error) {
	if sim == nil {
		return nil, errors.New("siting: simulator is nil")
	}
	if params.TopCandidates <= 0 {
		params.TopCandidates = DefaultTopCandidates
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Optimizer{sim: sim, params: params, log: log}, nil
}

type nodeScore struct {
	node      model.NodeID
	frequency float64
	severity  float64 // mean severity when congested, worst adjacent line
	score     float64
	nearbyMW  float64
}

// Run executes the siting loop for one scenario set. nearbyCapacityMW is
// the installed capacity allocated to each node, used only as a ranking
// tie-breaker. Per-scenario solve failures are returned alongside the
// candidates; they never abort the run.
func (o *Optimizer) Run(ctx context.Context, scenarios map[string]map[model.NodeID]float64, nearbyCapacityMW map[model.NodeID]float64) ([]model.StorageCandidate, map[string]error, error) {
	baseline, errs := o.sim.SolveSet(ctx, scenarios)
	if len(baseline) == 0 {
		return nil, errs, errors.New("siting: no scenario solved")
	}

	lineStats := gridflow.ComputeLineStats(baseline)
	scores := o.scoreNodes(lineStats, nearbyCapacityMW)

	limit := o.params.TopCandidates
	if limit > len(scores) {
		limit = len(scores)
	}

	var candidates []model.StorageCandidate
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return candidates, errs, err
		}
		s := scores[i]
		if s.score == 0 {
			break // remaining nodes see no congestion at all
		}

		rating := o.requiredRating(s.node, baseline)
		cand := o.verify(ctx, s, rating, scenarios, baseline)
		cand.Rank = len(candidates) + 1
		candidates = append(candidates, cand)

		o.log.Info("storage candidate evaluated",
			zap.String("node", string(cand.Node)),
			zap.Int("rank", cand.Rank),
			zap.Float64("rating_mw", cand.RatingMW),
			zap.Float64("residual_mw", cand.ResidualSeverityMW),
			zap.String("quality", string(cand.Quality)),
		)

		if o.params.StopOnVerified && cand.Quality == model.QualityOK {
			break
		}
	}
	return candidates, errs, nil
}

// scoreNodes ranks every non-slack node by congestion frequency x mean
// severity of its adjacent lines, descending. Ties break on nearby installed
// capacity, then node id, so the order is stable and deterministic.
func (o *Optimizer) scoreNodes(lineStats map[string]gridflow.LineStats, nearbyMW map[model.NodeID]float64) []nodeScore {
	scores := make([]nodeScore, 0, len(o.sim.Nodes()))
	for _, n := range o.sim.Nodes() {
		// The slack absorbs any dispatch without changing angles, so
		// storage there cannot relieve a single line.
		if n.ID == o.sim.Slack() {
			continue
		}
		var (
			freq     float64
			severity float64
		)
		for _, line := range o.sim.AdjacentLines(n.ID) {
			st, ok := lineStats[line]
			if !ok {
				continue
			}
			if st.Frequency > freq {
				freq = st.Frequency
			}
			if st.MeanSeverityMW > severity {
				severity = st.MeanSeverityMW
			}
		}
		scores = append(scores, nodeScore{
			node:      n.ID,
			frequency: freq,
			severity:  severity,
			score:     freq * severity,
			nearbyMW:  nearbyMW[n.ID],
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		if scores[i].nearbyMW != scores[j].nearbyMW {
			return scores[i].nearbyMW > scores[j].nearbyMW
		}
		return scores[i].node < scores[j].node
	})
	return scores
}

// requiredRating is the minimum storage power rating for a node: the
// maximum per-scenario severity over the node's adjacent lines.
func (o *Optimizer) requiredRating(node model.NodeID, baseline map[string]*gridflow.ScenarioResult) float64 {
	adjacent := lineSet(o.sim.AdjacentLines(node))
	var rating float64
	for _, res := range baseline {
		if s := maxAdjacentSeverity(res, adjacent); s > rating {
			rating = s
		}
	}
	return rating
}

// verify re-runs the simulator with the candidate's storage dispatch added
// at its node and measures the residual adjacent severity. Charging and
// discharging are both tried per scenario, magnitude capped at the rating;
// the better direction counts. Candidates that cannot fully clear their
// congestion (e.g. the overload is driven by a non-adjacent line, which
// the DC approximation cannot fix from here) are retained and flagged.
func (o *Optimizer) verify(ctx context.Context, s nodeScore, rating float64, scenarios map[string]map[model.NodeID]float64, baseline map[string]*gridflow.ScenarioResult) model.StorageCandidate {
	cand := model.StorageCandidate{
		Node:                s.node,
		Score:               s.score,
		CongestionFrequency: s.frequency,
		MeanSeverityMW:      s.severity,
		NearbyCapacityMW:    s.nearbyMW,
		RatingMW:            rating,
		Quality:             model.QualityOK,
	}

	adjacent := lineSet(o.sim.AdjacentLines(s.node))
	var baselineTotal, residualTotal float64
	for name, res := range baseline {
		worst := maxAdjacentSeverity(res, adjacent)
		if worst == 0 {
			continue
		}
		baselineTotal += worst

		dispatch := worst
		if dispatch > rating {
			dispatch = rating
		}
		residual := worst
		for _, delta := range []float64{-dispatch, dispatch} {
			if ctx.Err() != nil {
				break
			}
			re, err := o.resimulate(name, scenarios[name], s.node, delta)
			if err != nil {
				continue
			}
			if r := maxAdjacentSeverity(re, adjacent); r < residual {
				residual = r
			}
		}
		residualTotal += residual
	}

	cand.ResidualSeverityMW = residualTotal
	cand.VerifiedDeltaMW = baselineTotal - residualTotal
	if residualTotal > 0 {
		cand.Quality = model.QualityPartialImprovement
	}
	return cand
}

// resimulate solves one scenario with the storage dispatch injected at the
// candidate node. The counterpart power settles at the slack, like any
// other imbalance.
func (o *Optimizer) resimulate(name string, injections map[model.NodeID]float64, node model.NodeID, deltaMW float64) (*gridflow.ScenarioResult, error) {
	adjusted := make(map[model.NodeID]float64, len(injections)+1)
	for k, v := range injections {
		adjusted[k] = v
	}
	adjusted[node] += deltaMW
	return o.sim.Solve(name+"+storage", adjusted)
}

func maxAdjacentSeverity(res *gridflow.ScenarioResult, adjacent map[string]struct{}) float64 {
	var worst float64
	for _, f := range res.Flows {
		if _, ok := adjacent[f.Line]; !ok {
			continue
		}
		if f.SeverityMW > worst {
			worst = f.SeverityMW
		}
	}
	return worst
}

func lineSet(lines []string) map[string]struct{} {
	out := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		out[l] = struct{}{}
	}
	return out
}
