package gridflow

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"gridcast/internal/model"
)

// DefaultBalanceToleranceMW is the injection imbalance above which a
// scenario is flagged UNBALANCED.
const DefaultBalanceToleranceMW = 0.5

// Simulator solves DC power flow for one immutable topology. Safe for
// concurrent use; each Solve call works on its own matrices.
type Simulator struct {
	ix  *index
	tol float64
	log *zap.Logger
}

// NewSimulator indexes and validates the topology. Disconnected or
// otherwise unusable topologies fail here with a TopologyError.
func NewSimulator(topo *model.Topology, balanceToleranceMW float64, log *zap.Logger) (*Simulator, error) {
	ix, err := buildIndex(topo)
	if err != nil {
		return nil, err
	}
	if balanceToleranceMW <= 0 {
		balanceToleranceMW = DefaultBalanceToleranceMW
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{ix: ix, tol: balanceToleranceMW, log: log}, nil
}

// Slack is the resolved reference node.
func (s *Simulator) Slack() model.NodeID { return s.ix.slack }

// Nodes returns the topology's nodes in definition order.
func (s *Simulator) Nodes() []model.GridNode { return s.ix.topo.Nodes }

// AdjacentLines returns the ids of lines touching a node.
func (s *Simulator) AdjacentLines(node model.NodeID) []string {
	return s.ix.AdjacentLines(node)
}

// ScenarioResult is the solved state of one scenario.
type ScenarioResult struct {
	Scenario string             `json:"scenario"`
	Flows    []model.FlowResult `json:"flows"`

	// Unbalanced is set when the injections did not sum to zero within
	// tolerance; the residual was absorbed at the slack node.
	Unbalanced bool    `json:"unbalanced"`
	ResidualMW float64 `json:"residual_mw"`

	// SlackAbsorbedMW is the effective net injection at the slack node
	// after balancing (negative = absorption).
	SlackAbsorbedMW float64 `json:"slack_absorbed_mw"`
}

// Quality derives the scenario's quality flag.
func (r *ScenarioResult) Quality() model.Quality {
	if r.Unbalanced {
		return model.QualityUnbalanced
	}
	return model.QualityOK
}

// Solve runs one DC power-flow solve: build the reduced susceptance matrix
// (slack row/column excluded), solve for the voltage angles, derive line
// flows. A solve is atomic; cancellation belongs between scenarios, not
// inside one.
//
// injections maps node id to net power (MW, positive = generation). Nodes
// absent from the map inject zero. Any system-wide imbalance is absorbed at
// the slack node; beyond tolerance the result is flagged UNBALANCED.
func (s *Simulator) Solve(scenario string, injections map[model.NodeID]float64) (*ScenarioResult, error) {
	nodes := s.ix.topo.Nodes
	lines := s.ix.topo.Lines
	n := len(nodes)

	// Reduced position of each node: slack removed, others shifted down.
	reduced := func(pos int) int {
		if pos > s.ix.slackPos {
			return pos - 1
		}
		return pos
	}

	res := &ScenarioResult{Scenario: scenario}

	// Imbalance check across all provided injections, slack included. The
	// reduced system implies the slack absorbs the rest either way; the
	// flag makes that correction visible instead of silent.
	var total float64
	for _, p := range injections {
		total += p
	}
	res.ResidualMW = total
	if abs(total) > s.tol {
		res.Unbalanced = true
	}
	res.SlackAbsorbedMW = injections[s.ix.slack] - total

	if n == 1 {
		return res, nil
	}

	// Reduced susceptance (Laplacian) matrix and injection vector.
	b := mat.NewDense(n-1, n-1, nil)
	p := mat.NewVecDense(n-1, nil)
	for _, l := range lines {
		fi := s.ix.nodePos[l.From]
		ti := s.ix.nodePos[l.To]
		if fi != s.ix.slackPos {
			ri := reduced(fi)
			b.Set(ri, ri, b.At(ri, ri)+l.Susceptance)
		}
		if ti != s.ix.slackPos {
			ri := reduced(ti)
			b.Set(ri, ri, b.At(ri, ri)+l.Susceptance)
		}
		if fi != s.ix.slackPos && ti != s.ix.slackPos {
			rf, rt := reduced(fi), reduced(ti)
			b.Set(rf, rt, b.At(rf, rt)-l.Susceptance)
			b.Set(rt, rf, b.At(rt, rf)-l.Susceptance)
		}
	}
	for id, pw := range injections {
		pos, ok := s.ix.nodePos[id]
		if !ok || pos == s.ix.slackPos {
			continue
		}
		ri := reduced(pos)
		p.SetVec(ri, p.AtVec(ri)+pw)
	}

	theta := mat.NewVecDense(n-1, nil)
	if err := theta.SolveVec(b, p); err != nil {
		return nil, &TopologyError{Reason: "singular susceptance matrix"}
	}

	angleAt := func(pos int) float64 {
		if pos == s.ix.slackPos {
			return 0
		}
		return theta.AtVec(reduced(pos))
	}

	res.Flows = make([]model.FlowResult, 0, len(lines))
	for _, l := range lines {
		flow := l.Susceptance * (angleAt(s.ix.nodePos[l.From]) - angleAt(s.ix.nodePos[l.To]))
		fr := model.FlowResult{
			Line:     l.ID,
			Scenario: scenario,
			FlowMW:   flow,
			Quality:  res.Quality(),
		}
		if over := abs(flow) - l.LimitMW; over > 0 {
			fr.Congested = true
			fr.SeverityMW = over
		}
		res.Flows = append(res.Flows, fr)
	}
	return res, nil
}

// SolveSet solves every scenario in the set. Failures are isolated: a
// scenario that fails is reported in the error map while its siblings
// complete. Cancellation is honored between scenarios; a started solve
// always finishes.
func (s *Simulator) SolveSet(ctx context.Context, scenarios map[string]map[model.NodeID]float64) (map[string]*ScenarioResult, map[string]error) {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]*ScenarioResult, len(names))
	errs := map[string]error{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs[name] = err
			continue
		}
		res, err := s.Solve(name, scenarios[name])
		if err != nil {
			errs[name] = err
			s.log.Warn("scenario solve failed", zap.String("scenario", name), zap.Error(err))
			continue
		}
		if res.Unbalanced {
			s.log.Warn("scenario unbalanced, residual absorbed at slack",
				zap.String("scenario", name),
				zap.Float64("residual_mw", res.ResidualMW),
				zap.String("slack", string(s.ix.slack)),
			)
		}
		results[name] = res
	}
	return results, errs
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
