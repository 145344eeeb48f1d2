package gridflow

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcast/internal/model"
)

func twoNodeTopology(susceptance float64) *model.Topology {
	return &model.Topology{
		Nodes: []model.GridNode{
			{ID: "n1", Lat: 53.0, Lon: 9.0},
			{ID: "n2", Lat: 53.1, Lon: 9.2},
		},
		Lines: []model.GridLine{
			{ID: "l12", From: "n1", To: "n2", Susceptance: susceptance, LimitMW: 150},
		},
		Slack: "n1",
	}
}

func TestSolveTwoNodeFlowEqualsInjection(t *testing.T) {
	// Balanced +100/-100 with slack at n1: the line must carry exactly
	// 100 MW regardless of susceptance.
	for _, b := range []float64{0.1, 1, 10, 500} {
		sim, err := NewSimulator(twoNodeTopology(b), 0, nil)
		require.NoError(t, err)

		res, err := sim.Solve("s", map[model.NodeID]float64{"n1": -100, "n2": 100})
		require.NoError(t, err)
		require.Len(t, res.Flows, 1)
		assert.InDelta(t, 100, math.Abs(res.Flows[0].FlowMW), 1e-9, "susceptance %v", b)
		assert.False(t, res.Unbalanced)
		assert.False(t, res.Flows[0].Congested)
		assert.Equal(t, model.QualityOK, res.Flows[0].Quality)
	}
}

func TestSolveUnbalancedFlaggedAndSlackAbsorbs(t *testing.T) {
	sim, err := NewSimulator(twoNodeTopology(5), 0, nil)
	require.NoError(t, err)

	res, err := sim.Solve("s", map[model.NodeID]float64{"n1": -50, "n2": 100})
	require.NoError(t, err)
	assert.True(t, res.Unbalanced)
	assert.Equal(t, model.QualityUnbalanced, res.Quality())
	assert.InDelta(t, 50, res.ResidualMW, 1e-9)
	// The slack ends up absorbing the full 100 MW: its provided -50 plus
	// the 50 MW residual.
	assert.InDelta(t, -100, res.SlackAbsorbedMW, 1e-9)
	assert.InDelta(t, 100, math.Abs(res.Flows[0].FlowMW), 1e-9)
	// Every flow record of the scenario carries the flag, so it survives
	// into CSV and API output.
	assert.Equal(t, model.QualityUnbalanced, res.Flows[0].Quality)
}

func TestSolveCongestionSeverity(t *testing.T) {
	topo := twoNodeTopology(5)
	topo.Lines[0].LimitMW = 50
	sim, err := NewSimulator(topo, 0, nil)
	require.NoError(t, err)

	res, err := sim.Solve("s", map[model.NodeID]float64{"n1": -80, "n2": 80})
	require.NoError(t, err)
	require.Len(t, res.Flows, 1)
	assert.True(t, res.Flows[0].Congested)
	assert.InDelta(t, 30, res.Flows[0].SeverityMW, 1e-9)
}

func TestSolveThreeNodeMeshBalances(t *testing.T) {
	topo := &model.Topology{
		Nodes: []model.GridNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Lines: []model.GridLine{
			{ID: "ab", From: "a", To: "b", Susceptance: 10, LimitMW: 1000},
			{ID: "bc", From: "b", To: "c", Susceptance: 10, LimitMW: 1000},
			{ID: "ca", From: "c", To: "a", Susceptance: 10, LimitMW: 1000},
		},
		Slack: "a",
	}
	sim, err := NewSimulator(topo, 0, nil)
	require.NoError(t, err)

	res, err := sim.Solve("s", map[model.NodeID]float64{"b": 90, "c": -90})
	require.NoError(t, err)

	// Nodal balance at b: inflow-outflow must equal its injection.
	flows := map[string]float64{}
	for _, f := range res.Flows {
		flows[f.Line] = f.FlowMW
	}
	atB := -flows["ab"] + flows["bc"] // ab into b is negative of From->To sign
	assert.InDelta(t, 90, atB, 1e-9)

	// Equal susceptances split the b->c transfer 2:1 between the direct
	// line and the detour through a.
	assert.InDelta(t, 60, flows["bc"], 1e-9)
	assert.InDelta(t, -30, flows["ab"], 1e-9)
}

func TestNewSimulatorDisconnectedTopology(t *testing.T) {
	topo := &model.Topology{
		Nodes: []model.GridNode{{ID: "a"}, {ID: "b"}, {ID: "island"}},
		Lines: []model.GridLine{
			{ID: "ab", From: "a", To: "b", Susceptance: 10, LimitMW: 100},
		},
		Slack: "a",
	}
	_, err := NewSimulator(topo, 0, nil)
	require.Error(t, err)
	var topoErr *TopologyError
	assert.ErrorAs(t, err, &topoErr)
}

func TestNewSimulatorRejectsBadLines(t *testing.T) {
	topo := twoNodeTopology(5)
	topo.Lines[0].Susceptance = 0
	_, err := NewSimulator(topo, 0, nil)
	assert.Error(t, err)

	topo = twoNodeTopology(5)
	topo.Lines[0].To = "ghost"
	_, err = NewSimulator(topo, 0, nil)
	assert.Error(t, err)
}

func TestSolveSetIsolatesCancellation(t *testing.T) {
	sim, err := NewSimulator(twoNodeTopology(5), 0, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, errs := sim.SolveSet(ctx, map[string]map[model.NodeID]float64{
		"s1": {"n1": -1, "n2": 1},
	})
	assert.Empty(t, results)
	assert.ErrorIs(t, errs["s1"], context.Canceled)
}

func TestSolveSetSolvesAllScenarios(t *testing.T) {
	sim, err := NewSimulator(twoNodeTopology(5), 0, nil)
	require.NoError(t, err)

	results, errs := sim.SolveSet(context.Background(), map[string]map[model.NodeID]float64{
		"s1": {"n1": -10, "n2": 10},
		"s2": {"n1": -20, "n2": 20},
	})
	assert.Empty(t, errs)
	require.Len(t, results, 2)
	assert.InDelta(t, 10, math.Abs(results["s1"].Flows[0].FlowMW), 1e-9)
	assert.InDelta(t, 20, math.Abs(results["s2"].Flows[0].FlowMW), 1e-9)
}

func TestComputeLineStats(t *testing.T) {
	results := map[string]*ScenarioResult{
		"s1": {Flows: []model.FlowResult{{Line: "l", Congested: true, SeverityMW: 30}}},
		"s2": {Flows: []model.FlowResult{{Line: "l", Congested: true, SeverityMW: 10}}},
		"s3": {Flows: []model.FlowResult{{Line: "l"}}},
		"s4": {Flows: []model.FlowResult{{Line: "l"}}},
	}
	stats := ComputeLineStats(results)
	st := stats["l"]
	assert.Equal(t, 4, st.Scenarios)
	assert.Equal(t, 2, st.Congested)
	assert.InDelta(t, 0.5, st.Frequency, 1e-12)
	assert.InDelta(t, 20, st.MeanSeverityMW, 1e-12)
	assert.InDelta(t, 30, st.MaxSeverityMW, 1e-12)
}
