package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcast/internal/model"
)

var testRunTime = time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

func memberEstimates(cell model.CellID, lead int, values []float64) []model.PowerEstimate {
	out := make([]model.PowerEstimate, 0, len(values))
	for i, v := range values {
		out = append(out, model.PowerEstimate{
			Cell:       cell,
			Technology: model.TechWind,
			RunTime:    testRunTime,
			LeadHour:   lead,
			Member:     model.MemberID(i),
			PowerMW:    v,
			Quality:    model.QualityOK,
		})
	}
	return out
}

func fullEnsembleValues() []float64 {
	vals := make([]float64, model.EnsembleSize)
	for i := range vals {
		vals[i] = float64(i) // 0..19 MW
	}
	return vals
}

func TestAggregateQuantileOrdering(t *testing.T) {
	agg := New(0)
	cell := model.MakeCellID(1, 1)

	fcs := agg.Aggregate(memberEstimates(cell, 12, fullEnsembleValues()))
	require.Len(t, fcs, 1)

	f := fcs[0]
	assert.LessOrEqual(t, f.P10MW, f.P50MW)
	assert.LessOrEqual(t, f.P50MW, f.P90MW)
	assert.Equal(t, model.EnsembleSize, f.Members)
	assert.Equal(t, model.QualityOK, f.Quality)
}

func TestAggregateOrderingHoldsForSingleMember(t *testing.T) {
	agg := New(0)
	cell := model.MakeCellID(1, 1)

	fcs := agg.Aggregate(memberEstimates(cell, 0, []float64{7.5}))
	require.Len(t, fcs, 1)
	assert.Equal(t, 7.5, fcs[0].P10MW)
	assert.Equal(t, 7.5, fcs[0].P50MW)
	assert.Equal(t, 7.5, fcs[0].P90MW)
	assert.Equal(t, model.QualityDegraded, fcs[0].Quality)
}

func TestAggregateIsIdempotent(t *testing.T) {
	agg := New(0)
	cell := model.MakeCellID(2, 3)
	ests := memberEstimates(cell, 6, []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5})

	a := agg.Aggregate(ests)
	b := agg.Aggregate(ests)
	assert.Equal(t, a, b, "re-aggregation must be bit-identical")
}

func TestAggregateExcludesDeterministicRun(t *testing.T) {
	agg := New(1)
	cell := model.MakeCellID(0, 0)

	ests := memberEstimates(cell, 0, []float64{2, 2, 2})
	ests = append(ests, model.PowerEstimate{
		Cell: cell, Technology: model.TechWind, RunTime: testRunTime,
		LeadHour: 0, Member: model.MemberDeterministic, PowerMW: 99, Quality: model.QualityOK,
	})

	fcs := agg.Aggregate(ests)
	require.Len(t, fcs, 1)
	assert.Equal(t, 3, fcs[0].Members)
	assert.Equal(t, 2.0, fcs[0].P90MW, "deterministic value must not enter the quantiles")
}

func TestAggregateDegradedBelowMinMembers(t *testing.T) {
	agg := New(0) // default: half the ensemble
	cell := model.MakeCellID(4, 4)

	ests := memberEstimates(cell, 3, []float64{1, 2, 3, 4, 5}) // 5 < 10
	fcs := agg.Aggregate(ests)
	require.Len(t, fcs, 1)
	assert.Equal(t, model.QualityDegraded, fcs[0].Quality)
	assert.Equal(t, 5, fcs[0].Members)
}

func TestAggregateUnavailableMemberExcluded(t *testing.T) {
	agg := New(1)
	cell := model.MakeCellID(7, 7)

	ests := memberEstimates(cell, 0, []float64{10, 20})
	// Member 1 also has an unavailable PV estimate: the whole member drops.
	ests = append(ests, model.PowerEstimate{
		Cell: cell, Technology: model.TechPV, RunTime: testRunTime,
		LeadHour: 0, Member: 1, Quality: model.QualityUnavailable,
	})

	fcs := agg.Aggregate(ests)
	require.Len(t, fcs, 1)
	assert.Equal(t, 1, fcs[0].Members)
	assert.Equal(t, 10.0, fcs[0].P50MW)
}

func TestAggregateSumsTechnologiesPerMember(t *testing.T) {
	agg := New(1)
	cell := model.MakeCellID(9, 9)

	ests := []model.PowerEstimate{
		{Cell: cell, Technology: model.TechWind, RunTime: testRunTime, LeadHour: 0, Member: 0, PowerMW: 4, Quality: model.QualityOK},
		{Cell: cell, Technology: model.TechPV, RunTime: testRunTime, LeadHour: 0, Member: 0, PowerMW: 1.5, Quality: model.QualityOK},
	}
	fcs := agg.Aggregate(ests)
	require.Len(t, fcs, 1)
	assert.Equal(t, 5.5, fcs[0].P50MW)
}

func TestAggregateOutputSortedByCellAndLead(t *testing.T) {
	agg := New(1)
	a := model.MakeCellID(0, 1)
	b := model.MakeCellID(0, 2)

	var ests []model.PowerEstimate
	ests = append(ests, memberEstimates(b, 5, []float64{1})...)
	ests = append(ests, memberEstimates(a, 7, []float64{1})...)
	ests = append(ests, memberEstimates(a, 2, []float64{1})...)

	fcs := agg.Aggregate(ests)
	require.Len(t, fcs, 3)
	assert.Equal(t, a, fcs[0].Cell)
	assert.Equal(t, 2, fcs[0].LeadHour)
	assert.Equal(t, a, fcs[1].Cell)
	assert.Equal(t, 7, fcs[1].LeadHour)
	assert.Equal(t, b, fcs[2].Cell)
}
