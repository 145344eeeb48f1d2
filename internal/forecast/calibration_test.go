package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcast/internal/model"
)

func bandForecast(cell model.CellID, lead int, p10, p50, p90 float64) model.InfeedForecast {
	return model.InfeedForecast{
		Cell: cell, RunTime: testRunTime, LeadHour: lead,
		P10MW: p10, P50MW: p50, P90MW: p90,
		Members: model.EnsembleSize, Quality: model.QualityOK,
	}
}

func TestCalibrateCoverageAndSharpness(t *testing.T) {
	cell := model.MakeCellID(1, 1)
	fcs := []model.InfeedForecast{
		bandForecast(cell, 0, 10, 20, 30),
		bandForecast(cell, 1, 10, 20, 30),
		bandForecast(cell, 2, 10, 20, 30),
		bandForecast(cell, 3, 10, 20, 30),
	}
	actuals := []model.ActualSample{
		{LeadHour: 0, PowerMW: 15}, // inside
		{LeadHour: 1, PowerMW: 25}, // inside
		{LeadHour: 2, PowerMW: 35}, // above P90
		{LeadHour: 3, PowerMW: 5},  // below P10
	}

	rep := Calibrate(fcs, actuals)
	require.NotNil(t, rep)
	assert.Equal(t, 4, rep.Samples)
	assert.InDelta(t, 0.5, rep.Coverage, 1e-12)
	assert.InDelta(t, 20, rep.SharpnessMW, 1e-12)
}

func TestCalibrateErrorsOfP50(t *testing.T) {
	cell := model.MakeCellID(1, 1)
	fcs := []model.InfeedForecast{
		bandForecast(cell, 0, 0, 10, 20),
		bandForecast(cell, 1, 0, 10, 20),
	}
	actuals := []model.ActualSample{
		{LeadHour: 0, PowerMW: 13}, // err -3
		{LeadHour: 1, PowerMW: 6},  // err +4
	}

	rep := Calibrate(fcs, actuals)
	require.NotNil(t, rep)
	assert.InDelta(t, 3.5, rep.MAEMW, 1e-12)
	assert.InDelta(t, 3.5355339059327378, rep.RMSEMW, 1e-9) // sqrt((9+16)/2)
}

func TestCalibrateSumsCellsPerLeadHour(t *testing.T) {
	a := model.MakeCellID(0, 0)
	b := model.MakeCellID(0, 1)
	fcs := []model.InfeedForecast{
		bandForecast(a, 0, 1, 2, 3),
		bandForecast(b, 0, 1, 2, 3),
	}
	actuals := []model.ActualSample{{LeadHour: 0, PowerMW: 4}}

	rep := Calibrate(fcs, actuals)
	require.NotNil(t, rep)
	// Aggregated band is [2, 6]; actual 4 is covered, P50 sum is 4.
	assert.Equal(t, 1.0, rep.Coverage)
	assert.Equal(t, 0.0, rep.MAEMW)
}

func TestCalibrateNoMatchingLeadHours(t *testing.T) {
	cell := model.MakeCellID(0, 0)
	fcs := []model.InfeedForecast{bandForecast(cell, 0, 1, 2, 3)}
	actuals := []model.ActualSample{{LeadHour: 42, PowerMW: 1}}
	assert.Nil(t, Calibrate(fcs, actuals))
}

func TestCalibrateEmptyInputs(t *testing.T) {
	assert.Nil(t, Calibrate(nil, nil))
}
