package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityFactorCutInCutOut(t *testing.T) {
	turb := DefaultTurbine()

	cases := []struct {
		name    string
		speedMS float64
		want    float64
	}{
		{"calm", 0, 0},
		{"just below cut-in", turb.CutInMS - 0.01, 0},
		{"at rated", turb.RatedMS, 1},
		{"on the plateau", (turb.RatedMS + turb.CutOutMS) / 2, 1},
		{"at cut-out", turb.CutOutMS, 0},
		{"storm", turb.CutOutMS + 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, turb.CapacityFactor(tc.speedMS))
		})
	}
}

func TestCapacityFactorMonotoneBetweenCutInAndRated(t *testing.T) {
	turb := DefaultTurbine()
	prev := 0.0
	for v := turb.CutInMS; v <= turb.RatedMS; v += 0.25 {
		cf := turb.CapacityFactor(v)
		assert.GreaterOrEqual(t, cf, prev, "capacity factor must not decrease at %v m/s", v)
		assert.LessOrEqual(t, cf, 1.0)
		prev = cf
	}
}

func TestDensityCorrectColdAirBoostsSpeed(t *testing.T) {
	// Colder air is denser, so the effective speed goes up.
	cold := densityCorrect(10, 263.15)
	warm := densityCorrect(10, 303.15)
	assert.Greater(t, cold, 10.0)
	assert.Less(t, warm, 10.0)
}

func TestHubHeightSpeedInterpolation(t *testing.T) {
	levels := []float64{10, 100, 180}
	speeds := []float64{5, 8, 9}

	// Exact level hits.
	assert.InDelta(t, 8, hubHeightSpeed(levels, speeds, 100), 1e-12)

	// Between 100 and 180.
	assert.InDelta(t, 8.5, hubHeightSpeed(levels, speeds, 140), 1e-12)

	// Outside the range clamps to the nearest level.
	assert.InDelta(t, 5, hubHeightSpeed(levels, speeds, 2), 1e-12)
	assert.InDelta(t, 9, hubHeightSpeed(levels, speeds, 250), 1e-12)
}

func TestTurbineParamsValidate(t *testing.T) {
	turb := DefaultTurbine()
	require.NoError(t, turb.Validate())

	bad := turb
	bad.RatedMS = bad.CutInMS
	assert.Error(t, bad.Validate())

	bad = turb
	bad.CutOutMS = bad.RatedMS
	assert.Error(t, bad.Validate())
}
