package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestACPowerZeroAtNight(t *testing.T) {
	pv := DefaultPV()
	assert.Equal(t, 0.0, pv.ACPower(10, 0, 0, 283.15))
}

func TestACPowerInverterClipping(t *testing.T) {
	pv := DefaultPV()
	// Irradiance far above STC cannot push output past installed capacity.
	got := pv.ACPower(10, 1500, 300, 263.15)
	assert.LessOrEqual(t, got, 10.0)
}

func TestACPowerTemperatureDerating(t *testing.T) {
	pv := DefaultPV()
	cool := pv.ACPower(10, 400, 100, 273.15)
	hot := pv.ACPower(10, 400, 100, 313.15)
	assert.Greater(t, cool, hot, "hotter cells must produce less")
	assert.Greater(t, hot, 0.0)
}

func TestACPowerScalesWithCapacity(t *testing.T) {
	pv := DefaultPV()
	one := pv.ACPower(1, 400, 100, 283.15)
	ten := pv.ACPower(10, 400, 100, 283.15)
	assert.InDelta(t, one*10, ten, 1e-9)
}

func TestPVParamsValidate(t *testing.T) {
	pv := DefaultPV()
	require.NoError(t, pv.Validate())

	bad := pv
	bad.PerformanceRatio = 1.2
	assert.Error(t, bad.Validate())

	bad = pv
	bad.TempCoeffPerK = 0.01
	assert.Error(t, bad.Validate())
}
