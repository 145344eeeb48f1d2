package power

import (
	"errors"
	"math"
)

// Standard sea-level air density and the dry-air gas constant used for the
// density correction.
const (
	refAirDensity   = 1.225   // kg/m^3
	dryAirGasConst  = 287.05  // J/(kg K)
	refPressurePa   = 101325.0
)

// TurbineParams describes the fleet-representative turbine used for
// cell-level wind conversion.
// Units:
// - HubHeightM: metres above ground
// - CutInMS / RatedMS / CutOutMS: m/s
type TurbineParams struct {
	HubHeightM float64
	CutInMS    float64
	RatedMS    float64
	CutOutMS   float64
}

// DefaultTurbine approximates a modern 3-4 MW class onshore turbine.
func DefaultTurbine() TurbineParams {
	return TurbineParams{
		HubHeightM: 120,
		CutInMS:    3,
		RatedMS:    12,
		CutOutMS:   25,
	}
}

func (t TurbineParams) Validate() error {
	if t.HubHeightM <= 0 {
		return errors.New("HubHeightM must be > 0")
	}
	if t.CutInMS <= 0 {
		return errors.New("CutInMS must be > 0")
	}
	if t.RatedMS <= t.CutInMS {
		return errors.New("RatedMS must be > CutInMS")
	}
	if t.CutOutMS <= t.RatedMS {
		return errors.New("CutOutMS must be > RatedMS")
	}
	return nil
}

// CapacityFactor maps a hub-height wind speed onto the fraction of rated
// power: exactly 0 below cut-in and at/above cut-out, exactly 1 on the
// rated plateau, and a cubic rise in between.
func (t TurbineParams) CapacityFactor(speedMS float64) float64 {
	switch {
	case speedMS < t.CutInMS || speedMS >= t.CutOutMS:
		return 0
	case speedMS >= t.RatedMS:
		return 1
	default:
		num := math.Pow(speedMS, 3) - math.Pow(t.CutInMS, 3)
		den := math.Pow(t.RatedMS, 3) - math.Pow(t.CutInMS, 3)
		return num / den
	}
}

// airDensity derives density from 2m temperature via the ideal gas law at
// reference pressure. Temperature is Kelvin.
func airDensity(tempK float64) float64 {
	if tempK <= 0 {
		return refAirDensity
	}
	return refPressurePa / (dryAirGasConst * tempK)
}

// densityCorrect scales a wind speed so that the cubic power relation sees
// the actual air density instead of the reference one.
func densityCorrect(speedMS, tempK float64) float64 {
	return speedMS * math.Cbrt(airDensity(tempK)/refAirDensity)
}

// hubHeightSpeed computes the rotor-equivalent wind speed at hub height by
// linear interpolation across the provided model levels. Outside the level
// range the nearest level's speed is used (no extrapolation).
//
// levels must be sorted ascending; speeds[i] belongs to levels[i].
func hubHeightSpeed(levels, speeds []float64, hubHeightM float64) float64 {
	n := len(levels)
	if n == 0 {
		return 0
	}
	if n == 1 || hubHeightM <= levels[0] {
		return speeds[0]
	}
	if hubHeightM >= levels[n-1] {
		return speeds[n-1]
	}
	for i := 1; i < n; i++ {
		if hubHeightM <= levels[i] {
			frac := (hubHeightM - levels[i-1]) / (levels[i] - levels[i-1])
			return speeds[i-1]*(1-frac) + speeds[i]*frac
		}
	}
	return speeds[n-1]
}
