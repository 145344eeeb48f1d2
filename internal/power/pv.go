package power

import (
	"errors"
	"math"
)

// PVParams describes the fleet-representative PV system used for cell-level
// conversion. All cells share one fixed tilt/orientation assumption.
// Units:
// - TiltDeg: panel tilt from horizontal
// - DirectGain: static transposition factor applied to direct irradiance
//   (full solar-position transposition is handled upstream)
// - TempCoeffPerK: relative power change per Kelvin above the reference
//   cell temperature (negative for silicon)
// - PerformanceRatio: DC->AC system losses, 0..1
type PVParams struct {
	TiltDeg          float64
	DirectGain       float64
	TempCoeffPerK    float64
	PerformanceRatio float64
}

// DefaultPV approximates a south-facing fixed-tilt fleet.
func DefaultPV() PVParams {
	return PVParams{
		TiltDeg:          30,
		DirectGain:       1.0,
		TempCoeffPerK:    -0.004,
		PerformanceRatio: 0.90,
	}
}

func (p PVParams) Validate() error {
	if p.TiltDeg < 0 || p.TiltDeg > 90 {
		return errors.New("TiltDeg must be in [0, 90]")
	}
	if p.DirectGain <= 0 {
		return errors.New("DirectGain must be > 0")
	}
	if p.TempCoeffPerK > 0 {
		return errors.New("TempCoeffPerK must be <= 0")
	}
	if p.PerformanceRatio <= 0 || p.PerformanceRatio > 1 {
		return errors.New("PerformanceRatio must be in (0, 1]")
	}
	return nil
}

const (
	refIrradiance   = 1000.0 // W/m^2, STC
	refCellTempC    = 25.0   // STC cell temperature
	noctTempRiseC   = 25.0   // cell heating above ambient at refNOCTPOA
	refNOCTPOA      = 800.0  // W/m^2, NOCT reference irradiance
	kelvinToCelsius = 273.15
)

// planeOfArray combines direct and diffuse shortwave radiation into the
// irradiance on the tilted panel. Diffuse uses the isotropic sky-view
// factor; direct uses the static gain.
func (p PVParams) planeOfArray(directWM2, diffuseWM2 float64) float64 {
	tiltRad := p.TiltDeg * math.Pi / 180
	skyView := (1 + math.Cos(tiltRad)) / 2
	poa := directWM2*p.DirectGain + diffuseWM2*skyView
	if poa < 0 {
		return 0
	}
	return poa
}

// ACPower converts irradiance and ambient temperature into AC power for a
// given installed capacity: temperature-derated DC, performance-ratio
// losses, and inverter clipping at the rated AC capacity.
func (p PVParams) ACPower(capacityMW, directWM2, diffuseWM2, tempK float64) float64 {
	poa := p.planeOfArray(directWM2, diffuseWM2)
	if poa == 0 || capacityMW <= 0 {
		return 0
	}

	ambientC := tempK - kelvinToCelsius
	cellTempC := ambientC + noctTempRiseC*(poa/refNOCTPOA)
	derate := 1 + p.TempCoeffPerK*(cellTempC-refCellTempC)
	if derate < 0 {
		derate = 0
	}

	dcMW := capacityMW * (poa / refIrradiance) * derate
	acMW := dcMW * p.PerformanceRatio
	if acMW > capacityMW {
		acMW = capacityMW // inverter clipping
	}
	if acMW < 0 {
		acMW = 0
	}
	return acMW
}
