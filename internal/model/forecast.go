package model

import "time"

// InfeedForecast is the quantile forecast of total renewable infeed for one
// cell and lead hour. Invariant: P10 <= P50 <= P90 for all valid inputs.
type InfeedForecast struct {
	Cell     CellID    `json:"cell"`
	RunTime  time.Time `json:"run_time"`
	LeadHour int       `json:"lead_hour"`

	P10MW float64 `json:"p10_mw"`
	P50MW float64 `json:"p50_mw"`
	P90MW float64 `json:"p90_mw"`

	// Members is the count of ensemble members that contributed.
	Members int     `json:"members"`
	Quality Quality `json:"quality"` // OK or DEGRADED
}

// ActualSample is one observation of aggregated feed-in, delivered at the
// coarsest granularity the upstream source provides (sector/TSO level).
// Used for calibration only.
type ActualSample struct {
	RunTime  time.Time `json:"run_time"`
	LeadHour int       `json:"lead_hour"`
	PowerMW  float64   `json:"power_mw"`
}

// CalibrationReport summarizes forecast quality against coarse actuals.
// The comparison aggregates quantiles across all cells before scoring,
// which is a known limitation of the coarse actuals, not a defect.
type CalibrationReport struct {
	Samples int `json:"samples"`

	// Coverage is the fraction of actuals falling inside [P10, P90].
	Coverage float64 `json:"coverage"`

	// SharpnessMW is the mean P90-P10 band width.
	SharpnessMW float64 `json:"sharpness_mw"`

	// MAE/RMSE of the aggregated P50 against the actual feed-in.
	MAEMW  float64 `json:"mae_mw"`
	RMSEMW float64 `json:"rmse_mw"`
}
