package model

import "time"

// PowerEstimate is the instantaneous power of one technology in one cell
// for one ensemble member (or the deterministic run). Estimates are derived
// per forecast run and never persisted as ground truth.
type PowerEstimate struct {
	Cell       CellID     `json:"cell"`
	Technology Technology `json:"technology"`
	RunTime    time.Time  `json:"run_time"`
	LeadHour   int        `json:"lead_hour"`
	Member     MemberID   `json:"member"`
	PowerMW    float64    `json:"power_mw"`
	Quality    Quality    `json:"quality"` // OK or UNAVAILABLE
}

// Available reports whether the estimate carries a usable value.
func (e PowerEstimate) Available() bool { return e.Quality != QualityUnavailable }
