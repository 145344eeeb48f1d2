package model

// StorageCandidate is one ranked siting recommendation. Candidates whose
// verification re-simulation leaves residual congestion are retained with
// QualityPartialImprovement rather than discarded.
//
// Sizing covers the power rating only; energy capacity would need dispatch
// profiles over time, which the hourly scenario snapshots do not carry.
type StorageCandidate struct {
	Node NodeID `json:"node"`
	Rank int    `json:"rank"`

	// Score = congestion frequency of adjacent lines x mean severity when
	// congested. Ties are broken by nearby installed capacity, then node id.
	Score               float64 `json:"score"`
	CongestionFrequency float64 `json:"congestion_frequency"`
	MeanSeverityMW      float64 `json:"mean_severity_mw"`
	NearbyCapacityMW    float64 `json:"nearby_capacity_mw"`

	// RatingMW is the recommended storage power rating: the maximum
	// per-scenario severity on the node's adjacent lines.
	RatingMW float64 `json:"rating_mw"`

	// Verification results from re-simulating with storage dispatch added.
	VerifiedDeltaMW    float64 `json:"verified_delta_mw"`    // severity removed
	ResidualSeverityMW float64 `json:"residual_severity_mw"` // severity remaining
	Quality            Quality `json:"quality"`              // OK or PARTIAL_IMPROVEMENT
}
