package model

// Quality is a per-record quality flag. Every output record carries one;
// ambiguous results are always marked, never presented as equal-confidence
// to clean results. Keep these values stable; they appear in CSV and JSON
// output.
type Quality string

const (
	// QualityOK marks a clean result.
	QualityOK Quality = "OK"

	// QualityUnavailable marks a power estimate whose input variables were
	// missing. Distinct from zero generation.
	QualityUnavailable Quality = "UNAVAILABLE"

	// QualityDegraded marks a forecast computed from fewer ensemble members
	// than the configured minimum.
	QualityDegraded Quality = "DEGRADED"

	// QualityUnbalanced marks a flow scenario whose injections did not sum
	// to zero within tolerance; the residual was absorbed at the slack node.
	QualityUnbalanced Quality = "UNBALANCED"

	// QualityPartialImprovement marks a storage candidate whose verification
	// re-simulation left residual congestion on its adjacent lines.
	QualityPartialImprovement Quality = "PARTIAL_IMPROVEMENT"
)
