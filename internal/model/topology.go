package model

// NodeID identifies one HV grid node.
type NodeID string

// GridNode is one node of the static HV topology.
type GridNode struct {
	ID  NodeID  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GridLine is one transmission line. Susceptance is in per-unit on the
// topology's common base; LimitMW is the thermal limit.
type GridLine struct {
	ID          string  `json:"id"`
	From        NodeID  `json:"from"`
	To          NodeID  `json:"to"`
	Susceptance float64 `json:"susceptance"`
	LimitMW     float64 `json:"limit_mw"`
}

// Topology is one immutable HV network snapshot. Nodes and lines are
// addressed by stable ids; the structure is queried, never mutated, during
// a simulation run.
type Topology struct {
	Nodes []GridNode `json:"nodes"`
	Lines []GridLine `json:"lines"`

	// Slack is the reference node whose angle is fixed at zero and which
	// absorbs any injection imbalance. Empty means the first node.
	Slack NodeID `json:"slack,omitempty"`
}

// SlackNode resolves the effective slack node id.
func (t *Topology) SlackNode() NodeID {
	if t.Slack != "" {
		return t.Slack
	}
	if len(t.Nodes) > 0 {
		return t.Nodes[0].ID
	}
	return ""
}

// NodalInjection is the net power injected at one node for one scenario.
// Positive = generation, negative = load/absorption.
type NodalInjection struct {
	Node     NodeID  `json:"node"`
	Scenario string  `json:"scenario"`
	PowerMW  float64 `json:"power_mw"`
}

// FlowResult is the solved flow on one line for one scenario. Flow sign
// follows the line's From->To orientation.
type FlowResult struct {
	Line     string `json:"line"`
	Scenario string `json:"scenario"`

	FlowMW     float64 `json:"flow_mw"`
	Congested  bool    `json:"congested"`
	SeverityMW float64 `json:"severity_mw"` // |flow| - limit when positive, else 0

	// Quality is the scenario's flag: UNBALANCED when the injections did
	// not sum to zero within tolerance and the slack absorbed the rest.
	Quality Quality `json:"quality"`
}
