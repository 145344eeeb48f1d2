package gridflow

// LineStats aggregates congestion over a scenario set for one line.
type LineStats struct {
	Line      string `json:"line"`
	Scenarios int    `json:"scenarios"`
	Congested int    `json:"congested"`

	// Frequency is Congested / Scenarios.
	Frequency float64 `json:"frequency"`

	// MeanSeverityMW averages severity over congested scenarios only.
	MeanSeverityMW float64 `json:"mean_severity_mw"`
	MaxSeverityMW  float64 `json:"max_severity_mw"`
}

// ComputeLineStats reduces a scenario result set into per-line congestion
// statistics.
func ComputeLineStats(results map[string]*ScenarioResult) map[string]LineStats {
	totals := map[string]*LineStats{}
	severitySums := map[string]float64{}

	for _, res := range results {
		for _, f := range res.Flows {
			st, ok := totals[f.Line]
			if !ok {
				st = &LineStats{Line: f.Line}
				totals[f.Line] = st
			}
			st.Scenarios++
			if f.Congested {
				st.Congested++
				severitySums[f.Line] += f.SeverityMW
				if f.SeverityMW > st.MaxSeverityMW {
					st.MaxSeverityMW = f.SeverityMW
				}
			}
		}
	}

	out := make(map[string]LineStats, len(totals))
	for line, st := range totals {
		if st.Scenarios > 0 {
			st.Frequency = float64(st.Congested) / float64(st.Scenarios)
		}
		if st.Congested > 0 {
			st.MeanSeverityMW = severitySums[line] / float64(st.Congested)
		}
		out[line] = *st
	}
	return out
}
