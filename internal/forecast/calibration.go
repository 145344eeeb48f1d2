package forecast

import (
	"math"
	"sort"

	"gridcast/internal/model"
)

// Calibrate scores quantile forecasts against actual aggregated feed-in.
// Actuals arrive at the coarsest granularity the upstream source provides,
// so the per-cell quantiles are summed per lead hour before comparison.
// Comparing summed quantiles against a system total is a known limitation
// of the coarse actuals, accepted deliberately.
//
// Lead hours without a matching actual are skipped. Returns nil when no
// lead hour matches.
func Calibrate(forecasts []model.InfeedForecast, actuals []model.ActualSample) *model.CalibrationReport {
	if len(forecasts) == 0 || len(actuals) == 0 {
		return nil
	}

	type band struct{ p10, p50, p90 float64 }
	byLead := map[int]*band{}
	for _, f := range forecasts {
		b, ok := byLead[f.LeadHour]
		if !ok {
			b = &band{}
			byLead[f.LeadHour] = b
		}
		b.p10 += f.P10MW
		b.p50 += f.P50MW
		b.p90 += f.P90MW
	}

	// One actual per lead hour; keep the last on duplicates, matching the
	// freshest-value convention of the loaders.
	actualByLead := map[int]float64{}
	for _, a := range actuals {
		actualByLead[a.LeadHour] = a.PowerMW
	}

	leads := make([]int, 0, len(byLead))
	for lead := range byLead {
		if _, ok := actualByLead[lead]; ok {
			leads = append(leads, lead)
		}
	}
	if len(leads) == 0 {
		return nil
	}
	sort.Ints(leads)

	var (
		covered   int
		sharpness float64
		absErr    float64
		sqErr     float64
	)
	for _, lead := range leads {
		b := byLead[lead]
		actual := actualByLead[lead]
		if actual >= b.p10 && actual <= b.p90 {
			covered++
		}
		sharpness += b.p90 - b.p10
		diff := b.p50 - actual
		absErr += math.Abs(diff)
		sqErr += diff * diff
	}

	n := float64(len(leads))
	return &model.CalibrationReport{
		Samples:     len(leads),
		Coverage:    float64(covered) / n,
		SharpnessMW: sharpness / n,
		MAEMW:       absErr / n,
		RMSEMW:      math.Sqrt(sqErr / n),
	}
}
