package data

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"gridcast/internal/model"
)

// WriteForecastCSV writes quantile forecasts, one row per (cell, lead hour).
func WriteForecastCSV(path string, forecasts []model.InfeedForecast) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"cell",
		"run_time",
		"lead_hour",
		"p10_mw",
		"p50_mw",
		"p90_mw",
		"members",
		"quality",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range forecasts {
		row := []string{
			string(r.Cell),
			fmtTime(r.RunTime),
			strconv.Itoa(r.LeadHour),
			fmtFloat(r.P10MW),
			fmtFloat(r.P50MW),
			fmtFloat(r.P90MW),
			strconv.Itoa(r.Members),
			string(r.Quality),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteFlowCSV writes solved line flows, one row per (line, scenario).
func WriteFlowCSV(path string, flows []model.FlowResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"line", "scenario", "flow_mw", "congested", "severity_mw", "quality"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range flows {
		row := []string{
			r.Line,
			r.Scenario,
			fmtFloat(r.FlowMW),
			strconv.FormatBool(r.Congested),
			fmtFloat(r.SeverityMW),
			string(r.Quality),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteCandidateCSV writes the ranked siting list.
func WriteCandidateCSV(path string, candidates []model.StorageCandidate) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"rank",
		"node",
		"score",
		"congestion_frequency",
		"mean_severity_mw",
		"nearby_capacity_mw",
		"rating_mw",
		"verified_delta_mw",
		"residual_severity_mw",
		"quality",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range candidates {
		row := []string{
			strconv.Itoa(r.Rank),
			string(r.Node),
			fmtFloat(r.Score),
			fmtFloat(r.CongestionFrequency),
			fmtFloat(r.MeanSeverityMW),
			fmtFloat(r.NearbyCapacityMW),
			fmtFloat(r.RatingMW),
			fmtFloat(r.VerifiedDeltaMW),
			fmtFloat(r.ResidualSeverityMW),
			string(r.Quality),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
