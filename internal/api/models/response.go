package models

import (
	"gridcast/internal/model"
	"gridcast/internal/power"
)

// ForecastResponse is the response from a forecast run.
type ForecastResponse struct {
	ID          string                   `json:"id"`
	Status      string                   `json:"status"`
	Summary     ForecastSummary          `json:"summary"`
	Forecasts   []model.InfeedForecast   `json:"forecasts"`
	Calibration *model.CalibrationReport `json:"calibration,omitempty"`
}

// ForecastSummary aggregates one forecast run.
type ForecastSummary struct {
	Stats       power.RunStats `json:"stats"`
	Forecasts   int            `json:"forecasts"`
	OutOfDomain []string       `json:"out_of_domain,omitempty"` // skipped asset ids
}

// FlowResponse is the response from a power-flow run.
type FlowResponse struct {
	ID        string                 `json:"id"`
	Status    string                 `json:"status"`
	Flows     []model.FlowResult     `json:"flows"`
	Unmapped  []model.CellID         `json:"unmapped,omitempty"`
	Forecasts []model.InfeedForecast `json:"forecasts,omitempty"`

	// ScenarioErrors maps failed scenario names to their error text.
	ScenarioErrors map[string]string `json:"scenario_errors,omitempty"`
}

// SiteResponse is the response from a siting run.
type SiteResponse struct {
	ID         string                   `json:"id"`
	Status     string                   `json:"status"`
	Candidates []model.StorageCandidate `json:"candidates"`
	Unmapped   []model.CellID           `json:"unmapped,omitempty"`

	ScenarioErrors map[string]string `json:"scenario_errors,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
