package models

import (
	"gridcast/internal/data"
	"gridcast/internal/model"
)

// ForecastRequest is the request body for running a quantile forecast.
// Weather and assets are carried inline; the upstream harmonization step
// produces exactly these shapes.
type ForecastRequest struct {
	Weather data.WeatherFile `json:"weather" binding:"required"`
	Assets  []model.Asset    `json:"assets" binding:"required"`

	// Actuals enables calibration scoring when present.
	Actuals []model.ActualSample `json:"actuals,omitempty"`

	Options RunOptions `json:"options,omitempty"`
}

// FlowRequest is the request body for a power-flow run.
type FlowRequest struct {
	Weather  data.WeatherFile `json:"weather" binding:"required"`
	Assets   []model.Asset    `json:"assets" binding:"required"`
	Topology *model.Topology  `json:"topology" binding:"required"`

	Options RunOptions `json:"options,omitempty"`
}

// SiteRequest is the request body for a storage siting run.
type SiteRequest struct {
	Weather  data.WeatherFile `json:"weather" binding:"required"`
	Assets   []model.Asset    `json:"assets" binding:"required"`
	Topology *model.Topology  `json:"topology" binding:"required"`

	Options RunOptions `json:"options,omitempty"`
}

// RunOptions contains optional run parameters.
type RunOptions struct {
	// IncludeForecasts echoes the intermediate quantile forecasts in a
	// flow response (default: false).
	IncludeForecasts bool `json:"include_forecasts,omitempty"`
}
