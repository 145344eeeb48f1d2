package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gridcast/internal/api/models"
	"gridcast/internal/data"
	"gridcast/internal/model"
	"gridcast/internal/pipeline"
)

// ForecastHandler handles forecast-related requests
type ForecastHandler struct {
	pipe  *pipeline.Pipeline
	store *data.RunStore
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(pipe *pipeline.Pipeline, store *data.RunStore) *ForecastHandler {
	return &ForecastHandler{pipe: pipe, store: store}
}

// RunForecast handles POST /api/v1/forecast
func (h *ForecastHandler) RunForecast(c *gin.Context) {
	var req models.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	weather, err := req.Weather.BuildWeatherSet()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_WEATHER",
				Message: err.Error(),
			},
		})
		return
	}

	run, err := h.pipe.Forecast(c.Request.Context(), weather, req.Assets, req.Actuals)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "FORECAST_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	id := h.store.Put(&data.RunRecord{
		Kind:        data.RunForecast,
		Forecasts:   run.Forecasts,
		Calibration: run.Calibration,
	})

	c.JSON(http.StatusOK, models.ForecastResponse{
		ID:     id,
		Status: "completed",
		Summary: models.ForecastSummary{
			Stats:       run.Stats,
			Forecasts:   len(run.Forecasts),
			OutOfDomain: assetIDs(run.OutOfDomain),
		},
		Forecasts:   run.Forecasts,
		Calibration: run.Calibration,
	})
}

func assetIDs(assets []model.Asset) []string {
	if len(assets) == 0 {
		return nil
	}
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.ID)
	}
	return out
}
