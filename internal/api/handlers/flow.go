package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gridcast/internal/api/models"
	"gridcast/internal/data"
	"gridcast/internal/pipeline"
)

// FlowHandler handles power-flow requests
type FlowHandler struct {
	pipe  *pipeline.Pipeline
	store *data.RunStore
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(pipe *pipeline.Pipeline, store *data.RunStore) *FlowHandler {
	return &FlowHandler{pipe: pipe, store: store}
}

// RunFlow handles POST /api/v1/flow
func (h *FlowHandler) RunFlow(c *gin.Context) {
	var req models.FlowRequest
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

	run, err := h.pipe.Flow(c.Request.Context(), weather, req.Assets, req.Topology)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "FLOW_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	id := h.store.Put(&data.RunRecord{
		Kind:     data.RunFlow,
		Flows:    run.Flows,
		Unmapped: run.Unmapped,
	})

	resp := models.FlowResponse{
		ID:             id,
		Status:         "completed",
		Flows:          run.Flows,
		Unmapped:       run.Unmapped,
		ScenarioErrors: errorStrings(run.ScenarioErrors),
	}
	if req.Options.IncludeForecasts {
		resp.Forecasts = run.Forecasts
	}
	c.JSON(http.StatusOK, resp)
}

func errorStrings(errs map[string]error) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for name, err := range errs {
		out[name] = err.Error()
	}
	return out
}
