package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gridcast/internal/api/models"
	"gridcast/internal/data"
	"gridcast/internal/pipeline"
)

// SiteHandler handles storage siting requests
type SiteHandler struct {
	pipe  *pipeline.Pipeline
	store *data.RunStore
}

// NewSiteHandler creates a new siting handler
func NewSiteHandler(pipe *pipeline.Pipeline, store *data.RunStore) *SiteHandler {
	return &SiteHandler{pipe: pipe, store: store}
}

// RunSite handles POST /api/v1/site
func (h *SiteHandler) RunSite(c *gin.Context) {
	var req models.SiteRequest
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

	run, err := h.pipe.Site(c.Request.Context(), weather, req.Assets, req.Topology)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "SITING_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	id := h.store.Put(&data.RunRecord{
		Kind:       data.RunSiting,
		Candidates: run.Candidates,
		Unmapped:   run.Unmapped,
	})

	c.JSON(http.StatusOK, models.SiteResponse{
		ID:             id,
		Status:         "completed",
		Candidates:     run.Candidates,
		Unmapped:       run.Unmapped,
		ScenarioErrors: errorStrings(run.ScenarioErrors),
	})
}
