package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gridcast/internal/api/models"
	"gridcast/internal/data"
)

// RunHandler serves stored run results by id
type RunHandler struct {
	store *data.RunStore
}

// NewRunHandler creates a new run handler
func NewRunHandler(store *data.RunStore) *RunHandler {
	return &RunHandler{store: store}
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	rec, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "RUN_NOT_FOUND",
				Message: "No run with this id (results expire after an hour)",
			},
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}
