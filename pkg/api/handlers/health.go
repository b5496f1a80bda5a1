package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bikeiot/pkg/api/types"
	"github.com/urmzd/bikeiot/pkg/device"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	controller device.Controller
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller device.Controller) *HealthHandler {
	return &HealthHandler{controller: controller}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health status of the API and the device transport
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Transport is down"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	transportStatus := "disconnected"
	if h.controller.IsConnected() {
		transportStatus = "connected"
	}

	status := "healthy"
	httpStatus := http.StatusOK

	if transportStatus != "connected" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:    status,
		Transport: transportStatus,
		Timestamp: time.Now(),
	})
}
