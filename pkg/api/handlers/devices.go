package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bikeiot/pkg/api/types"
	"github.com/urmzd/bikeiot/pkg/device"
)

// DevicesHandler handles device registry and telemetry endpoints
type DevicesHandler struct {
	controller device.Controller
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(controller device.Controller) *DevicesHandler {
	return &DevicesHandler{controller: controller}
}

// ListDevices handles GET /devices
// @Summary      List all devices
// @Description  Returns every device registered in the active profile
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	devices, err := h.controller.ListDevices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: devices,
		Count:   len(devices),
	})
}

// RegisterDevice handles POST /devices
// @Summary      Register a device
// @Description  Adds a device to the registry. Devices without a params_schema get the default bike schema.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        request  body      types.RegisterDeviceRequest  true  "Device to register"
// @Success      201      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      409      {object}  types.ErrorResponse  "Device already registered"
// @Failure      500      {object}  types.ErrorResponse  "Controller error"
// @Router       /devices [post]
func (h *DevicesHandler) RegisterDevice(c *gin.Context) {
	var req types.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id is required")
		return
	}

	d, err := h.controller.RegisterDevice(c.Request.Context(), device.Device{
		ID:           req.ID,
		Name:         req.Name,
		Model:        req.Model,
		ParamsSchema: req.ParamsSchema,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.DeviceResponse{Device: *d})
}

// GetDevice handles GET /devices/:id
// @Summary      Get device details
// @Description  Returns a device with its last known parameters
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  types.DeviceResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	d, err := h.controller.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.DeviceResponse{Device: *d})
}

// RenameDevice handles PATCH /devices/:id
// @Summary      Rename a device
// @Description  Changes the friendly name of a device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Device id"
// @Param        request  body      types.RenameDeviceRequest  true  "New name"
// @Success      200      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      500      {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id} [patch]
func (h *DevicesHandler) RenameDevice(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req types.RenameDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	if err := h.controller.RenameDevice(ctx, id, req.Name); err != nil {
		writeError(c, err)
		return
	}

	d, err := h.controller.GetDevice(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.DeviceResponse{Device: *d})
}

// RemoveDevice handles DELETE /devices/:id
// @Summary      Remove a device
// @Description  Removes a device together with its command journal and telemetry
// @Tags         devices
// @Param        id   path  string  true  "Device id"
// @Success      204  "Device removed successfully"
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id} [delete]
func (h *DevicesHandler) RemoveDevice(c *gin.Context) {
	if err := h.controller.RemoveDevice(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// LatestTelemetry handles GET /devices/:id/telemetry
// @Summary      Latest telemetry
// @Description  Returns the newest telemetry snapshot reported by a device
// @Tags         telemetry
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  types.TelemetryResponse
// @Failure      404  {object}  types.ErrorResponse  "Device or telemetry not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id}/telemetry [get]
func (h *DevicesHandler) LatestTelemetry(c *gin.Context) {
	t, err := h.controller.LatestTelemetry(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.TelemetryResponse{Telemetry: *t})
}

// TelemetryHistory handles GET /devices/:id/telemetry/history
// @Summary      Telemetry history
// @Description  Returns stored telemetry snapshots, newest first
// @Tags         telemetry
// @Produce      json
// @Param        id     path      string  true   "Device id"
// @Param        limit  query     int     false  "Maximum number of snapshots (default 100)"
// @Success      200    {object}  types.TelemetryHistoryResponse
// @Failure      400    {object}  types.ErrorResponse  "Invalid limit"
// @Failure      404    {object}  types.ErrorResponse  "Device not found"
// @Failure      500    {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id}/telemetry/history [get]
func (h *DevicesHandler) TelemetryHistory(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	history, err := h.controller.TelemetryHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.TelemetryHistoryResponse{
		Telemetry: history,
		Count:     len(history),
	})
}

// queryLimit parses the optional limit query parameter. Zero means the
// store default.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 1000 {
		badRequest(c, "limit must be between 1 and 1000")
		return 0, false
	}
	return limit, true
}
