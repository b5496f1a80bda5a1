package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bikeiot/pkg/api/types"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/protocol"
)

// ControlHandler handles command endpoints
type ControlHandler struct {
	controller device.Controller
}

// NewControlHandler creates a new control handler
func NewControlHandler(controller device.Controller) *ControlHandler {
	return &ControlHandler{controller: controller}
}

// SendCommand handles POST /devices/:id/commands
// @Summary      Send a command
// @Description  Builds a command packet, validates it against the protocol rules and the device parameter schema, and publishes it
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Device id"
// @Param        request  body      types.SendCommandRequest  true  "Command"
// @Success      202      {object}  types.CommandResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid command"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      503      {object}  types.ErrorResponse  "Transport disconnected"
// @Failure      504      {object}  types.ErrorResponse  "Publish timed out"
// @Router       /devices/{id}/commands [post]
func (h *ControlHandler) SendCommand(c *gin.Context) {
	var req types.SendCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "kind is required")
		return
	}
	if req.TTLSeconds < 0 {
		badRequest(c, "ttl_seconds cannot be negative")
		return
	}

	payload, err := req.Payload()
	if err != nil {
		writeError(c, err)
		return
	}
	h.send(c, payload, time.Duration(req.TTLSeconds)*time.Second)
}

// Lock handles POST /devices/:id/lock
// @Summary      Lock a vehicle
// @Tags         commands
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      202  {object}  types.CommandResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      503  {object}  types.ErrorResponse  "Transport disconnected"
// @Router       /devices/{id}/lock [post]
func (h *ControlHandler) Lock(c *gin.Context) {
	h.send(c, device.LockCommand(), 0)
}

// Unlock handles POST /devices/:id/unlock
// @Summary      Unlock a vehicle
// @Tags         commands
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      202  {object}  types.CommandResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      503  {object}  types.ErrorResponse  "Transport disconnected"
// @Router       /devices/{id}/unlock [post]
func (h *ControlHandler) Unlock(c *gin.Context) {
	h.send(c, device.UnlockCommand(), 0)
}

// BatteryUnlock handles POST /devices/:id/battery_unlock
// @Summary      Release the battery
// @Tags         commands
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      202  {object}  types.CommandResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      503  {object}  types.ErrorResponse  "Transport disconnected"
// @Router       /devices/{id}/battery_unlock [post]
func (h *ControlHandler) BatteryUnlock(c *gin.Context) {
	h.send(c, device.BatteryUnlockCommand(), 0)
}

func (h *ControlHandler) send(c *gin.Context, payload protocol.CommandPayload, ttl time.Duration) {
	rec, err := h.controller.SendCommand(c.Request.Context(), c.Param("id"), payload, ttl)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, types.CommandResponse{Command: *rec})
}

// ListCommands handles GET /devices/:id/commands
// @Summary      List commands
// @Description  Returns the newest command journal entries of a device
// @Tags         commands
// @Produce      json
// @Param        id     path      string  true   "Device id"
// @Param        limit  query     int     false  "Maximum number of entries (default 50)"
// @Success      200    {object}  types.ListCommandsResponse
// @Failure      400    {object}  types.ErrorResponse  "Invalid limit"
// @Failure      404    {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id}/commands [get]
func (h *ControlHandler) ListCommands(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	commands, err := h.controller.ListCommands(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ListCommandsResponse{
		Commands: commands,
		Count:    len(commands),
	})
}

// GetCommand handles GET /commands/:chain_id
// @Summary      Get a command
// @Description  Returns a command journal entry with its result once the device reported it
// @Tags         commands
// @Produce      json
// @Param        chain_id  path      string  true  "Command chain id"
// @Success      200       {object}  types.CommandResponse
// @Failure      404       {object}  types.ErrorResponse  "Command not found"
// @Router       /commands/{chain_id} [get]
func (h *ControlHandler) GetCommand(c *gin.Context) {
	rec, err := h.controller.GetCommand(c.Request.Context(), c.Param("chain_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.CommandResponse{Command: *rec})
}
