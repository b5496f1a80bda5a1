package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bikeiot/pkg/api/types"
	"github.com/urmzd/bikeiot/pkg/device"
)

// writeError renders a controller error with the matching status code.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, device.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Device not found",
		})
	case errors.Is(err, device.ErrCommandNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Command not found",
		})
	case errors.Is(err, device.ErrNoTelemetry):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "no_telemetry",
			Message: "Device has not reported telemetry yet",
		})
	case errors.Is(err, device.ErrAlreadyExists):
		c.JSON(http.StatusConflict, types.ErrorResponse{
			Error:   "already_exists",
			Message: "Device already registered",
		})
	case errors.Is(err, device.ErrValidation), errors.Is(err, device.ErrInvalidPacket):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, device.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "transport_disconnected",
			Message: err.Error(),
		})
	case errors.Is(err, device.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, types.ErrorResponse{
			Error:   "timeout",
			Message: "Request timed out waiting for the transport",
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "controller_error",
			Message: err.Error(),
		})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}
