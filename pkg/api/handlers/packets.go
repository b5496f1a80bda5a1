package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bikeiot/pkg/api/types"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
	"github.com/urmzd/bikeiot/pkg/protocol/validator"
)

const maxPacketBytes = 1 << 20

// PacketsHandler exposes the validator and converter as stateless
// endpoints
type PacketsHandler struct {
	validator *validator.Validator
}

// NewPacketsHandler creates a new packets handler
func NewPacketsHandler(v *validator.Validator) *PacketsHandler {
	if v == nil {
		v = validator.Default
	}
	return &PacketsHandler{validator: v}
}

// Validate handles POST /packets/validate
// @Summary      Validate a packet
// @Description  Decodes a serialized packet and reports the first protocol rule it fails
// @Tags         packets
// @Accept       plain
// @Produce      json
// @Param        transport  query     string  false  "Wire form of the body: text or binary (detected when omitted)"
// @Param        request    body      string  true   "Serialized packet"
// @Success      200        {object}  types.ValidateResponse
// @Failure      400        {object}  types.ErrorResponse  "Invalid request"
// @Failure      422        {object}  types.ErrorResponse  "Packet could not be decoded"
// @Router       /packets/validate [post]
func (h *PacketsHandler) Validate(c *gin.Context) {
	body, ok := readPacket(c)
	if !ok {
		return
	}
	mode, ok := queryMode(c, "transport", body)
	if !ok {
		return
	}

	pkt, err := codec.NewConverter(mode).Deserialize(body)
	if err != nil {
		conversionFailed(c, err)
		return
	}

	verdict := h.validator.Check(pkt)
	c.JSON(http.StatusOK, types.ValidateResponse{
		Valid: verdict.Valid,
		Rule:  string(verdict.Rule),
		Kind:  verdict.Kind.String(),
	})
}

// Convert handles POST /packets/convert
// @Summary      Convert a packet
// @Description  Transcodes a serialized packet between the text and binary wire forms
// @Tags         packets
// @Accept       plain
// @Produce      plain
// @Param        from     query     string  false  "Wire form of the body (detected when omitted)"
// @Param        to       query     string  true   "Target wire form"
// @Param        request  body      string  true   "Serialized packet"
// @Success      200      {string}  string  "Converted packet"
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      422      {object}  types.ErrorResponse  "Packet could not be converted"
// @Router       /packets/convert [post]
func (h *PacketsHandler) Convert(c *gin.Context) {
	body, ok := readPacket(c)
	if !ok {
		return
	}
	from, ok := queryMode(c, "from", body)
	if !ok {
		return
	}
	if c.Query("to") == "" {
		badRequest(c, "to is required")
		return
	}
	to, ok := queryMode(c, "to", body)
	if !ok {
		return
	}

	out, err := codec.Transcode(body, from, to)
	if err != nil {
		conversionFailed(c, err)
		return
	}

	contentType := "text/plain; charset=utf-8"
	if to == codec.ModeText {
		contentType = "application/json"
	}
	c.Data(http.StatusOK, contentType, out)
}

func readPacket(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPacketBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
				Error:   "too_large",
				Message: "Packet exceeds 1 MiB",
			})
			return nil, false
		}
		badRequest(c, "Failed to read request body")
		return nil, false
	}
	return body, true
}

// queryMode reads a wire form from the query, detecting it from body when
// the parameter is absent.
func queryMode(c *gin.Context, param string, body []byte) (codec.Mode, bool) {
	raw := c.Query(param)
	if raw == "" {
		return codec.DetectMode(body), true
	}
	mode, err := codec.ParseMode(raw)
	if err != nil {
		badRequest(c, param+" must be text or binary")
		return 0, false
	}
	return mode, true
}

func conversionFailed(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, types.ErrorResponse{
		Error:   "conversion_failed",
		Message: err.Error(),
	})
}
