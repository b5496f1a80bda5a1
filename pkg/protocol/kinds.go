package protocol

import "fmt"

// PayloadKind identifies the active payload of a Packet.
type PayloadKind int

const (
	KindNone PayloadKind = iota
	KindCommand
	KindCommandResult
	KindRequest
	KindResponse
	KindTelemetry
	KindNotification
)

var payloadKindNames = map[PayloadKind]string{
	KindNone:          "none",
	KindCommand:       "command",
	KindCommandResult: "commandResult",
	KindRequest:       "request",
	KindResponse:      "response",
	KindTelemetry:     "telemetry",
	KindNotification:  "notification",
}

// String returns the key used for the kind in the text wire form.
func (k PayloadKind) String() string {
	if s, ok := payloadKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("PayloadKind(%d)", int(k))
}

// CommandKind identifies the active payload of a Command.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandConfigure
	CommandSetState
	CommandSetParams
	CommandGetParams
	CommandPing
)

var commandKindNames = map[CommandKind]string{
	CommandNone:      "none",
	CommandConfigure: "configure",
	CommandSetState:  "setState",
	CommandSetParams: "setParams",
	CommandGetParams: "getParams",
	CommandPing:      "ping",
}

func (k CommandKind) String() string {
	if s, ok := commandKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// ResultCode is the overall outcome of a command or request.
type ResultCode int32

const (
	ResultUnspecified ResultCode = 0
	ResultSuccess     ResultCode = 1
	ResultFailed      ResultCode = 2
)

var resultCodeNames = map[ResultCode]string{
	ResultUnspecified: "RESULT_UNSPECIFIED",
	ResultSuccess:     "RESULT_SUCCESS",
	ResultFailed:      "RESULT_FAILED",
}

func (c ResultCode) String() string {
	if s, ok := resultCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ResultCode(%d)", int32(c))
}

// ErrorCode classifies a failure reported by a device.
type ErrorCode int32

const (
	StatusOK              ErrorCode = 0
	StatusOther           ErrorCode = 1
	StatusTimeout         ErrorCode = 2
	StatusBusy            ErrorCode = 3
	StatusNotSupported    ErrorCode = 4
	StatusInvalidArgument ErrorCode = 5
)

var errorCodeNames = map[ErrorCode]string{
	StatusOK:              "STATUS_OK",
	StatusOther:           "STATUS_OTHER",
	StatusTimeout:         "STATUS_TIMEOUT",
	StatusBusy:            "STATUS_BUSY",
	StatusNotSupported:    "STATUS_NOT_SUPPORTED",
	StatusInvalidArgument: "STATUS_INVALID_ARGUMENT",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int32(c))
}

// ParseErrorCode maps a wire name such as "STATUS_BUSY" to its code.
func ParseErrorCode(name string) (ErrorCode, bool) {
	for c, s := range errorCodeNames {
		if s == name {
			return c, true
		}
	}
	return 0, false
}
