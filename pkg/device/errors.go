package device

import "errors"

var (
	// ErrNotFound indicates a device was not found
	ErrNotFound = errors.New("device not found")

	// ErrAlreadyExists indicates a device id is already registered
	ErrAlreadyExists = errors.New("device already exists")

	// ErrCommandNotFound indicates no command has the given chain id
	ErrCommandNotFound = errors.New("command not found")

	// ErrNoTelemetry indicates a device has not reported telemetry yet
	ErrNoTelemetry = errors.New("no telemetry")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates the transport is not connected
	ErrNotConnected = errors.New("transport not connected")

	// ErrUnsupported indicates a command the backend cannot send
	ErrUnsupported = errors.New("operation not supported")

	// ErrValidation indicates command parameters failed schema validation
	ErrValidation = errors.New("validation error")

	// ErrInvalidPacket indicates an outgoing packet failed protocol validation
	ErrInvalidPacket = errors.New("invalid packet")
)
