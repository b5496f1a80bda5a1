package protocol

import "github.com/urmzd/bikeiot/pkg/protocol/variant"

// PayloadHandlers holds one handler per payload kind. A nil handler
// yields the zero value of R.
type PayloadHandlers[R any] struct {
	Command       func(*Command) R
	CommandResult func(*CommandResult) R
	Request       func(*Request) R
	Response      func(*Response) R
	Telemetry     func(*Telemetry) R
	Notification  func(*Notification) R
}

// PayloadSet builds a dispatch group over the payload kinds of a packet.
func PayloadSet[R any](group string, h PayloadHandlers[R]) variant.Set[*Packet, R] {
	return variant.NewSet(group,
		payloadCase(KindCommand.String(), h.Command),
		payloadCase(KindCommandResult.String(), h.CommandResult),
		payloadCase(KindRequest.String(), h.Request),
		payloadCase(KindResponse.String(), h.Response),
		payloadCase(KindTelemetry.String(), h.Telemetry),
		payloadCase(KindNotification.String(), h.Notification),
	)
}

// CommandSet builds a dispatch group over the command kinds of a command.
// Every kind is handed to handle.
func CommandSet[R any](group string, handle func(CommandPayload) R) variant.Set[*Command, R] {
	return variant.NewSet(group,
		commandCase[*Configure](CommandConfigure.String(), handle),
		commandCase[*SetState](CommandSetState.String(), handle),
		commandCase[*SetParams](CommandSetParams.String(), handle),
		commandCase[*GetParams](CommandGetParams.String(), handle),
		commandCase[*Ping](CommandPing.String(), handle),
	)
}

func payloadCase[T interface {
	Payload
	comparable
}, R any](name string, handle func(T) R) variant.Case[*Packet, R] {
	return variant.On(name,
		func(p *Packet) (T, bool) {
			var zero T
			if p == nil {
				return zero, false
			}
			v, ok := p.Payload.(T)
			return v, ok && v != zero
		},
		func(v T) R {
			if handle == nil {
				var zero R
				return zero
			}
			return handle(v)
		},
	)
}

func commandCase[T interface {
	CommandPayload
	comparable
}, R any](name string, handle func(CommandPayload) R) variant.Case[*Command, R] {
	return variant.On(name,
		func(c *Command) (T, bool) {
			var zero T
			if c == nil {
				return zero, false
			}
			v, ok := c.Payload.(T)
			return v, ok && v != zero
		},
		func(v T) R { return handle(v) },
	)
}
