// Package protocol defines the canonical in-memory model of the packets
// exchanged between vehicles and the backend.
//
// A Packet carries exactly one payload kind. Kinds and command kinds are
// modelled as sealed interfaces; a nil Payload means no kind is set.
//
// Canonical form: a typed nil pointer stored in a payload interface is the
// same as no payload, and an empty map or list is the same as nil. The wire
// forms cannot tell them apart, so decoding always yields the nil form.
package protocol

// Packet is the top-level message envelope.
type Packet struct {
	// Version packs a major number in the upper 16 bits and a minor
	// number in the lower 16 bits.
	Version uint32
	// Timestamp is the creation time in Unix seconds.
	Timestamp uint64
	// ValidUntil is the optional expiry in Unix seconds.
	ValidUntil *uint64
	Payload    Payload
	// Unknown holds raw binary wire fields of the envelope that this
	// build does not recognise. The binary encoder writes them back.
	Unknown []byte
}

// Kind returns the kind of the active payload, or KindNone.
func (p *Packet) Kind() PayloadKind {
	if p == nil || p.Payload == nil {
		return KindNone
	}
	return p.Payload.PayloadKind()
}

// Payload is one of *Command, *CommandResult, *Request, *Response,
// *Telemetry or *Notification.
type Payload interface {
	PayloadKind() PayloadKind
	isPayload()
}

// Command asks a device to do something.
type Command struct {
	ChainID string
	Payload CommandPayload
}

// CommandPayload is one of *Configure, *SetState, *SetParams, *GetParams
// or *Ping.
type CommandPayload interface {
	CommandKind() CommandKind
	isCommandPayload()
}

// ResultPayload is the kind-specific body of a CommandResult: one of
// *Configure, *SetState, *SetParams, *ParamValues or *Ping.
type ResultPayload interface {
	CommandKind() CommandKind
	isResultPayload()
}

type Configure struct{}

type SetState struct {
	State string
}

type SetParams struct {
	Params map[string]string
}

// GetParams lists parameter names in request order.
type GetParams struct {
	Params []string
}

type Ping struct{}

// ParamValues answers a GetParams command.
type ParamValues struct {
	Params map[string]string
}

// CommandResult reports the outcome of a Command with the same chain id.
type CommandResult struct {
	ChainID          string
	Result           ResultCode
	ErrorDescription *ErrorDescription
	Payload          ResultPayload
	PrevChainID      *string
	// DeliveryTimeS is the time the command spent in transit, in seconds.
	DeliveryTimeS   int32
	ExecutionTimeMs int32
}

// ErrorDescription tracks presence of each field separately.
type ErrorDescription struct {
	Status  *ErrorCode
	Message *string
}

type Request struct {
	ChainID string
}

type Response struct {
	ChainID          string
	Result           ResultCode
	ErrorDescription *ErrorDescription
}

type Telemetry struct {
	Payload *TelemetryPayload
}

// TelemetryPayload holds device measurements. Every field is optional.
type TelemetryPayload struct {
	BatteryLevel   *uint32
	SpeedKmh       *float32
	Location       *Location
	Voltage        *uint32
	GsmSignalLevel *uint32
	Charging       *bool
	Locked         *bool
	Sensors        map[string]string
}

// HasMeasurement reports whether at least one measurement is present.
// An empty sensors map counts as absent.
func (t *TelemetryPayload) HasMeasurement() bool {
	if t == nil {
		return false
	}
	return t.BatteryLevel != nil ||
		t.SpeedKmh != nil ||
		t.Location != nil ||
		t.Voltage != nil ||
		t.GsmSignalLevel != nil ||
		t.Charging != nil ||
		t.Locked != nil ||
		len(t.Sensors) > 0
}

type Location struct {
	Lat float64
	Lon float64
}

// Notification is reserved for device-originated notices.
type Notification struct {
	Message string
}

func (*Command) PayloadKind() PayloadKind       { return KindCommand }
func (*CommandResult) PayloadKind() PayloadKind { return KindCommandResult }
func (*Request) PayloadKind() PayloadKind       { return KindRequest }
func (*Response) PayloadKind() PayloadKind      { return KindResponse }
func (*Telemetry) PayloadKind() PayloadKind     { return KindTelemetry }
func (*Notification) PayloadKind() PayloadKind  { return KindNotification }

func (*Command) isPayload()       {}
func (*CommandResult) isPayload() {}
func (*Request) isPayload()       {}
func (*Response) isPayload()      {}
func (*Telemetry) isPayload()     {}
func (*Notification) isPayload()  {}

func (*Configure) CommandKind() CommandKind   { return CommandConfigure }
func (*SetState) CommandKind() CommandKind    { return CommandSetState }
func (*SetParams) CommandKind() CommandKind   { return CommandSetParams }
func (*GetParams) CommandKind() CommandKind   { return CommandGetParams }
func (*Ping) CommandKind() CommandKind        { return CommandPing }
func (*ParamValues) CommandKind() CommandKind { return CommandGetParams }

func (*Configure) isCommandPayload() {}
func (*SetState) isCommandPayload()  {}
func (*SetParams) isCommandPayload() {}
func (*GetParams) isCommandPayload() {}
func (*Ping) isCommandPayload()      {}

func (*Configure) isResultPayload()   {}
func (*SetState) isResultPayload()    {}
func (*SetParams) isResultPayload()   {}
func (*ParamValues) isResultPayload() {}
func (*Ping) isResultPayload()        {}

// Uint64 returns a pointer to v.
func Uint64(v uint64) *uint64 { return &v }

// Uint32 returns a pointer to v.
func Uint32(v uint32) *uint32 { return &v }

// Float32 returns a pointer to v.
func Float32(v float32) *float32 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Status returns a pointer to c.
func Status(c ErrorCode) *ErrorCode { return &c }
