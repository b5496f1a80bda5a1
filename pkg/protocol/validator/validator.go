// Package validator decides whether a decoded packet is a legal instance
// of the protocol.
package validator

import (
	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/variant"
)

// MinimalTimestamp is 2023-01-01 12:00:00 UTC. Packets stamped earlier
// are rejected.
const MinimalTimestamp uint64 = 1672574400

// Rule names the check a packet failed.
type Rule string

const (
	RuleNone             Rule = ""
	RuleNilPacket        Rule = "nil_packet"
	RuleVersion          Rule = "version"
	RuleTimestamp        Rule = "timestamp"
	RuleExpiry           Rule = "valid_until"
	RuleLifetime         Rule = "lifetime"
	RulePayload          Rule = "payload"
	RuleChainID          Rule = "chain_id"
	RuleCommandPayload   Rule = "command_payload"
	RuleCommandRule      Rule = "command_rule"
	RuleResult           Rule = "result"
	RuleErrorDescription Rule = "error_description"
	RuleTelemetry        Rule = "telemetry"
	RuleInternal         Rule = "internal"
)

// Verdict is the outcome of a check.
type Verdict struct {
	Valid bool
	// Rule is the first failed rule, RuleNone when valid.
	Rule Rule
	Kind protocol.PayloadKind
}

// CommandRule is an extra predicate for one command kind.
type CommandRule func(protocol.CommandPayload) bool

// Option configures a Validator.
type Option func(*Validator)

// WithCommandRule registers rule for kind, replacing the default which
// accepts every payload of that kind.
func WithCommandRule(kind protocol.CommandKind, rule CommandRule) Option {
	return func(v *Validator) {
		v.commandRules[kind] = rule
	}
}

type lifetime int

const (
	lifetimeOptional lifetime = iota
	lifetimeMandatory
	lifetimeUnknown
)

// Validator checks packets. It holds no mutable state after New returns
// and is safe for concurrent use.
type Validator struct {
	commandRules map[protocol.CommandKind]CommandRule

	lifetimes variant.Set[*protocol.Packet, lifetime]
	kinds     variant.Set[*protocol.Packet, Rule]
	commands  variant.Set[*protocol.Command, Rule]
	mandatory variant.Set[*protocol.Command, bool]
}

// Default is the validator used by IsValid and Check.
var Default = New()

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		commandRules: make(map[protocol.CommandKind]CommandRule),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.mandatory = protocol.CommandSet("command_lifetime", func(protocol.CommandPayload) bool { return true })
	v.commands = protocol.CommandSet("command_payload", v.checkCommandKind)
	v.lifetimes = protocol.PayloadSet("lifetime", protocol.PayloadHandlers[lifetime]{
		Command: func(c *protocol.Command) lifetime {
			mandatory, err := v.mandatory.Dispatch(c)
			if err != nil {
				return lifetimeUnknown
			}
			if mandatory {
				return lifetimeMandatory
			}
			return lifetimeOptional
		},
		CommandResult: func(*protocol.CommandResult) lifetime { return lifetimeOptional },
		Request:       func(*protocol.Request) lifetime { return lifetimeOptional },
		Response:      func(*protocol.Response) lifetime { return lifetimeOptional },
		Telemetry:     func(*protocol.Telemetry) lifetime { return lifetimeOptional },
		Notification:  func(*protocol.Notification) lifetime { return lifetimeOptional },
	})
	v.kinds = protocol.PayloadSet("payload", protocol.PayloadHandlers[Rule]{
		Command:       v.checkCommand,
		CommandResult: checkCommandResult,
		Request:       checkRequest,
		Response:      checkResponse,
		Telemetry:     checkTelemetry,
		Notification:  func(*protocol.Notification) Rule { return RuleNone },
	})

	return v
}

// IsValid reports whether p is legal according to the Default validator.
func IsValid(p *protocol.Packet) bool {
	return Default.IsValid(p)
}

// Check reports the first rule p fails according to the Default validator.
func Check(p *protocol.Packet) Verdict {
	return Default.Check(p)
}

// IsValid reports whether p is legal.
func (v *Validator) IsValid(p *protocol.Packet) bool {
	return v.Check(p).Valid
}

// Check runs every rule in order and stops at the first failure.
func (v *Validator) Check(p *protocol.Packet) (verdict Verdict) {
	if p == nil {
		return Verdict{Rule: RuleNilPacket}
	}

	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{Rule: RuleInternal, Kind: p.Kind()}
		}
	}()

	rule := v.check(p)
	return Verdict{Valid: rule == RuleNone, Rule: rule, Kind: p.Kind()}
}

func (v *Validator) check(p *protocol.Packet) Rule {
	if !versionValid(p.Version) {
		return RuleVersion
	}
	if p.Timestamp < MinimalTimestamp {
		return RuleTimestamp
	}
	if p.ValidUntil != nil && *p.ValidUntil < p.Timestamp {
		return RuleExpiry
	}

	lt, err := v.lifetimes.Dispatch(p)
	if err != nil {
		return RulePayload
	}
	switch lt {
	case lifetimeUnknown:
		return RuleCommandPayload
	case lifetimeMandatory:
		if p.ValidUntil == nil {
			return RuleLifetime
		}
	}

	rule, err := v.kinds.Dispatch(p)
	if err != nil {
		return RulePayload
	}
	return rule
}

// versionValid rejects 0.0 and the reserved 0xFFFF major and minor numbers.
func versionValid(raw uint32) bool {
	ver := protocol.Version(raw)
	if ver.Major() == 0 && ver.Minor() == 0 {
		return false
	}
	return ver.Major() != 0xFFFF && ver.Minor() != 0xFFFF
}

func (v *Validator) checkCommand(c *protocol.Command) Rule {
	if c.ChainID == "" {
		return RuleChainID
	}
	rule, err := v.commands.Dispatch(c)
	if err != nil {
		return RuleCommandPayload
	}
	return rule
}

func (v *Validator) checkCommandKind(cp protocol.CommandPayload) Rule {
	rule, ok := v.commandRules[cp.CommandKind()]
	if !ok || rule(cp) {
		return RuleNone
	}
	return RuleCommandRule
}

func checkCommandResult(r *protocol.CommandResult) Rule {
	if r.ChainID == "" {
		return RuleChainID
	}
	if r.Result == protocol.ResultUnspecified {
		return RuleResult
	}
	if r.Result == protocol.ResultFailed {
		ed := r.ErrorDescription
		if ed == nil || ed.Status == nil || ed.Message == nil {
			return RuleErrorDescription
		}
	}
	return RuleNone
}

func checkRequest(r *protocol.Request) Rule {
	if r.ChainID == "" {
		return RuleChainID
	}
	return RuleNone
}

func checkResponse(r *protocol.Response) Rule {
	if r.ChainID == "" {
		return RuleChainID
	}
	if r.Result == protocol.ResultUnspecified {
		return RuleResult
	}
	if r.Result == protocol.ResultFailed && r.ErrorDescription == nil {
		return RuleErrorDescription
	}
	return RuleNone
}

func checkTelemetry(t *protocol.Telemetry) Rule {
	if !t.Payload.HasMeasurement() {
		return RuleTelemetry
	}
	return RuleNone
}
