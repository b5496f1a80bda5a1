package device

import (
	"fmt"
	"sort"

	"github.com/urmzd/bikeiot/pkg/protocol"
)

// Lock parameters understood by bike firmware.
const (
	ParamVehicleLock   = "vehicle_lock"
	ParamBatteryLock   = "battery_lock_status"
	ParamValueLocked   = "locked"
	ParamValueUnlocked = "unlocked"
)

// LockCommand locks the vehicle.
func LockCommand() protocol.CommandPayload {
	return &protocol.SetParams{Params: map[string]string{ParamVehicleLock: ParamValueLocked}}
}

// UnlockCommand unlocks the vehicle.
func UnlockCommand() protocol.CommandPayload {
	return &protocol.SetParams{Params: map[string]string{ParamVehicleLock: ParamValueUnlocked}}
}

// BatteryUnlockCommand releases the battery compartment.
func BatteryUnlockCommand() protocol.CommandPayload {
	return &protocol.SetParams{Params: map[string]string{ParamBatteryLock: ParamValueUnlocked}}
}

// ParamCommand sets param to value, or reads it back when value is empty.
func ParamCommand(param, value string) protocol.CommandPayload {
	if value == "" {
		return &protocol.GetParams{Params: []string{param}}
	}
	return &protocol.SetParams{Params: map[string]string{param: value}}
}

// CommandSpec is a transport-neutral description of a command.
type CommandSpec struct {
	Kind   string            `json:"kind" binding:"required"`
	State  string            `json:"state,omitempty"`
	Params map[string]string `json:"params,omitempty"`
	// Names lists the parameters a getParams command reads.
	Names []string `json:"names,omitempty"`
}

// Payload builds the command payload spec describes. A getParams spec
// without names reads the keys of Params.
func (s CommandSpec) Payload() (protocol.CommandPayload, error) {
	switch s.Kind {
	case protocol.CommandConfigure.String():
		return &protocol.Configure{}, nil
	case protocol.CommandSetState.String():
		return &protocol.SetState{State: s.State}, nil
	case protocol.CommandSetParams.String():
		return &protocol.SetParams{Params: s.Params}, nil
	case protocol.CommandGetParams.String():
		names := s.Names
		if len(names) == 0 {
			for k := range s.Params {
				names = append(names, k)
			}
			sort.Strings(names)
		}
		return &protocol.GetParams{Params: names}, nil
	case protocol.CommandPing.String():
		return &protocol.Ping{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown command kind %q", ErrValidation, s.Kind)
	}
}
