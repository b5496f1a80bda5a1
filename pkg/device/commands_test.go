package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bikeiot/pkg/protocol"
)

func TestLockCommands(t *testing.T) {
	assert.Equal(t, &protocol.SetParams{Params: map[string]string{"vehicle_lock": "locked"}}, LockCommand())
	assert.Equal(t, &protocol.SetParams{Params: map[string]string{"vehicle_lock": "unlocked"}}, UnlockCommand())
	assert.Equal(t, &protocol.SetParams{Params: map[string]string{"battery_lock_status": "unlocked"}}, BatteryUnlockCommand())
}

func TestParamCommand(t *testing.T) {
	assert.Equal(t, &protocol.GetParams{Params: []string{"alarm"}}, ParamCommand("alarm", ""))
	assert.Equal(t, &protocol.SetParams{Params: map[string]string{"alarm": "on"}}, ParamCommand("alarm", "on"))
}

func TestCommandSpecPayload(t *testing.T) {
	tests := []struct {
		name string
		spec CommandSpec
		want protocol.CommandPayload
	}{
		{"configure", CommandSpec{Kind: "configure"}, &protocol.Configure{}},
		{"ping", CommandSpec{Kind: "ping"}, &protocol.Ping{}},
		{"set state", CommandSpec{Kind: "setState", State: "parked"}, &protocol.SetState{State: "parked"}},
		{"set params", CommandSpec{Kind: "setParams", Params: map[string]string{"alarm": "on"}},
			&protocol.SetParams{Params: map[string]string{"alarm": "on"}}},
		{"get params by names", CommandSpec{Kind: "getParams", Names: []string{"b", "a"}},
			&protocol.GetParams{Params: []string{"b", "a"}}},
		{"get params by keys", CommandSpec{Kind: "getParams", Params: map[string]string{"b": "", "a": ""}},
			&protocol.GetParams{Params: []string{"a", "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.spec.Payload()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CommandSpec{Kind: "selfDestruct"}.Payload()
	assert.ErrorIs(t, err, ErrValidation)
}
