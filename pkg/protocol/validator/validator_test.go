package validator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urmzd/bikeiot/pkg/protocol"
)

const testTimestamp uint64 = 1675917321

func packet(payload protocol.Payload) *protocol.Packet {
	return &protocol.Packet{
		Version:    uint32(protocol.NewVersion(1, 1)),
		Timestamp:  testTimestamp,
		ValidUntil: protocol.Uint64(testTimestamp + 1),
		Payload:    payload,
	}
}

func command(cp protocol.CommandPayload) *protocol.Packet {
	return packet(&protocol.Command{ChainID: "123", Payload: cp})
}

func failedResult(ed *protocol.ErrorDescription) *protocol.Packet {
	return packet(&protocol.CommandResult{
		ChainID:          "123",
		Result:           protocol.ResultFailed,
		ErrorDescription: ed,
	})
}

func TestIsValidNil(t *testing.T) {
	assert.False(t, IsValid(nil))
	assert.Equal(t, RuleNilPacket, Check(nil).Rule)
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name    string
		version uint32
		want    Rule
	}{
		{"zero", 0, RuleVersion},
		{"1.0", uint32(protocol.NewVersion(1, 0)), RuleNone},
		{"0.1", uint32(protocol.NewVersion(0, 1)), RuleNone},
		{"1.1", uint32(protocol.NewVersion(1, 1)), RuleNone},
		{"reserved major", uint32(protocol.NewVersion(0xFFFF, 1)), RuleVersion},
		{"reserved minor", uint32(protocol.NewVersion(1, 0xFFFF)), RuleVersion},
		{"all ones", 0xFFFFFFFF, RuleVersion},
		{"max legal", uint32(protocol.NewVersion(0xFFFE, 0xFFFE)), RuleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := command(&protocol.Configure{})
			p.Version = tt.version
			v := Check(p)
			assert.Equal(t, tt.want, v.Rule)
			assert.Equal(t, tt.want == RuleNone, v.Valid)
		})
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name      string
		timestamp uint64
		want      bool
	}{
		{"zero", 0, false},
		{"one before floor", MinimalTimestamp - 1, false},
		{"floor", MinimalTimestamp, true},
		{"after floor", testTimestamp, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := packet(&protocol.Request{ChainID: "123"})
			p.Timestamp = tt.timestamp
			p.ValidUntil = nil
			assert.Equal(t, tt.want, IsValid(p))
		})
	}
}

func TestValidUntil(t *testing.T) {
	p := command(&protocol.Ping{})

	p.ValidUntil = protocol.Uint64(testTimestamp)
	assert.True(t, IsValid(p), "equal expiry is allowed")

	p.ValidUntil = protocol.Uint64(testTimestamp - 1)
	assert.Equal(t, RuleExpiry, Check(p).Rule)

	p.ValidUntil = protocol.Uint64(testTimestamp + 3600)
	assert.True(t, IsValid(p))
}

func TestCommandLifetimeMandatory(t *testing.T) {
	payloads := []protocol.CommandPayload{
		&protocol.Configure{},
		&protocol.SetState{State: "locked"},
		&protocol.SetParams{Params: map[string]string{"vehicle_lock": "locked"}},
		&protocol.GetParams{Params: []string{"vehicle_lock"}},
		&protocol.Ping{},
	}

	for _, cp := range payloads {
		t.Run(cp.CommandKind().String(), func(t *testing.T) {
			p := command(cp)
			assert.True(t, IsValid(p))

			p.ValidUntil = nil
			assert.Equal(t, RuleLifetime, Check(p).Rule)
		})
	}
}

func TestLifetimeOptionalForOtherKinds(t *testing.T) {
	payloads := []protocol.Payload{
		&protocol.CommandResult{ChainID: "123", Result: protocol.ResultSuccess},
		&protocol.Request{ChainID: "123"},
		&protocol.Response{ChainID: "123", Result: protocol.ResultSuccess},
		&protocol.Telemetry{Payload: &protocol.TelemetryPayload{Voltage: protocol.Uint32(373)}},
		&protocol.Notification{},
	}

	for _, pl := range payloads {
		t.Run(pl.PayloadKind().String(), func(t *testing.T) {
			p := packet(pl)
			p.ValidUntil = nil
			assert.True(t, IsValid(p))
		})
	}
}

func TestNoPayload(t *testing.T) {
	p := packet(nil)
	assert.False(t, IsValid(p))
	assert.Equal(t, RulePayload, Check(p).Rule)

	p = packet((*protocol.Command)(nil))
	assert.False(t, IsValid(p))
}

func TestCommand(t *testing.T) {
	p := command(&protocol.Configure{})
	assert.True(t, IsValid(p))

	p = packet(&protocol.Command{Payload: &protocol.Configure{}})
	assert.Equal(t, RuleChainID, Check(p).Rule)

	p = packet(&protocol.Command{ChainID: "123"})
	assert.Equal(t, RuleCommandPayload, Check(p).Rule)

	p.ValidUntil = nil
	assert.False(t, IsValid(p))
}

func TestCommandRuleRegistry(t *testing.T) {
	v := New(WithCommandRule(protocol.CommandSetState, func(cp protocol.CommandPayload) bool {
		return cp.(*protocol.SetState).State != ""
	}))

	assert.True(t, v.IsValid(command(&protocol.SetState{State: "locked"})))
	assert.Equal(t, RuleCommandRule, v.Check(command(&protocol.SetState{})).Rule)
	assert.True(t, v.IsValid(command(&protocol.Ping{})))

	// The default registry accepts every command kind.
	assert.True(t, IsValid(command(&protocol.SetState{})))
}

func TestCommandResult(t *testing.T) {
	success := packet(&protocol.CommandResult{ChainID: "123", Result: protocol.ResultSuccess})
	assert.True(t, IsValid(success))

	noChain := packet(&protocol.CommandResult{Result: protocol.ResultSuccess})
	assert.Equal(t, RuleChainID, Check(noChain).Rule)

	unspecified := packet(&protocol.CommandResult{ChainID: "123"})
	assert.Equal(t, RuleResult, Check(unspecified).Rule)

	tests := []struct {
		name string
		ed   *protocol.ErrorDescription
		want bool
	}{
		{"no description", nil, false},
		{"empty description", &protocol.ErrorDescription{}, false},
		{"status only", &protocol.ErrorDescription{Status: protocol.Status(protocol.StatusOther)}, false},
		{"message only", &protocol.ErrorDescription{Message: protocol.String("oops")}, false},
		{"status and message", &protocol.ErrorDescription{
			Status:  protocol.Status(protocol.StatusOther),
			Message: protocol.String("oops"),
		}, true},
		{"explicit ok status", &protocol.ErrorDescription{
			Status:  protocol.Status(protocol.StatusOK),
			Message: protocol.String(""),
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(failedResult(tt.ed)))
		})
	}
}

func TestRequest(t *testing.T) {
	assert.True(t, IsValid(packet(&protocol.Request{ChainID: "123"})))
	assert.False(t, IsValid(packet(&protocol.Request{})))
}

func TestResponse(t *testing.T) {
	assert.True(t, IsValid(packet(&protocol.Response{ChainID: "123", Result: protocol.ResultSuccess})))
	assert.False(t, IsValid(packet(&protocol.Response{Result: protocol.ResultSuccess})))
	assert.False(t, IsValid(packet(&protocol.Response{ChainID: "123"})))
	assert.False(t, IsValid(packet(&protocol.Response{ChainID: "123", Result: protocol.ResultFailed})))
	assert.True(t, IsValid(packet(&protocol.Response{
		ChainID:          "123",
		Result:           protocol.ResultFailed,
		ErrorDescription: &protocol.ErrorDescription{},
	})))
}

func TestTelemetry(t *testing.T) {
	tests := []struct {
		name    string
		payload *protocol.TelemetryPayload
		want    bool
	}{
		{"no payload", nil, false},
		{"empty payload", &protocol.TelemetryPayload{}, false},
		{"empty sensors only", &protocol.TelemetryPayload{Sensors: map[string]string{}}, false},
		{"battery", &protocol.TelemetryPayload{BatteryLevel: protocol.Uint32(80)}, true},
		{"speed", &protocol.TelemetryPayload{SpeedKmh: protocol.Float32(12.5)}, true},
		{"location", &protocol.TelemetryPayload{Location: &protocol.Location{Lat: 55.743544, Lon: 37.567714}}, true},
		{"gsm", &protocol.TelemetryPayload{GsmSignalLevel: protocol.Uint32(3)}, true},
		{"charging", &protocol.TelemetryPayload{Charging: protocol.Bool(false)}, true},
		{"locked", &protocol.TelemetryPayload{Locked: protocol.Bool(true)}, true},
		{"sensors", &protocol.TelemetryPayload{Sensors: map[string]string{"imei": "869492042841493"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Check(packet(&protocol.Telemetry{Payload: tt.payload}))
			assert.Equal(t, tt.want, v.Valid)
			assert.Equal(t, protocol.KindTelemetry, v.Kind)
		})
	}
}

func TestNotificationAlwaysValid(t *testing.T) {
	assert.True(t, IsValid(packet(&protocol.Notification{})))
}

func TestCheckDoesNotMutate(t *testing.T) {
	p := failedResult(&protocol.ErrorDescription{Status: protocol.Status(protocol.StatusBusy)})
	before := *p
	assert.False(t, IsValid(p))
	assert.Equal(t, before, *p)
}

func TestConcurrentChecks(t *testing.T) {
	p := command(&protocol.SetParams{Params: map[string]string{"vehicle_lock": "unlocked"}})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, IsValid(p))
		}()
	}
	wg.Wait()
}
