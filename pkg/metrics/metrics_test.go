package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestRecorders(t *testing.T) {
	RecordHTTPRequest("GET", "/api/v1/health", 200, 12*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/health", "200")), 1.0)

	before := testutil.ToFloat64(packetsReceived.WithLabelValues("mqtt"))
	RecordPacket("mqtt")
	assert.Equal(t, before+1, testutil.ToFloat64(packetsReceived.WithLabelValues("mqtt")))

	RecordConversionFailure("serial")
	assert.GreaterOrEqual(t, testutil.ToFloat64(conversionFailures.WithLabelValues("serial")), 1.0)

	RecordVerdict("telemetry", false, "telemetry")
	assert.GreaterOrEqual(t, testutil.ToFloat64(verdicts.WithLabelValues("telemetry", "false", "telemetry")), 1.0)

	RecordCommandSent("setParams", true)
	assert.GreaterOrEqual(t, testutil.ToFloat64(commandsSent.WithLabelValues("setParams", "true")), 1.0)

	RecordCommandResult("success")
	assert.GreaterOrEqual(t, testutil.ToFloat64(commandResults.WithLabelValues("success")), 1.0)
}
