package observe

import (
	"testing"

	lognoop "go.opentelemetry.io/otel/log/noop"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func testInstruments(t *testing.T) *Instruments {
	t.Helper()
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	meter := metricnoop.NewMeterProvider().Meter("test")
	logger := lognoop.NewLoggerProvider().Logger("test")

	inst, err := NewInstruments(tracer, meter, logger)
	if err != nil {
		t.Fatalf("NewInstruments: %v", err)
	}
	return inst
}

func TestNewInstrumentsSucceeds(t *testing.T) {
	inst := testInstruments(t)
	if inst.BotCalls == nil || inst.TaskDispatches == nil || inst.VectorOps == nil || inst.EmbedRequests == nil {
		t.Fatal("expected all counters to be initialized")
	}
}
