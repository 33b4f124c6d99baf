package observe

import (
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instruments bundles the OTEL handles every Wrap* function in this package
// needs: a tracer for spans, a set of metric instruments for counts and
// durations, and a logger for the structured "operation completed" record
// each wrapper emits alongside its span.
type Instruments struct {
	Tracer trace.Tracer
	Logger log.Logger

	BotCalls        metric.Int64Counter
	BotCallDuration metric.Float64Histogram

	TaskDispatches metric.Int64Counter
	TaskDuration   metric.Float64Histogram

	VectorOps         metric.Int64Counter
	VectorOpDuration  metric.Float64Histogram

	EmbedRequests metric.Int64Counter
	EmbedDuration metric.Float64Histogram
}

// NewInstruments constructs every counter/histogram used by this package
// against the given meter and tracer/logger providers.
func NewInstruments(tracer trace.Tracer, meter metric.Meter, logger log.Logger) (*Instruments, error) {
	inst := &Instruments{Tracer: tracer, Logger: logger}

	var err error
	if inst.BotCalls, err = meter.Int64Counter("bot.calls"); err != nil {
		return nil, err
	}
	if inst.BotCallDuration, err = meter.Float64Histogram("bot.call.duration_ms"); err != nil {
		return nil, err
	}
	if inst.TaskDispatches, err = meter.Int64Counter("scheduler.dispatches"); err != nil {
		return nil, err
	}
	if inst.TaskDuration, err = meter.Float64Histogram("scheduler.dispatch.duration_ms"); err != nil {
		return nil, err
	}
	if inst.VectorOps, err = meter.Int64Counter("vectorstore.ops"); err != nil {
		return nil, err
	}
	if inst.VectorOpDuration, err = meter.Float64Histogram("vectorstore.op.duration_ms"); err != nil {
		return nil, err
	}
	if inst.EmbedRequests, err = meter.Int64Counter("embed.requests"); err != nil {
		return nil, err
	}
	if inst.EmbedDuration, err = meter.Float64Histogram("embed.duration_ms"); err != nil {
		return nil, err
	}
	return inst, nil
}
