package observe

import (
	"context"
	"time"

	"github.com/vkteams-go/bot/embed"

	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedProvider wraps an embed.Provider with OTEL instrumentation.
type ObservedProvider struct {
	inner embed.Provider
	inst  *Instruments
}

// WrapEmbedProvider returns an instrumented embed.Provider.
func WrapEmbedProvider(inner embed.Provider, inst *Instruments) *ObservedProvider {
	return &ObservedProvider{inner: inner, inst: inst}
}

func (o *ObservedProvider) Name() string  { return o.inner.Name() }
func (o *ObservedProvider) Dimension() int { return o.inner.Dimension() }

func (o *ObservedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "embed.embed", trace.WithAttributes(
		AttrEmbedProvider.String(o.inner.Name()),
		AttrEmbedTextCount.Int(len(texts)),
	))
	defer span.End()
	start := time.Now()

	result, err := o.inner.Embed(ctx, texts)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.inst.EmbedRequests.Add(ctx, 1, metric.WithAttributes(
		AttrEmbedProvider.String(o.inner.Name()),
		attrStatus(status),
	))
	o.inst.EmbedDuration.Record(ctx, durationMs, metric.WithAttributes(AttrEmbedProvider.String(o.inner.Name())))

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("embedding request completed"))
	rec.AddAttributes(
		otellog.String("embed.provider", o.inner.Name()),
		otellog.Int("embed.text_count", len(texts)),
		otellog.Float64("embed.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)

	return result, err
}
