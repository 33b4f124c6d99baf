package observe

import (
	"context"
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
	"github.com/vkteams-go/bot/scheduler"

	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedDispatcher wraps a scheduler.Dispatcher with OTEL instrumentation,
// the way ObservedProvider wraps an embedding provider.
type ObservedDispatcher struct {
	inner scheduler.Dispatcher
	inst  *Instruments
}

// WrapDispatcher returns an instrumented scheduler.Dispatcher.
func WrapDispatcher(inner scheduler.Dispatcher, inst *Instruments) *ObservedDispatcher {
	return &ObservedDispatcher{inner: inner, inst: inst}
}

func (o *ObservedDispatcher) record(ctx context.Context, method string, chatID vkteamsbot.ChatId, start time.Time, err error) {
	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
	}

	o.inst.BotCalls.Add(ctx, 1, metric.WithAttributes(
		AttrBotMethod.String(method),
		attrStatus(status),
	))
	o.inst.BotCallDuration.Record(ctx, durationMs, metric.WithAttributes(AttrBotMethod.String(method)))

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("bot call completed"))
	rec.AddAttributes(
		otellog.String("bot.method", method),
		otellog.String("bot.chat_id", string(chatID)),
		otellog.Float64("bot.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)
}

func (o *ObservedDispatcher) span(ctx context.Context, method string, chatID vkteamsbot.ChatId) (context.Context, trace.Span) {
	return o.inst.Tracer.Start(ctx, "bot."+method, trace.WithAttributes(
		AttrBotMethod.String(method),
		AttrChatID.String(string(chatID)),
	))
}

func (o *ObservedDispatcher) SendText(ctx context.Context, req vkteamsbot.SendTextRequest) (vkteamsbot.SendTextResponse, error) {
	ctx, span := o.span(ctx, "SendText", req.ChatID)
	defer span.End()
	start := time.Now()

	resp, err := o.inner.SendText(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.record(ctx, "SendText", req.ChatID, start, err)
	return resp, err
}

func (o *ObservedDispatcher) SendFile(ctx context.Context, req vkteamsbot.SendFileRequest) (vkteamsbot.SendFileResponse, error) {
	ctx, span := o.span(ctx, "SendFile", req.ChatID)
	defer span.End()
	start := time.Now()

	resp, err := o.inner.SendFile(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.record(ctx, "SendFile", req.ChatID, start, err)
	return resp, err
}

func (o *ObservedDispatcher) SendVoice(ctx context.Context, req vkteamsbot.SendVoiceRequest) (vkteamsbot.SendFileResponse, error) {
	ctx, span := o.span(ctx, "SendVoice", req.ChatID)
	defer span.End()
	start := time.Now()

	resp, err := o.inner.SendVoice(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.record(ctx, "SendVoice", req.ChatID, start, err)
	return resp, err
}

func (o *ObservedDispatcher) ChatSendActions(ctx context.Context, req vkteamsbot.ChatSendActionsRequest) error {
	ctx, span := o.span(ctx, "ChatSendActions", req.ChatID)
	defer span.End()
	start := time.Now()

	err := o.inner.ChatSendActions(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.record(ctx, "ChatSendActions", req.ChatID, start, err)
	return err
}
