// Package observe wraps the bot dispatcher, vector store, and embedding
// provider with OpenTelemetry spans, duration metrics, and structured logs.
package observe

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for bot/scheduler/store observability spans and metrics.
var (
	AttrBotMethod   = attribute.Key("bot.method")
	AttrChatID      = attribute.Key("bot.chat_id")
	AttrHTTPStatus  = attribute.Key("bot.http_status")

	AttrTaskID   = attribute.Key("scheduler.task_id")
	AttrTaskType = attribute.Key("scheduler.task_type")

	AttrVectorOp         = attribute.Key("vectorstore.op")
	AttrVectorCollection = attribute.Key("vectorstore.collection")
	AttrVectorResultCount = attribute.Key("vectorstore.result_count")

	AttrEmbedProvider  = attribute.Key("embed.provider")
	AttrEmbedTextCount = attribute.Key("embed.text_count")

	attrStatusKey = attribute.Key("status")
)

func attrStatus(status string) attribute.KeyValue { return attrStatusKey.String(status) }
