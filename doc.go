// Package vkteamsbot is a client and toolkit for the VK Teams Bot API.
//
// It provides a pooled, retrying HTTP transport; typed request/response
// structs for every bot method (messages, chats, files, events, self);
// a long-polling event loop with batched dispatch; per-chat rate
// limiting; and Markdown-to-wire-format rendering.
//
// # Quick Start
//
//	bot, err := vkteamsbot.NewFromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//	bot.Poll(ctx, func(ctx context.Context, batch []vkteamsbot.Event) error {
//		for _, ev := range batch {
//			if p, ok := ev.Payload.(vkteamsbot.NewMessagePayload); ok {
//				bot.SendText(ctx, vkteamsbot.SendTextRequest{
//					ChatID: p.Chat.ChatID,
//					Text:   "echo: " + p.Text,
//				})
//			}
//		}
//		return nil
//	}, vkteamsbot.PollOptions{})
//
// # Core Types
//
//   - [Bot] — the API facade: construction, transport, rate limiting, dispatch
//   - [Event] — the tagged union decoded from /events/get
//   - [Error] types — the eight-category error taxonomy used throughout
//
// # Included Packages
//
// Scheduling: scheduler (persisted, recurring task execution) and daemon
// (PID file / stop-signal process lifecycle). Storage: store/postgres
// (event log with full-text search) and store/pgvector (semantic search
// over embedded text). Embeddings: embed (hosted API and local model
// server providers). Observability: observe (OpenTelemetry wrappers).
//
// See cmd/vkteams-longpoll and cmd/vkteams-scheduler for reference daemons.
package vkteamsbot
