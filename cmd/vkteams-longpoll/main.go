// Command vkteams-longpoll runs the bot's long-poll loop, normalizing every
// received event into the relational store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	vkteamsbot "github.com/vkteams-go/bot"
	"github.com/vkteams-go/bot/ingest"
	"github.com/vkteams-go/bot/internal/config"
	"github.com/vkteams-go/bot/observe"
	"github.com/vkteams-go/bot/store/postgres"
)

// rateLimitOption translates the TOML/env rate-limit settings into a Bot
// construction option.
func rateLimitOption(cfg config.Config) vkteamsbot.Option {
	rl := cfg.RateLimit
	return vkteamsbot.WithRateLimit(vkteamsbot.RateLimitConfig{
		Limit:         rl.RequestsPerWindow,
		Window:        time.Duration(rl.WindowSeconds) * time.Second,
		RetryDelay:    time.Duration(rl.RetryDelayMs) * time.Millisecond,
		RetryAttempts: rl.RetryAttempts,
	})
}

func newLogger(dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func main() {
	configPath := flag.String("config", "", "path to vkteams-bot.toml")
	dev := flag.Bool("dev", false, "use a text log handler instead of JSON")
	flag.Parse()

	logger := newLogger(*dev)
	cfg := config.Load(*configPath)

	if err := run(cfg, logger); err != nil {
		logger.Error("vkteams-longpoll exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	bot, err := vkteamsbot.NewFromEnv(rateLimitOption(cfg))
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.Database.ConnString)
	if err != nil {
		return &vkteamsbot.ErrSystem{Message: "connect to postgres: " + err.Error()}
	}
	defer pool.Close()

	store, err := postgres.Open(ctx, pool, postgres.WithAutoMigrate(cfg.Database.AutoMigrate))
	if err != nil {
		return err
	}

	if cfg.Observe.Enabled {
		_, shutdown, err := observe.Init(ctx, cfg.Observe.ServiceName)
		if err != nil {
			return err
		}
		defer shutdown(ctx)
	}

	handler := func(ctx context.Context, batch []vkteamsbot.Event) error {
		for _, ev := range batch {
			if err := persistEvent(ctx, store, ev, logger); err != nil {
				return err
			}
		}
		return nil
	}

	logger.Info("vkteams-longpoll starting")
	return vkteamsbot.RunWithSignal(func(ctx context.Context) error {
		return bot.Poll(ctx, handler, vkteamsbot.PollOptions{})
	})
}

// persistEvent writes the audit row and, when the variant carries one, the
// derived message row, in a single transaction. raw is re-marshaled from
// the decoded Event rather than the original wire bytes, since Poll's
// Handler only receives decoded events. A store error is returned rather
// than swallowed, so a persistent database outage terminates the poll loop
// instead of silently dropping events forever.
func persistEvent(ctx context.Context, store *postgres.Store, ev vkteamsbot.Event, logger *slog.Logger) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("marshal event for audit row", "error", err)
		raw = json.RawMessage("{}")
	}

	eventRow := ingest.Event(ev, raw)
	storedEvent := postgres.StoredEventRow{
		EventIDWire: eventRow.EventIDWire,
		EventType:   eventRow.EventType,
		ChatID:      eventRow.ChatID,
		UserID:      eventRow.UserID,
		Timestamp:   eventRow.Timestamp,
		RawPayload:  eventRow.RawPayload,
	}

	var storedMessage *postgres.StoredMessageRow
	if msgRow, ok := ingest.Message(ev); ok {
		storedMessage = &postgres.StoredMessageRow{
			MessageID:            msgRow.MessageID,
			ChatID:               msgRow.ChatID,
			UserID:               msgRow.UserID,
			Text:                 msgRow.Text,
			FormattedText:        msgRow.FormattedText,
			ReplyToMessageID:     msgRow.ReplyToMessageID,
			ForwardFromChatID:    msgRow.ForwardFromChatID,
			ForwardFromMessageID: msgRow.ForwardFromMessageID,
			FileAttachments:      msgRow.FileAttachments,
			HasMentions:          msgRow.HasMentions,
			Mentions:             msgRow.Mentions,
			Timestamp:            msgRow.Timestamp,
		}
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := store.InsertEventWithMessage(writeCtx, storedEvent, storedMessage); err != nil {
		logger.Warn("persist event", "event_type", eventRow.EventType, "error", err)
		return err
	}
	return nil
}
