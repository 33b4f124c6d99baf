// Package postgres persists bot events and the messages derived from them
// in PostgreSQL, using PostgreSQL full-text search (a GIN tsvector index)
// over message text.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	vkteamsbot "github.com/vkteams-go/bot"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists events and the messages derived from them. The caller owns
// the pool's lifecycle (construction and Close).
type Store struct {
	pool        *pgxpool.Pool
	autoMigrate bool
}

// Option configures a Store.
type Option func(*Store)

// WithAutoMigrate runs embedded migrations on Open rather than requiring the
// caller to run them out-of-band.
func WithAutoMigrate(enabled bool) Option {
	return func(s *Store) { s.autoMigrate = enabled }
}

// New wraps an externally-owned pool. The caller is responsible for closing it.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Migrate runs every pending embedded migration against the store's
// database, satisfying the "migrations run on init if auto_migrate=true"
// requirement without hand-rolled idempotent DDL.
func (s *Store) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return &vkteamsbot.ErrSystem{Message: fmt.Sprintf("load embedded migrations: %v", err)}
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(s.pool.Config().ConnString()))
	if err != nil {
		return &vkteamsbot.ErrSystem{Message: fmt.Sprintf("build migrator: %v", err)}
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return &vkteamsbot.ErrSystem{Message: fmt.Sprintf("run migrations: %v", err)}
	}
	return nil
}

// pgx5URL rewrites a standard postgres DSN to the pgx5:// scheme the
// golang-migrate pgx/v5 driver registers itself under.
func pgx5URL(connString string) string {
	if rest, ok := strings.CutPrefix(connString, "postgres://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(connString, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	return "pgx5://" + connString
}

// Open applies migrations (if enabled) and returns the ready Store.
func Open(ctx context.Context, pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	s := New(pool, opts...)
	if s.autoMigrate {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// StoredEventRow mirrors the events table, including its generated ID.
type StoredEventRow struct {
	ID            int64
	EventIDWire   string
	EventType     string
	ChatID        string
	UserID        string
	Timestamp     time.Time
	RawPayload    []byte
	ProcessedData []byte
	CreatedAt     time.Time
}

// InsertEvent writes one audit row and returns its generated ID, which
// downstream message inserts reference as a foreign key.
func (s *Store) InsertEvent(ctx context.Context, row StoredEventRow) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO events (event_id_wire, event_type, chat_id, user_id, timestamp, raw_payload, processed_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		row.EventIDWire, row.EventType, row.ChatID, nullIfEmpty(row.UserID), row.Timestamp, row.RawPayload, row.ProcessedData,
	).Scan(&id)
	if err != nil {
		return 0, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}
	return id, nil
}

// StoredMessageRow mirrors the messages table.
type StoredMessageRow struct {
	EventID              int64
	MessageID            string
	ChatID               string
	UserID               string
	Text                 string
	FormattedText        string
	ReplyToMessageID     string
	ForwardFromChatID    string
	ForwardFromMessageID string
	FileAttachments      string
	HasMentions          bool
	Mentions             string
	Timestamp            time.Time
}

// InsertMessage writes one derived message row, referencing the event it
// came from.
func (s *Store) InsertMessage(ctx context.Context, row StoredMessageRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (
			event_id, message_id, chat_id, user_id, text, formatted_text,
			reply_to_message_id, forward_from_chat_id, forward_from_message_id,
			file_attachments, has_mentions, mentions, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		row.EventID, row.MessageID, row.ChatID, row.UserID, row.Text, nullIfEmpty(row.FormattedText),
		nullIfEmpty(row.ReplyToMessageID), nullIfEmpty(row.ForwardFromChatID), nullIfEmpty(row.ForwardFromMessageID),
		nullIfEmpty(row.FileAttachments), row.HasMentions, nullIfEmpty(row.Mentions), row.Timestamp,
	)
	if err != nil {
		return &vkteamsbot.ErrIO{Path: "messages", Err: err}
	}
	return nil
}

// InsertEventWithMessage runs both inserts transactionally in one
// pool.Begin/tx.Exec/tx.Commit block.
func (s *Store) InsertEventWithMessage(ctx context.Context, event StoredEventRow, message *StoredMessageRow) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO events (event_id_wire, event_type, chat_id, user_id, timestamp, raw_payload, processed_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		event.EventIDWire, event.EventType, event.ChatID, nullIfEmpty(event.UserID), event.Timestamp, event.RawPayload, event.ProcessedData,
	).Scan(&id)
	if err != nil {
		return 0, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}

	if message != nil {
		message.EventID = id
		_, err = tx.Exec(ctx, `
			INSERT INTO messages (
				event_id, message_id, chat_id, user_id, text, formatted_text,
				reply_to_message_id, forward_from_chat_id, forward_from_message_id,
				file_attachments, has_mentions, mentions, timestamp
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			message.EventID, message.MessageID, message.ChatID, message.UserID, message.Text, nullIfEmpty(message.FormattedText),
			nullIfEmpty(message.ReplyToMessageID), nullIfEmpty(message.ForwardFromChatID), nullIfEmpty(message.ForwardFromMessageID),
			nullIfEmpty(message.FileAttachments), message.HasMentions, nullIfEmpty(message.Mentions), message.Timestamp,
		)
		if err != nil {
			return 0, &vkteamsbot.ErrIO{Path: "messages", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}
	return id, nil
}

// SearchMessages runs a simple-config full-text query over message text,
// ordered by relevance. An empty chatID searches across every chat.
func (s *Store) SearchMessages(ctx context.Context, chatID, query string, limit int) ([]StoredMessageRow, error) {
	conditions := []string{"to_tsvector('simple', text) @@ plainto_tsquery('simple', $1)"}
	args := []interface{}{query}
	if chatID != "" {
		args = append(args, chatID)
		conditions = append(conditions, fmt.Sprintf("chat_id = $%d", len(args)))
	}
	args = append(args, limit)

	q := fmt.Sprintf(`
		SELECT event_id, message_id, chat_id, user_id, text, timestamp
		FROM messages
		WHERE %s
		ORDER BY ts_rank(to_tsvector('simple', text), plainto_tsquery('simple', $1)) DESC
		LIMIT $%d`, strings.Join(conditions, " AND "), len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, &vkteamsbot.ErrIO{Path: "messages", Err: err}
	}
	defer rows.Close()

	var out []StoredMessageRow
	for rows.Next() {
		var r StoredMessageRow
		if err := rows.Scan(&r.EventID, &r.MessageID, &r.ChatID, &r.UserID, &r.Text, &r.Timestamp); err != nil {
			return nil, &vkteamsbot.ErrIO{Path: "messages", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRecentEvents returns events ordered by timestamp descending, optionally
// narrowed to one chat and/or a minimum timestamp. An empty chatID or a
// zero since matches every event.
func (s *Store) GetRecentEvents(ctx context.Context, chatID string, since time.Time, limit int) ([]StoredEventRow, error) {
	var conditions []string
	var args []interface{}
	if chatID != "" {
		args = append(args, chatID)
		conditions = append(conditions, fmt.Sprintf("chat_id = $%d", len(args)))
	}
	if !since.IsZero() {
		args = append(args, since)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	args = append(args, limit)

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}
	q := fmt.Sprintf(`
		SELECT id, event_id_wire, event_type, chat_id, user_id, timestamp, raw_payload, processed_data, created_at
		FROM events
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT $%d`, where, len(args))

	return s.queryEvents(ctx, q, args...)
}

// SearchEventsAdvanced filters events by any combination of user, event
// type, and a timestamp range; zero values for a field skip that filter.
func (s *Store) SearchEventsAdvanced(ctx context.Context, userID, eventType string, since, until time.Time, limit int) ([]StoredEventRow, error) {
	var conditions []string
	var args []interface{}
	if userID != "" {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if eventType != "" {
		args = append(args, eventType)
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if !since.IsZero() {
		args = append(args, since)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if !until.IsZero() {
		args = append(args, until)
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)))
	}
	args = append(args, limit)

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}
	q := fmt.Sprintf(`
		SELECT id, event_id_wire, event_type, chat_id, user_id, timestamp, raw_payload, processed_data, created_at
		FROM events
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT $%d`, where, len(args))

	return s.queryEvents(ctx, q, args...)
}

func (s *Store) queryEvents(ctx context.Context, q string, args ...interface{}) ([]StoredEventRow, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}
	defer rows.Close()

	var out []StoredEventRow
	for rows.Next() {
		var r StoredEventRow
		if err := rows.Scan(&r.ID, &r.EventIDWire, &r.EventType, &r.ChatID, &r.UserID, &r.Timestamp, &r.RawPayload, &r.ProcessedData, &r.CreatedAt); err != nil {
			return nil, &vkteamsbot.ErrIO{Path: "events", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes event/message volume, optionally scoped to one chat.
type Stats struct {
	TotalEvents   int64
	TotalMessages int64
	UniqueChats   int64
	UniqueUsers   int64
	PerType       map[string]int64
}

// GetStats aggregates event/message counts. An empty chatID reports across
// every chat.
func (s *Store) GetStats(ctx context.Context, chatID string) (Stats, error) {
	var where string
	var args []interface{}
	if chatID != "" {
		where = "WHERE chat_id = $1"
		args = []interface{}{chatID}
	}

	stats := Stats{PerType: map[string]int64{}}
	q := fmt.Sprintf(`SELECT count(*), count(DISTINCT chat_id), count(DISTINCT user_id) FROM events %s`, where)
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&stats.TotalEvents, &stats.UniqueChats, &stats.UniqueUsers); err != nil {
		return Stats{}, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}

	msgWhere := where
	q = fmt.Sprintf(`SELECT count(*) FROM messages %s`, msgWhere)
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&stats.TotalMessages); err != nil {
		return Stats{}, &vkteamsbot.ErrIO{Path: "messages", Err: err}
	}

	q = fmt.Sprintf(`SELECT event_type, count(*) FROM events %s GROUP BY event_type`, where)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return Stats{}, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return Stats{}, &vkteamsbot.ErrIO{Path: "events", Err: err}
		}
		stats.PerType[eventType] = count
	}
	return stats, rows.Err()
}

// HealthCheck runs SELECT 1 to confirm the pool can reach the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return &vkteamsbot.ErrIO{Path: "health_check", Err: err}
	}
	return nil
}

// CleanupOldEvents deletes events (and their cascade-linked messages) older
// than the retention cutoff, returning the number of events removed.
func (s *Store) CleanupOldEvents(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, &vkteamsbot.ErrIO{Path: "events", Err: err}
	}
	return int(tag.RowsAffected()), nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
