// Package pgvector implements a vector document store over PostgreSQL's
// pgvector extension, using an ivfflat index rather than HNSW.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	vkteamsbot "github.com/vkteams-go/bot"
)

// Document is one row of the vector collection.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]interface{}
	Embedding []float32
	CreatedAt time.Time
}

// ScoredDocument pairs a Document with its cosine similarity (Score, in
// [-1, 1], higher is more similar) and raw cosine Distance (lower is closer,
// the value the index actually orders by).
type ScoredDocument struct {
	Document
	Score    float32
	Distance float32
}

// SearchQuery is one similarity search against the collection.
type SearchQuery struct {
	Embedding      []float32
	TopK           int
	ScoreThreshold *float32               // nil = no floor
	MetadataFilter map[string]interface{} // nil = no filter; matched via `metadata @> filter`
	IncludeContent bool                   // false omits Content from results, saving the transfer
}

// Stats summarizes collection size and query performance.
type Stats struct {
	Total         int64
	StorageBytes  int64
	AvgQueryMs    float64
	Provider      string
}

type config struct {
	dimension int // 0 = untyped vector
	lists     int // 0 = pgvector default (100)
	table     string
}

// Option configures a Store.
type Option func(*config)

// WithEmbeddingDimension sets the vector column's fixed dimension (e.g.
// 1536). When zero, the column is an untyped vector.
func WithEmbeddingDimension(dim int) Option {
	return func(c *config) { c.dimension = dim }
}

// WithLists sets the ivfflat index's lists parameter. Rule of thumb:
// rows/1000 for up to ~1M rows. Zero uses pgvector's own default.
func WithLists(lists int) Option {
	return func(c *config) { c.lists = lists }
}

// WithTable overrides the default "vector_documents" table name, letting a
// process run more than one collection against the same database.
func WithTable(name string) Option {
	return func(c *config) { c.table = name }
}

// Store is a pgvector-backed Document collection.
type Store struct {
	pool *pgxpool.Pool
	cfg  config

	queryCount   uint64
	queryNanosum uint64
}

// New wraps an externally-owned pool. The caller owns the pool's lifecycle.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	cfg := config{table: "vector_documents"}
	for _, o := range opts {
		o(&cfg)
	}
	return &Store{pool: pool, cfg: cfg}
}

func (s *Store) vectorType() string {
	if s.cfg.dimension > 0 {
		return fmt.Sprintf("vector(%d)", s.cfg.dimension)
	}
	return "vector"
}

// Init creates the pgvector extension, the collection table, and its
// ivfflat index. Safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	listsClause := ""
	if s.cfg.lists > 0 {
		listsClause = fmt.Sprintf(" WITH (lists = %d)", s.cfg.lists)
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding %s,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.cfg.table, s.vectorType()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING ivfflat (embedding vector_cosine_ops)%s`,
			s.cfg.table, s.cfg.table, listsClause),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
		}
	}
	return nil
}

// StoreDocument upserts one document, keyed by ID.
func (s *Store) StoreDocument(ctx context.Context, doc Document) error {
	return s.StoreDocuments(ctx, []Document{doc})
}

// StoreDocuments upserts a batch of documents in a single transaction.
func (s *Store) StoreDocuments(ctx context.Context, docs []Document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	defer tx.Rollback(ctx)

	q := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3::jsonb, $4::vector, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, s.cfg.table)

	for _, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return &vkteamsbot.ErrSerialization{Op: "marshal document metadata", Err: err}
		}
		createdAt := doc.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.Exec(ctx, q, doc.ID, doc.Content, meta, serializeEmbedding(doc.Embedding), createdAt); err != nil {
			return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	return nil
}

// GetDocument fetches a single document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	q := fmt.Sprintf(`SELECT id, content, metadata, created_at FROM %s WHERE id = $1`, s.cfg.table)
	var doc Document
	var meta []byte
	err := s.pool.QueryRow(ctx, q, id).Scan(&doc.ID, &doc.Content, &meta, &doc.CreatedAt)
	if err != nil {
		return Document{}, &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
			return Document{}, &vkteamsbot.ErrSerialization{Op: "unmarshal document metadata", Err: err}
		}
	}
	return doc, nil
}

// DeleteDocument removes a document by ID.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.cfg.table)
	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	return nil
}

// UpdateMetadata replaces a document's metadata without touching its
// content or embedding.
func (s *Store) UpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return &vkteamsbot.ErrSerialization{Op: "marshal document metadata", Err: err}
	}
	q := fmt.Sprintf(`UPDATE %s SET metadata = $2::jsonb WHERE id = $1`, s.cfg.table)
	if _, err := s.pool.Exec(ctx, q, id, meta); err != nil {
		return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	return nil
}

// SearchSimilar runs a cosine-similarity nearest-neighbor query, optionally
// narrowed by a metadata filter (matched via `metadata @> filter`) and a
// minimum score, recording the query's wall-clock duration toward the
// running average reported by Stats.
func (s *Store) SearchSimilar(ctx context.Context, query SearchQuery) ([]ScoredDocument, error) {
	start := time.Now()
	defer func() { s.recordQuery(time.Since(start)) }()

	contentCol := "content"
	if !query.IncludeContent {
		contentCol = "''"
	}

	conditions := []string{"embedding IS NOT NULL"}
	args := []interface{}{serializeEmbedding(query.Embedding)}

	if query.MetadataFilter != nil {
		filterJSON, err := json.Marshal(query.MetadataFilter)
		if err != nil {
			return nil, &vkteamsbot.ErrSerialization{Op: "marshal metadata filter", Err: err}
		}
		args = append(args, filterJSON)
		conditions = append(conditions, fmt.Sprintf("metadata @> $%d::jsonb", len(args)))
	}
	if query.ScoreThreshold != nil {
		args = append(args, *query.ScoreThreshold)
		conditions = append(conditions, fmt.Sprintf("(1 - (embedding <=> $1::vector)) >= $%d", len(args)))
	}
	args = append(args, query.TopK)
	limitPlaceholder := len(args)

	q := fmt.Sprintf(`
		SELECT id, %s, metadata, created_at,
			1 - (embedding <=> $1::vector) AS score,
			embedding <=> $1::vector AS distance
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1::vector
		LIMIT $%d`, contentCol, s.cfg.table, strings.Join(conditions, " AND "), limitPlaceholder)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	defer rows.Close()

	var out []ScoredDocument
	for rows.Next() {
		var d ScoredDocument
		var meta []byte
		if err := rows.Scan(&d.ID, &d.Content, &meta, &d.CreatedAt, &d.Score, &d.Distance); err != nil {
			return nil, &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
		}
		if len(meta) > 0 {
			json.Unmarshal(meta, &d.Metadata)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CleanupOldDocuments deletes documents older than the cutoff, returning
// the number removed.
func (s *Store) CleanupOldDocuments(ctx context.Context, olderThan time.Time) (int, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, s.cfg.table)
	tag, err := s.pool.Exec(ctx, q, olderThan)
	if err != nil {
		return 0, &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	return int(tag.RowsAffected()), nil
}

// GetStats reports collection size, storage footprint, and running average
// query latency.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var total int64
	var bytes int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.cfg.table)).Scan(&total)
	if err != nil {
		return Stats{}, &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	err = s.pool.QueryRow(ctx, `SELECT pg_total_relation_size($1)`, s.cfg.table).Scan(&bytes)
	if err != nil {
		bytes = 0
	}
	return Stats{
		Total:        total,
		StorageBytes: bytes,
		AvgQueryMs:   s.AvgQueryMs(),
		Provider:     "postgres/pgvector",
	}, nil
}

// HealthCheck pings the pool.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	return nil
}

// PerformMaintenance runs ANALYZE on the collection table so the planner's
// row-count estimates stay current after bulk upserts.
func (s *Store) PerformMaintenance(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`ANALYZE %s`, s.cfg.table)); err != nil {
		return &vkteamsbot.ErrIO{Path: s.cfg.table, Err: err}
	}
	return nil
}

func (s *Store) recordQuery(d time.Duration) {
	atomic.AddUint64(&s.queryCount, 1)
	atomic.AddUint64(&s.queryNanosum, uint64(d.Nanoseconds()))
}

// AvgQueryMs returns the running average SearchSimilar latency in
// milliseconds, or zero if no query has run yet.
func (s *Store) AvgQueryMs() float64 {
	count := atomic.LoadUint64(&s.queryCount)
	if count == 0 {
		return 0
	}
	sum := atomic.LoadUint64(&s.queryNanosum)
	return float64(sum) / float64(count) / 1e6
}

func serializeEmbedding(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
