package observe

import (
	"context"
	"time"

	"github.com/vkteams-go/bot/store/pgvector"

	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// vectorStore is the subset of *pgvector.Store this package instruments.
// Declaring it locally (rather than requiring the concrete type) lets tests
// substitute a stub without a live database.
type vectorStore interface {
	StoreDocument(ctx context.Context, doc pgvector.Document) error
	StoreDocuments(ctx context.Context, docs []pgvector.Document) error
	SearchSimilar(ctx context.Context, query pgvector.SearchQuery) ([]pgvector.ScoredDocument, error)
	DeleteDocument(ctx context.Context, id string) error
}

// ObservedVectorStore wraps a vector store's query-path methods with OTEL
// instrumentation. Maintenance/admin methods (Init, HealthCheck, ...) are
// left unwrapped since nothing outside startup calls them.
type ObservedVectorStore struct {
	inner      vectorStore
	inst       *Instruments
	collection string
}

// WrapVectorStore returns an instrumented vector store. collection is a
// label for the wrapped table, used on spans and logs only.
func WrapVectorStore(inner *pgvector.Store, collection string, inst *Instruments) *ObservedVectorStore {
	return &ObservedVectorStore{inner: inner, inst: inst, collection: collection}
}

func (o *ObservedVectorStore) finish(ctx context.Context, span trace.Span, op string, start time.Time, resultCount int, err error) {
	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	o.inst.VectorOps.Add(ctx, 1, metric.WithAttributes(
		AttrVectorOp.String(op),
		AttrVectorCollection.String(o.collection),
		attrStatus(status),
	))
	o.inst.VectorOpDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrVectorOp.String(op),
		AttrVectorCollection.String(o.collection),
	))

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("vector store operation completed"))
	rec.AddAttributes(
		otellog.String("vectorstore.op", op),
		otellog.String("vectorstore.collection", o.collection),
		otellog.Int("vectorstore.result_count", resultCount),
		otellog.Float64("vectorstore.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)
}

func (o *ObservedVectorStore) StoreDocument(ctx context.Context, doc pgvector.Document) error {
	ctx, span := o.inst.Tracer.Start(ctx, "vectorstore.store_document", trace.WithAttributes(
		AttrVectorOp.String("store_document"),
		AttrVectorCollection.String(o.collection),
	))
	start := time.Now()
	err := o.inner.StoreDocument(ctx, doc)
	o.finish(ctx, span, "store_document", start, 1, err)
	return err
}

func (o *ObservedVectorStore) StoreDocuments(ctx context.Context, docs []pgvector.Document) error {
	ctx, span := o.inst.Tracer.Start(ctx, "vectorstore.store_documents", trace.WithAttributes(
		AttrVectorOp.String("store_documents"),
		AttrVectorCollection.String(o.collection),
	))
	start := time.Now()
	err := o.inner.StoreDocuments(ctx, docs)
	o.finish(ctx, span, "store_documents", start, len(docs), err)
	return err
}

func (o *ObservedVectorStore) SearchSimilar(ctx context.Context, query pgvector.SearchQuery) ([]pgvector.ScoredDocument, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "vectorstore.search_similar", trace.WithAttributes(
		AttrVectorOp.String("search_similar"),
		AttrVectorCollection.String(o.collection),
	))
	start := time.Now()
	results, err := o.inner.SearchSimilar(ctx, query)
	o.finish(ctx, span, "search_similar", start, len(results), err)
	return results, err
}

func (o *ObservedVectorStore) DeleteDocument(ctx context.Context, id string) error {
	ctx, span := o.inst.Tracer.Start(ctx, "vectorstore.delete_document", trace.WithAttributes(
		AttrVectorOp.String("delete_document"),
		AttrVectorCollection.String(o.collection),
	))
	start := time.Now()
	err := o.inner.DeleteDocument(ctx, id)
	o.finish(ctx, span, "delete_document", start, 1, err)
	return err
}
