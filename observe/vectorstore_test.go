package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/vkteams-go/bot/store/pgvector"
)

type stubVectorStore struct {
	failWith error
	results  []pgvector.ScoredDocument
}

func (s *stubVectorStore) StoreDocument(ctx context.Context, doc pgvector.Document) error {
	return s.failWith
}

func (s *stubVectorStore) StoreDocuments(ctx context.Context, docs []pgvector.Document) error {
	return s.failWith
}

func (s *stubVectorStore) SearchSimilar(ctx context.Context, query pgvector.SearchQuery) ([]pgvector.ScoredDocument, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.results, nil
}

func (s *stubVectorStore) DeleteDocument(ctx context.Context, id string) error {
	return s.failWith
}

func TestWrapVectorStoreSearchSimilar(t *testing.T) {
	inst := testInstruments(t)
	want := []pgvector.ScoredDocument{
		{Document: pgvector.Document{ID: "doc1"}, Score: 0.9},
	}
	vs := &ObservedVectorStore{inner: &stubVectorStore{results: want}, inst: inst, collection: "docs"}

	got, err := vs.SearchSimilar(context.Background(), pgvector.SearchQuery{Embedding: []float32{1, 2, 3}, TopK: 5})
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(got) != 1 || got[0].ID != "doc1" {
		t.Fatalf("got %+v", got)
	}
}

func TestWrapVectorStoreSearchSimilarError(t *testing.T) {
	inst := testInstruments(t)
	want := errors.New("connection lost")
	vs := &ObservedVectorStore{inner: &stubVectorStore{failWith: want}, inst: inst, collection: "docs"}

	_, err := vs.SearchSimilar(context.Background(), pgvector.SearchQuery{Embedding: []float32{1}, TopK: 5})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestWrapVectorStoreStoreDocument(t *testing.T) {
	inst := testInstruments(t)
	vs := &ObservedVectorStore{inner: &stubVectorStore{}, inst: inst, collection: "docs"}

	if err := vs.StoreDocument(context.Background(), pgvector.Document{ID: "doc1"}); err != nil {
		t.Fatalf("StoreDocument: %v", err)
	}
}
