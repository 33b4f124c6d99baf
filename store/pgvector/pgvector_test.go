package pgvector

import (
	"testing"
	"time"
)

func TestSerializeEmbedding(t *testing.T) {
	got := serializeEmbedding([]float32{1, 0.5, -2})
	want := "[1,0.5,-2]"
	if got != want {
		t.Errorf("serializeEmbedding = %q, want %q", got, want)
	}
}

func TestSerializeEmbeddingEmpty(t *testing.T) {
	if got := serializeEmbedding(nil); got != "[]" {
		t.Errorf("serializeEmbedding(nil) = %q, want []", got)
	}
}

func TestAvgQueryMsZeroBeforeAnyQuery(t *testing.T) {
	s := &Store{}
	if s.AvgQueryMs() != 0 {
		t.Error("expected zero average before any recorded query")
	}
}

func TestAvgQueryMsAveragesAcrossQueries(t *testing.T) {
	s := &Store{}
	s.recordQuery(10 * time.Millisecond)
	s.recordQuery(30 * time.Millisecond)
	avg := s.AvgQueryMs()
	if avg < 19 || avg > 21 {
		t.Errorf("AvgQueryMs = %v, want ~20", avg)
	}
}

func TestWithEmbeddingDimensionVectorType(t *testing.T) {
	s := &Store{cfg: config{dimension: 1536}}
	if got := s.vectorType(); got != "vector(1536)" {
		t.Errorf("vectorType = %q, want vector(1536)", got)
	}
}

func TestVectorTypeUntyped(t *testing.T) {
	s := &Store{}
	if got := s.vectorType(); got != "vector" {
		t.Errorf("vectorType = %q, want vector", got)
	}
}
