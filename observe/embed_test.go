package observe

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	dim      int
	name     string
	failWith error
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Dimension() int { return s.dim }

func (s *stubProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func TestWrapEmbedProviderOK(t *testing.T) {
	inst := testInstruments(t)
	p := WrapEmbedProvider(&stubProvider{dim: 3, name: "stub"}, inst)

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if p.Name() != "stub" || p.Dimension() != 3 {
		t.Errorf("Name/Dimension passthrough broken: %q %d", p.Name(), p.Dimension())
	}
}

func TestWrapEmbedProviderError(t *testing.T) {
	inst := testInstruments(t)
	want := errors.New("rate limited")
	p := WrapEmbedProvider(&stubProvider{dim: 3, name: "stub", failWith: want}, inst)

	_, err := p.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
