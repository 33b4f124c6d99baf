package embed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	vkteamsbot "github.com/vkteams-go/bot"
)

func TestHostedEmbedOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", r.Header.Get("Authorization"))
		}
		var req hostedEmbeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := hostedEmbeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{0.1, 0.2}, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	h := NewHosted("tok", "text-embed-3", srv.URL, 2)
	vecs, err := h.Embed(t.Context(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 2 {
		t.Fatalf("got %+v", vecs)
	}
}

func TestHostedEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	h := NewHosted("tok", "m", srv.URL, 2)
	_, err := h.Embed(t.Context(), []string{"x"})
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*vkteamsbot.ErrAPI)
	if !ok {
		t.Fatalf("got %T, want *vkteamsbot.ErrAPI", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", apiErr.Status)
	}
}

func TestLocalModelEmbedOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("expected no Authorization header, got %q", auth)
		}
		json.NewEncoder(w).Encode(hostedEmbeddingResponse{
			Data: []struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{{Embedding: []float32{1, 2, 3}, Index: 0}},
		})
	}))
	defer srv.Close()

	l := NewLocalModel("local-model", srv.URL, 3)
	vecs, err := l.Embed(t.Context(), []string{"hi"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 3 {
		t.Fatalf("got %+v", vecs)
	}
}

func TestValidateDimensionMatch(t *testing.T) {
	h := NewHosted("", "m", "", 1536)
	if err := ValidateDimension(h, 1536); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateDimensionMismatch(t *testing.T) {
	h := NewHosted("", "m", "", 768)
	err := ValidateDimension(h, 1536)
	if err == nil {
		t.Fatal("expected a mismatch error")
	}
	if _, ok := err.(*vkteamsbot.ErrConfig); !ok {
		t.Errorf("got %T, want *vkteamsbot.ErrConfig", err)
	}
}

func TestValidateDimensionZeroStoreSkipsCheck(t *testing.T) {
	h := NewHosted("", "m", "", 768)
	if err := ValidateDimension(h, 0); err != nil {
		t.Errorf("unexpected error when store dimension is unset: %v", err)
	}
}

func TestProviderNames(t *testing.T) {
	h := NewHosted("", "text-embed-3", "", 1536)
	if h.Name() != "hosted:text-embed-3" {
		t.Errorf("Name() = %q", h.Name())
	}
	l := NewLocalModel("nomic", "", 768)
	if l.Name() != "local:nomic" {
		t.Errorf("Name() = %q", l.Name())
	}
}
