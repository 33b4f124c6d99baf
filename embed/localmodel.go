package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	vkteamsbot "github.com/vkteams-go/bot"
)

// LocalModel calls a locally-hosted embedding server (e.g. an Ollama or
// llama.cpp server exposing an /embeddings route) — same wire shape as
// Hosted, no auth header, base URL pointed at localhost by configuration.
type LocalModel struct {
	model     string
	baseURL   string
	dimension int
	client    *http.Client
}

// NewLocalModel builds a LocalModel provider pointed at baseURL (e.g.
// "http://127.0.0.1:11434/v1").
func NewLocalModel(model, baseURL string, dimension int) *LocalModel {
	return &LocalModel{model: model, baseURL: baseURL, dimension: dimension, client: httpClient()}
}

func (l *LocalModel) Name() string  { return "local:" + l.model }
func (l *LocalModel) Dimension() int { return l.dimension }

func (l *LocalModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(hostedEmbeddingRequest{Model: l.model, Input: texts})
	if err != nil {
		return nil, &vkteamsbot.ErrSerialization{Op: "marshal embedding request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, &vkteamsbot.ErrNetwork{Op: "build embedding request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &vkteamsbot.ErrNetwork{Op: "embedding request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &vkteamsbot.ErrAPI{Status: resp.StatusCode, Description: string(body)}
	}

	var decoded hostedEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &vkteamsbot.ErrSerialization{Op: "decode embedding response", Err: err}
	}

	out := make([][]float32, len(texts))
	for _, d := range decoded.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}
