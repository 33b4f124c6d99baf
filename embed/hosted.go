package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	vkteamsbot "github.com/vkteams-go/bot"
)

// Hosted calls a hosted OpenAI-compatible embeddings endpoint
// (`POST {baseURL}/embeddings`) with bearer auth.
type Hosted struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	client    *http.Client
}

// NewHosted builds a Hosted provider. dimension is the vector length the
// caller expects back; it is not sent to the API, only validated against
// the store at startup via ValidateDimension.
func NewHosted(apiKey, model, baseURL string, dimension int) *Hosted {
	return &Hosted{apiKey: apiKey, model: model, baseURL: baseURL, dimension: dimension, client: httpClient()}
}

func (h *Hosted) Name() string  { return "hosted:" + h.model }
func (h *Hosted) Dimension() int { return h.dimension }

type hostedEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type hostedEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (h *Hosted) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(hostedEmbeddingRequest{Model: h.model, Input: texts})
	if err != nil {
		return nil, &vkteamsbot.ErrSerialization{Op: "marshal embedding request", Err: err}
	}

	url := h.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &vkteamsbot.ErrNetwork{Op: "build embedding request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &vkteamsbot.ErrNetwork{Op: "embedding request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &vkteamsbot.ErrAPI{
			Status:      resp.StatusCode,
			Description: string(body),
			RetryAfter:  vkteamsbot.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var decoded hostedEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &vkteamsbot.ErrSerialization{Op: "decode embedding response", Err: err}
	}

	out := make([][]float32, len(texts))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &vkteamsbot.ErrSerialization{Op: "decode embedding response", Err: fmt.Errorf("index %d out of range", d.Index)}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
