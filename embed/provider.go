// Package embed provides embedding-vector providers for the pgvector-backed
// document store: a hosted API provider and a local model-server provider,
// both implementing the same interface.
package embed

import (
	"context"
	"net/http"
	"strconv"
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
)

// Provider turns text into fixed-dimension embedding vectors.
type Provider interface {
	// Embed returns one vector per input string, in the same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the fixed length of every vector this provider returns.
	Dimension() int
	// Name identifies the provider for logging and stats.
	Name() string
}

// httpClient is shared sizing/timeout defaults for both providers, mirroring
// the pooled transport used by the bot's own HTTP client.
func httpClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// ValidateDimension checks a provider's declared dimension against the
// vector store's configured column width at startup, rather than letting a
// mismatch surface as an opaque insert failure.
func ValidateDimension(p Provider, storeDimension int) error {
	if storeDimension > 0 && p.Dimension() != storeDimension {
		return &vkteamsbot.ErrConfig{
			Key: "embedding_dimension",
			Message: p.Name() + " produces dimension " + strconv.Itoa(p.Dimension()) +
				", store expects " + strconv.Itoa(storeDimension),
		}
	}
	return nil
}
