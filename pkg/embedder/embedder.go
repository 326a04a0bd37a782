// Package embedder turns text into fixed-length vectors. Every backend is a
// langchaingo EmbedderClient wrapped by embeddings.NewEmbedder, so callers
// only ever see the embeddings.Embedder interface.
package embedder

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
)

// Embedder is the configured embedding backend
type Embedder struct {
	inner    embeddings.Embedder
	provider string
	closer   io.Closer
	logger   *logrus.Logger
}

var _ embeddings.Embedder = (*Embedder)(nil)

// New builds the backend selected by config.Provider
func New(ctx context.Context, config *Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var (
		client embeddings.EmbedderClient
		closer io.Closer
		err    error
	)

	switch config.Provider {
	case ProviderOpenAI:
		client, err = newOpenAIClient(config)
	case ProviderOllama:
		client, err = newOllamaClient(config)
	case ProviderGemini:
		var gemini *GeminiClient
		gemini, err = NewGeminiClient(ctx, config.GeminiAPIKey, config.GeminiModel)
		client, closer = gemini, gemini
	case ProviderHash:
		client = NewHashClient(config.HashDim)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s embeddings: %w", config.Provider, err)
	}

	return Wrap(client, config.Provider, config.BatchSize, closer, config.Logger)
}

// Wrap adapts any EmbedderClient into an Embedder
func Wrap(client embeddings.EmbedderClient, provider string, batchSize int, closer io.Closer, logger *logrus.Logger) (*Embedder, error) {
	inner, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	logger.WithField("provider", provider).Info("Embedding provider ready")

	return &Embedder{
		inner:    inner,
		provider: provider,
		closer:   closer,
		logger:   logger,
	}, nil
}

// Provider names the active backend
func (e *Embedder) Provider() string {
	return e.provider
}

// EmbedQuery embeds a single text
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.WithError(err).WithField("provider", e.provider).Error("Failed to embed query")
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	return vec, nil
}

// EmbedDocuments embeds texts in batches, preserving order
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vecs, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"provider": e.provider,
			"count":    len(texts),
		}).Error("Failed to embed documents")
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vecs), len(texts))
	}

	e.logger.WithFields(logrus.Fields{
		"provider": e.provider,
		"count":    len(texts),
	}).Debug("Embedded documents")

	return vecs, nil
}

// Close releases backend resources
func (e *Embedder) Close() error {
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}
