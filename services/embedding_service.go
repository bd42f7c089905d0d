package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
)

// Embedder turns text into vectors. Ingestion and querying must share one
// implementation and configuration so both live in the same vector space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder from the shared OpenAI settings.
func NewOpenAIEmbedder(oc config.OpenAIConfig, ec config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if oc.APIKey == "" {
		return nil, errors.New("openai api key not set")
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(openAIClientConfig(oc)),
		model:      ec.Model,
		dimensions: ec.Dimensions,
	}, nil
}

func openAIClientConfig(oc config.OpenAIConfig) openai.ClientConfig {
	cfg := openai.DefaultConfig(oc.APIKey)
	if oc.BaseURL != "" {
		cfg.BaseURL = oc.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: oc.Timeout}
	return cfg
}

// Embed returns the embedding of a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request. The result is ordered like texts.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("cannot embed empty text at position %d", i)
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("openai returned unexpected embedding index %d", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("openai returned %d-dimensional embedding, want %d", len(d.Embedding), e.dimensions)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Dimension is the length of every vector this embedder returns.
func (e *OpenAIEmbedder) Dimension() int { return e.dimensions }

// Model is the embedding model name.
func (e *OpenAIEmbedder) Model() string { return e.model }
