package services

import (
	"context"
	"fmt"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
	"github.com/AYushgupta4387/airtribe-hackathon/models"
)

// VectorIndex is a namespace of an external vector database.
type VectorIndex interface {
	// Upsert stores records, overwriting any with the same id.
	Upsert(ctx context.Context, records []models.IndexRecord) error
	// Query returns up to topK nearest neighbours with their text metadata,
	// best first. Raw vector values are not requested.
	Query(ctx context.Context, vector []float32, topK int) ([]models.SimilarityMatch, error)
	// Count reports how many records the namespace holds.
	Count(ctx context.Context) (int, error)
	// Reset removes every record in the namespace.
	Reset(ctx context.Context) error
	Namespace() string
	Close() error
}

// NewVectorIndex connects to the backend selected by cfg.VectorStore.Provider.
func NewVectorIndex(ctx context.Context, cfg config.Config) (VectorIndex, error) {
	switch cfg.VectorStore.Provider {
	case config.ProviderPinecone:
		return NewPineconeStore(ctx, cfg.Pinecone, cfg.VectorStore)
	case config.ProviderChroma:
		return NewChromaStore(ctx, cfg.Chroma, cfg.VectorStore)
	default:
		return nil, fmt.Errorf("unknown vector store provider: %q", cfg.VectorStore.Provider)
	}
}
