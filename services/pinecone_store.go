package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pinecone-io/go-pinecone/v2/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
	"github.com/AYushgupta4387/airtribe-hackathon/models"
)

// metadataTextKey holds the chunk text in every record's metadata.
const metadataTextKey = "text"

// pineconeIndex is the subset of *pinecone.IndexConnection used here.
type pineconeIndex interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	DescribeIndexStats(ctx context.Context) (*pinecone.DescribeIndexStatsResponse, error)
	DeleteAllVectorsInNamespace(ctx context.Context) error
	Close() error
}

// PineconeStore is a VectorIndex backed by one namespace of a Pinecone index.
type PineconeStore struct {
	index     pineconeIndex
	namespace string
}

// NewPineconeStore resolves the index host (unless configured) and opens a
// connection scoped to the namespace.
func NewPineconeStore(ctx context.Context, pc config.PineconeConfig, vc config.VectorStoreConfig) (*PineconeStore, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: pc.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	host := pc.Host
	if host == "" {
		idx, err := client.DescribeIndex(ctx, vc.Index)
		if err != nil {
			return nil, fmt.Errorf("failed to describe pinecone index %q: %w", vc.Index, err)
		}
		host = idx.Host
	}

	conn, err := client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: vc.Namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pinecone index %q: %w", vc.Index, err)
	}
	return newPineconeStore(conn, vc.Namespace), nil
}

func newPineconeStore(index pineconeIndex, namespace string) *PineconeStore {
	return &PineconeStore{index: index, namespace: namespace}
}

// Upsert implements VectorIndex.
func (s *PineconeStore) Upsert(ctx context.Context, records []models.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]*pinecone.Vector, len(records))
	for i, r := range records {
		meta, err := structpb.NewStruct(map[string]any{metadataTextKey: r.Text})
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", r.ID, err)
		}
		vectors[i] = &pinecone.Vector{Id: r.ID, Values: r.Vector, Metadata: meta}
	}

	n, err := s.index.UpsertVectors(ctx, vectors)
	if err != nil {
		return fmt.Errorf("pinecone upsert failed: %w", err)
	}
	if int(n) != len(vectors) {
		return fmt.Errorf("pinecone upserted %d of %d vectors", n, len(vectors))
	}
	return nil
}

// Query implements VectorIndex.
func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]models.SimilarityMatch, error) {
	resp, err := s.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query failed: %w", err)
	}

	matches := make([]models.SimilarityMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			return nil, errors.New("pinecone returned a match without a vector")
		}
		text := m.Vector.Metadata.GetFields()[metadataTextKey].GetStringValue()
		if text == "" {
			return nil, fmt.Errorf("pinecone match %s has no %q metadata", m.Vector.Id, metadataTextKey)
		}
		matches = append(matches, models.SimilarityMatch{
			RecordID: m.Vector.Id,
			Score:    m.Score,
			Text:     text,
		})
	}
	return matches, nil
}

// Count implements VectorIndex.
func (s *PineconeStore) Count(ctx context.Context) (int, error) {
	stats, err := s.index.DescribeIndexStats(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to describe pinecone index stats: %w", err)
	}
	ns, ok := stats.Namespaces[s.namespace]
	if !ok || ns == nil {
		return 0, nil
	}
	return int(ns.VectorCount), nil
}

// Reset implements VectorIndex. Serverless indexes reject deletes on a
// namespace that was never written, so an empty namespace is left alone.
func (s *PineconeStore) Reset(ctx context.Context) error {
	n, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := s.index.DeleteAllVectorsInNamespace(ctx); err != nil {
		return fmt.Errorf("failed to clear pinecone namespace %q: %w", s.namespace, err)
	}
	return nil
}

// Namespace implements VectorIndex.
func (s *PineconeStore) Namespace() string { return s.namespace }

// Close implements VectorIndex.
func (s *PineconeStore) Close() error { return s.index.Close() }
