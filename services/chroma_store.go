package services

import (
	"context"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
	"github.com/AYushgupta4387/airtribe-hackathon/models"
)

// namespaceAttribute tags every Chroma record with the namespace it belongs to.
const namespaceAttribute = "namespace"

// ChromaStore is a VectorIndex backed by a local Chroma server. Chroma has no
// namespaces, so each index/namespace pair gets its own collection and the
// chunk text is stored as the record's document.
type ChromaStore struct {
	client     chromago.Client
	collection chromago.Collection
	namespace  string
}

// NewChromaStore gets or creates the collection for the configured namespace.
func NewChromaStore(ctx context.Context, cc config.ChromaConfig, vc config.VectorStoreConfig) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(cc.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	name := chromaCollectionName(vc.Index, vc.Namespace)
	collection, err := client.GetOrCreateCollection(ctx, name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "RAG answer context"),
				chromago.NewStringAttribute(namespaceAttribute, vc.Namespace),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to get or create chroma collection %q: %w", name, err)
	}

	return &ChromaStore{client: client, collection: collection, namespace: vc.Namespace}, nil
}

func chromaCollectionName(index, namespace string) string {
	return index + "-" + namespace
}

// Upsert implements VectorIndex.
func (s *ChromaStore) Upsert(ctx context.Context, records []models.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]chromago.DocumentID, len(records))
	texts := make([]string, len(records))
	embs := make([]embeddings.Embedding, len(records))
	metas := make([]chromago.DocumentMetadata, len(records))
	for i, r := range records {
		ids[i] = chromago.DocumentID(r.ID)
		texts[i] = r.Text
		embs[i] = embeddings.NewEmbeddingFromFloat32(r.Vector)
		metas[i] = chromago.NewDocumentMetadata(chromago.NewStringAttribute(namespaceAttribute, s.namespace))
	}

	err := s.collection.Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert records to chromadb: %w", err)
	}
	return nil
}

// Query implements VectorIndex.
func (s *ChromaStore) Query(ctx context.Context, vector []float32, topK int) ([]models.SimilarityMatch, error) {
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	idGroups := results.GetIDGroups()
	docGroups := results.GetDocumentsGroups()
	distGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	ids := make([]string, len(idGroups[0]))
	for i, id := range idGroups[0] {
		ids[i] = string(id)
	}
	var texts []string
	if len(docGroups) > 0 {
		for _, doc := range docGroups[0] {
			texts = append(texts, doc.ContentString())
		}
	}
	var distances []float32
	if len(distGroups) > 0 {
		for _, d := range distGroups[0] {
			distances = append(distances, float32(d))
		}
	}
	return chromaMatches(ids, texts, distances)
}

// chromaMatches zips one query group into matches. Chroma reports distances
// (smaller is closer); they are mapped to a similarity in (0, 1].
func chromaMatches(ids, texts []string, distances []float32) ([]models.SimilarityMatch, error) {
	if len(texts) != len(ids) {
		return nil, fmt.Errorf("chromadb returned %d documents for %d ids", len(texts), len(ids))
	}
	matches := make([]models.SimilarityMatch, 0, len(ids))
	for i, id := range ids {
		if texts[i] == "" {
			return nil, fmt.Errorf("chromadb record %s has no document text", id)
		}
		var score float32
		if i < len(distances) {
			score = 1 / (1 + distances[i])
		}
		matches = append(matches, models.SimilarityMatch{RecordID: id, Score: score, Text: texts[i]})
	}
	return matches, nil
}

// Count implements VectorIndex.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// Reset implements VectorIndex.
func (s *ChromaStore) Reset(ctx context.Context) error {
	where := chromago.EqString(namespaceAttribute, s.namespace)
	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to clear chroma namespace %q: %w", s.namespace, err)
	}
	return nil
}

// Namespace implements VectorIndex.
func (s *ChromaStore) Namespace() string { return s.namespace }

// Close releases the client.
func (s *ChromaStore) Close() error { return s.client.Close() }
