package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AYushgupta4387/airtribe-hackathon/models"
)

// retrievalTopK is fixed: only the single nearest chunk is used as context.
const retrievalTopK = 1

// RAGService answers questions with retrieval-augmented generation.
type RAGService interface {
	Answer(ctx context.Context, question string) (*models.QueryResponse, error)
	IndexStats(ctx context.Context) (*models.IndexStatsResponse, error)
}

// ragServiceImpl holds the collaborators of the query pipeline. It has no
// mutable state, so one instance serves all requests concurrently.
type ragServiceImpl struct {
	embedder  Embedder
	index     VectorIndex
	generator Generator
	log       zerolog.Logger
}

// NewRAGService creates the query pipeline.
func NewRAGService(embedder Embedder, index VectorIndex, generator Generator, logger zerolog.Logger) RAGService {
	return &ragServiceImpl{
		embedder:  embedder,
		index:     index,
		generator: generator,
		log:       logger.With().Str("component", "SERVICE").Logger(),
	}
}

// Answer embeds the question, retrieves the nearest chunk and asks the
// generator to answer from it. Errors wrap ErrInvalidInput,
// ErrRetrievalFailure, ErrNoContextFound or ErrGenerationFailure.
func (r *ragServiceImpl) Answer(ctx context.Context, question string) (*models.QueryResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrInvalidInput
	}
	r.log.Debug().Str("question", question).Msg("answering question")

	match, err := r.retrieveContext(ctx, question)
	if err != nil {
		return nil, err
	}

	prompt, err := BuildAnswerPrompt(match.Text, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailure, err)
	}
	answer, err := r.generator.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailure, err)
	}
	if answer == "" {
		return nil, fmt.Errorf("%w: model returned an empty answer", ErrGenerationFailure)
	}

	return &models.QueryResponse{Question: question, Response: answer}, nil
}

// retrieveContext returns the single best match for question. Ties are
// resolved by the order the index returns.
func (r *ragServiceImpl) retrieveContext(ctx context.Context, question string) (models.SimilarityMatch, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return models.SimilarityMatch{}, fmt.Errorf("%w: failed to embed question: %v", ErrRetrievalFailure, err)
	}

	matches, err := r.index.Query(ctx, vector, retrievalTopK)
	if err != nil {
		return models.SimilarityMatch{}, fmt.Errorf("%w: %v", ErrRetrievalFailure, err)
	}
	if len(matches) == 0 {
		return models.SimilarityMatch{}, ErrNoContextFound
	}

	top := matches[0]
	if top.Text == "" {
		return models.SimilarityMatch{}, fmt.Errorf("%w: match %s has no text", ErrRetrievalFailure, top.RecordID)
	}
	r.log.Debug().Str("record_id", top.RecordID).Float32("score", top.Score).Msg("retrieved context")
	return top, nil
}

// IndexStats reports how many records the namespace holds.
func (r *ragServiceImpl) IndexStats(ctx context.Context) (*models.IndexStatsResponse, error) {
	n, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailure, err)
	}
	return &models.IndexStatsResponse{Namespace: r.index.Namespace(), Records: n}, nil
}
