package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/AYushgupta4387/airtribe-hackathon/models"
)

// IndexingOptions tune an ingestion run.
type IndexingOptions struct {
	// EmbedBatchSize is the number of chunks sent per embeddings request.
	// 1 embeds chunk by chunk.
	EmbedBatchSize int
	// UpsertBatchSize caps the records sent per upsert request.
	UpsertBatchSize int
	// Reset clears the namespace before upserting so records from a longer,
	// older source do not survive.
	Reset bool
	// Debounce is how long Watch waits for writes to settle.
	Debounce time.Duration
}

// IndexingService populates the vector index from a single source text.
// It runs offline, never inside the query server.
type IndexingService struct {
	chunker  *LineChunker
	embedder Embedder
	index    VectorIndex
	opts     IndexingOptions
	log      zerolog.Logger
}

// NewIndexingService creates an indexing service.
func NewIndexingService(chunker *LineChunker, embedder Embedder, index VectorIndex, opts IndexingOptions, logger zerolog.Logger) *IndexingService {
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = 1
	}
	if opts.UpsertBatchSize <= 0 {
		opts.UpsertBatchSize = 100
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &IndexingService{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		opts:     opts,
		log:      logger.With().Str("component", "INDEXER").Logger(),
	}
}

// RecordID is the deterministic id of the chunk at position index, so a
// re-run over the same source overwrites instead of duplicating.
func RecordID(index int) string {
	return fmt.Sprintf("vec_%d", index)
}

// IngestFile loads path and ingests its text.
func (s *IndexingService) IngestFile(ctx context.Context, path string) (*models.IngestReport, error) {
	text, err := LoadSourceText(path)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, path, text)
}

// Ingest chunks text, embeds every chunk and upserts one record per chunk.
// Every embedding is computed before the first upsert, so an embedding
// failure leaves the index untouched.
func (s *IndexingService) Ingest(ctx context.Context, source, text string) (*models.IngestReport, error) {
	start := time.Now()

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, source)
	}
	s.log.Info().Str("source", source).Int("chunks", len(chunks)).Int("chunk_size", s.chunker.Size()).Msg("split source into chunks")

	records := make([]models.IndexRecord, 0, len(chunks))
	for from := 0; from < len(chunks); from += s.opts.EmbedBatchSize {
		to := min(from+s.opts.EmbedBatchSize, len(chunks))
		texts := make([]string, 0, to-from)
		for _, c := range chunks[from:to] {
			texts = append(texts, c.Text)
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("could not embed chunks %d-%d of %s: %w", from, to-1, source, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
		}
		for i, c := range chunks[from:to] {
			records = append(records, models.IndexRecord{
				ID:     RecordID(c.Index),
				Vector: vectors[i],
				Text:   c.Text,
			})
		}
		s.log.Debug().Int("embedded", len(records)).Int("total", len(chunks)).Msg("embedding progress")
	}

	if s.opts.Reset {
		s.log.Info().Str("namespace", s.index.Namespace()).Msg("clearing namespace before upsert")
		if err := s.index.Reset(ctx); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(records))
	for from := 0; from < len(records); from += s.opts.UpsertBatchSize {
		to := min(from+s.opts.UpsertBatchSize, len(records))
		if err := s.index.Upsert(ctx, records[from:to]); err != nil {
			return nil, fmt.Errorf("failed to upsert records %d-%d: %w", from, to-1, err)
		}
		for _, r := range records[from:to] {
			ids = append(ids, r.ID)
		}
	}

	report := &models.IngestReport{
		Source:   source,
		Chunks:   len(chunks),
		Records:  ids,
		Duration: time.Since(start),
	}
	s.log.Info().
		Str("source", source).
		Str("namespace", s.index.Namespace()).
		Int("records", len(ids)).
		Dur("duration", report.Duration).
		Msg("ingestion finished")
	return report, nil
}

// Watch re-ingests path whenever it is written or re-created, until ctx is
// cancelled. The parent directory is watched because editors often replace
// files by renaming a temporary copy over them.
func (s *IndexingService) Watch(ctx context.Context, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("could not resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	log := s.log.With().Str("component", "WATCHER").Str("source", target).Logger()
	log.Info().Msg("watching source for changes")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("context cancelled, shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Msg("source changed")
			if timer == nil {
				timer = time.NewTimer(s.opts.Debounce)
			} else {
				timer.Reset(s.opts.Debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			log.Info().Msg("re-indexing source")
			if _, err := s.IngestFile(ctx, target); err != nil {
				log.Error().Err(err).Msg("failed to re-index source")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}
