// Command ingest chunks the source document, embeds every chunk and upserts
// the vectors into the configured index. With -watch it keeps running and
// re-indexes whenever the source changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
	"github.com/AYushgupta4387/airtribe-hackathon/logging"
	"github.com/AYushgupta4387/airtribe-hackathon/services"
)

type options struct {
	configPath string
	source     string
	chunkSize  int
	reset      bool
	watch      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&opts.source, "source", "", "source document (overrides ingest.source)")
	flag.IntVar(&opts.chunkSize, "chunk-size", 0, "non-blank lines per chunk (overrides ingest.chunk_size)")
	flag.BoolVar(&opts.reset, "reset", false, "clear the namespace before upserting")
	flag.BoolVar(&opts.watch, "watch", false, "re-index whenever the source changes")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Error().Err(err).Msg("ingestion failed")
		stop()
		os.Exit(1)
	}
}

// loadConfig applies the command-line overrides on top of the loaded config.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.source != "" {
		cfg.Ingest.Source = opts.source
	}
	if opts.chunkSize != 0 {
		cfg.Ingest.ChunkSize = opts.chunkSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log)

	chunker, err := services.NewLineChunker(cfg.Ingest.ChunkSize)
	if err != nil {
		return err
	}
	embedder, err := services.NewOpenAIEmbedder(cfg.OpenAI, cfg.Embedding)
	if err != nil {
		return err
	}
	index, err := services.NewVectorIndex(ctx, *cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := index.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close vector index")
		}
	}()

	indexer := services.NewIndexingService(chunker, embedder, index, services.IndexingOptions{
		EmbedBatchSize:  cfg.Embedding.BatchSize,
		UpsertBatchSize: cfg.Ingest.UpsertBatchSize,
		Reset:           opts.reset,
	}, logger)

	report, err := indexer.IngestFile(ctx, cfg.Ingest.Source)
	if err != nil {
		return err
	}
	logger.Info().
		Str("source", report.Source).
		Int("chunks", report.Chunks).
		Strs("records", report.Records).
		Dur("duration", report.Duration).
		Msg("source indexed")

	if !opts.watch {
		return nil
	}
	return indexer.Watch(ctx, cfg.Ingest.Source)
}
