package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
	"github.com/AYushgupta4387/airtribe-hackathon/controller"
	"github.com/AYushgupta4387/airtribe-hackathon/logging"
	"github.com/AYushgupta4387/airtribe-hackathon/services"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Error().Err(err).Msg("server failed")
		stop()
		os.Exit(1)
	}
}

// run serves the answer API until ctx is cancelled. Every collaborator is
// released before it returns.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.New(cfg.Log)

	embedder, err := services.NewOpenAIEmbedder(cfg.OpenAI, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	generator, err := services.NewGenerator(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s answer generator: %w", cfg.Generator.Provider, err)
	}

	index, err := services.NewVectorIndex(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s vector index: %w", cfg.VectorStore.Provider, err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close vector index")
		}
	}()

	ragService := services.NewRAGService(embedder, index, generator, logger)
	ragController := controller.NewRAGController(ragService, logger)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: controller.NewRouter(ragController, cfg.Server, logger),
	}

	logger.Info().
		Str("addr", srv.Addr).
		Str("vector_store", cfg.VectorStore.Provider).
		Str("namespace", index.Namespace()).
		Str("generator", cfg.Generator.Provider).
		Msg("server starting")
	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// serve runs srv until it fails or ctx is cancelled, then drains in-flight
// requests for at most shutdownTimeout.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info().Msg("server exited")
	return nil
}
