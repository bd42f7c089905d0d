package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
openai:
  api_key: sk-test
pinecone:
  api_key: pc-test
ingest:
  source: ./docs.txt
  chunk_size: 20
`

func TestLoadConfigAppliesOverrides(t *testing.T) {
	cfg, err := loadConfig(options{
		configPath: writeConfig(t, validConfig),
		source:     "./redux-data.txt",
		chunkSize:  50,
	})
	require.NoError(t, err)
	assert.Equal(t, "./redux-data.txt", cfg.Ingest.Source)
	assert.Equal(t, 50, cfg.Ingest.ChunkSize)
}

func TestLoadConfigKeepsFileValuesWithoutFlags(t *testing.T) {
	cfg, err := loadConfig(options{configPath: writeConfig(t, validConfig)})
	require.NoError(t, err)
	assert.Equal(t, "./docs.txt", cfg.Ingest.Source)
	assert.Equal(t, 20, cfg.Ingest.ChunkSize)
}

func TestRunRejectsInvalidChunkSize(t *testing.T) {
	err := run(context.Background(), options{
		configPath: writeConfig(t, validConfig),
		chunkSize:  -3,
	})
	assert.ErrorContains(t, err, "invalid configuration")
	assert.ErrorContains(t, err, "invalid chunk size")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	err := run(context.Background(), options{configPath: writeConfig(t, "server:\n  port: -1\n")})
	assert.ErrorContains(t, err, "invalid server port")
}
