package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported backends.
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderPinecone = "pinecone"
	ProviderChroma   = "chroma"
)

// Config holds all configuration for the server and the ingestion command.
// It is built once at start and passed by value into constructors.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Pinecone    PineconeConfig    `mapstructure:"pinecone"`
	Chroma      ChromaConfig      `mapstructure:"chroma"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpenAIConfig is shared by the embedding client and the OpenAI answer generator.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig must be identical for ingestion and querying, otherwise
// similarity scores are meaningless.
type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// GeneratorConfig selects the chat model that writes answers.
type GeneratorConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

// GeminiConfig holds credentials for the Gemini generator.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// VectorStoreConfig selects the vector index backend.
type VectorStoreConfig struct {
	Provider  string `mapstructure:"provider"`
	Index     string `mapstructure:"index"`
	Namespace string `mapstructure:"namespace"`
}

// PineconeConfig holds Pinecone connection details.
type PineconeConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Host skips the DescribeIndex lookup when set.
	Host string `mapstructure:"host"`
}

// ChromaConfig holds Chroma connection details.
type ChromaConfig struct {
	URL string `mapstructure:"url"`
}

// IngestConfig controls the offline ingestion run.
type IngestConfig struct {
	Source          string `mapstructure:"source"`
	ChunkSize       int    `mapstructure:"chunk_size"`
	UpsertBatchSize int    `mapstructure:"upsert_batch_size"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env (if present), the optional config file and the environment.
// An empty path means defaults plus environment only.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.timeout", "60s")

	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 1024)
	v.SetDefault("embedding.batch_size", 16)

	v.SetDefault("generator.provider", ProviderOpenAI)
	v.SetDefault("generator.model", "gpt-3.5-turbo")
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("vector_store.provider", ProviderPinecone)
	v.SetDefault("vector_store.index", "redux-data")
	v.SetDefault("vector_store.namespace", "redux")
	v.SetDefault("pinecone.api_key", "")
	v.SetDefault("pinecone.host", "")
	v.SetDefault("chroma.url", "http://localhost:8000")

	v.SetDefault("ingest.source", "./redux-data.txt")
	v.SetDefault("ingest.chunk_size", 50)
	v.SetDefault("ingest.upsert_batch_size", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// bindEnv maps nested keys to SECTION_KEY variables. The legacy camelCase
// secret names from existing .env files are still honoured.
func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY", "openAIKey")
	_ = v.BindEnv("pinecone.api_key", "PINECONE_API_KEY", "pineconeAPIKey")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
}

// Validate checks the settings both binaries rely on.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model cannot be empty")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("invalid embedding batch size: %d", c.Embedding.BatchSize)
	}
	if c.OpenAI.APIKey == "" {
		return errors.New("openai api key is required (OPENAI_API_KEY)")
	}

	switch c.Generator.Provider {
	case ProviderOpenAI:
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("gemini api key is required (GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown generator provider: %q", c.Generator.Provider)
	}
	if c.Generator.Model == "" {
		return errors.New("generator model cannot be empty")
	}

	if c.VectorStore.Index == "" || c.VectorStore.Namespace == "" {
		return errors.New("vector store index and namespace are required")
	}
	switch c.VectorStore.Provider {
	case ProviderPinecone:
		if c.Pinecone.APIKey == "" {
			return errors.New("pinecone api key is required (PINECONE_API_KEY)")
		}
	case ProviderChroma:
		if c.Chroma.URL == "" {
			return errors.New("chroma url is required")
		}
	default:
		return fmt.Errorf("unknown vector store provider: %q", c.VectorStore.Provider)
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk size: %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.UpsertBatchSize <= 0 {
		return fmt.Errorf("invalid upsert batch size: %d", c.Ingest.UpsertBatchSize)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
