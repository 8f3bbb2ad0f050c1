// Package config provides application settings loaded from environment
// variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds all application configuration.
type Settings struct {
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Session   SessionConfig
	Ingest    IngestConfig
	Server    ServerConfig
	Storage   StorageConfig
}

// LLMConfig holds model provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float32
}

// EmbeddingConfig holds embedding model configuration.
type EmbeddingConfig struct {
	Model     string
	Dimension int
}

// SearchConfig holds retrieval configuration. ResolveThreshold is the
// minimum cosine similarity for fuzzy course-name matches.
type SearchConfig struct {
	MaxResults       int
	ResolveThreshold float64
}

// SessionConfig holds conversational memory configuration.
type SessionConfig struct {
	MaxHistory int // exchanges kept per session
}

// IngestConfig holds document chunking configuration.
type IngestConfig struct {
	ChunkSize    int // characters per chunk
	ChunkOverlap int // characters carried between adjacent chunks
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// StorageConfig holds the content store location.
type StorageConfig struct {
	DBPath string
}

// New creates settings, loading values from environment variables.
// An empty provider falls back to LLM_PROVIDER, then to "anthropic".
func New(provider string) (Settings, error) {
	if provider == "" {
		provider = os.Getenv("LLM_PROVIDER")
	}
	if provider == "" {
		provider = "anthropic"
	}
	provider = strings.ToLower(provider)

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 800)
	if err != nil {
		return Settings{}, err
	}
	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0)
	if err != nil {
		return Settings{}, err
	}
	embeddingDim, err := getEnvInt("EMBEDDING_DIMENSION", 0)
	if err != nil {
		return Settings{}, err
	}
	maxResults, err := getEnvInt("SEARCH_MAX_RESULTS", 5)
	if err != nil {
		return Settings{}, err
	}
	threshold, err := getEnvFloat64("COURSE_MATCH_THRESHOLD", 0.6)
	if err != nil {
		return Settings{}, err
	}
	maxHistory, err := getEnvInt("SESSION_MAX_HISTORY", 2)
	if err != nil {
		return Settings{}, err
	}
	chunkSize, err := getEnvInt("CHUNK_SIZE", 800)
	if err != nil {
		return Settings{}, err
	}
	chunkOverlap, err := getEnvInt("CHUNK_OVERLAP", 100)
	if err != nil {
		return Settings{}, err
	}
	if chunkOverlap >= chunkSize {
		return Settings{}, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", chunkOverlap, chunkSize)
	}

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = ".coursepilot/courses.db"
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       os.Getenv("LLM_MODEL"),
			MaxTokens:   maxTokens,
			Temperature: float32(temperature),
		},
		Embedding: EmbeddingConfig{
			Model:     os.Getenv("EMBEDDING_MODEL"),
			Dimension: embeddingDim,
		},
		Search: SearchConfig{
			MaxResults:       maxResults,
			ResolveThreshold: threshold,
		},
		Session: SessionConfig{
			MaxHistory: maxHistory,
		},
		Ingest: IngestConfig{
			ChunkSize:    chunkSize,
			ChunkOverlap: chunkOverlap,
		},
		Server: ServerConfig{
			Addr: addr,
		},
		Storage: StorageConfig{
			DBPath: dbPath,
		},
	}, nil
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
