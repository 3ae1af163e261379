package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	apperrors "mindweave/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Content store (SQLite)
	DatabasePath string

	// Neo4j. Leaving the URI empty disables the graph mirror entirely;
	// the rest of the application keeps working without it.
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Similarity tuning
	MinSimilarity float64 // minimum cosine similarity for an edge to exist
	NeighborLimit int     // top-K neighbors considered on incremental sync
	MaxGraphEdges int     // similarity edge cap during a full resync

	// Embeddings
	OpenAIAPIKey   string
	EmbeddingModel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabasePath:   getEnv("DATABASE_PATH", "mindweave.db"),
		Neo4jURI:       getEnv("NEO4J_URI", ""),
		Neo4jUser:      getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:  getEnv("NEO4J_PASSWORD", ""),
		MinSimilarity:  getEnvFloat("GRAPH_MIN_SIMILARITY", 0.3),
		NeighborLimit:  getEnvInt("GRAPH_NEIGHBOR_LIMIT", 50),
		MaxGraphEdges:  getEnvInt("GRAPH_MAX_EDGES", 500),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are coherent
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return apperrors.NewConfigMissingRequired("DATABASE_PATH")
	}
	if c.GraphConfigured() {
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("GRAPH_MIN_SIMILARITY must be in [0,1]")
	}
	if c.NeighborLimit < 1 {
		return fmt.Errorf("GRAPH_NEIGHBOR_LIMIT must be positive")
	}
	if c.MaxGraphEdges < 1 {
		return fmt.Errorf("GRAPH_MAX_EDGES must be positive")
	}
	return nil
}

// GraphConfigured reports whether Neo4j connection settings are present.
// When false the graph mirror runs in no-op mode.
func (c *Config) GraphConfigured() bool {
	return c.Neo4jURI != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
