// Package config loads the dispatch and tool-orchestration engine's
// configuration, including $include-based file composition (loader.go).
package config

import (
	"fmt"
	"time"
)

// Strategy selects the model-routing algorithm.
type Strategy string

const (
	StrategyPercentage   Strategy = "PERCENTAGE"
	StrategyBusinessType Strategy = "BUSINESS_TYPE"
)

// Config is the full recognised configuration surface.
type Config struct {
	Strategy         Strategy          `yaml:"strategy"`
	PercentageRemote int               `yaml:"percentageRemote"`
	BusinessTypeMap  map[string]string `yaml:"businessTypeMap"`

	ContextWindow int `yaml:"contextWindow"`

	VectorMaxResults int     `yaml:"vectorMaxResults"`
	VectorMinScore   float64 `yaml:"vectorMinScore"`
	ChunkSize        int     `yaml:"chunkSize"`
	ChunkOverlap     int     `yaml:"chunkOverlap"`

	LocalModel  ModelConfig `yaml:"localModel"`
	RemoteModel ModelConfig `yaml:"remoteModel"`

	// AnthropicModel configures the optional third chat provider. Left
	// disabled unless APIKey is set: this model is never required to
	// satisfy the router's configured strategy.
	AnthropicModel ModelConfig `yaml:"anthropicModel"`

	AllowedDirectory string `yaml:"allowedDirectory"`
	AgentStepCap     int    `yaml:"agentStepCap"`

	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`

	// VectorStore configures the Qdrant-compatible nearest-neighbour search
	// backend (C2).
	VectorStore VectorStoreConfig `yaml:"vectorStore"`

	// Embeddings configures the text-to-vector client (C1).
	Embeddings EmbeddingsConfig `yaml:"embeddings"`

	// Retention configures the periodic conversation-store sweep.
	Retention RetentionConfig `yaml:"retention"`
}

// ModelConfig configures one chat model endpoint (localModel or
// remoteModel in the spec's configuration surface).
type ModelConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	APIKey    string        `yaml:"apiKey"`
	ModelName string        `yaml:"modelName"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DatabaseConfig configures the conversation store's backing database (C5).
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the HTTP server exposing the streaming endpoint
// (C9) and the conversation management endpoints.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// VectorStoreConfig configures the vector index client (C2).
type VectorStoreConfig struct {
	BaseURL    string        `yaml:"baseUrl"`
	Collection string        `yaml:"collection"`
	APIKey     string        `yaml:"apiKey"`
	Timeout    time.Duration `yaml:"timeout"`
}

// EmbeddingsConfig configures the embedding client (C1).
type EmbeddingsConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"baseUrl"`
	APIKey   string        `yaml:"apiKey"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RetentionConfig configures the periodic sweep that prunes conversations
// older than MaxAge. This is a supplemental feature, additive to C5.
type RetentionConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxAge  time.Duration `yaml:"maxAge"`
	Cron    string        `yaml:"cron"`
}

// Defaults applies the spec's stated defaults for fields left unset.
func (c *Config) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyPercentage
	}
	if c.ContextWindow == 0 {
		c.ContextWindow = 10
	}
	if c.VectorMaxResults == 0 {
		c.VectorMaxResults = 5
	}
	if c.AgentStepCap == 0 {
		c.AgentStepCap = 8
	}
	if c.LocalModel.Timeout == 0 {
		c.LocalModel.Timeout = 120 * time.Second
	}
	if c.RemoteModel.Timeout == 0 {
		c.RemoteModel.Timeout = 60 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
}

// validate enforces the configuration surface's documented ranges.
func (c *Config) validate() error {
	if c.Strategy != StrategyPercentage && c.Strategy != StrategyBusinessType {
		return fmt.Errorf("strategy must be %q or %q, got %q", StrategyPercentage, StrategyBusinessType, c.Strategy)
	}
	if c.PercentageRemote < 0 || c.PercentageRemote > 100 {
		return fmt.Errorf("percentageRemote must be in [0,100], got %d", c.PercentageRemote)
	}
	if c.VectorMinScore < 0 || c.VectorMinScore > 1 {
		return fmt.Errorf("vectorMinScore must be in [0,1], got %f", c.VectorMinScore)
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("contextWindow must be >= 0, got %d", c.ContextWindow)
	}
	if c.AgentStepCap <= 0 {
		return fmt.Errorf("agentStepCap must be > 0, got %d", c.AgentStepCap)
	}
	return nil
}

// Load reads and validates configuration from path, resolving $include
// directives and json5/yaml per file extension.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
