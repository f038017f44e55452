// Package config loads RegulAIte configuration from a YAML file with
// environment-variable overrides for secrets and deployment knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all RegulAIte configuration.
type Config struct {
	// LLM completion provider
	LLM LLMConfig `yaml:"llm"`

	// Query/document embeddings for the local index
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Evidence retrieval
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Web search
	Web WebConfig `yaml:"web"`

	// Answer modes and token budgets
	Modes ModesConfig `yaml:"modes"`

	// Chat persistence
	History HistoryConfig `yaml:"history"`

	// Login gate
	Auth AuthConfig `yaml:"auth"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the completion client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding engine behind the document
// index. An empty provider disables embeddings; the index falls back to
// keyword search.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // gemini or empty
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// RetrievalConfig tunes evidence gathering.
type RetrievalConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
	KHint        int    `yaml:"k_hint"`
}

// WebConfig tunes the web searcher.
type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	UserAgent string `yaml:"user_agent"`
	Timeout   string `yaml:"timeout"`
}

// ModesConfig sets the default answer mode and token budgets.
type ModesConfig struct {
	Default        string `yaml:"default"` // short, long, research, auto
	ShortBudget    int    `yaml:"short_budget"`
	LongBudget     int    `yaml:"long_budget"`
	ResearchBudget int    `yaml:"research_budget"`
	MaxBriefPairs  int    `yaml:"max_brief_pairs"`
}

// HistoryConfig configures chat persistence.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AuthConfig configures the login gate.
type AuthConfig struct {
	UserFile          string `yaml:"user_file"`
	Pepper            string `yaml:"pepper"`
	AllowSignup       bool   `yaml:"allow_signup"`
	BootstrapUser     string `yaml:"bootstrap_user"`
	BootstrapPassword string `yaml:"bootstrap_password"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the pilot defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4.1-mini",
			Timeout:  "90s",
		},
		Embedding: EmbeddingConfig{
			Provider: "gemini",
			Model:    "gemini-embedding-001",
		},
		Retrieval: RetrievalConfig{
			Enabled:      true,
			DatabasePath: "data/regulaite.db",
			KHint:        8,
		},
		Web: WebConfig{
			Enabled: false,
			Timeout: "15s",
		},
		Modes: ModesConfig{
			Default:        "long",
			ShortBudget:    900,
			LongBudget:     2600,
			ResearchBudget: 3600,
			MaxBriefPairs:  6,
		},
		History: HistoryConfig{
			DatabasePath: "data/regulaite.db",
		},
		Auth: AuthConfig{
			UserFile:    "data/users.json",
			AllowSignup: true,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Secrets are
// expected from the environment in deployments.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.LLM.Provider == "gemini" {
			c.LLM.APIKey = key
		}
		if c.Embedding.Provider == "gemini" {
			c.Embedding.APIKey = key
		}
	}
	if model := os.Getenv("RESPONSES_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("REGULAITE_LLM_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if addr := os.Getenv("REGULAITE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if pepper := os.Getenv("REGULAITE_AUTH_PEPPER"); pepper != "" {
		c.Auth.Pepper = pepper
	}
	if user := os.Getenv("REGULAITE_BOOTSTRAP_USER"); user != "" {
		c.Auth.BootstrapUser = user
	}
	if pass := os.Getenv("REGULAITE_BOOTSTRAP_PASSWORD"); pass != "" {
		c.Auth.BootstrapPassword = pass
	}
	if v := os.Getenv("REGULAITE_ALLOW_SIGNUP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Auth.AllowSignup = b
		}
	}
	if level := os.Getenv("REGULAITE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 90*time.Second)
}

// GetWebTimeout returns the web search timeout as a duration.
func (c *Config) GetWebTimeout() time.Duration {
	return parseDuration(c.Web.Timeout, 15*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown window.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.Modes.ShortBudget < 0 || c.Modes.LongBudget < 0 || c.Modes.ResearchBudget < 0 {
		return fmt.Errorf("token budgets must be non-negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	return nil
}
