// Package config provides configuration loading and structs for the toshokan server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Repos     ReposConfig     `yaml:"repos"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ReposConfig holds the external repositories to index and the sync schedule.
type ReposConfig struct {
	URLs                []string `yaml:"urls"`
	Dir                 string   `yaml:"dir"`
	UpdateIntervalHours int      `yaml:"update_interval_hours"`
	Extensions          []string `yaml:"extensions"`
}

// ChunkingConfig holds text splitting settings (in characters).
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// ProviderConfig holds endpoint and credentials for one embedding provider.
type ProviderConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Type selects the provider: "deepseek" or "chutes".
	Type     string         `yaml:"type"`
	DeepSeek ProviderConfig `yaml:"deepseek"`
	Chutes   ProviderConfig `yaml:"chutes"`
	// BatchSize bounds how many chunk texts go into one provider call.
	BatchSize  int `yaml:"batch_size"`
	MaxRetries int `yaml:"max_retries"`
	// FailureThreshold is the fraction of dropped chunks (0..1) above which
	// an embedding pass aborts the whole cycle.
	FailureThreshold float64 `yaml:"failure_threshold"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	IndexType string `yaml:"index_type"`
}

// Provider returns the active provider settings for the configured Type.
func (e *EmbeddingConfig) Provider() ProviderConfig {
	if strings.EqualFold(e.Type, "chutes") {
		return e.Chutes
	}
	return e.DeepSeek
}

// Load reads and parses the config file at path, applies defaults, expands
// the repos dir, and then applies environment overrides. A missing file is
// not an error: defaults plus environment are enough to run.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	if !filepath.IsAbs(cfg.Repos.Dir) {
		if abs, err := filepath.Abs(cfg.Repos.Dir); err == nil {
			cfg.Repos.Dir = abs
		}
	}
	return &cfg, nil
}

// applyEnv overrides config fields from the environment. These match the
// variables the service has always honored in deployment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("REPOSITORIES"); v != "" {
		urls := strings.Split(v, ",")
		cfg.Repos.URLs = cfg.Repos.URLs[:0]
		for _, u := range urls {
			if u = strings.TrimSpace(u); u != "" {
				cfg.Repos.URLs = append(cfg.Repos.URLs, u)
			}
		}
	}
	if v := os.Getenv("UPDATE_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Repos.UpdateIntervalHours = n
		}
	}
	if v := os.Getenv("CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Chunking.Size = n
		}
	}
	if v := os.Getenv("CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Chunking.Overlap = n
		}
	}
	if v := os.Getenv("EMBEDDING_TYPE"); v != "" {
		cfg.Embedding.Type = strings.ToLower(v)
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		cfg.Embedding.DeepSeek.APIKey = v
	}
	if v := os.Getenv("DEEPSEEK_API_URL"); v != "" {
		cfg.Embedding.DeepSeek.Endpoint = v
	}
	if v := os.Getenv("CHUTES_API_KEY"); v != "" {
		cfg.Embedding.Chutes.APIKey = v
	}
	if v := os.Getenv("CHUTES_API_URL"); v != "" {
		cfg.Embedding.Chutes.Endpoint = v
	}
}
