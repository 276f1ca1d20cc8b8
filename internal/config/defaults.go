package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Repos.Dir == "" {
		cfg.Repos.Dir = "data/repos"
	}
	if cfg.Repos.UpdateIntervalHours == 0 {
		cfg.Repos.UpdateIntervalHours = 6
	}
	if cfg.Repos.Extensions == nil {
		cfg.Repos.Extensions = []string{".md", ".txt", ".rs", ".ts"}
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}
	if cfg.Embedding.Type == "" {
		cfg.Embedding.Type = "deepseek"
	}
	if cfg.Embedding.DeepSeek.Endpoint == "" {
		cfg.Embedding.DeepSeek.Endpoint = "https://api.deepseek.com/v1"
	}
	if cfg.Embedding.DeepSeek.Model == "" {
		cfg.Embedding.DeepSeek.Model = "deepseek-embedding"
	}
	if cfg.Embedding.DeepSeek.Dimensions == 0 {
		cfg.Embedding.DeepSeek.Dimensions = 1024
	}
	if cfg.Embedding.Chutes.Dimensions == 0 {
		cfg.Embedding.Chutes.Dimensions = 1024
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.Embedding.FailureThreshold == 0 {
		cfg.Embedding.FailureThreshold = 0.25
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
}
