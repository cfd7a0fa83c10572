package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 64
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data/index"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./data/uploads"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-embedding-3-large"
		}
		if cfg.Embedding.Dimensions == 0 {
			cfg.Embedding.Dimensions = 3072
		}
	default:
		if cfg.Embedding.Dimensions == 0 {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.Provider == "onnx" {
		if cfg.Embedding.ModelPath == "" {
			cfg.Embedding.ModelPath = "/usr/local/var/docqa/models/all-MiniLM-L6-v2.onnx"
		}
		if cfg.Embedding.MaxTokens == 0 {
			cfg.Embedding.MaxTokens = 256
		}
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o"
	}

	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "local"
	}
	if cfg.Vector.Qdrant.Collection == "" {
		cfg.Vector.Qdrant.Collection = "docqa"
	}

	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Memory.HistoryLimit == 0 {
		cfg.Memory.HistoryLimit = 5
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
