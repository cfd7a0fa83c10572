// Package config provides configuration loading and structs for the docqa server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" envconfig:"DEBUG"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Vector    VectorConfig    `yaml:"vector"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Memory    MemoryConfig    `yaml:"memory"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"HOST"`
	Port           int           `yaml:"port" envconfig:"PORT"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxUploadMB    int64         `yaml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// DataDir holds the local vector index (chunks.db and vectors.bin).
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	// UploadDir receives files posted to /upload.
	UploadDir string `yaml:"upload_dir" envconfig:"UPLOAD_DIR"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" envconfig:"PROVIDER"`
	Model      string `yaml:"model" envconfig:"MODEL"`
	Dimensions int    `yaml:"dimensions" envconfig:"DIMENSIONS"`
	APIKey     string `yaml:"api_key,omitempty" envconfig:"API_KEY"`
	BaseURL    string `yaml:"base_url,omitempty" envconfig:"BASE_URL"`
	BatchSize  int    `yaml:"batch_size" envconfig:"BATCH_SIZE"`
	ModelPath  string `yaml:"model_path,omitempty" envconfig:"MODEL_PATH"`
	MaxTokens  int    `yaml:"max_tokens,omitempty" envconfig:"MAX_TOKENS"`
	CacheSize  int    `yaml:"cache_size" envconfig:"CACHE_SIZE"`
}

// LLMConfig selects the answer generator.
type LLMConfig struct {
	Provider    string  `yaml:"provider" envconfig:"PROVIDER"`
	Model       string  `yaml:"model" envconfig:"MODEL"`
	APIKey      string  `yaml:"api_key,omitempty" envconfig:"API_KEY"`
	BaseURL     string  `yaml:"base_url,omitempty" envconfig:"BASE_URL"`
	Temperature float32 `yaml:"temperature" envconfig:"TEMPERATURE"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" envconfig:"MAX_TOKENS"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	Type   string       `yaml:"type" envconfig:"TYPE"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds the Qdrant connection used when vector.type is "qdrant".
type QdrantConfig struct {
	URL        string `yaml:"url" envconfig:"URL"`
	APIKey     string `yaml:"api_key,omitempty" envconfig:"API_KEY"`
	Collection string `yaml:"collection" envconfig:"COLLECTION"`
}

// ChunkingConfig holds chunk size and overlap in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size" envconfig:"SIZE"`
	Overlap int `yaml:"overlap" envconfig:"OVERLAP"`
}

// RetrievalConfig holds context retrieval settings.
type RetrievalConfig struct {
	TopK       int  `yaml:"top_k" envconfig:"TOP_K"`
	TagSources bool `yaml:"tag_sources" envconfig:"TAG_SOURCES"`
}

// MemoryConfig holds conversation memory settings.
type MemoryConfig struct {
	// HistoryLimit is the number of turns kept per conversation. Zero means the
	// default; a negative value disables memory.
	HistoryLimit int `yaml:"history_limit" envconfig:"HISTORY_LIMIT"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string      `yaml:"directories" envconfig:"DIRECTORIES"`
	Recursive   *bool         `yaml:"recursive" envconfig:"RECURSIVE"`
	Debounce    time.Duration `yaml:"debounce" envconfig:"DEBOUNCE"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies DOCQA_* environment
// overrides and defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := finish(&cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present: defaults plus
// environment overrides. Relative paths resolve against the working directory.
func Default() (*Config, error) {
	var cfg Config
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if err := finish(&cfg, cwd); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config, configDir string) error {
	if err := ApplyEnv(cfg); err != nil {
		return err
	}
	ApplyDefaults(cfg)

	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	return nil
}

// Save writes the config to path. API keys are not written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Embedding.APIKey = ""
	out.LLM.APIKey = ""
	out.Vector.Qdrant.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if !oneOf(c.Embedding.Provider, "openai", "onnx", "hash") {
		return fmt.Errorf("embedding.provider must be openai, onnx or hash, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if !oneOf(c.LLM.Provider, "openai", "echo") {
		return fmt.Errorf("llm.provider must be openai or echo, got %q", c.LLM.Provider)
	}
	if !oneOf(c.Vector.Type, "local", "qdrant") {
		return fmt.Errorf("vector.type must be local or qdrant, got %q", c.Vector.Type)
	}
	if c.Vector.Type == "qdrant" && c.Vector.Qdrant.URL == "" {
		return fmt.Errorf("vector.qdrant.url is required for the qdrant backend")
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" is the home directory; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
