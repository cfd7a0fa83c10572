package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 30s
embedding:
  provider: hash
llm:
  provider: echo
chunking:
  size: 500
  overlap: 50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("request_timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("hash embedder should default to 384 dimensions, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("chunking = %+v", cfg.Chunking)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unterminated")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "./data"
  upload_dir: "./uploads"
watch:
  directories: ["./dev/sample"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data"); cfg.Storage.DataDir != want {
		t.Errorf("data_dir = %s, want %s", cfg.Storage.DataDir, want)
	}
	if want := filepath.Join(dir, "uploads"); cfg.Storage.UploadDir != want {
		t.Errorf("upload_dir = %s, want %s", cfg.Storage.UploadDir, want)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	if want := filepath.Join(dir, "dev", "sample"); cfg.Watch.Directories[0] != want {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], want)
	}
	if !cfg.Watch.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("DOCQA_SERVER_PORT", "9999")
	t.Setenv("DOCQA_VECTOR_TYPE", "qdrant")
	t.Setenv("DOCQA_VECTOR_QDRANT_URL", "http://qdrant:6334")
	t.Setenv("DOCQA_RETRIEVAL_TAG_SOURCES", "true")
	t.Setenv("DOCQA_MEMORY_HISTORY_LIMIT", "-1")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t, `
server:
  port: 8001
llm:
  api_key: sk-file
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want env override 9999", cfg.Server.Port)
	}
	if cfg.Vector.Type != "qdrant" || cfg.Vector.Qdrant.URL != "http://qdrant:6334" {
		t.Errorf("vector = %+v", cfg.Vector)
	}
	if !cfg.Retrieval.TagSources {
		t.Error("tag_sources should be true")
	}
	if cfg.Memory.HistoryLimit != -1 {
		t.Errorf("history_limit = %d", cfg.Memory.HistoryLimit)
	}
	if cfg.Embedding.APIKey != "sk-env" {
		t.Errorf("embedding key = %q, want OPENAI_API_KEY", cfg.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "sk-file" {
		t.Errorf("llm key = %q, file value should win over OPENAI_API_KEY", cfg.LLM.APIKey)
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8000 {
		t.Errorf("default server: %+v", cfg.Server)
	}
	if cfg.Embedding.Provider != "openai" || cfg.Embedding.Model != "text-embedding-3-large" || cfg.Embedding.Dimensions != 3072 {
		t.Errorf("default embedding: %+v", cfg.Embedding)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("default llm: %+v", cfg.LLM)
	}
	if cfg.Vector.Type != "local" {
		t.Errorf("default vector type: %s", cfg.Vector.Type)
	}
	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 200 {
		t.Errorf("default chunking: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 3 || cfg.Retrieval.TagSources {
		t.Errorf("default retrieval: %+v", cfg.Retrieval)
	}
	if cfg.Memory.HistoryLimit != 5 {
		t.Errorf("default history limit: %d", cfg.Memory.HistoryLimit)
	}
	if cfg.Watch.Recursive != nil {
		t.Error("recursive should stay unset without directories")
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad embedding provider", func(c *Config) { c.Embedding.Provider = "word2vec" }},
		{"bad llm provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"bad vector type", func(c *Config) { c.Vector.Type = "faiss" }},
		{"qdrant without url", func(c *Config) { c.Vector.Type = "qdrant" }},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }},
		{"negative top k", func(c *Config) { c.Retrieval.TopK = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 8000}
	if got := s.Addr(); got != "0.0.0.0:8000" {
		t.Errorf("Addr() = %s", got)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server: ServerConfig{Host: "localhost", Port: 9090},
		LLM:    LLMConfig{Provider: "openai", APIKey: "sk-secret"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("api keys must not be written")
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if cfg.LLM.APIKey != "sk-secret" {
		t.Error("Save must not modify its argument")
	}
}
