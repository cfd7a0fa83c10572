package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. DOCQA_SERVER_PORT or
// DOCQA_VECTOR_QDRANT_URL.
const EnvPrefix = "DOCQA"

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides cfg with DOCQA_* environment variables. Unset variables leave
// the current values alone. OPENAI_API_KEY fills any empty OpenAI key.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = key
		}
	}
	return nil
}
