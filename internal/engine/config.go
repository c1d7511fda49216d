package engine

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds Gemini API parameters for the embedding and analysis stages.
type Config struct {
	APIKey         string `toml:"api_key"`
	AnalysisModel  string `toml:"analysis_model"`
	EmbeddingModel string `toml:"embedding_model"`
	EmbedWorkers   int    `toml:"embed_workers"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIKey         string
	AnalysisModel  string
	EmbeddingModel string
	EmbedWorkers   string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.AnalysisModel != "" {
		c.AnalysisModel = overlay.AnalysisModel
	}
	if overlay.EmbeddingModel != "" {
		c.EmbeddingModel = overlay.EmbeddingModel
	}
	if overlay.EmbedWorkers != 0 {
		c.EmbedWorkers = overlay.EmbedWorkers
	}
}

func (c *Config) loadDefaults() {
	if c.AnalysisModel == "" {
		c.AnalysisModel = "gemini-2.0-flash"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-004"
	}
	if c.EmbedWorkers == 0 {
		c.EmbedWorkers = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.AnalysisModel != "" {
		if v := os.Getenv(env.AnalysisModel); v != "" {
			c.AnalysisModel = v
		}
	}
	if env.EmbeddingModel != "" {
		if v := os.Getenv(env.EmbeddingModel); v != "" {
			c.EmbeddingModel = v
		}
	}
	if env.EmbedWorkers != "" {
		if v := os.Getenv(env.EmbedWorkers); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.EmbedWorkers = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key required")
	}
	if c.EmbedWorkers < 1 {
		return fmt.Errorf("embed_workers must be positive: %d", c.EmbedWorkers)
	}
	return nil
}
