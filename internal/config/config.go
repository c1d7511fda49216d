package config

import (
	"fmt"
	"os"
	"time"

	"github.com/verfahren/verfahren/internal/engine"
	"github.com/verfahren/verfahren/pkg/database"
	"github.com/verfahren/verfahren/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVerfahrenEnv             = "VERFAHREN_ENV"
	EnvVerfahrenShutdownTimeout = "VERFAHREN_SHUTDOWN_TIMEOUT"
	EnvVerfahrenVersion         = "VERFAHREN_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "VERFAHREN_DB_HOST",
	Port:            "VERFAHREN_DB_PORT",
	Name:            "VERFAHREN_DB_NAME",
	User:            "VERFAHREN_DB_USER",
	Password:        "VERFAHREN_DB_PASSWORD",
	SSLMode:         "VERFAHREN_DB_SSL_MODE",
	MaxOpenConns:    "VERFAHREN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VERFAHREN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VERFAHREN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VERFAHREN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "VERFAHREN_STORAGE_CONTAINER_NAME",
	ConnectionString: "VERFAHREN_STORAGE_CONNECTION_STRING",
}

var engineEnv = &engine.Env{
	APIKey:         "VERFAHREN_ENGINE_API_KEY",
	AnalysisModel:  "VERFAHREN_ENGINE_ANALYSIS_MODEL",
	EmbeddingModel: "VERFAHREN_ENGINE_EMBEDDING_MODEL",
	EmbedWorkers:   "VERFAHREN_ENGINE_EMBED_WORKERS",
}

// Config is the root configuration for the verfahren service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Engine          engine.Config   `toml:"engine"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the VERFAHREN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVerfahrenEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Engine.Merge(&overlay.Engine)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Engine.Finalize(engineEnv); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVerfahrenShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVerfahrenVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVerfahrenEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
