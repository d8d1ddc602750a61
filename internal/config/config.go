package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

const FileName = "datagen.config.json"

type Config struct {
	Version   string    `json:"version" mapstructure:"version"`
	Server    Server    `json:"server" mapstructure:"server"`
	Storage   Storage   `json:"storage" mapstructure:"storage"`
	RateLimit RateLimit `json:"rate_limit" mapstructure:"rate_limit"`
	Generator Generator `json:"generator" mapstructure:"generator"`
	Export    Export    `json:"export" mapstructure:"export"`
	Seed      Seed      `json:"seed" mapstructure:"seed"`
}

type Server struct {
	Port        int    `json:"port" mapstructure:"port"`
	FrontendURL string `json:"frontend_url" mapstructure:"frontend_url"`
	BodyLimitMB int    `json:"body_limit_mb" mapstructure:"body_limit_mb"`
}

type Storage struct {
	Provider string `json:"provider" mapstructure:"provider"`
	Path     string `json:"path,omitempty" mapstructure:"path"`
	URLEnv   string `json:"url_env,omitempty" mapstructure:"url_env"`
	Database string `json:"database,omitempty" mapstructure:"database"`
}

type RateLimit struct {
	Window      string `json:"window" mapstructure:"window"`
	RedisURLEnv string `json:"redis_url_env" mapstructure:"redis_url_env"`
}

// WindowDuration returns the limiter window, one minute when unset or invalid.
func (r RateLimit) WindowDuration() time.Duration {
	d, err := time.ParseDuration(r.Window)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

type Generator struct {
	Workers           int `json:"workers" mapstructure:"workers"`
	ParallelThreshold int `json:"parallel_threshold" mapstructure:"parallel_threshold"`
}

type Export struct {
	Path string `json:"path" mapstructure:"path"`
}

// Seed configures the SQL sink used by the seed command.
type Seed struct {
	Provider  string `json:"provider" mapstructure:"provider"`
	URLEnv    string `json:"url_env" mapstructure:"url_env"`
	BatchSize int    `json:"batch_size" mapstructure:"batch_size"`
}

const (
	ProviderMemory  = "memory"
	ProviderBolt    = "bolt"
	ProviderMongoDB = "mongodb"
)

var supportedStorage = []string{ProviderMemory, ProviderBolt, ProviderMongoDB}

var supportedSeedProviders = []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:5173"
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = 10
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = ProviderMemory
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/datagen.db"
	}
	if c.Storage.URLEnv == "" {
		c.Storage.URLEnv = "MONGODB_URL"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "datagen"
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "1m"
	}
	if c.RateLimit.RedisURLEnv == "" {
		c.RateLimit.RedisURLEnv = "REDIS_URL"
	}
	if c.Generator.Workers == 0 {
		c.Generator.Workers = runtime.NumCPU()
	}
	if c.Generator.ParallelThreshold == 0 {
		c.Generator.ParallelThreshold = 5000
	}
	if c.Export.Path == "" {
		c.Export.Path = "exports"
	}
	if c.Seed.Provider == "" {
		c.Seed.Provider = "postgresql"
	}
	if c.Seed.URLEnv == "" {
		c.Seed.URLEnv = "DATABASE_URL"
	}
	if c.Seed.BatchSize == 0 {
		c.Seed.BatchSize = 500
	}
}

func (c *Config) Validate() error {
	if !contains(supportedStorage, c.Storage.Provider) {
		return fmt.Errorf("unsupported storage provider: %s. Supported providers: %v", c.Storage.Provider, supportedStorage)
	}
	if c.Storage.Provider == ProviderBolt && c.Storage.Path == "" {
		return fmt.Errorf("storage.path cannot be empty for the bolt provider")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.BodyLimitMB < 0 {
		return fmt.Errorf("server.body_limit_mb cannot be negative")
	}
	if d, err := time.ParseDuration(c.RateLimit.Window); err != nil || d <= 0 {
		return fmt.Errorf("invalid rate_limit.window: %q", c.RateLimit.Window)
	}
	if c.Generator.Workers < 0 {
		return fmt.Errorf("generator.workers cannot be negative")
	}
	if !contains(supportedSeedProviders, c.Seed.Provider) {
		return fmt.Errorf("unsupported seed provider: %s. Supported providers: %v", c.Seed.Provider, supportedSeedProviders)
	}
	if c.Seed.BatchSize < 0 {
		return fmt.Errorf("seed.batch_size cannot be negative")
	}
	return nil
}

func (c *Config) GetStorageURL() (string, error) {
	url := os.Getenv(c.Storage.URLEnv)
	if url == "" {
		return "", fmt.Errorf("storage URL not found in environment variable %s", c.Storage.URLEnv)
	}
	return url, nil
}

// GetRedisURL returns the rate-limit store URL. An empty result means the
// limiter keeps its counters in memory.
func (c *Config) GetRedisURL() string {
	return os.Getenv(c.RateLimit.RedisURLEnv)
}

func (c *Config) GetSeedURL() (string, error) {
	url := os.Getenv(c.Seed.URLEnv)
	if url == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Seed.URLEnv)
	}
	return url, nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Export.Path}
	if c.Storage.Provider == ProviderBolt {
		dirs = append(dirs, filepath.Dir(c.Storage.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// IsInitialized reports whether a config file exists in the working directory.
func IsInitialized() bool {
	_, err := os.Stat(FileName)
	return err == nil
}

// InitializeProject writes a default config file and its directories.
func InitializeProject() error {
	if IsInitialized() {
		return fmt.Errorf("%s already exists", FileName)
	}

	cfg := Default()
	cfg.Storage.Provider = ProviderBolt
	cfg.Generator.Workers = 0

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(FileName, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return cfg.EnsureDirectories()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
