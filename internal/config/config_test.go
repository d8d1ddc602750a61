package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	config := Default()

	if config.Server.Port != 3000 {
		t.Errorf("Expected port to be 3000, got %d", config.Server.Port)
	}

	if config.Server.FrontendURL != "http://localhost:5173" {
		t.Errorf("Expected frontend_url to be 'http://localhost:5173', got '%s'", config.Server.FrontendURL)
	}

	if config.Storage.Provider != ProviderMemory {
		t.Errorf("Expected storage provider to be 'memory', got '%s'", config.Storage.Provider)
	}

	if config.Storage.URLEnv != "MONGODB_URL" {
		t.Errorf("Expected storage url_env to be 'MONGODB_URL', got '%s'", config.Storage.URLEnv)
	}

	if config.RateLimit.WindowDuration() != time.Minute {
		t.Errorf("Expected rate limit window of 1m, got %s", config.RateLimit.WindowDuration())
	}

	if config.Generator.Workers <= 0 {
		t.Errorf("Expected positive worker count, got %d", config.Generator.Workers)
	}

	if config.Generator.ParallelThreshold != 5000 {
		t.Errorf("Expected parallel_threshold to be 5000, got %d", config.Generator.ParallelThreshold)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadFromViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("server.port", 8080)
	viper.Set("storage.provider", "bolt")
	viper.Set("storage.path", "tmp/store.db")
	viper.Set("rate_limit.window", "30s")

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", config.Server.Port)
	}
	if config.Storage.Provider != ProviderBolt || config.Storage.Path != "tmp/store.db" {
		t.Errorf("Unexpected storage config %+v", config.Storage)
	}
	if config.RateLimit.WindowDuration() != 30*time.Second {
		t.Errorf("Expected 30s window, got %s", config.RateLimit.WindowDuration())
	}
	if config.Server.BodyLimitMB != 10 {
		t.Errorf("Expected default body limit 10, got %d", config.Server.BodyLimitMB)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown storage":   func(c *Config) { c.Storage.Provider = "postgres" },
		"empty bolt path":   func(c *Config) { c.Storage.Provider = ProviderBolt; c.Storage.Path = "" },
		"bad port":          func(c *Config) { c.Server.Port = -1 },
		"bad window":        func(c *Config) { c.RateLimit.Window = "soon" },
		"unknown seed db":   func(c *Config) { c.Seed.Provider = "oracle" },
		"negative workers":  func(c *Config) { c.Generator.Workers = -2 },
		"negative batch":    func(c *Config) { c.Seed.BatchSize = -1 },
		"negative body cap": func(c *Config) { c.Server.BodyLimitMB = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			config := Default()
			mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestGetStorageURL(t *testing.T) {
	config := Default()
	config.Storage.URLEnv = "DATAGEN_TEST_MONGO_URL"

	t.Setenv("DATAGEN_TEST_MONGO_URL", "")
	if _, err := config.GetStorageURL(); err == nil {
		t.Error("Expected error for missing URL")
	}

	t.Setenv("DATAGEN_TEST_MONGO_URL", "mongodb://localhost:27017")
	url, err := config.GetStorageURL()
	if err != nil || url != "mongodb://localhost:27017" {
		t.Errorf("Expected URL from environment, got %q (%v)", url, err)
	}
}

func TestInitializeProject(t *testing.T) {
	tempDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	if IsInitialized() {
		t.Error("Expected project to not be initialized, but it was")
	}

	if err := InitializeProject(); err != nil {
		t.Fatalf("Failed to initialize project: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, FileName)); os.IsNotExist(err) {
		t.Errorf("Config file was not created")
	}
	for _, dir := range []string{"exports", "data"} {
		if _, err := os.Stat(filepath.Join(tempDir, dir)); os.IsNotExist(err) {
			t.Errorf("Directory %s was not created", dir)
		}
	}

	if err := InitializeProject(); err == nil {
		t.Error("Expected second initialization to fail, but it succeeded")
	}

	viper.Reset()
	defer viper.Reset()
	viper.SetConfigFile(filepath.Join(tempDir, FileName))
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read generated config: %v", err)
	}
	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if config.Storage.Provider != ProviderBolt {
		t.Errorf("Expected bolt provider in generated config, got %s", config.Storage.Provider)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Generated config is invalid: %v", err)
	}
}
