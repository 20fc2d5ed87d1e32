package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration from an optional config file plus the
// process environment. Environment variables always win over file values,
// mirroring how the service has historically been deployed (env-only).
//
// When envFile is non-empty it is loaded into the environment first; a
// plain ".env" in the working directory is picked up when present.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		// best effort, same as the Node service's dotenv.config()
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if path != "" {
		loaded, err := loadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnv(cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a file, auto-detecting the format
// by extension. Supported formats: .yaml, .yml, .json, .toml
func loadFromFile(path string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".json":
		return loadJSON(path)
	case ".toml":
		return loadTOML(path)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return &cfg, nil
}

func loadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return &cfg, nil
}

func loadTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return &cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	setIfPresent := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setIfPresent("RPC_URL", &cfg.RPCURL)
	setIfPresent("LAUNCHPAD_ADDRESS", &cfg.Contracts.Launchpad)
	setIfPresent("LEADERBOARD_ADDRESS", &cfg.Contracts.Leaderboard)
	setIfPresent("FARM_ADDRESS", &cfg.Contracts.Farm)
	setIfPresent("FIRESTORE_PROJECT_ID", &cfg.Store.ProjectID)
	setIfPresent("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Store.CredentialsFile)
	setIfPresent("CHECKPOINT_DB_PATH", &cfg.Checkpoint.Path)
	setIfPresent("LOG_LEVEL", &cfg.Logging.Level)
	setIfPresent("METRICS_LISTEN_ADDRESS", &cfg.Metrics.ListenAddress)

	if v, ok := os.LookupEnv("METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}
