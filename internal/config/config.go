package config

import (
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/cthucoin/indexer/internal/common"
	"github.com/cthucoin/indexer/internal/logger"
)

// Config is the complete configuration for the indexer process.
type Config struct {
	// RPCURL is the EVM node RPC endpoint (http(s):// or ws(s)://)
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// Contracts holds the monitored contract addresses. Each address is
	// optional: a missing address disables that projector.
	Contracts ContractsConfig `yaml:"contracts" json:"contracts" toml:"contracts"`

	// Store configures the Firestore aggregate store
	Store StoreConfig `yaml:"store" json:"store" toml:"store"`

	// Checkpoint configures the local block checkpoint database (optional)
	Checkpoint CheckpointConfig `yaml:"checkpoint,omitempty" json:"checkpoint,omitempty" toml:"checkpoint,omitempty"`

	// Watch configures log delivery for non-websocket endpoints
	Watch WatchConfig `yaml:"watch,omitempty" json:"watch,omitempty" toml:"watch,omitempty"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`

	// Logging contains logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`
}

// ContractsConfig holds the three monitored contract addresses.
type ContractsConfig struct {
	Launchpad   string `yaml:"launchpad" json:"launchpad" toml:"launchpad"`
	Leaderboard string `yaml:"leaderboard" json:"leaderboard" toml:"leaderboard"`
	Farm        string `yaml:"farm" json:"farm" toml:"farm"`
}

// StoreConfig holds document store credentials.
type StoreConfig struct {
	// ProjectID is the Firestore project id
	ProjectID string `yaml:"project_id" json:"project_id" toml:"project_id"`

	// CredentialsFile is a path to a service account key file. When empty,
	// application default credentials are used.
	CredentialsFile string `yaml:"credentials_file,omitempty" json:"credentials_file,omitempty" toml:"credentials_file,omitempty"`
}

// CheckpointConfig configures the local SQLite checkpoint store.
type CheckpointConfig struct {
	// Path is the SQLite database file path. Empty disables checkpointing.
	Path string `yaml:"path,omitempty" json:"path,omitempty" toml:"path,omitempty"`
}

// Enabled reports whether checkpointing is configured.
func (c *CheckpointConfig) Enabled() bool {
	return c.Path != ""
}

// WatchConfig tunes the polling log watcher used on http(s) endpoints.
type WatchConfig struct {
	// PollInterval is how often to poll for new blocks
	PollInterval common.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// ChunkSize is the maximum block range per eth_getLogs call
	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`
}

func (w *WatchConfig) ApplyDefaults() {
	if w.PollInterval.Duration == 0 {
		w.PollInterval = common.NewDuration(2 * time.Second)
	}
	if w.ChunkSize == 0 {
		w.ChunkSize = 5000
	}
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second)
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error"
	Level string `yaml:"level" json:"level" toml:"level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`
}

func (l *LoggingConfig) ApplyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
}

func (l *LoggingConfig) Validate() error {
	if _, ok := logger.ValidLogLevels[common.ToLowerWithTrim(l.Level)]; !ok {
		return fmt.Errorf("logging.level: must be one of: debug, info, warn, error")
	}
	return nil
}

// MetricsConfig configures the optional Prometheus metrics listener.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`
	Path          string `yaml:"path" json:"path" toml:"path"`
}

func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// ApplyDefaults sets default values for all optional fields.
func (c *Config) ApplyDefaults() {
	c.Watch.ApplyDefaults()
	c.Retry.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Metrics.ApplyDefaults()
}

// Validate checks the configuration for fatal mistakes. A missing contract
// address is not an error: that projector is simply skipped at startup.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if c.Store.ProjectID == "" {
		return fmt.Errorf("store.project_id is required")
	}

	for name, addr := range map[string]string{
		"contracts.launchpad":   c.Contracts.Launchpad,
		"contracts.leaderboard": c.Contracts.Leaderboard,
		"contracts.farm":        c.Contracts.Farm,
	} {
		if addr != "" && !ethcommon.IsHexAddress(addr) {
			return fmt.Errorf("%s: %q is not a valid address", name, addr)
		}
	}

	return c.Logging.Validate()
}
