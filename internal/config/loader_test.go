package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRPC       = "wss://testnet-rpc.monad.xyz"
	testLaunchpad = "0x1111111111111111111111111111111111111111"
	testFarm      = "0x2222222222222222222222222222222222222222"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
rpc_url: `+testRPC+`
contracts:
  launchpad: "`+testLaunchpad+`"
store:
  project_id: cthucoin-test
watch:
  poll_interval: 5s
  chunk_size: 100
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, testRPC, cfg.RPCURL)
	assert.Equal(t, testLaunchpad, cfg.Contracts.Launchpad)
	assert.Empty(t, cfg.Contracts.Farm)
	assert.Equal(t, 5*time.Second, cfg.Watch.PollInterval.Duration)
	assert.Equal(t, uint64(100), cfg.Watch.ChunkSize)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
rpc_url = "`+testRPC+`"

[contracts]
farm = "`+testFarm+`"

[store]
project_id = "cthucoin-test"

[retry]
max_attempts = 3
initial_backoff = "500ms"
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, testFarm, cfg.Contracts.Farm)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialBackoff.Duration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
rpc_url: http://file-wins.example
store:
  project_id: from-file
`)

	t.Setenv("RPC_URL", testRPC)
	t.Setenv("FIRESTORE_PROJECT_ID", "from-env")
	t.Setenv("FARM_ADDRESS", testFarm)
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, testRPC, cfg.RPCURL)
	assert.Equal(t, "from-env", cfg.Store.ProjectID)
	assert.Equal(t, testFarm, cfg.Contracts.Farm)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("RPC_URL", testRPC)
	t.Setenv("FIRESTORE_PROJECT_ID", "cthucoin-test")

	cfg, err := Load("", "")
	require.NoError(t, err)

	// defaults applied
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Watch.PollInterval.Duration)
	assert.Equal(t, uint64(5000), cfg.Watch.ChunkSize)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, ":9090", cfg.Metrics.ListenAddress)
	assert.False(t, cfg.Checkpoint.Enabled())
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := writeFile(t, "test.env", `
RPC_URL=`+testRPC+`
FIRESTORE_PROJECT_ID=cthucoin-test
LAUNCHPAD_ADDRESS=`+testLaunchpad+`
CHECKPOINT_DB_PATH=/tmp/checkpoints.db
`)

	// godotenv.Load sets these in the process environment and does not
	// clean up; register restoration so later tests see a pristine env.
	for _, key := range []string{"RPC_URL", "FIRESTORE_PROJECT_ID", "LAUNCHPAD_ADDRESS", "CHECKPOINT_DB_PATH"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load("", envPath)
	require.NoError(t, err)

	assert.Equal(t, testLaunchpad, cfg.Contracts.Launchpad)
	assert.True(t, cfg.Checkpoint.Enabled())
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing rpc url",
			env:  map[string]string{"FIRESTORE_PROJECT_ID": "p"},
		},
		{
			name: "missing project id",
			env:  map[string]string{"RPC_URL": testRPC},
		},
		{
			name: "bad contract address",
			env: map[string]string{
				"RPC_URL":              testRPC,
				"FIRESTORE_PROJECT_ID": "p",
				"LAUNCHPAD_ADDRESS":    "not-an-address",
			},
		},
		{
			name: "bad log level",
			env: map[string]string{
				"RPC_URL":              testRPC,
				"FIRESTORE_PROJECT_ID": "p",
				"LOG_LEVEL":            "whisper",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", "")
			require.Error(t, err)
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "config.ini", "rpc_url=x")
	_, err := Load(path, "")
	require.Error(t, err)
}
