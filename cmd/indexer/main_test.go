package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("rpc_url: ws://localhost:8546\n"), 0o600))
	missing := filepath.Join(dir, "nope.yaml")

	tests := []struct {
		name    string
		changed bool
		path    string
		want    string
	}{
		{name: "default path exists", changed: false, path: existing, want: existing},
		{name: "default path missing is skipped", changed: false, path: missing, want: ""},
		{name: "explicit path stays mandatory", changed: true, path: missing, want: missing},
		{name: "explicit path exists", changed: true, path: existing, want: existing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveConfigPath(tt.changed, tt.path))
		})
	}
}
