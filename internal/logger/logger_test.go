package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		development bool
		wantErr     bool
	}{
		{
			name:        "debug level production",
			level:       "debug",
			development: false,
		},
		{
			name:        "info level production",
			level:       "info",
			development: false,
		},
		{
			name:        "warn level development",
			level:       "warn",
			development: true,
		},
		{
			name:        "invalid level",
			level:       "eldritch",
			development: false,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.development)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, logger)
			} else {
				require.NoError(t, err)
				require.NotNil(t, logger)
				require.NotNil(t, logger.SugaredLogger)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	base := NewNopLogger()
	child := base.WithComponent("launchpad")
	require.NotNil(t, child)
	require.NotSame(t, base, child)
}

func TestGetDefaultLogger(t *testing.T) {
	first := GetDefaultLogger()
	require.NotNil(t, first)
	require.Same(t, first, GetDefaultLogger())

	replacement := NewNopLogger()
	SetDefaultLogger(replacement)
	require.Same(t, replacement, GetDefaultLogger())
}
