package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		"empty defaults to info": {in: "", want: zapcore.InfoLevel},
		"debug":                  {in: "debug", want: zapcore.DebugLevel},
		"warning alias":          {in: " WARNING ", want: zapcore.WarnLevel},
		"error":                  {in: "error", want: zapcore.ErrorLevel},
		"garbage":                {in: "loud", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseLevel(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewLoggerWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cart.log")

	logger, err := NewLogger(Options{Service: "cart", Env: "test", Level: "debug", LogFile: path})
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	assert.FileExists(t, path)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
