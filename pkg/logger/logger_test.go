package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartqa_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		mode    string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug mode default", "", "debug", zap.DebugLevel, false},
		{"release mode default", "", "release", zap.InfoLevel, false},
		{"explicit overrides mode", "warn", "debug", zap.WarnLevel, false},
		{"invalid", "loud", "debug", zap.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Level(config.LogConfig{Level: tt.level}, tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWritesJSONFileAndFiltersLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	var console bytes.Buffer

	l, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, "debug", &console)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("document processed", zap.Uint("document_id", 7))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "document processed", entry["msg"])
	assert.Equal(t, float64(7), entry["document_id"])

	assert.Contains(t, console.String(), "document processed")
	assert.NotContains(t, console.String(), "hidden")
}
