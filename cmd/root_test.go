package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/receipt-normalizer/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	l, f, err := newLogger(&config.MainConfig{LogLevel: "warn"}, false)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, l.Enabled(context.Background(), slog.LevelWarn))

	l, _, err = newLogger(&config.MainConfig{LogLevel: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug), "--verbose forces debug")

	_, _, err = newLogger(&config.MainConfig{LogLevel: "loud"}, false)
	assert.Error(t, err)
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.log")
	l, f, err := newLogger(&config.MainConfig{LogLevel: "info", LogFile: path}, false)
	require.NoError(t, err)
	require.NotNil(t, f)

	l.Info("receipt processed", "file", "a.json")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "receipt processed")
	assert.Contains(t, string(data), "file=a.json")
}
