package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupRenamesKeysAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(Options{Service: "refpoolctl", Env: "test", Level: "warn"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", MaskField("passphrase", "hunter2"), MaskField("address", "abc"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "kept", entry["message"])
	require.Equal(t, "WARN", entry["severity"])
	require.Equal(t, "refpoolctl", entry["service"])
	require.Equal(t, "test", entry["env"])
	require.Equal(t, RedactedValue, entry["passphrase"])
	require.Equal(t, "abc", entry["address"])
	require.Contains(t, entry, "timestamp")
}

func TestRotatingFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refpool.log")
	logger := SetupWithOptions(Options{Service: "svc", File: path, MaxSizeMB: 1})
	logger.Info("to file")
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"to file"`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}
