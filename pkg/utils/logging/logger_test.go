package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCore_LevelsPerOutput(t *testing.T) {
	var console, file bytes.Buffer
	logger := zap.New(newCore(zapcore.AddSync(&console), zapcore.AddSync(&file)))

	logger.Debug("model built", zap.Int("zones", 3))
	logger.Info("allocation complete", zap.String("zone_id", "Z1"))
	require.NoError(t, logger.Sync())

	assert.NotContains(t, console.String(), "model built")
	assert.Contains(t, console.String(), "allocation complete")

	lines := bytes.Split(bytes.TrimSpace(file.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "allocation complete", entry["msg"])
	assert.Equal(t, "Z1", entry["zone_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitLogger_CreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	logger, err := InitLogger("test", dir)
	require.NoError(t, err)
	logger.Debug("hello")
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^test_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.log$`, entries[0].Name())
}
