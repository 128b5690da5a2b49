package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileLog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "oklabel.log")
	log := New(file, false)
	log.Debug("hidden")
	log.Info("label printed", zap.String("module", "host"), zap.Int("amount", 2))
	log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "label printed", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "host", entry["module"])
	assert.Contains(t, entry, "timestamp")
}

func TestDebugLevel(t *testing.T) {
	file := filepath.Join(t.TempDir(), "oklabel.log")
	log := New(file, true)
	log.Debug("visible")
	log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")

	assert.NotNil(t, New("", false))
}
