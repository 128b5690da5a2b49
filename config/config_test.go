package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	cfg := Defaults()
	err := cfg.Merge(map[string]string{
		"apiBaseUrl":  "https://labels.example.com/api/",
		"username":    "alice",
		"password":    "secret",
		"printOutput": "HTML",
		"debug":       "true",
		"settleDelay": "50ms",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://labels.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, OutputHTML, cfg.PrintOutput)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 50*time.Millisecond, cfg.SettleDelay)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Minute, cfg.ImageCacheTTL)
	assert.Equal(t, ":3000", cfg.ListenAddr)
}

func TestMergeErrors(t *testing.T) {
	for _, options := range []map[string]string{
		{"printOutput": "postscript"},
		{"debug": "maybe"},
		{"imageTimeout": "soon"},
		{"printPageUrl": "./print-label.html"},
	} {
		cfg := Defaults()
		assert.Error(t, cfg.Merge(options), "%v", options)
	}
}

func TestLoad(t *testing.T) {
	env := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(env, []byte("OKLABEL_USERNAME=bob\nOKLABEL_IMAGE_TIMEOUT=3s\n"), 0o644))
	t.Setenv("OKLABEL_API_BASE_URL", "http://localhost:8080")
	t.Setenv("OKLABEL_USERNAME", "carol")
	// registered so that t restores the environment
	t.Setenv("OKLABEL_IMAGE_TIMEOUT", "")
	os.Unsetenv("OKLABEL_IMAGE_TIMEOUT")

	cfg, err := Load(env, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	// already set variables win over the file
	assert.Equal(t, "carol", cfg.Username)
	assert.Equal(t, 3*time.Second, cfg.ImageTimeout)
	assert.Equal(t, OutputPDF, cfg.PrintOutput)
}
