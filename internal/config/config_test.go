package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedKnobs(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 32, cfg.HistoryDepth)
	assert.Equal(t, 100, cfg.MaxCandidates)
	assert.Equal(t, 10, cfg.DefaultFuzzyLimit)
	assert.Equal(t, 20, cfg.PreviewListCap)
	assert.Equal(t, 4096, cfg.PreviewStringCap)
	assert.True(t, cfg.GrepDefaultFlags.CaseInsensitive)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysOntoDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history_depth: 8\nlog_level: debug\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.HistoryDepth)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 100, cfg.MaxCandidates) // untouched key keeps the default
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history_depth: [this is not an int"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDocumentGrepFlagsAdapts(t *testing.T) {
	cfg := Default()
	cfg.GrepDefaultFlags = GrepFlags{CaseInsensitive: false, Multiline: true, Global: false}
	df := cfg.DocumentGrepFlags()
	assert.False(t, df.CaseInsensitive)
	assert.True(t, df.Multiline)
	assert.False(t, df.Global)
}
