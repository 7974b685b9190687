package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBootstrapCreatesLayout(t *testing.T) {
	root := t.TempDir()
	l, err := Bootstrap(root)
	require.NoError(t, err)

	for _, dir := range []string{l.InboxDir(), l.ConvertedDir(), l.TreeIndexDir(), l.VectorStoreDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
	require.FileExists(t, l.ConfigPath())
}

func TestBootstrapIsIdempotent(t *testing.T) {
	root := t.TempDir()
	l, err := Bootstrap(root)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.LLM.Provider = "openai"
	require.NoError(t, SaveConfig(l, cfg))

	_, err = Bootstrap(root)
	require.NoError(t, err)

	loaded, err := LoadConfig(l)
	require.NoError(t, err)
	require.Equal(t, "openai", loaded.LLM.Provider)
}

func TestLoadConfigAcceptsLegacyOAuthKey(t *testing.T) {
	root := t.TempDir()
	l := NewLayout(root)
	require.NoError(t, os.MkdirAll(root, 0o755))

	raw := `{"oauth": {"provider": "anthropic", "model": "claude-3-5-sonnet-20241022"}, "ingest": {"max_sample_chars": 2000, "max_pages_sample": 2, "auto_link": true, "min_link_similarity": 0.3, "max_links_per_source": 5}}`
	require.NoError(t, os.WriteFile(l.ConfigPath(), []byte(raw), 0o644))

	cfg, err := LoadConfig(l)
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.LLM.Provider)
	require.Equal(t, "claude-3-5-sonnet-20241022", cfg.LLM.Model)
	require.True(t, cfg.Ingest.AutoLink)
}

func TestLoadConfigMissingReturnsDefault(t *testing.T) {
	l := NewLayout(t.TempDir())
	cfg, err := LoadConfig(l)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestAtomicWriteJSONLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, AtomicWriteJSON(path, map[string]int{"a": 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "doc.json", entries[0].Name())

	var decoded map[string]int
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 1, decoded["a"])
}
