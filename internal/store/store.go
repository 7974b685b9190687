// Package store owns the on-disk layout of a document index: the
// directory tree, config.json, and the path helpers every other
// component uses to find catalog.json, hash_index.json, tree_index/ and
// vector_store/ under a single root.
//
// Grounded on _examples/original_source/scripts/config.py (the
// dataclass hierarchy and init_config layout) and the teacher's
// cli/config.go (constant-based path helpers, default values).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/khoindq/docindex/internal/docerr"
)

const (
	inboxDir       = "inbox"
	convertedDir   = "converted"
	treeIndexDir   = "tree_index"
	vectorStoreDir = "vector_store"
	configFile     = "config.json"
	catalogFile    = "catalog.json"
	hashIndexFile  = "hash_index.json"
)

// LLMConfig describes the optional LLM/embedding collaborator. Provider
// "" or "none" means no LLM is configured; the sampler and tree builder
// fall back to their deterministic heuristics.
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	Model          string `json:"model,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// IngestSettings are the tunables original_source's IngestSettings
// dataclass exposed.
type IngestSettings struct {
	MaxSampleChars  int  `json:"max_sample_chars"`
	MaxPagesSample  int  `json:"max_pages_sample"`
	AutoLink        bool `json:"auto_link"`
	MinLinkScore    float64 `json:"min_link_similarity"`
	MaxLinksPerDoc  int  `json:"max_links_per_source"`
}

// DefaultIngestSettings mirrors original_source/scripts/config.py's
// IngestSettings defaults.
func DefaultIngestSettings() IngestSettings {
	return IngestSettings{
		MaxSampleChars: 4000,
		MaxPagesSample: 3,
		AutoLink:       false,
		MinLinkScore:   0.3,
		MaxLinksPerDoc: 5,
	}
}

// Config is the root config.json shape.
type Config struct {
	LLM    LLMConfig      `json:"llm"`
	Ingest IngestSettings `json:"ingest"`
}

// legacyConfig tolerates the older "oauth" key name some config.json
// files on disk still carry, aliasing it to LLM when "llm" is absent.
type legacyConfig struct {
	LLM    *LLMConfig      `json:"llm,omitempty"`
	OAuth  *LLMConfig      `json:"oauth,omitempty"`
	Ingest *IngestSettings `json:"ingest,omitempty"`
}

// UnmarshalJSON accepts both the current "llm" key and the legacy
// "oauth" key, preferring "llm" when both are present.
func (c *Config) UnmarshalJSON(data []byte) error {
	var lc legacyConfig
	if err := json.Unmarshal(data, &lc); err != nil {
		return err
	}
	switch {
	case lc.LLM != nil:
		c.LLM = *lc.LLM
	case lc.OAuth != nil:
		c.LLM = *lc.OAuth
	}
	if lc.Ingest != nil {
		c.Ingest = *lc.Ingest
	} else {
		c.Ingest = DefaultIngestSettings()
	}
	return nil
}

// DefaultConfig returns a config with no LLM configured and default
// ingest settings, matching a fresh init_config.
func DefaultConfig() Config {
	return Config{Ingest: DefaultIngestSettings()}
}

// Layout resolves every path under a store root.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout { return Layout{Root: root} }

func (l Layout) ConfigPath() string      { return filepath.Join(l.Root, configFile) }
func (l Layout) CatalogPath() string     { return filepath.Join(l.Root, catalogFile) }
func (l Layout) HashIndexPath() string   { return filepath.Join(l.Root, hashIndexFile) }
func (l Layout) InboxDir() string        { return filepath.Join(l.Root, inboxDir) }
func (l Layout) ConvertedDir() string    { return filepath.Join(l.Root, convertedDir) }
func (l Layout) TreeIndexDir() string    { return filepath.Join(l.Root, treeIndexDir) }
func (l Layout) VectorStoreDir() string  { return filepath.Join(l.Root, vectorStoreDir) }
func (l Layout) ConvertedPath(sourceID string) string {
	return filepath.Join(l.ConvertedDir(), sourceID)
}
func (l Layout) TreePath(sourceID string) string {
	return filepath.Join(l.TreeIndexDir(), sourceID+".json")
}

// Bootstrap creates the directory tree for a fresh store root and writes
// a default config.json if one does not already exist, mirroring
// original_source's init_config.
func Bootstrap(root string) (Layout, error) {
	l := NewLayout(root)
	for _, dir := range []string{l.Root, l.InboxDir(), l.ConvertedDir(), l.TreeIndexDir(), l.VectorStoreDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return l, fmt.Errorf("%w: creating %s: %v", docerr.IoFailure, dir, err)
		}
	}
	if _, err := os.Stat(l.ConfigPath()); os.IsNotExist(err) {
		if err := SaveConfig(l, DefaultConfig()); err != nil {
			return l, err
		}
	}
	return l, nil
}

// LoadConfig reads config.json, returning DefaultConfig if it does not
// exist.
func LoadConfig(l Layout) (Config, error) {
	data, err := os.ReadFile(l.ConfigPath())
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading config: %v", docerr.IoFailure, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing config.json: %v", docerr.IndexCorruption, err)
	}
	return cfg, nil
}

// SaveConfig writes config.json atomically (write to a temp file in the
// same directory, then rename) so a crash mid-write can never leave a
// truncated config.json behind.
func SaveConfig(l Layout, cfg Config) error {
	return atomicWriteJSON(l.ConfigPath(), cfg)
}

// atomicWriteJSON marshals v with 2-space indent and writes it via
// temp-file-then-rename. Shared by config, catalog, tree and vector
// index persistence so those JSON documents get the crash-safety
// guarantee spec.md's resource model requires; the hash index is written
// by kvstore.FileKVStore, whose persistLocked also writes a temp file
// and renames it into place.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling %s: %v", docerr.IoFailure, path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", docerr.IoFailure, path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", docerr.IoFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %v", docerr.IoFailure, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: renaming into place %s: %v", docerr.IoFailure, path, err)
	}
	return nil
}

// AtomicWriteJSON exposes the atomic-write helper to sibling packages
// (catalog, tree, vectorindex) that persist their own JSON documents
// under the same store root.
func AtomicWriteJSON(path string, v interface{}) error {
	return atomicWriteJSON(path, v)
}
