// Package catalog implements the Catalog (C5): the persistent registry
// of every ingested source, its detected type, its strategy, its
// converted-content location, and (optionally) its related sources.
//
// Grounded on _examples/original_source/scripts/catalog.py:
// create_catalog/load_catalog/save_catalog, find_source/
// find_source_by_filename, add_source (replace-in-place on matching ID,
// append otherwise), remove_source, list_sources, catalog_summary.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/khoindq/docindex/internal/docerr"
	"github.com/khoindq/docindex/internal/store"
)

// RelatedLink is one cross-source link, mirroring link_sources.py's
// find_related_sources result shape.
type RelatedLink struct {
	ID           string   `json:"id"`
	Filename     string   `json:"filename"`
	Score        float64  `json:"score"`
	KeywordSim   float64  `json:"keyword_sim"`
	EmbeddingSim *float64 `json:"embedding_sim,omitempty"`
}

// Entry is one source's catalog record, per spec.md §3 CatalogEntry.
type Entry struct {
	ID           string            `json:"id"`
	OriginalPath string            `json:"original_path"`
	Filename     string            `json:"filename"`
	Type         string            `json:"type"`
	Category     string            `json:"category"`
	SizeKB       int64             `json:"size_kb"`
	Strategy     string            `json:"strategy,omitempty"`
	ConvertedDir string            `json:"converted_dir,omitempty"`
	TreePath     string            `json:"tree_path,omitempty"`
	IndexedAt    string            `json:"indexed_at,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	DocNature    string            `json:"doc_nature,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Sampled      bool              `json:"sampled"`
	Related      []RelatedLink     `json:"related,omitempty"`
	Extras       map[string]string `json:"extras,omitempty"`
}

// CatalogVersion is the on-disk catalog.json schema version, matching
// catalog.py's CATALOG_VERSION literal string.
const CatalogVersion = "1.0"

// Catalog is the in-memory form of catalog.json.
type Catalog struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"last_updated,omitempty"`
	Sources     []Entry `json:"sources"`
}

// New returns an empty catalog, matching create_catalog.
func New() Catalog {
	return Catalog{Version: CatalogVersion, Sources: []Entry{}}
}

// Load reads catalog.json, returning a fresh empty Catalog if it does
// not exist yet.
func Load(l store.Layout) (Catalog, error) {
	data, err := os.ReadFile(l.CatalogPath())
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: reading catalog.json: %v", docerr.IoFailure, err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("%w: parsing catalog.json: %v", docerr.IndexCorruption, err)
	}
	return c, nil
}

// Save writes catalog.json atomically, refreshing LastUpdated. nowRFC3339
// is passed in rather than computed here so callers control the clock.
func Save(l store.Layout, c Catalog, nowRFC3339 string) error {
	c.LastUpdated = nowRFC3339
	return store.AtomicWriteJSON(l.CatalogPath(), c)
}

// Find returns the entry with the given ID.
func (c Catalog) Find(id string) (Entry, bool) {
	for _, e := range c.Sources {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// FindByFilename returns the first entry matching filename.
func (c Catalog) FindByFilename(filename string) (Entry, bool) {
	for _, e := range c.Sources {
		if e.Filename == filename {
			return e, true
		}
	}
	return Entry{}, false
}

// FindByOriginalPath returns the first entry whose original_path
// matches path, used by incremental re-ingestion to locate the stale
// entry for a changed file.
func (c Catalog) FindByOriginalPath(path string) (Entry, bool) {
	for _, e := range c.Sources {
		if e.OriginalPath == path {
			return e, true
		}
	}
	return Entry{}, false
}

// Add replaces the entry sharing entry.ID in place if present, otherwise
// appends it, matching catalog.py's add_source.
func (c *Catalog) Add(entry Entry) {
	for i, e := range c.Sources {
		if e.ID == entry.ID {
			c.Sources[i] = entry
			return
		}
	}
	c.Sources = append(c.Sources, entry)
}

// Remove deletes the entry with the given ID, reporting whether one was
// found.
func (c *Catalog) Remove(id string) bool {
	for i, e := range c.Sources {
		if e.ID == id {
			c.Sources = append(c.Sources[:i], c.Sources[i+1:]...)
			return true
		}
	}
	return false
}

// List returns sources filtered by category and tag (either may be
// empty to mean "no filter"), matching catalog.py's list_sources.
func (c Catalog) List(category, tag string) []Entry {
	var out []Entry
	for _, e := range c.Sources {
		if category != "" && e.Category != category {
			continue
		}
		if tag != "" && !containsString(e.Tags, tag) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Summary reports per-category and per-type counts, matching
// catalog.py's catalog_summary.
type SummaryStats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	ByType     map[string]int `json:"by_type"`
}

func (c Catalog) Summary() SummaryStats {
	s := SummaryStats{ByCategory: map[string]int{}, ByType: map[string]int{}}
	for _, e := range c.Sources {
		s.Total++
		s.ByCategory[e.Category]++
		s.ByType[e.Type]++
	}
	return s
}

func containsString(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

// SortedByFilename returns a copy of entries sorted by filename, useful
// for deterministic CLI output.
func SortedByFilename(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}
