package catalog

import (
	"testing"

	"github.com/khoindq/docindex/internal/store"
	"github.com/stretchr/testify/require"
)

func TestAddAppendsThenReplacesByID(t *testing.T) {
	c := New()
	c.Add(Entry{ID: "src_1", Filename: "a.pdf", Category: "document"})
	require.Len(t, c.Sources, 1)

	c.Add(Entry{ID: "src_1", Filename: "a.pdf", Category: "document", Summary: "updated"})
	require.Len(t, c.Sources, 1)
	require.Equal(t, "updated", c.Sources[0].Summary)
}

func TestFindAndFindByFilename(t *testing.T) {
	c := New()
	c.Add(Entry{ID: "src_1", Filename: "a.pdf"})

	e, ok := c.Find("src_1")
	require.True(t, ok)
	require.Equal(t, "a.pdf", e.Filename)

	_, ok = c.Find("src_missing")
	require.False(t, ok)

	e, ok = c.FindByFilename("a.pdf")
	require.True(t, ok)
	require.Equal(t, "src_1", e.ID)
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(Entry{ID: "src_1"})
	c.Add(Entry{ID: "src_2"})

	require.True(t, c.Remove("src_1"))
	require.False(t, c.Remove("src_1"))
	require.Len(t, c.Sources, 1)
	require.Equal(t, "src_2", c.Sources[0].ID)
}

func TestListFiltersByCategoryAndTag(t *testing.T) {
	c := New()
	c.Add(Entry{ID: "src_1", Category: "document", Tags: []string{"finance"}})
	c.Add(Entry{ID: "src_2", Category: "spreadsheet", Tags: []string{"finance"}})
	c.Add(Entry{ID: "src_3", Category: "document", Tags: []string{"hr"}})

	docs := c.List("document", "")
	require.Len(t, docs, 2)

	finance := c.List("", "finance")
	require.Len(t, finance, 2)

	both := c.List("document", "finance")
	require.Len(t, both, 1)
	require.Equal(t, "src_1", both[0].ID)
}

func TestSummary(t *testing.T) {
	c := New()
	c.Add(Entry{ID: "src_1", Category: "document", Type: "pdf"})
	c.Add(Entry{ID: "src_2", Category: "document", Type: "markdown"})

	s := c.Summary()
	require.Equal(t, 2, s.Total)
	require.Equal(t, 2, s.ByCategory["document"])
	require.Equal(t, 1, s.ByType["pdf"])
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)

	c := New()
	c.Add(Entry{ID: "src_1", Filename: "a.pdf"})
	require.NoError(t, Save(l, c, "2026-07-30T00:00:00Z"))

	loaded, err := Load(l)
	require.NoError(t, err)
	require.Len(t, loaded.Sources, 1)
	require.Equal(t, "2026-07-30T00:00:00Z", loaded.LastUpdated)
}

func TestNewCatalogVersionIsDottedString(t *testing.T) {
	c := New()
	require.Equal(t, "1.0", c.Version)
}

func TestLoadMissingReturnsEmptyCatalog(t *testing.T) {
	l := store.NewLayout(t.TempDir())
	c, err := Load(l)
	require.NoError(t, err)
	require.Empty(t, c.Sources)
}
