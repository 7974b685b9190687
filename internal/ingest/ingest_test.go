package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/khoindq/docindex/embedding"
	"github.com/khoindq/docindex/internal/catalog"
	"github.com/khoindq/docindex/internal/store"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestFileSkipsUnsupportedType(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	src := t.TempDir()
	path := writeTestFile(t, src, "photo.png", "\x89PNG\r\n\x1a\nrest")

	p := New(l, nil, nil)
	c := catalog.New()
	res := p.IngestFile(context.Background(), path, &c)
	require.True(t, res.Skipped)
}

func TestIngestFileMarkdownBuildsCatalogAndTree(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	src := t.TempDir()
	path := writeTestFile(t, src, "notes.md", "# Title\n\nhello world\n\n## Sub\n\nmore text\n")

	p := New(l, nil, nil)
	c := catalog.New()
	res := p.IngestFile(context.Background(), path, &c)
	require.False(t, res.Skipped)
	require.Equal(t, "notes.md", res.Entry.Filename)
	require.NotZero(t, res.Nodes)
	require.Len(t, c.Sources, 1)
}

func TestIngestPathProcessesDirectoryAndBuildsVectors(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	src := t.TempDir()
	writeTestFile(t, src, "a.md", "# A\n\nalpha content\n")
	writeTestFile(t, src, "b.md", "# B\n\nbeta content\n")

	p := New(l, nil, nil)
	em := embedding.NewMockEmbeddingModel([]float64{0.1, 0.2, 0.3})
	report, err := p.IngestPath(context.Background(), src, em, false)
	require.NoError(t, err)
	require.Equal(t, 2, report.Processed)
	require.Equal(t, 2, report.Vectors)
}

func TestClassifyDetectsNewChangedUnchanged(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	src := t.TempDir()
	path := writeTestFile(t, src, "a.md", "# A\n\nv1\n")

	c := catalog.New()
	c.Add(catalog.Entry{ID: "src_1", OriginalPath: path, Filename: "a.md"})

	classification, err := Classify(l, []string{path}, c)
	require.NoError(t, err)
	require.Len(t, classification.New, 1)

	require.NoError(t, UpdateHashIndex(l, []string{path}))
	classification, err = Classify(l, []string{path}, c)
	require.NoError(t, err)
	require.Empty(t, classification.New)
	require.Empty(t, classification.Changed)
	require.Equal(t, []string{"src_1"}, classification.UnchangedIDs)

	require.NoError(t, os.WriteFile(path, []byte("# A\n\nv2\n"), 0o644))
	classification, err = Classify(l, []string{path}, c)
	require.NoError(t, err)
	require.Len(t, classification.Changed, 1)
}

func TestIngestIncrementalSkipsUnchangedOnSecondRun(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	src := t.TempDir()
	writeTestFile(t, src, "a.md", "# A\n\nalpha\n")

	p := New(l, nil, nil)
	first, err := p.IngestIncremental(context.Background(), src, nil, true)
	require.NoError(t, err)
	require.Equal(t, 1, first.Processed)

	second, err := p.IngestIncremental(context.Background(), src, nil, true)
	require.NoError(t, err)
	require.Equal(t, 0, second.Processed)
	require.Equal(t, 1, second.Skipped)
}

func TestLinkSourcesScoresRelatedDocuments(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)

	c := catalog.New()
	c.Add(catalog.Entry{ID: "src_1", Filename: "a.md", Summary: "quarterly revenue report finance numbers", Tags: []string{"finance"}})
	c.Add(catalog.Entry{ID: "src_2", Filename: "b.md", Summary: "quarterly revenue summary finance details", Tags: []string{"finance"}})
	c.Add(catalog.Entry{ID: "src_3", Filename: "c.md", Summary: "unrelated cooking recipe instructions", Tags: []string{"recipes"}})
	require.NoError(t, catalog.Save(l, c, "2026-07-30T00:00:00Z"))

	p := New(l, nil, nil)
	require.NoError(t, p.LinkSources(context.Background(), nil, 0.05, 5))

	loaded, err := catalog.Load(l)
	require.NoError(t, err)
	e, ok := loaded.Find("src_1")
	require.True(t, ok)
	require.NotEmpty(t, e.Related)
	require.Equal(t, "src_2", e.Related[0].ID)
}
