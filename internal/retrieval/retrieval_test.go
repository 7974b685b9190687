package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/khoindq/docindex/embedding"
	"github.com/khoindq/docindex/internal/ingest"
	"github.com/khoindq/docindex/internal/store"
	"github.com/khoindq/docindex/internal/tree"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) store.Layout {
	t.Helper()
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	return l
}

func TestSearchReturnsRankedResults(t *testing.T) {
	l := setupStore(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.md"), []byte("# A\n\nrevenue figures\n"), 0o644))

	p := ingest.New(l, nil, nil)
	em := embedding.NewMockEmbeddingModel([]float64{0.1, 0.2, 0.3})
	_, err := p.IngestPath(context.Background(), src, em, false)
	require.NoError(t, err)

	svc := New(l)
	results, err := svc.Search(context.Background(), em, "revenue", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestGetTreeAndGetNode(t *testing.T) {
	l := setupStore(t)
	root := &tree.Node{ID: "n0", Title: "Document", Children: []*tree.Node{
		{ID: "n1", Title: "Intro", ContentRef: "converted/src_1/full.md"},
	}}
	require.NoError(t, tree.Save(l, tree.Tree{SourceID: "src_1", Approach: "tree_index", Root: root}))

	svc := New(l)
	loaded, err := svc.GetTree("src_1")
	require.NoError(t, err)
	require.Equal(t, "Document", loaded.Root.Title)

	n, err := svc.GetNode("src_1", "n1")
	require.NoError(t, err)
	require.Equal(t, "Intro", n.Title)

	_, err = svc.GetNode("src_1", "nX")
	require.Error(t, err)
}

func TestGetTreeServesFromCacheOnSecondCall(t *testing.T) {
	l := setupStore(t)
	root := &tree.Node{ID: "n0", Title: "Document", Children: []*tree.Node{
		{ID: "n1", Title: "Intro"},
	}}
	require.NoError(t, tree.Save(l, tree.Tree{SourceID: "src_1", Approach: "tree_index", Root: root}))

	svc := New(l)
	first, err := svc.GetTree("src_1")
	require.NoError(t, err)
	require.Equal(t, "Document", first.Root.Title)

	require.NoError(t, os.Remove(l.TreePath("src_1")))

	second, err := svc.GetTree("src_1")
	require.NoError(t, err)
	require.Equal(t, "Document", second.Root.Title)
}

func TestTreeSummaryFormatsIndentedLines(t *testing.T) {
	tr := tree.Tree{
		SourceID: "src_1",
		Root: &tree.Node{ID: "n0", Title: "Document", Children: []*tree.Node{
			{ID: "n1", Title: "Intro", Summary: "opening section", ContentRef: "converted/src_1/full.md"},
		}},
	}
	out := TreeSummary(tr)
	require.Contains(t, out, "[n0] Document")
	require.Contains(t, out, "[n1] Intro  -> converted/src_1/full.md")
	require.Contains(t, out, "opening section")
}

func TestReadNodePrettyPrintsJSONSidecar(t *testing.T) {
	l := setupStore(t)
	convDir := filepath.Join(l.ConvertedDir(), "src_1")
	require.NoError(t, os.MkdirAll(convDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(convDir, "sheet_a.json"), []byte(`{"row_count":3}`), 0o644))

	root := &tree.Node{ID: "n0", Title: "Workbook", Children: []*tree.Node{
		{ID: "n1", Title: "Sheet A", ContentRef: "converted/src_1/sheet_a.json"},
	}}
	require.NoError(t, tree.Save(l, tree.Tree{SourceID: "src_1", Approach: "schema_index", Root: root}))

	svc := New(l)
	content, err := svc.ReadNode("src_1", "n1")
	require.NoError(t, err)
	require.Contains(t, content.Content, "\"row_count\": 3")
}

func TestReadAllListsConvertedFiles(t *testing.T) {
	l := setupStore(t)
	convDir := filepath.Join(l.ConvertedDir(), "src_1")
	require.NoError(t, os.MkdirAll(convDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(convDir, "full.txt"), []byte("hello"), 0o644))

	svc := New(l)
	files, err := svc.ReadAll("src_1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "full.txt", files[0].Name)
	require.Equal(t, "hello", files[0].Content)
}

func TestReadAllMissingSourceErrors(t *testing.T) {
	l := setupStore(t)
	svc := New(l)
	_, err := svc.ReadAll("src_missing")
	require.Error(t, err)
}

