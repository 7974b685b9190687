package vectorindex

import (
	"context"
	"testing"

	"github.com/khoindq/docindex/embedding"
	"github.com/khoindq/docindex/internal/catalog"
	"github.com/khoindq/docindex/internal/store"
	"github.com/stretchr/testify/require"
)

func TestBuildEmbedTextCombinesFields(t *testing.T) {
	e := catalog.Entry{
		Filename:  "q3_report.pdf",
		DocNature: "financial_report",
		Summary:   "quarterly revenue breakdown",
		Tags:      []string{"finance", "q3"},
		Type:      "pdf",
		Category:  "document",
	}
	text := buildEmbedText(e)
	require.Contains(t, text, "q3_report.pdf")
	require.Contains(t, text, "financial report")
	require.Contains(t, text, "quarterly revenue breakdown")
	require.Contains(t, text, "Tags: finance, q3")
	require.Contains(t, text, "Type: pdf (document)")
}

func TestSearchOnEmptyIndexReturnsEmptySlice(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	idx, err := Open(l)
	require.NoError(t, err)

	em := embedding.NewMockEmbeddingModel([]float64{0.1, 0.2, 0.3})
	results, err := idx.Search(context.Background(), em, "revenue", 5)
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
}

func TestBuildThenSearchRoundtrips(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	idx, err := Open(l)
	require.NoError(t, err)

	em := embedding.NewMockEmbeddingModel([]float64{0.1, 0.2, 0.3})
	entries := []catalog.Entry{
		{ID: "src_1", Filename: "a.pdf", Summary: "alpha", Type: "pdf", Category: "document"},
		{ID: "src_2", Filename: "b.xlsx", Summary: "beta", Type: "xlsx", Category: "spreadsheet"},
	}
	require.NoError(t, idx.Build(context.Background(), em, entries))

	results, err := idx.Search(context.Background(), em, "alpha", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 1, results[0].Rank)
}

func TestAddNewSkipsExistingIDs(t *testing.T) {
	l, err := store.Bootstrap(t.TempDir())
	require.NoError(t, err)
	idx, err := Open(l)
	require.NoError(t, err)

	em := embedding.NewMockEmbeddingModel([]float64{0.1, 0.2, 0.3})
	first := []catalog.Entry{{ID: "src_1", Filename: "a.pdf"}}
	require.NoError(t, idx.Build(context.Background(), em, first))

	added, err := idx.AddNew(context.Background(), em, []catalog.Entry{
		{ID: "src_1", Filename: "a.pdf"},
		{ID: "src_2", Filename: "b.pdf"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	metas, err := idx.readMetadata()
	require.NoError(t, err)
	require.Len(t, metas, 2)
}
