// Package vectorindex implements the Vector Index (C6): a small,
// source-level semantic index used for Tier 1 retrieval. One embedding
// per ingested source, built from its filename, doc_nature, summary,
// and tags — not per-chunk, so the index stays small and fast.
//
// Grounded on _examples/original_source/scripts/build_vectors.py
// (_build_embed_text, embed_sources, build_index, search, add_to_index)
// and on _examples/aqua777-go-llamaindex/rag/store/chromem/store.go for
// the chromem-go wiring. Unlike build_vectors.py's FAISS + standalone
// metadata.json, we let chromem-go own both the vectors and the
// metadata in its own persistent collection directory; we still keep a
// parallel metadata.json sidecar (per spec.md §3's "opaque blob, plus a
// JSON metadata index a reader can inspect without a vector library")
// so the store root stays debuggable without decoding chromem's files.
package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/khoindq/docindex/internal/catalog"
	"github.com/khoindq/docindex/internal/docerr"
	"github.com/khoindq/docindex/internal/store"
	"github.com/khoindq/docindex/embedding"
)

const collectionName = "sources"

// Metadata is the per-source record kept in metadata.json, mirroring
// build_vectors.py's embed_sources metadata dict.
type Metadata struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Summary  string   `json:"summary"`
	Type     string   `json:"type"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Result is one scored hit, mirroring build_vectors.py's search return
// shape (id/filename/summary/score/rank).
type Result struct {
	Metadata
	Score float32 `json:"score"`
	Rank  int     `json:"rank"`
}

// Index wraps a chromem-go persistent collection plus its metadata
// sidecar.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	metaPath   string
}

// Open opens (creating if absent) the vector store rooted at
// l.VectorStoreDir(), matching build_index's "create directory if
// missing" behavior.
func Open(l store.Layout) (*Index, error) {
	dir := l.VectorStoreDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating vector store dir: %v", docerr.IoFailure, err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("%w: opening vector store: %v", docerr.IoFailure, err)
	}
	// Embeddings are computed externally (embedding.EmbeddingModel) and
	// passed in explicitly, so no embedding func is registered here.
	coll, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening collection: %v", docerr.IoFailure, err)
	}
	return &Index{db: db, collection: coll, metaPath: dir + "/metadata.json"}, nil
}

// buildEmbedText mirrors build_vectors.py's _build_embed_text: title,
// doc_nature, summary, tags, type+category, joined with ". ".
func buildEmbedText(e catalog.Entry) string {
	var parts []string
	if e.Filename != "" {
		parts = append(parts, e.Filename)
	}
	if e.DocNature != "" {
		parts = append(parts, strings.ReplaceAll(e.DocNature, "_", " "))
	}
	if e.Summary != "" {
		parts = append(parts, e.Summary)
	}
	if len(e.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(e.Tags, ", "))
	}
	if e.Type != "" || e.Category != "" {
		parts = append(parts, fmt.Sprintf("Type: %s (%s)", e.Type, e.Category))
	}
	return strings.Join(parts, ". ")
}

func toMetadata(e catalog.Entry) Metadata {
	return Metadata{ID: e.ID, Filename: e.Filename, Summary: e.Summary, Type: e.Type, Category: e.Category, Tags: e.Tags}
}

// Build replaces the index's contents with embeddings for every given
// catalog entry, mirroring build_index. Existing sidecar metadata is
// overwritten.
func (idx *Index) Build(ctx context.Context, em embedding.EmbeddingModel, entries []catalog.Entry) error {
	if err := idx.clear(ctx); err != nil {
		return err
	}
	return idx.addAll(ctx, em, entries, nil)
}

// AddNew embeds and adds only the entries whose IDs are not already
// present in the sidecar metadata, mirroring add_to_index's
// skip-existing-ids behavior.
func (idx *Index) AddNew(ctx context.Context, em embedding.EmbeddingModel, entries []catalog.Entry) (int, error) {
	existing, err := idx.readMetadata()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[m.ID] = true
	}
	var fresh []catalog.Entry
	for _, e := range entries {
		if !seen[e.ID] {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := idx.addAll(ctx, em, fresh, existing); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

func (idx *Index) addAll(ctx context.Context, em embedding.EmbeddingModel, entries []catalog.Entry, existing []Metadata) error {
	docs := make([]chromem.Document, 0, len(entries))
	metas := append([]Metadata{}, existing...)

	for _, e := range entries {
		text := buildEmbedText(e)
		vec, err := em.GetTextEmbedding(ctx, text)
		if err != nil {
			return fmt.Errorf("%w: embedding source %s: %v", docerr.LlmFailure, e.ID, err)
		}
		docs = append(docs, chromem.Document{
			ID:        e.ID,
			Content:   text,
			Embedding: float64sToFloat32s(vec),
		})
		metas = append(metas, toMetadata(e))
	}

	if len(docs) > 0 {
		if err := idx.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("%w: adding documents to vector store: %v", docerr.IoFailure, err)
		}
	}
	return idx.writeMetadata(metas)
}

func (idx *Index) clear(ctx context.Context) error {
	_ = idx.db.DeleteCollection(collectionName)
	coll, err := idx.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: recreating collection: %v", docerr.IoFailure, err)
	}
	idx.collection = coll
	return idx.writeMetadata(nil)
}

// Search returns the topK nearest sources to query, ranked by
// descending cosine similarity, mirroring build_vectors.py's search.
// Returns an empty (not nil) slice if the collection is empty, matching
// search's "index files missing/empty" early return.
func (idx *Index) Search(ctx context.Context, em embedding.EmbeddingModel, query string, topK int) ([]Result, error) {
	if idx.collection.Count() == 0 {
		return []Result{}, nil
	}
	vec, err := em.GetQueryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", docerr.LlmFailure, err)
	}

	k := topK
	if n := idx.collection.Count(); k > n {
		k = n
	}
	hits, err := idx.collection.QueryEmbedding(ctx, float64sToFloat32s(vec), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vector store: %v", docerr.IoFailure, err)
	}

	metaByID := make(map[string]Metadata)
	existing, err := idx.readMetadata()
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		metaByID[m.ID] = m
	}

	out := make([]Result, 0, len(hits))
	for i, h := range hits {
		out = append(out, Result{Metadata: metaByID[h.ID], Score: h.Similarity, Rank: i + 1})
	}
	return out, nil
}

func (idx *Index) readMetadata() ([]Metadata, error) {
	data, err := os.ReadFile(idx.metaPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading metadata.json: %v", docerr.IoFailure, err)
	}
	var metas []Metadata
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, fmt.Errorf("%w: parsing metadata.json: %v", docerr.IndexCorruption, err)
	}
	return metas, nil
}

func (idx *Index) writeMetadata(metas []Metadata) error {
	if metas == nil {
		metas = []Metadata{}
	}
	return store.AtomicWriteJSON(idx.metaPath, metas)
}

func float64sToFloat32s(vs []float64) []float32 {
	out := make([]float32, len(vs))
	for i, v := range vs {
		out[i] = float32(v)
	}
	return out
}
