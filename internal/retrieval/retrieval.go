// Package retrieval implements the Retrieval API (C8): Tier 1 vector
// search over the catalog, and Tier 2 structural navigation of a single
// source's tree (whole tree, one node, one node's content, or every
// converted file for a source).
//
// Grounded on _examples/original_source/skills/metadatahub/search.py
// (search), deep_retrieve.py (get_tree/get_node/get_tree_summary), and
// read_source.py (read_node_content/read_file/read_all_content).
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/khoindq/docindex/embedding"
	"github.com/khoindq/docindex/internal/docerr"
	"github.com/khoindq/docindex/internal/store"
	"github.com/khoindq/docindex/internal/tree"
	"github.com/khoindq/docindex/internal/vectorindex"
	"github.com/khoindq/docindex/storage/kvstore"
)

const treeCacheCollection = "trees"

// Service wires Tier 1 and Tier 2 retrieval against a single store root.
// Loaded trees are cached in-process (via kvstore.SimpleKVStore) so a
// service held open across several retrieve/read calls for the same
// source — e.g. a long-lived MCP/HTTP front end, as opposed to the
// one-shot CLI — only parses tree.json once per source.
type Service struct {
	Layout store.Layout
	cache  *kvstore.SimpleKVStore
}

// New builds a retrieval Service rooted at l.
func New(l store.Layout) *Service {
	return &Service{Layout: l, cache: kvstore.NewSimpleKVStore()}
}

// loadTree returns a source's tree, serving it from the in-process
// cache when present and populating the cache on a cold load.
func (s *Service) loadTree(ctx context.Context, sourceID string) (tree.Tree, error) {
	if cached, err := s.cache.Get(ctx, sourceID, treeCacheCollection); err == nil && cached != nil {
		data, err := json.Marshal(cached)
		if err == nil {
			var t tree.Tree
			if err := json.Unmarshal(data, &t); err == nil {
				return t, nil
			}
		}
	}

	t, err := tree.Load(s.Layout, sourceID)
	if err != nil {
		return tree.Tree{}, err
	}

	data, err := json.Marshal(t)
	if err == nil {
		var asMap kvstore.StoredValue
		if json.Unmarshal(data, &asMap) == nil {
			_ = s.cache.Put(ctx, sourceID, asMap, treeCacheCollection)
		}
	}
	return t, nil
}

// Search runs Tier 1 vector search over the catalog, mirroring
// search.py's search(). Returns an empty slice if the index has not
// been built yet.
func (s *Service) Search(ctx context.Context, em embedding.EmbeddingModel, query string, topK int) ([]vectorindex.Result, error) {
	idx, err := vectorindex.Open(s.Layout)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, em, query, topK)
}

// GetTree loads the full tree index for a source, mirroring
// deep_retrieve.py's get_tree.
func (s *Service) GetTree(sourceID string) (tree.Tree, error) {
	return s.loadTree(context.Background(), sourceID)
}

// GetNode loads a source's tree and returns one node by ID, mirroring
// get_node.
func (s *Service) GetNode(sourceID, nodeID string) (*tree.Node, error) {
	t, err := s.loadTree(context.Background(), sourceID)
	if err != nil {
		return nil, err
	}
	n, ok := tree.Find(t.Root, nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: node %s in source %s", docerr.NotFound, nodeID, sourceID)
	}
	return n, nil
}

// TreeSummary renders an indented text summary of a tree for agent
// reasoning, mirroring deep_retrieve.py's get_tree_summary: each line
// is "[node_id] title  -> content_ref", with the node's own summary (if
// any, and not the root) printed indented beneath it.
func TreeSummary(t tree.Tree) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", t.SourceID)
	if t.Root != nil {
		fmt.Fprintf(&b, "Title: %s\n", t.Root.Title)
		fmt.Fprintf(&b, "Summary: %s\n", t.Root.Summary)
	}
	b.WriteString("\nTree Structure:\n")
	walkSummary(&b, t.Root, 0)
	return strings.TrimRight(b.String(), "\n")
}

func walkSummary(b *strings.Builder, n *tree.Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s[%s] %s", indent, n.ID, n.Title)
	if n.ContentRef != "" {
		line += "  -> " + n.ContentRef
	}
	b.WriteString(line + "\n")

	if n.Summary != "" && depth > 0 {
		summary := n.Summary
		if len(summary) > 100 {
			summary = summary[:100]
		}
		fmt.Fprintf(b, "%s     %s\n", indent, summary)
	}

	for _, c := range n.Children {
		walkSummary(b, c, depth+1)
	}
}

// NodeContent is what ReadNode returns, mirroring read_source.py's
// read_node_content dict shape.
type NodeContent struct {
	SourceID   string `json:"source_id"`
	NodeID     string `json:"node_id"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	ContentRef string `json:"content_ref,omitempty"`
	Content    string `json:"content"`
}

// ReadNode reads the content a tree node's content_ref points at,
// pretty-printing it if it is a JSON sidecar, mirroring
// read_node_content.
func (s *Service) ReadNode(sourceID, nodeID string) (NodeContent, error) {
	n, err := s.GetNode(sourceID, nodeID)
	if err != nil {
		return NodeContent{}, err
	}

	content := ""
	if n.ContentRef != "" {
		if data, err := readMaybeJSON(s.resolve(n.ContentRef)); err == nil {
			content = data
		}
	}

	return NodeContent{
		SourceID:   sourceID,
		NodeID:     nodeID,
		Title:      n.Title,
		Summary:    n.Summary,
		ContentRef: n.ContentRef,
		Content:    content,
	}, nil
}

// ReadFile reads one converted file by path (either absolute, as tree
// nodes store it, or relative to the store root), mirroring read_file.
func (s *Service) ReadFile(path string) (string, error) {
	data, err := readMaybeJSON(s.resolve(path))
	if err != nil {
		return "", fmt.Errorf("%w: %s", docerr.NotFound, path)
	}
	return data, nil
}

// resolve turns a content_ref into a filesystem path: content_refs are
// written as absolute paths under the store root by the tree builder,
// but a store-root-relative path (as original_source's content_ref
// convention uses) is also accepted.
func (s *Service) resolve(ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(s.Layout.Root, ref)
}

// SourceFile is one file returned by ReadAll.
type SourceFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ReadAll reads every converted file for a source, mirroring
// read_all_content.
func (s *Service) ReadAll(sourceID string) ([]SourceFile, error) {
	dir := s.Layout.ConvertedPath(sourceID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: no converted files for %s", docerr.NotFound, sourceID)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]SourceFile, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		content := "(unreadable)"
		if err == nil {
			content = string(data)
		}
		files = append(files, SourceFile{Name: name, Content: content})
	}
	return files, nil
}

// readMaybeJSON reads a file, re-marshaling it with 2-space indent if
// its extension is .json and it parses, matching read_source.py's
// "pretty-print JSON sidecars, pass everything else through" rule.
func readMaybeJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var v interface{}
		if err := json.Unmarshal(data, &v); err == nil {
			pretty, err := json.MarshalIndent(v, "", "  ")
			if err == nil {
				return string(pretty), nil
			}
		}
	}
	return string(data), nil
}
