package tree

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/khoindq/docindex/internal/docerr"
	"github.com/khoindq/docindex/internal/store"
)

// Save writes a tree to tree_index/<source id>.json atomically.
func Save(l store.Layout, t Tree) error {
	return store.AtomicWriteJSON(l.TreePath(t.SourceID), t)
}

// Load reads a tree by source ID, mirroring build_tree.py's load_tree.
func Load(l store.Layout, sourceID string) (Tree, error) {
	data, err := os.ReadFile(l.TreePath(sourceID))
	if os.IsNotExist(err) {
		return Tree{}, fmt.Errorf("%w: tree for %s", docerr.NotFound, sourceID)
	}
	if err != nil {
		return Tree{}, fmt.Errorf("%w: reading tree for %s: %v", docerr.IoFailure, sourceID, err)
	}
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return Tree{}, fmt.Errorf("%w: parsing tree for %s: %v", docerr.IndexCorruption, sourceID, err)
	}
	return t, nil
}
