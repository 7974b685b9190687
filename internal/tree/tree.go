// Package tree implements the Tree Builder (C4): turns a converter's
// Result into a hierarchical per-document Tree. The root, page-chunk,
// sheet and flat-listing nodes carry a content_ref pointing back at the
// converted file holding the actual text, so Tier 2 retrieval can walk
// the structure without loading everything into memory; heading-section
// and symbol nodes carry no content_ref, only a preview.
//
// Grounded on _examples/original_source/scripts/build_tree.py: the
// three heuristic strategies (_build_document_tree/_build_schema_tree/
// _build_code_tree), the stack-based heading hierarchy builder, the
// 5-page PDF chunk grouping, the regex-based Python-only symbol parser,
// and find_node's DFS search. Node IDs use a flat depth-first global
// counter ("n0", "n1", "n2", ...) matching build_tree.py's node_counter
// scheme; spec.md's illustrative dotted notation ("n1.1") is only an
// example of a *valid* unique-ID shape, not a required format, so the
// simpler flat counter satisfies the same invariant.
package tree

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/khoindq/docindex/internal/convert"
)

// Node is one element of a document's tree, per spec.md §3. Every node
// carries a non-null Summary (invariant (ii)): the root's is the
// document/strategy summary, each child's is derived from its section,
// sheet, page range, or parsed symbol.
type Node struct {
	ID         string  `json:"node_id"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Hint       string  `json:"hint,omitempty"`
	ContentRef string  `json:"content_ref,omitempty"`
	Preview    string  `json:"preview,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// Tree is one document's full structural index. The top-level "id" key
// matches build_tree.py's {"id": source_id, "root": {...}} shape.
type Tree struct {
	SourceID string `json:"id"`
	Approach string `json:"approach"`
	Root     *Node  `json:"root"`
}

const previewLen = 160

// Build dispatches to the strategy named by approach, matching
// build_tree.py's _build_tree_heuristic. filename becomes the root
// node's title and summary is the sampler's strategy summary, both
// mirroring source_entry["filename"]/source_entry["summary"].
func Build(sourceID, filename, approach, summary string, res convert.Result) (Tree, error) {
	if summary == "" {
		summary = fmt.Sprintf("File: %s", filename)
	}

	var root *Node
	switch approach {
	case "schema_index":
		root = buildSchemaTree(filename, summary, res)
	case "symbol_index":
		root = buildCodeTree(filename, summary, res)
	default:
		root = buildDocumentTree(filename, summary, res)
	}

	counter := 0
	assignIDs(root, &counter)

	return Tree{SourceID: sourceID, Approach: approach, Root: root}, nil
}

func assignIDs(n *Node, counter *int) {
	n.ID = "n" + strconv.Itoa(*counter)
	*counter++
	for _, c := range n.Children {
		assignIDs(c, counter)
	}
}

func preview(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= previewLen {
		return content
	}
	return content[:previewLen] + "..."
}

// buildDocumentTree builds a tree for prose documents, mirroring
// _build_document_tree's three branches: heading hierarchy (markdown),
// page chunks (PDF), or a flat listing of whatever the converter wrote.
func buildDocumentTree(filename, summary string, res convert.Result) *Node {
	root := &Node{Title: filename, Summary: summary, ContentRef: res.FullTextPath}

	if len(res.Sections) == 0 {
		return root
	}

	switch {
	case res.Sections[0].Extra["level"] != "":
		root.Children = sectionsToHeadingNodes(res.Sections)
	case res.Sections[0].Extra["page_start"] != "":
		root.Children = pagesToNodes(res.OutputDir, res.Sections)
	default:
		root.Children = flatFileNodes(res)
	}

	return root
}

// sectionsToHeadingNodes nests markdown sections by heading level using
// a stack, mirroring _sections_to_tree_nodes.
func sectionsToHeadingNodes(sections []convert.Section) []*Node {
	type frame struct {
		level int
		node  *Node
	}
	var roots []*Node
	var stack []frame

	for _, s := range sections {
		level, _ := strconv.Atoi(s.Extra["level"])
		node := &Node{
			Title:      s.Title,
			Summary:    fmt.Sprintf("Section: %s", s.Title),
			ContentRef: "",
			Preview:    preview(s.Content),
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
		stack = append(stack, frame{level: level, node: node})
	}

	return roots
}

// pagesToNodes groups PDF page sections into "Pages N-M" nodes,
// mirroring _pages_to_tree_nodes's chunk-of-5 grouping and preview.
func pagesToNodes(outputDir string, sections []convert.Section) []*Node {
	var nodes []*Node
	for _, s := range sections {
		start := s.Extra["page_start"]
		end := s.Extra["page_end"]
		title := fmt.Sprintf("Pages %s-%s", start, end)

		snippet := strings.TrimSpace(strings.ReplaceAll(s.Content, "\n", " "))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		sum := snippet
		if sum == "" {
			sum = fmt.Sprintf("Pages %s to %s", start, end)
		}

		nodes = append(nodes, &Node{
			Title:      title,
			Summary:    sum,
			ContentRef: outputDir + "/" + fmt.Sprintf("pages_%s-%s.txt", start, end),
			Preview:    preview(s.Content),
		})
	}
	return nodes
}

// flatFileNodes lists whatever sections the converter produced without
// positional structure, mirroring _files_to_tree_nodes's "Content from
// <file>" summary.
func flatFileNodes(res convert.Result) []*Node {
	var nodes []*Node
	for _, s := range res.Sections {
		nodes = append(nodes, &Node{
			Title:      s.Title,
			Summary:    fmt.Sprintf("Content from %s", sectionFilename(s.Title, "")),
			ContentRef: res.OutputDir + "/" + sectionFilename(s.Title, ".txt"),
			Preview:    preview(s.Content),
		})
	}
	return nodes
}

// buildSchemaTree builds one child node per sheet, carrying the sheet's
// shape hint, mirroring _build_schema_tree.
func buildSchemaTree(filename, summary string, res convert.Result) *Node {
	var children []*Node
	totalRows := 0

	for _, s := range res.Sections {
		rowCount, _ := strconv.Atoi(s.Extra["rows"])
		colCount, _ := strconv.Atoi(s.Extra["columns"])
		totalRows += rowCount

		var headers []string
		if raw := s.Extra["headers"]; raw != "" {
			headers = strings.Split(raw, "|")
		}

		sheetSummary := fmt.Sprintf("%d rows, %d columns. Headers: %s", rowCount, colCount, strings.Join(headers8(headers), ", "))
		if len(headers) > 8 {
			sheetSummary += fmt.Sprintf(" (+%d more)", len(headers)-8)
		}

		children = append(children, &Node{
			Title:      "Sheet: " + s.Title,
			Summary:    sheetSummary,
			Hint:       s.Extra["hint"],
			ContentRef: res.OutputDir + "/sheet_" + sectionFilename(s.Title, ".md"),
			Preview:    preview(s.Content),
		})
	}

	rootSummary := fmt.Sprintf("%s (%d sheets, %d total rows)", summary, len(res.Sections), totalRows)
	return &Node{Title: filename, Summary: rootSummary, ContentRef: res.FullTextPath, Children: children}
}

func headers8(headers []string) []string {
	if len(headers) <= 8 {
		return headers
	}
	return headers[:8]
}

var symbolPatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`^class\s+(\w+)`), "Class"},
	{regexp.MustCompile(`^async\s+def\s+(\w+)`), "Async Function"},
	{regexp.MustCompile(`^def\s+(\w+)`), "Function"},
}

// buildCodeTree parses Python-style top-level class/def/async def
// declarations from the full text, mirroring _build_code_tree /
// _parse_code_symbols. Only top-level (column 0) declarations are
// recognized; spec.md §4.4 scopes the symbol parser to this language
// family and marks broader language support an open question.
func buildCodeTree(filename, summary string, res convert.Result) *Node {
	root := &Node{Title: filename, Summary: summary, ContentRef: res.FullTextPath}

	content := ""
	if len(res.Sections) > 0 {
		content = res.Sections[0].Content
	} else if res.FullTextPath != "" {
		if data, err := os.ReadFile(res.FullTextPath); err == nil {
			content = string(data)
		}
	}

	for i, line := range strings.Split(content, "\n") {
		for _, p := range symbolPatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[1]
			root.Children = append(root.Children, &Node{
				Title:   fmt.Sprintf("%s: %s", p.kind, name),
				Summary: fmt.Sprintf("%s '%s' at line %d", p.kind, name, i+1),
				Preview: preview(line),
			})
			break
		}
	}
	return root
}

func sectionFilename(title, ext string) string {
	name := strings.ToLower(strings.NewReplacer(" ", "_", "/", "_").Replace(title))
	return name + ext
}

// Find performs a depth-first search for a node by ID, mirroring
// build_tree.py's find_node.
func Find(root *Node, id string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	if root.ID == id {
		return root, true
	}
	for _, c := range root.Children {
		if n, ok := Find(c, id); ok {
			return n, true
		}
	}
	return nil, false
}

// CountNodes returns the total number of nodes in the tree, including
// the root, mirroring ingest.py's _count_nodes helper.
func CountNodes(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += CountNodes(c)
	}
	return count
}
