// Package detect classifies a file into a FileCard: a source ID, a
// detected type and a type category. FileCard has an Extras field, but
// File leaves it empty; no page counts or sheet names are gathered here.
//
// Grounded line-for-line on
// _examples/original_source/scripts/detect.py: the extension map, magic
// byte table, content heuristics and their resolution priority are
// carried over unchanged in semantics.
package detect

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileCard is the detector's output for one file, per spec.md §3.
type FileCard struct {
	ID       string            `json:"id"`
	Path     string            `json:"path"`
	Filename string            `json:"filename"`
	Size     int64             `json:"size"`
	ModTime  int64             `json:"mtime_ns"`
	Type     string            `json:"type"`
	Category string            `json:"category"`
	Extras   map[string]string `json:"extras,omitempty"`
}

// extensionMap mirrors detect.py's EXTENSION_MAP.
var extensionMap = map[string]string{
	// Documents
	".pdf":  "pdf",
	".docx": "docx",
	".doc":  "doc",
	".rtf":  "rtf",
	".odt":  "odt",
	// Spreadsheets
	".xlsx": "xlsx",
	".xls":  "xls",
	".csv":  "csv",
	".tsv":  "tsv",
	".ods":  "ods",
	// Markdown / text
	".md":       "markdown",
	".markdown": "markdown",
	".txt":      "text",
	".rst":      "rst",
	// Code
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".jsx":   "javascript",
	".tsx":   "typescript",
	".java":  "java",
	".go":    "go",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".c":     "c",
	".cpp":   "cpp",
	".h":     "c_header",
	".hpp":   "cpp_header",
	".cs":    "csharp",
	".swift": "swift",
	".kt":    "kotlin",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
	// Web
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".xml":  "xml",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	// Images (for OCR path)
	".png":  "image",
	".jpg":  "image",
	".jpeg": "image",
	".gif":  "image",
	".bmp":  "image",
	".tiff": "image",
	".webp": "image",
	// Archives (skip)
	".zip": "archive",
	".tar": "archive",
	".gz":  "archive",
}

// typeCategories mirrors detect.py's TYPE_CATEGORIES, used to group
// detected types into the coarser category the catalog/tree builder
// dispatch on. The 8-value category enum is spec.md §3's exactly:
// document, spreadsheet, text, code, web, image, archive, unknown.
var typeCategories = map[string]string{
	"pdf": "document", "docx": "document", "doc": "document", "rtf": "document", "odt": "document",

	"xlsx": "spreadsheet", "xls": "spreadsheet", "csv": "spreadsheet", "tsv": "spreadsheet", "ods": "spreadsheet",

	"markdown": "text", "text": "text", "rst": "text",

	"python": "code", "javascript": "code", "typescript": "code", "java": "code", "go": "code",
	"rust": "code", "ruby": "code", "php": "code", "c": "code", "cpp": "code", "c_header": "code",
	"cpp_header": "code", "csharp": "code", "swift": "code", "kotlin": "code", "shell": "code",

	"html": "web", "css": "web", "xml": "web", "json": "web", "yaml": "web", "toml": "web",

	"image":   "image",
	"archive": "archive",
}

type magicRule struct {
	prefix   []byte
	typ      string
	zipBased bool
	ole      bool
}

// magicBytes mirrors detect.py's MAGIC_BYTES table. zip-based office
// formats and the legacy OLE container share prefixes, so both are
// flagged for the resolution-priority rules below.
var magicBytes = []magicRule{
	{prefix: []byte("%PDF"), typ: "pdf"},
	{prefix: []byte("PK\x03\x04"), typ: "zip_based", zipBased: true},
	{prefix: []byte{0xD0, 0xCF, 0x11, 0xE0}, typ: "ole", ole: true},
	{prefix: []byte("\x89PNG"), typ: "image"},
	{prefix: []byte{0xFF, 0xD8, 0xFF}, typ: "image"},
	{prefix: []byte("GIF8"), typ: "image"},
}

// File detects a single file's FileCard.
func File(path string) (FileCard, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileCard{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileCard{}, fmt.Errorf("detect: %s is a directory", path)
	}

	filename := filepath.Base(path)
	id := generateID(filename, info.Size(), info.ModTime().UnixNano())

	typ := detectByExtension(filename)

	header := make([]byte, 0, 512)
	if f, err := os.Open(path); err == nil {
		buf := make([]byte, 512)
		n, _ := f.Read(buf)
		header = buf[:n]
		f.Close()
	}

	magicTyp, zipBased, ole := detectByMagic(header)
	content := ""
	if typ == "" || magicTyp == "" {
		content = detectByContent(path, typ)
	}

	resolved := resolveType(typ, magicTyp, zipBased, ole, content)
	category := typeCategories[resolved]
	if category == "" {
		category = "unknown"
	}

	return FileCard{
		ID:       id,
		Path:     path,
		Filename: filename,
		Size:     info.Size(),
		ModTime:  info.ModTime().UnixNano(),
		Type:     resolved,
		Category: category,
	}, nil
}

// Directory detects every regular, non-dotfile entry directly inside
// dir (non-recursive), sorted by filename, per spec.md §4.1.
func Directory(dir string) ([]FileCard, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	cards := make([]FileCard, 0, len(names))
	for _, name := range names {
		card, err := File(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// generateID mirrors detect.py's _generate_id: sha256("filename:size:mtime_ns")
// truncated to the first 10 hex characters, prefixed "src_".
func generateID(filename string, size int64, modTimeNs int64) string {
	key := fmt.Sprintf("%s:%d:%d", filename, size, modTimeNs)
	sum := sha256.Sum256([]byte(key))
	return "src_" + hex.EncodeToString(sum[:])[:10]
}

func detectByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return extensionMap[ext]
}

func detectByMagic(header []byte) (typ string, zipBased, ole bool) {
	for _, rule := range magicBytes {
		if bytes.HasPrefix(header, rule.prefix) {
			return rule.typ, rule.zipBased, rule.ole
		}
	}
	return "", false, false
}

// detectByContent mirrors detect.py's _detect_by_content: markdown via
// a leading "#" heading or "---" front matter marker, JSON via a
// leading brace/bracket, XML/HTML via doctype-ish prefixes (refined by
// extType when the extension already said html/xml), then CSV/TSV via
// consistent comma/tab counts across the first few non-empty lines.
func detectByContent(path, extType string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() && len(lines) < 20 {
		lines = append(lines, scanner.Text())
	}
	if len(lines) == 0 {
		return ""
	}

	trimmed := strings.TrimSpace(lines[0])
	switch {
	case strings.HasPrefix(trimmed, "#"), trimmed == "---":
		return "markdown"
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return "json"
	case strings.HasPrefix(trimmed, "<?xml"),
		strings.HasPrefix(strings.ToUpper(trimmed), "<!DOCTYPE"),
		strings.HasPrefix(trimmed, "<html"):
		if extType == "html" || extType == "xml" {
			return extType
		}
		return "xml"
	}

	if isConsistentlyDelimited(lines, ',') {
		return "csv"
	}
	if isConsistentlyDelimited(lines, '\t') {
		return "tsv"
	}

	return ""
}

func isConsistentlyDelimited(lines []string, delim byte) bool {
	nonEmpty := 0
	var count int = -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonEmpty++
		c := strings.Count(line, string(delim))
		if c == 0 {
			return false
		}
		if count == -1 {
			count = c
		} else if c != count {
			return false
		}
	}
	return nonEmpty >= 2
}

// zipRefinableExts mirrors detect.py's _resolve_type zip_based refine
// list: the only extensions a zip-based magic match is allowed to
// confirm (disambiguating xlsx-as-zip from other zip containers).
var zipRefinableExts = map[string]bool{"xlsx": true, "docx": true, "odt": true, "ods": true}

// resolveType applies detect.py's _resolve_type priority: a zip-based
// magic match combined with one of the known office extensions wins
// outright; otherwise extension wins; otherwise magic (excluding the
// zip/ole markers, which are too coarse alone); otherwise content;
// otherwise unknown.
func resolveType(ext, magic string, zipBased, ole bool, content string) string {
	if zipBased && zipRefinableExts[ext] {
		return ext
	}
	if ext != "" {
		return ext
	}
	if magic != "" && !zipBased && !ole {
		return magic
	}
	if content != "" {
		return content
	}
	return "unknown"
}
