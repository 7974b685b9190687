// Package convert holds the per-type Converters (C2): PDF, spreadsheet,
// markdown and a raw-text fallback. Each Converter extracts structural
// content from a source file and writes it under the store's converted/
// directory, returning a ConverterResult the catalog records.
//
// Grounded on the teacher's rag/reader package (pdf_reader.go,
// excel_reader.go, markdown_reader.go give the library choice and
// extraction shape: page walking for PDF via ledongthuc/pdf, sheet/row
// walking for xlsx via excelize) and on
// _examples/original_source/scripts/converters/*.py for the exact
// output-file layout and section/hint semantics this system needs,
// which the teacher's Node-chunk-oriented readers don't produce.
package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/khoindq/docindex/internal/detect"
	"github.com/khoindq/docindex/internal/docerr"
)

// Section is one structural unit extracted from a document: a PDF page
// range, a spreadsheet sheet, a markdown heading section.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Result is what a converter produces for one source file.
type Result struct {
	// OutputDir is the directory under converted/<source id>/ holding
	// every file this converter wrote.
	OutputDir string
	// FullTextPath is the path to the single full-text rendition of the
	// document, always written, used as the tree builder's whole-document
	// fallback.
	FullTextPath string
	// Sections are the structural units the tree builder walks to build
	// nodes. Empty means "flat document", handled as a single node.
	Sections []Section
	// UsedFallback is true when the raw-text fallback converter ran
	// because the type-specific converter failed or doesn't exist.
	UsedFallback bool
}

// Converter extracts structural content from one file.
type Converter interface {
	// Convert reads path and writes its output under outputDir, which
	// the caller has already created.
	Convert(path, outputDir string) (Result, error)
	// Sample returns a short text excerpt used by the sampler/strategist,
	// without doing the full structural extraction Convert does.
	Sample(path string, maxChars int) (string, error)
}

// ForType returns the Converter registered for a detected type, or
// (nil, false) if none is registered — the caller should use Fallback.
func ForType(typ string) (Converter, bool) {
	c, ok := registry[typ]
	return c, ok
}

var registry = map[string]Converter{
	"pdf":       PDFConverter{},
	"xlsx":      SpreadsheetConverter{},
	"markdown":  MarkdownConverter{},
}

// Convert runs the registered converter for card.Type, falling back to
// the raw-text converter on UnsupportedType or on any ConverterFailure,
// per spec.md §4.2/§7: a broken converter never aborts ingestion of the
// rest of the batch.
func Convert(card detect.FileCard, outputDir string) (Result, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: creating %s: %v", docerr.IoFailure, outputDir, err)
	}

	c, ok := ForType(card.Type)
	if !ok {
		res, err := Fallback{}.Convert(card.Path, outputDir)
		res.UsedFallback = true
		if err != nil {
			return res, fmt.Errorf("%w: %v", docerr.IoFailure, err)
		}
		return res, nil
	}

	res, err := c.Convert(card.Path, outputDir)
	if err != nil {
		fallbackRes, ferr := Fallback{}.Convert(card.Path, outputDir)
		if ferr != nil {
			return Result{}, fmt.Errorf("%w: converter failed (%v) and fallback also failed: %v", docerr.IoFailure, err, ferr)
		}
		fallbackRes.UsedFallback = true
		return fallbackRes, nil
	}
	return res, nil
}

// Sample returns a short text excerpt for the sampler/strategist,
// dispatching to the registered converter for card.Type or the raw-text
// fallback if none is registered or the type-specific sampler errors.
func Sample(card detect.FileCard, maxChars int) (string, error) {
	c, ok := ForType(card.Type)
	if !ok {
		return Fallback{}.Sample(card.Path, maxChars)
	}
	s, err := c.Sample(card.Path, maxChars)
	if err != nil {
		return Fallback{}.Sample(card.Path, maxChars)
	}
	return s, nil
}

func writeFile(dir, name, content string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", docerr.IoFailure, path, err)
	}
	return path, nil
}
