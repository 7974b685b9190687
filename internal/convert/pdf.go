package convert

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFConverter extracts per-page text from a PDF, grounded on the
// teacher's rag/reader/pdf_reader.go page-walking loop
// (pdf.Open/page.GetPlainText), chunked into groups of pagesPerChunk
// pages per spec.md §4.2.
type PDFConverter struct{}

const pagesPerChunk = 5

func (PDFConverter) Convert(path, outputDir string) (Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	var full strings.Builder
	var sections []Section
	for start := 0; start < len(pages); start += pagesPerChunk {
		end := start + pagesPerChunk
		if end > len(pages) {
			end = len(pages)
		}
		chunk := strings.Join(pages[start:end], "\n\n")
		title := fmt.Sprintf("pages_%d-%d", start+1, end)
		sections = append(sections, Section{
			Title:   title,
			Content: chunk,
			Extra:   map[string]string{"page_start": fmt.Sprint(start + 1), "page_end": fmt.Sprint(end)},
		})
		if _, err := writeFile(outputDir, title+".txt", chunk); err != nil {
			return Result{}, err
		}
		full.WriteString(chunk)
		full.WriteString("\n\n")
	}

	fullPath, err := writeFile(outputDir, "full.txt", full.String())
	if err != nil {
		return Result{}, err
	}

	return Result{OutputDir: outputDir, FullTextPath: fullPath, Sections: sections}, nil
}

func (PDFConverter) Sample(path string, maxChars int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage() && b.Len() < maxChars; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	sample := b.String()
	if len(sample) > maxChars {
		sample = sample[:maxChars]
	}
	return sample, nil
}

// PageCount returns the number of pages in a PDF. Nothing in the module
// calls it. Grounded on the teacher's GetPDFPageCount.
func PageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
