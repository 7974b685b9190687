package convert

import (
	"fmt"
	"os"
	"strings"
)

// Fallback reads a file as UTF-8-lossy raw text and writes it verbatim
// to full.txt. Used for unsupported types and whenever a type-specific
// converter fails, per spec.md §4.2/§7.
type Fallback struct{}

func (Fallback) Convert(path, outputDir string) (Result, error) {
	data, err := readFileBytes(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	fullPath, err := writeFile(outputDir, "full.txt", strings.ToValidUTF8(string(data), "�"))
	if err != nil {
		return Result{}, err
	}

	return Result{OutputDir: outputDir, FullTextPath: fullPath}, nil
}

func (Fallback) Sample(path string, maxChars int) (string, error) {
	data, err := readFileBytes(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(data)
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text, nil
}

func readFileBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}
