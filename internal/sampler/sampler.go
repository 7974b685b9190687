// Package sampler implements the Sampler/Strategist (C3): given a
// FileCard and a short content sample, decide which tree-building
// strategy (tree_index, schema_index, symbol_index, or chunk_embed)
// this file should use, along with the document metadata (doc_nature,
// tags, summary, ...) the catalog and vector index need downstream.
//
// Grounded on _examples/original_source/scripts/sample.py: the system
// prompt, user template, and the heuristic fallback table are carried
// over in meaning. When an LLM collaborator is configured it is asked
// first; any failure (error, malformed JSON, missing field) falls back
// to the deterministic heuristic, per spec.md §4.3/§7.
package sampler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/khoindq/docindex/internal/detect"
	"github.com/khoindq/docindex/llm"
)

// Approach names, matching spec.md's closed recommended_approach enum
// (sample.py's SAMPLING_SYSTEM_PROMPT schema) and build_tree.py's three
// structural dispatch branches plus the flat chunk_embed fallback.
const (
	ApproachTreeIndex   = "tree_index"
	ApproachSchemaIndex = "schema_index"
	ApproachSymbolIndex = "symbol_index"
	ApproachChunkEmbed  = "chunk_embed"
)

// Strategy is the sampler's decision for one file, mirroring
// sample.py's strategy dict shape.
type Strategy struct {
	DocNature           string   `json:"doc_nature"`
	HasStructure        bool     `json:"has_structure"`
	RecommendedApproach string   `json:"recommended_approach"`
	KeySections         []string `json:"key_sections"`
	EstimatedNodes      int      `json:"estimated_nodes"`
	SpecialHandling     string   `json:"special_handling,omitempty"`
	Summary             string   `json:"summary"`
	Tags                []string `json:"tags"`
	Source              string   `json:"source"` // "llm" or "heuristic"
}

const systemPrompt = `You are a document analysis expert working for a knowledge indexing system.

Your job: examine a sample of a document and decide the best indexing strategy.

You MUST respond with valid JSON only — no explanations, no markdown, just the JSON object.

The JSON schema you must follow:
{
  "doc_nature": "<string: what kind of document this is, e.g. financial_report, api_docs, meeting_notes, sales_data, source_code, etc.>",
  "has_structure": <boolean: does the document have clear hierarchical structure?>,
  "recommended_approach": "<one of: tree_index, schema_index, symbol_index, chunk_embed>",
  "key_sections": ["<list of main sections or topics found>"],
  "estimated_nodes": <integer: estimated number of tree nodes for indexing>,
  "special_handling": "<string or null: any special processing notes>",
  "summary": "<string: 1-2 sentence summary of the document's content and purpose>",
  "tags": ["<list of 3-5 topic tags>"]
}

Strategy decision guide:
- tree_index: Documents with hierarchical structure (headings, ToC, sections). PDFs with chapters, structured markdown, documentation.
- schema_index: Tabular/spreadsheet data. Excel files, CSVs with consistent columns.
- symbol_index: Code files with functions, classes, imports.
- chunk_embed: Flat unstructured text without clear sections. Notes, transcripts, plain text.`

const userTemplate = "Filename: %s\nDetected type: %s (%s)\nSize: %d KB\n\nSample:\n%s\n\nRespond with the strategy JSON only."

// Strategist chooses a tree-building Strategy for a file, optionally
// consulting an LLM.
type Strategist struct {
	LLM    llm.LLM
	Logger *slog.Logger
}

// New creates a Strategist. llmClient may be nil, in which case every
// decision is made by the heuristic.
func New(llmClient llm.LLM) *Strategist {
	return &Strategist{
		LLM:    llmClient,
		Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// Decide returns the Strategy for card given a content sample. sample
// should already be truncated to the config's max_sample_chars.
func (s *Strategist) Decide(ctx context.Context, card detect.FileCard, sample string) Strategy {
	if s.LLM != nil {
		if strat, ok := s.askLLM(ctx, card, sample); ok {
			return strat
		}
	}
	return heuristic(card)
}

func (s *Strategist) askLLM(ctx context.Context, card detect.FileCard, sample string) (Strategy, bool) {
	sizeKB := card.Size / 1024
	messages := []llm.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userTemplate, card.Filename, card.Type, card.Category, sizeKB, sample)},
	}

	resp, err := s.LLM.Chat(ctx, messages)
	if err != nil {
		s.Logger.Error("sampler llm call failed, falling back to heuristic", "error", err, "file", card.Filename)
		return Strategy{}, false
	}

	raw := unwrapFencedJSON(resp)

	var decoded struct {
		DocNature           string   `json:"doc_nature"`
		HasStructure        bool     `json:"has_structure"`
		RecommendedApproach string   `json:"recommended_approach"`
		KeySections         []string `json:"key_sections"`
		EstimatedNodes      int      `json:"estimated_nodes"`
		SpecialHandling     string   `json:"special_handling"`
		Summary             string   `json:"summary"`
		Tags                []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		s.Logger.Error("sampler llm returned malformed json, falling back to heuristic", "error", err, "file", card.Filename)
		return Strategy{}, false
	}
	// sample.py's request_strategy validates doc_nature, recommended_approach, summary are present.
	if decoded.DocNature == "" || decoded.Summary == "" || !validApproach(decoded.RecommendedApproach) {
		s.Logger.Error("sampler llm returned incomplete or unknown strategy", "approach", decoded.RecommendedApproach, "file", card.Filename)
		return Strategy{}, false
	}

	return Strategy{
		DocNature:           decoded.DocNature,
		HasStructure:        decoded.HasStructure,
		RecommendedApproach: decoded.RecommendedApproach,
		KeySections:         decoded.KeySections,
		EstimatedNodes:      decoded.EstimatedNodes,
		SpecialHandling:     decoded.SpecialHandling,
		Summary:             decoded.Summary,
		Tags:                decoded.Tags,
		Source:              "llm",
	}, true
}

func validApproach(a string) bool {
	switch a {
	case ApproachTreeIndex, ApproachSchemaIndex, ApproachSymbolIndex, ApproachChunkEmbed:
		return true
	}
	return false
}

// approachByCategory mirrors sample.py's _fallback_strategy approach_map.
var approachByCategory = map[string]string{
	"document":    ApproachTreeIndex,
	"spreadsheet": ApproachSchemaIndex,
	"code":        ApproachSymbolIndex,
	"text":        ApproachTreeIndex,
	"web":         ApproachTreeIndex,
}

// structuredCategories mirrors _fallback_strategy's has_structure test.
var structuredCategories = map[string]bool{
	"document": true, "spreadsheet": true, "code": true, "text": true,
}

// heuristic mirrors sample.py's _fallback_strategy: the category→approach
// map, defaulting to chunk_embed for any category the map has no entry
// for (image, archive, unknown).
func heuristic(card detect.FileCard) Strategy {
	approach, ok := approachByCategory[card.Category]
	if !ok {
		approach = ApproachChunkEmbed
	}

	return Strategy{
		DocNature:           fmt.Sprintf("%s_%s", card.Category, card.Type),
		HasStructure:        structuredCategories[card.Category],
		RecommendedApproach: approach,
		KeySections:         []string{},
		EstimatedNodes:      5,
		SpecialHandling:     "Fallback strategy — no LLM collaborator was available for sampling",
		Summary:             fmt.Sprintf("File: %s (%s, %d KB)", card.Filename, card.Type, card.Size/1024),
		Tags:                []string{card.Category, card.Type},
		Source:              "heuristic",
	}
}

// unwrapFencedJSON strips a ```json ... ``` or ``` ... ``` fence if the
// LLM wrapped its JSON response in one, matching the unwrapping
// original_source's claude_client.py performs before parsing.
func unwrapFencedJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ExtractSample truncates raw content to at most maxChars, matching
// sample.py's extract_sample.
func ExtractSample(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars]
}
