// Package docerr defines the sentinel error kinds the ingestion and
// retrieval pipeline distinguish between, so callers can branch with
// errors.Is instead of string matching.
package docerr

import "errors"

var (
	// NotFound: a requested source, node, or file does not exist.
	// Non-fatal; callers report and continue.
	NotFound = errors.New("docindex: not found")

	// UnsupportedType: the detector could not classify the file into a
	// type this system knows how to convert. The orchestrator skips the
	// file and continues the batch.
	UnsupportedType = errors.New("docindex: unsupported file type")

	// ConverterFailure: a converter raised while extracting structured
	// content. The orchestrator swallows it and substitutes the raw-text
	// fallback converter.
	ConverterFailure = errors.New("docindex: converter failed")

	// LlmFailure: an LLM call (sampling strategy, tree generation) failed
	// or returned a malformed response. The caller falls back to the
	// deterministic heuristic path.
	LlmFailure = errors.New("docindex: llm call failed")

	// IndexCorruption: on-disk catalog or vector index state is
	// unreadable or internally inconsistent. Fatal; the orchestrator
	// aborts the run rather than risk writing partial state on top of it.
	IndexCorruption = errors.New("docindex: index corruption")

	// IoFailure: a filesystem operation (read, write, rename) failed.
	// Fatal for the file or run in progress.
	IoFailure = errors.New("docindex: io failure")

	// AuthMissing: an LLM or embedding backend was configured without
	// credentials. Raised once, at client construction, not per call.
	AuthMissing = errors.New("docindex: missing credentials")
)
