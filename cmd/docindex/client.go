package main

import (
	"github.com/khoindq/docindex/embedding"
	"github.com/khoindq/docindex/internal/store"
	"github.com/khoindq/docindex/llm"
)

// buildLLM constructs the configured LLM collaborator, or nil if none
// is configured — the sampler and tree builder both treat a nil LLM as
// "use the deterministic heuristic", matching original_source's
// client=None convention.
func buildLLM(cfg store.LLMConfig) llm.LLM {
	switch cfg.Provider {
	case "anthropic":
		opts := []llm.AnthropicOption{llm.WithAnthropicAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, llm.WithAnthropicBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, llm.WithAnthropicModel(cfg.Model))
		}
		return llm.NewAnthropicLLM(opts...)
	case "openai":
		return llm.NewOpenAILLM(cfg.BaseURL, cfg.Model, cfg.APIKey)
	default:
		return nil
	}
}

// buildEmbedder constructs the configured embedding model, or nil if
// none is configured.
func buildEmbedder(cfg store.LLMConfig) embedding.EmbeddingModel {
	switch cfg.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedding(cfg.APIKey, cfg.EmbeddingModel)
	default:
		return nil
	}
}
