package embedding

import "context"

// MockEmbeddingModel is a mock implementation of the EmbeddingModel
// interface, for tests that need a deterministic embedder without
// network access.
type MockEmbeddingModel struct {
	// Embedding is the embedding to return.
	Embedding []float64
	// Err is the error to return (if any).
	Err error
}

// NewMockEmbeddingModel creates a new MockEmbeddingModel with a fixed embedding.
func NewMockEmbeddingModel(embedding []float64) *MockEmbeddingModel {
	return &MockEmbeddingModel{Embedding: embedding}
}

// NewMockEmbeddingModelWithError creates a new MockEmbeddingModel that returns an error.
func NewMockEmbeddingModelWithError(err error) *MockEmbeddingModel {
	return &MockEmbeddingModel{Err: err}
}

func (m *MockEmbeddingModel) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	return m.Embedding, m.Err
}

func (m *MockEmbeddingModel) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return m.Embedding, m.Err
}
