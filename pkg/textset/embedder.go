package textset

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// TextMeasurer tokenizes text the way the embedding model does.
// Windows are cut at token boundaries of this encoding.
type TextMeasurer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
