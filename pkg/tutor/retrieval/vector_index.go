package retrieval

import (
	"context"
	"fmt"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/store"
)

// VectorIndex embeds the query and runs a cosine search over the user's content chunks
type VectorIndex struct {
	embedder  embedding.EmbeddingProvider
	chunks    contract.ContentChunkRepository
	threshold float64
}

func NewVectorIndex(embedder embedding.EmbeddingProvider, chunks contract.ContentChunkRepository, threshold float64) *VectorIndex {
	return &VectorIndex{embedder: embedder, chunks: chunks, threshold: threshold}
}

func (v *VectorIndex) RetrieveTopK(ctx context.Context, userID, text string, k int) ([]store.ContentSource, error) {
	res, err := v.embedder.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	sources, err := v.chunks.SearchSimilarWithScore(ctx, res.Embedding.Values, k, userID, v.threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return sources, nil
}
