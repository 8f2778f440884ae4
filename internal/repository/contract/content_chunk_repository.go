package contract

import (
	"context"

	"ai-tutor-be/pkg/store"
)

type ContentChunkRepository interface {
	// SearchSimilarWithScore returns the user's chunks ranked by cosine similarity, filtered by threshold
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userID string, threshold float64) ([]store.ContentSource, error)
}
