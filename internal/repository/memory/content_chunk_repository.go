package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/store"
)

type chunk struct {
	userID string
	source store.ContentSource
	vector []float32
}

// ContentChunkRepository does brute-force cosine search over in-process vectors
type ContentChunkRepository struct {
	mu     sync.RWMutex
	chunks []chunk
}

var _ contract.ContentChunkRepository = (*ContentChunkRepository)(nil)

func NewContentChunkRepository() *ContentChunkRepository {
	return &ContentChunkRepository{}
}

func (r *ContentChunkRepository) Add(userID string, source store.ContentSource, vector []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, chunk{userID: userID, source: source, vector: vector})
}

func (r *ContentChunkRepository) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userID string, threshold float64) ([]store.ContentSource, error) {
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []store.ContentSource{}
	for _, c := range r.chunks {
		if c.userID != userID {
			continue
		}
		sim := cosine(embedding, c.vector)
		if sim < threshold {
			continue
		}
		src := c.source
		src.RelevanceScore = sim
		out = append(out, src)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].RelevanceScore > out[j].RelevanceScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
