package retrieval

import (
	"context"
	"sort"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/store"
)

const logModule = "RETRIEVAL"

// ContentIndex is the ranked search collaborator over a user's materials
type ContentIndex interface {
	RetrieveTopK(ctx context.Context, userID, text string, k int) ([]store.ContentSource, error)
}

// Scorer re-ranks a candidate; the returned score replaces the index score
type Scorer interface {
	Score(query string, source store.ContentSource) float64
}

// ScorerFunc adapts a function to Scorer
type ScorerFunc func(query string, source store.ContentSource) float64

func (f ScorerFunc) Score(query string, source store.ContentSource) float64 {
	return f(query, source)
}

type Config struct {
	Timeout      time.Duration
	TopK         int
	MinRelevance float64
}

func DefaultConfig() Config {
	return Config{
		Timeout:      3 * time.Second,
		TopK:         10,
		MinRelevance: 0,
	}
}

// Result of a retrieval. Degraded is set when the index failed; Empty is set whenever no source survived.
type Result struct {
	Sources  []store.ContentSource
	Degraded bool
	Empty    bool
}

type Retriever struct {
	index  ContentIndex
	scorer Scorer
	cfg    Config
	logger logger.ILogger
}

func NewRetriever(index ContentIndex, scorer Scorer, cfg Config, log logger.ILogger) *Retriever {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	return &Retriever{index: index, scorer: scorer, cfg: cfg, logger: log}
}

// Retrieve never returns an error: index failures yield an empty, degraded result
func (r *Retriever) Retrieve(ctx context.Context, userID, query string, limit int) Result {
	if limit <= 0 {
		limit = r.cfg.TopK
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.index.RetrieveTopK(ctx, userID, query, limit)
	if err != nil {
		r.logger.Warn(logModule, "Content index unavailable, continuing without grounding", map[string]interface{}{
			"user_id":    userID,
			"error":      err.Error(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return Result{Sources: []store.ContentSource{}, Degraded: true, Empty: true}
	}

	sources := r.rank(query, raw, limit)
	if len(sources) == 0 {
		r.logger.Warn(logModule, "No content sources found, continuing without grounding", map[string]interface{}{
			"user_id":    userID,
			"raw":        len(raw),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return Result{Sources: sources, Empty: true}
	}

	r.logger.Debug(logModule, "Retrieved sources", map[string]interface{}{
		"user_id":    userID,
		"raw":        len(raw),
		"kept":       len(sources),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	return Result{Sources: sources}
}

func (r *Retriever) rank(query string, raw []store.ContentSource, limit int) []store.ContentSource {
	out := make([]store.ContentSource, 0, len(raw))
	for _, src := range raw {
		if r.scorer != nil {
			src.RelevanceScore = r.scorer.Score(query, src)
		}
		src.RelevanceScore = clamp(src.RelevanceScore)
		if src.RelevanceScore < r.cfg.MinRelevance {
			continue
		}
		out = append(out, src)
	}

	// ties keep retrieval order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
