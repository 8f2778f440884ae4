package complexity

import (
	"strings"
	"unicode"

	"ai-tutor-be/pkg/store"
)

// Config holds every threshold and weight used for tier routing
type Config struct {
	Threshold             float64
	MediumQueryWords      int
	LongQueryWords        int
	MediumQueryWeight     float64
	LongQueryWeight       float64
	KeywordWeight         float64
	DepthWeight           float64
	DeepConversationTurns int
	Keywords              []string
}

// DefaultKeywords is the analytical vocabulary that signals a harder question
var DefaultKeywords = []string{
	"analyze", "analyse", "compare", "contrast", "optimize", "optimise", "evaluate",
	"design", "trade-off", "tradeoff", "architecture", "complexity", "prove", "derive",
	"debug", "refactor", "critique", "justify", "synthesize", "implications",
}

func DefaultConfig() Config {
	return Config{
		Threshold:             0.5,
		MediumQueryWords:      20,
		LongQueryWords:        50,
		MediumQueryWeight:     0.1,
		LongQueryWeight:       0.3,
		KeywordWeight:         0.3,
		DepthWeight:           0.2,
		DeepConversationTurns: 5,
		Keywords:              DefaultKeywords,
	}
}

// Analyzer scores query difficulty and maps the score to an inference tier
type Analyzer struct {
	cfg      Config
	keywords map[string]struct{}
	phrases  []string
}

func NewAnalyzer(cfg Config) *Analyzer {
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = DefaultKeywords
	}
	a := &Analyzer{cfg: cfg, keywords: make(map[string]struct{})}
	for _, k := range cfg.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.ContainsAny(k, " -") {
			a.phrases = append(a.phrases, k)
			continue
		}
		a.keywords[k] = struct{}{}
	}
	return a
}

// Score returns a difficulty in [0,1]. It never fails.
func (a *Analyzer) Score(query string, recentHistory []store.ConversationTurn) float64 {
	words := strings.Fields(query)

	var score float64
	switch {
	case len(words) > a.cfg.LongQueryWords:
		score += a.cfg.LongQueryWeight
	case len(words) > a.cfg.MediumQueryWords:
		score += a.cfg.MediumQueryWeight
	}

	if a.hasKeyword(query, words) {
		score += a.cfg.KeywordWeight
	}

	if len(recentHistory) > a.cfg.DeepConversationTurns {
		score += a.cfg.DepthWeight
	}

	if score > 1 {
		return 1
	}
	return score
}

// SelectTier routes scores strictly above the threshold to the advanced tier
func (a *Analyzer) SelectTier(score float64) store.Tier {
	if score > a.cfg.Threshold {
		return store.TierAdvanced
	}
	return store.TierFast
}

func (a *Analyzer) hasKeyword(query string, words []string) bool {
	for _, w := range words {
		// "Optimize," and "optimize?" must still match
		token := strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
		}))
		if _, ok := a.keywords[token]; ok {
			return true
		}
	}
	lower := strings.ToLower(query)
	for _, p := range a.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
