package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"ai-tutor-be/pkg/store"
)

// Document is a chunk of user material held by MemoryIndex
type Document struct {
	UserID     string
	DocumentID string
	ChunkID    string
	Text       string
	Metadata   store.SourceMetadata
}

// MemoryIndex scores documents by query term overlap. Used for development and tests.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string][]Document
}

func NewMemoryIndex(docs ...Document) *MemoryIndex {
	idx := &MemoryIndex{docs: make(map[string][]Document)}
	idx.Add(docs...)
	return idx
}

func (m *MemoryIndex) Add(docs ...Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.docs[d.UserID] = append(m.docs[d.UserID], d)
	}
}

func (m *MemoryIndex) RetrieveTopK(ctx context.Context, userID, text string, k int) ([]store.ContentSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := tokenize(text)
	if len(terms) == 0 {
		return []store.ContentSource{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []store.ContentSource{}
	for _, d := range m.docs[userID] {
		docTerms := make(map[string]struct{})
		for _, t := range tokenize(d.Text) {
			docTerms[t] = struct{}{}
		}
		hits := 0
		for _, t := range terms {
			if _, ok := docTerms[t]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		out = append(out, store.ContentSource{
			DocumentID:     d.DocumentID,
			ChunkID:        d.ChunkID,
			Text:           d.Text,
			RelevanceScore: float64(hits) / float64(len(terms)),
			Metadata:       d.Metadata,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "what": {}, "how": {}, "do": {},
	"does": {}, "i": {}, "to": {}, "of": {}, "in": {}, "and": {}, "or": {}, "me": {},
	"my": {}, "it": {}, "for": {}, "on": {}, "can": {}, "you": {}, "explain": {},
}

func tokenize(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, stop := stopwords[f]; stop || len(f) < 2 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
