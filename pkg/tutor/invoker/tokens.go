package invoker

import (
	"strings"
	"sync"

	"ai-tutor-be/pkg/llm"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// loaded lazily: the first call may fetch the BPE ranks
func getEncoding() *tiktoken.Tiktoken {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	return encoding
}

// CountTokens counts with cl100k_base, falling back to EstimateFast
func CountTokens(text string) int {
	if enc := getEncoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateFast(text)
}

// EstimateFast returns max(runes/4, word_count)
func EstimateFast(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	runes := len([]rune(trimmed))
	words := len(strings.Fields(trimmed))
	estimate := runes / 4
	if estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// perMessageOverhead approximates role and separator tokens of chat formats
const perMessageOverhead = 4

// EstimateUsage fills in usage for backends that do not report it
func EstimateUsage(messages []llm.Message, completion string, count func(string) int) llm.Usage {
	if count == nil {
		count = CountTokens
	}
	in := 0
	for _, m := range messages {
		in += count(m.Content) + perMessageOverhead
	}
	return llm.Usage{PromptTokens: in, CompletionTokens: count(completion)}
}
