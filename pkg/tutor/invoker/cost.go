package invoker

import "ai-tutor-be/pkg/llm"

// Rates are prices per 1K tokens
type Rates struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Cost is pure: in/1000*inRate + out/1000*outRate
func (r Rates) Cost(u llm.Usage) float64 {
	return float64(u.PromptTokens)/1000*r.InputPer1K + float64(u.CompletionTokens)/1000*r.OutputPer1K
}
