package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage reports token consumption; zero values mean the backend did not report it
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Reported is true when the backend returned usage figures
func (u Usage) Reported() bool {
	return u.PromptTokens > 0 || u.CompletionTokens > 0
}

// Completion is a single model answer
type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// LLMProvider defines the contract for any LLM backend.
// Failures are returned as apperror.TransientBackendError or apperror.PersistentBackendError.
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the completion
	Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error)

	// Name identifies the backend in logs and errors
	Name() string
}

// Generate sends a single prompt to the model
func Generate(ctx context.Context, p LLMProvider, prompt string, options ...Option) (*Completion, error) {
	return p.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}
