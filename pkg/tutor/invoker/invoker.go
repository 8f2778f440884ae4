package invoker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/prompt"

	backoff "github.com/cenkalti/backoff/v4"
)

const logModule = "INVOKER"

// TierConfig binds an inference tier to a backend
type TierConfig struct {
	Provider    llm.LLMProvider
	Model       string
	Rates       Rates
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

type Config struct {
	Tiers          map[store.Tier]TierConfig
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Result is a successful model answer with its (reported or estimated) usage
type Result struct {
	Text           string
	Model          string
	Usage          llm.Usage
	UsageEstimated bool
	Attempts       int
}

type Invoker struct {
	cfg    Config
	logger logger.ILogger
	count  func(string) int
}

func NewInvoker(cfg Config, log logger.ILogger) *Invoker {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Invoker{cfg: cfg, logger: log, count: CountTokens}
}

func (i *Invoker) tier(tier store.Tier) (TierConfig, error) {
	tc, ok := i.cfg.Tiers[tier]
	if !ok || tc.Provider == nil {
		return TierConfig{}, fmt.Errorf("no backend configured for tier %q", tier)
	}
	if tc.Timeout <= 0 {
		tc.Timeout = 20 * time.Second
	}
	return tc, nil
}

func (i *Invoker) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = i.cfg.InitialBackoff
	b.MaxInterval = i.cfg.MaxBackoff
	b.MaxElapsedTime = 0 // bounded by MaxRetries
	return backoff.WithContext(backoff.WithMaxRetries(b, i.cfg.MaxRetries), ctx)
}

// Invoke calls the tier's backend. Transient failures are retried up to MaxRetries
// extra times; persistent failures return immediately.
func (i *Invoker) Invoke(ctx context.Context, payload prompt.Payload, tier store.Tier) (*Result, error) {
	tc, err := i.tier(tier)
	if err != nil {
		return nil, err
	}

	messages := payload.ChatMessages()
	opts := []llm.Option{llm.WithTemperature(tc.Temperature)}
	if tc.Model != "" {
		opts = append(opts, llm.WithModel(tc.Model))
	}
	if tc.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(tc.MaxTokens))
	}

	var (
		completion *llm.Completion
		attempts   int
	)
	operation := func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, tc.Timeout)
		defer cancel()

		out, err := tc.Provider.Chat(callCtx, messages, opts...)
		if err == nil {
			completion = out
			return nil
		}
		if !apperror.IsTransient(err) {
			return backoff.Permanent(err)
		}
		i.logger.Warn(logModule, "Transient backend failure", map[string]interface{}{
			"tier":     string(tier),
			"provider": tc.Provider.Name(),
			"attempt":  attempts,
			"error":    err.Error(),
		})
		return err
	}

	start := time.Now()
	if err := backoff.Retry(operation, i.newBackOff(ctx)); err != nil {
		i.logger.Error(logModule, "Model invocation failed", map[string]interface{}{
			"tier":       string(tier),
			"provider":   tc.Provider.Name(),
			"attempts":   attempts,
			"elapsed_ms": time.Since(start).Milliseconds(),
			"error":      err.Error(),
		})
		return nil, classify(tc.Provider.Name(), err)
	}

	res := &Result{
		Text:     completion.Content,
		Model:    completion.Model,
		Usage:    completion.Usage,
		Attempts: attempts,
	}
	if !completion.Usage.Reported() {
		res.Usage = EstimateUsage(messages, completion.Content, i.count)
		res.UsageEstimated = true
	}

	i.logger.Info(logModule, "Model invocation succeeded", map[string]interface{}{
		"tier":              string(tier),
		"provider":          tc.Provider.Name(),
		"model":             res.Model,
		"attempts":          attempts,
		"prompt_tokens":     res.Usage.PromptTokens,
		"completion_tokens": res.Usage.CompletionTokens,
		"usage_estimated":   res.UsageEstimated,
		"elapsed_ms":        time.Since(start).Milliseconds(),
	})
	return res, nil
}

// EstimateCost prices usage with the tier's rates; unknown tiers cost nothing
func (i *Invoker) EstimateCost(usage llm.Usage, tier store.Tier) float64 {
	tc, ok := i.cfg.Tiers[tier]
	if !ok {
		return 0
	}
	return tc.Rates.Cost(usage)
}

// classify guarantees callers only see the two backend error kinds
func classify(backend string, err error) error {
	if apperror.IsTransient(err) || apperror.IsPersistent(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &apperror.TransientBackendError{Backend: backend, Err: err}
	}
	return &apperror.PersistentBackendError{Backend: backend, Cause: apperror.CauseUnknown, Err: err}
}
