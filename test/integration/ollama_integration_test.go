package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/llm/ollama"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/invoker"
	"ai-tutor-be/pkg/tutor/persona"
	"ai-tutor-be/pkg/tutor/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a local Ollama; set OLLAMA_BASE_URL to enable.
func ollamaBackend(t *testing.T) (string, string) {
	t.Helper()
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL not set")
	}
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "gemma:2b"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Get(baseURL)
	if err != nil {
		t.Skipf("Ollama not reachable at %s: %v", baseURL, err)
	}
	res.Body.Close()
	return baseURL, model
}

func newOllamaInvoker(baseURL, model string) *invoker.Invoker {
	provider := ollama.NewOllamaProvider(baseURL, model)
	return invoker.NewInvoker(invoker.Config{
		Tiers: map[store.Tier]invoker.TierConfig{
			store.TierFast: {Provider: provider, Model: model, Timeout: 2 * time.Minute, Temperature: 0.2},
		},
		MaxRetries: 1,
	}, logger.NewNopLogger())
}

func TestOllamaGroundedAnswer(t *testing.T) {
	baseURL, model := ollamaBackend(t)
	inv := newOllamaInvoker(baseURL, model)

	registry := persona.NewRegistry(persona.FullMesh)
	personality, err := registry.ConfigFor(store.ModeTutor, store.SkillBeginner, store.StyleExamples)
	require.NoError(t, err)

	sources := []store.ContentSource{{
		DocumentID:     "lecture-3",
		ChunkID:        "c1",
		Text:           "A recursive function must have a base case that stops the recursion.",
		RelevanceScore: 0.92,
		Metadata:       store.SourceMetadata{Topic: "recursion"},
	}}
	payload := prompt.NewComposer(registry).Compose(store.ModeTutor, "en", personality, sources, nil,
		"Why does a recursive function need a base case?")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	res, err := inv.Invoke(ctx, payload, store.TierFast)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Text)
	assert.Positive(t, res.Usage.PromptTokens)

	body, followUps := prompt.ExtractFollowUps(res.Text)
	t.Logf("answer: %s", body)
	t.Logf("follow-ups: %v", followUps)
	assert.LessOrEqual(t, len(followUps), prompt.MaxFollowUps)
}

func TestOllamaMultiTurnInterview(t *testing.T) {
	baseURL, model := ollamaBackend(t)
	inv := newOllamaInvoker(baseURL, model)

	registry := persona.NewRegistry(persona.FullMesh)
	personality, err := registry.ConfigFor(store.ModeInterviewer, store.SkillIntermediate, store.StyleConcise)
	require.NoError(t, err)

	now := time.Now()
	history := []store.ConversationTurn{
		{Role: store.RoleUser, Content: "I want to practise for a backend interview.", Timestamp: now},
		{Role: store.RoleAssistant, Content: "Sure. How would you design a URL shortener?", Timestamp: now},
	}
	payload := prompt.NewComposer(registry).Compose(store.ModeInterviewer, "en", personality, nil, history,
		"I would hash the URL and store it in a key value store.")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	res, err := inv.Invoke(ctx, payload, store.TierFast)
	require.NoError(t, err)
	assert.NotEmpty(t, prompt.EnsureDisclaimer(res.Text, payload.Grounded))
}

func TestOllamaUnknownModelIsPersistent(t *testing.T) {
	baseURL, _ := ollamaBackend(t)
	inv := newOllamaInvoker(baseURL, "model-that-does-not-exist")

	registry := persona.NewRegistry(persona.FullMesh)
	personality, err := registry.ConfigFor(store.ModeMentor, "", "")
	require.NoError(t, err)
	payload := prompt.NewComposer(registry).Compose(store.ModeMentor, "en", personality, nil, nil, "hello")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err = inv.Invoke(ctx, payload, store.TierFast)
	require.Error(t, err)
	assert.True(t, apperror.IsPersistent(err), "got %v", err)
}
