//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/pkg/embedding"
)

// Checks that the configured embedding backend answers and that its
// dimensions match the content_chunks vector column.
func main() {
	cfg := config.Load()
	fmt.Printf("Embedding URL: %s\n", cfg.Ai.EmbeddingBaseURL)
	fmt.Printf("Embedding Model: %s\n", cfg.Ai.EmbeddingModel)

	provider := embedding.NewOllamaProvider(cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text := "Recursion is when a function calls itself on a smaller input."
	resp, err := provider.Generate(ctx, text)
	if err != nil {
		log.Fatalf("Error generating embedding: %v", err)
	}

	dims := len(resp.Embedding.Values)
	fmt.Printf("Generated embedding with %d dimensions\n", dims)
	if dims > 5 {
		fmt.Printf("First 5 values: %v...\n", resp.Embedding.Values[:5])
	}

	// nomic-embed-text produces 768 dimensions
	if dims != 768 {
		fmt.Printf("Dimensions %d do not match the 768 expected by content_chunks.embedding\n", dims)
	}
}
