package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/complexity"
	"ai-tutor-be/pkg/tutor/persona"
	"ai-tutor-be/pkg/tutor/prompt"
	"ai-tutor-be/pkg/tutor/retrieval"

	"github.com/fatih/color"
)

/*
Prints the exact prompt the tutor would send for a query, without calling a model.

USAGE:
  go run ./cmd/trace_prompt -query "Explain recursion" -mode tutor -docs notes.json

notes.json holds a JSON array of documents:
  [{"UserID":"u1","DocumentID":"d1","ChunkID":"c1","Text":"...","Metadata":{"topic":"recursion"}}]
*/

func main() {
	query := flag.String("query", "", "query text")
	mode := flag.String("mode", "tutor", "tutor | interviewer | mentor")
	language := flag.String("language", "en", "response language code")
	userID := flag.String("user", "u1", "user id owning the documents")
	docsPath := flag.String("docs", "", "JSON file with documents to index")
	skill := flag.String("skill", store.SkillIntermediate, "skill level")
	style := flag.String("style", store.StyleBalanced, "explanation style")
	flag.Parse()

	if strings.TrimSpace(*query) == "" {
		color.Red("-query is required")
		flag.Usage()
		os.Exit(1)
	}

	m, err := store.ParseMode(*mode)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	index := retrieval.NewMemoryIndex()
	if *docsPath != "" {
		docs, err := loadDocuments(*docsPath)
		if err != nil {
			color.Red("Failed to load documents: %v", err)
			os.Exit(1)
		}
		index.Add(docs...)
		color.Cyan("Indexed %d documents", len(docs))
	}

	registry := persona.NewRegistry(persona.FullMesh)
	personality, err := registry.ConfigFor(m, *skill, *style)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	retriever := retrieval.NewRetriever(index, nil, retrieval.DefaultConfig(), logger.NewNopLogger())
	found := retriever.Retrieve(context.Background(), *userID, *query, 0)

	analyzer := complexity.NewAnalyzer(complexity.DefaultConfig())
	score := analyzer.Score(*query, nil)

	payload := prompt.NewComposer(registry).Compose(m, *language, personality, found.Sources, nil, *query)

	color.Yellow("\n== Routing")
	fmt.Printf("complexity score: %.2f\n", score)
	fmt.Printf("tier:             %s\n", analyzer.SelectTier(score))

	color.Yellow("\n== Sources (%d)", len(found.Sources))
	for i, src := range found.Sources {
		color.Green("[Source %d] %s/%s relevance=%.2f", i+1, src.DocumentID, src.ChunkID, src.RelevanceScore)
	}
	if len(found.Sources) == 0 {
		color.Magenta("none, the answer will carry the general-knowledge disclaimer")
	}

	color.Yellow("\n== System instruction")
	for _, line := range strings.Split(payload.System, "\n") {
		if strings.HasPrefix(line, "<") {
			color.Cyan("%s", line)
			continue
		}
		fmt.Println(line)
	}

	color.Yellow("\n== Messages")
	for _, msg := range payload.Messages {
		fmt.Printf("%s: %s\n", color.BlueString(msg.Role), msg.Content)
	}
}

func loadDocuments(path string) ([]retrieval.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []retrieval.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
