package prompt

import (
	"fmt"
	"strings"

	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
)

const (
	// NoMaterialsDisclaimer prefixes every answer composed without sources
	NoMaterialsDisclaimer = "Note: I couldn't find this in your uploaded materials, so this answer is based on general knowledge."

	// GeneralKnowledgeDisclaimer prefixes grounded answers that rely on facts absent from the sources
	GeneralKnowledgeDisclaimer = "Note: parts of this answer go beyond your uploaded materials and are based on general knowledge."

	CitationInstruction = "Cite the supporting source explicitly as [Source N] after every statement taken from it."

	FollowUpMarker = "FOLLOW-UPS:"

	MaxHistoryTurns = 10
	MaxFollowUps    = 3
)

// Describer renders the personality layer for a mode
type Describer interface {
	Describe(mode store.Mode, p store.PersonalityConfig) string
}

// Payload is a provider-ready prompt
type Payload struct {
	System   string
	Messages []llm.Message
	Grounded bool
}

// ChatMessages returns the system instruction followed by the conversation
func (p Payload) ChatMessages() []llm.Message {
	out := make([]llm.Message, 0, len(p.Messages)+1)
	out = append(out, llm.Message{Role: string(store.RoleSystem), Content: p.System})
	return append(out, p.Messages...)
}

type Composer struct {
	describer Describer
}

func NewComposer(describer Describer) *Composer {
	return &Composer{describer: describer}
}

// Compose layers personality, language and grounding into the system instruction
// and appends the truncated history and the query as chat messages.
func (c *Composer) Compose(
	mode store.Mode,
	language string,
	personality store.PersonalityConfig,
	sources []store.ContentSource,
	history []store.ConversationTurn,
	query string,
) Payload {
	var sb strings.Builder

	sb.WriteString("<persona>\n")
	sb.WriteString(c.describer.Describe(mode, personality))
	sb.WriteString("</persona>\n\n")

	sb.WriteString("<language>\n")
	sb.WriteString(languageDirective(language))
	sb.WriteString("\n</language>\n\n")

	grounded := len(sources) > 0
	if grounded {
		writeGrounded(&sb, sources)
	} else {
		writeUngrounded(&sb)
	}

	writeFollowUpInstruction(&sb)

	messages := make([]llm.Message, 0, MaxHistoryTurns+1)
	for _, turn := range store.LastTurns(history, MaxHistoryTurns) {
		if turn.Role != store.RoleUser && turn.Role != store.RoleAssistant {
			continue
		}
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: string(store.RoleUser), Content: query})

	return Payload{
		System:   sb.String(),
		Messages: messages,
		Grounded: grounded,
	}
}

func writeGrounded(sb *strings.Builder, sources []store.ContentSource) {
	sb.WriteString("<sources>\n")
	for i, src := range sources {
		fmt.Fprintf(sb, "[Source %d]", i+1)
		if label := sourceLabel(src.Metadata); label != "" {
			fmt.Fprintf(sb, " (%s)", label)
		}
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(src.Text))
		sb.WriteString("\n\n")
	}
	sb.WriteString("</sources>\n\n")

	sb.WriteString("<grounding>\n")
	sb.WriteString("Answer from the learner's own materials above. Prefer source content over your general knowledge.\n")
	sb.WriteString(CitationInstruction)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "If a fact you need is absent from all sources, begin your answer with exactly: %q\n", GeneralKnowledgeDisclaimer)
	sb.WriteString("</grounding>\n\n")
}

func writeUngrounded(sb *strings.Builder) {
	sb.WriteString("<grounding>\n")
	sb.WriteString("No relevant passages were found in the learner's materials.\n")
	fmt.Fprintf(sb, "Begin your answer with exactly: %q\n", NoMaterialsDisclaimer)
	sb.WriteString("Then answer from general knowledge.\n")
	sb.WriteString("</grounding>\n\n")
}

func writeFollowUpInstruction(sb *strings.Builder) {
	sb.WriteString("<follow_ups>\n")
	fmt.Fprintf(sb, "After the answer, write a line containing only %q followed by up to %d short follow-up questions, one per line, each starting with \"- \".\n", FollowUpMarker, MaxFollowUps)
	sb.WriteString("</follow_ups>\n")
}

func sourceLabel(m store.SourceMetadata) string {
	var parts []string
	if m.Topic != "" {
		parts = append(parts, "topic: "+m.Topic)
	}
	if m.Section != "" {
		parts = append(parts, "section: "+m.Section)
	}
	if m.Page != nil {
		parts = append(parts, fmt.Sprintf("page %d", *m.Page))
	}
	return strings.Join(parts, ", ")
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"pt": "Portuguese",
	"it": "Italian",
	"id": "Indonesian",
	"ja": "Japanese",
	"zh": "Chinese",
}

func languageDirective(language string) string {
	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = "en"
	}
	if name, ok := languageNames[strings.ToLower(lang)]; ok {
		lang = name
	}
	return fmt.Sprintf("Respond in %s, including the disclaimer and follow-up questions.", lang)
}
