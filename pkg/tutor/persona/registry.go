package persona

import (
	"fmt"
	"strings"

	"ai-tutor-be/pkg/store"
)

// TransitionPolicy decides whether a mode change is allowed
type TransitionPolicy func(from, to store.Mode) bool

// FullMesh allows every transition between valid modes, including self-transitions
func FullMesh(from, to store.Mode) bool {
	return from.Valid() && to.Valid()
}

// Registry maps modes to personality configurations and transition messages
type Registry struct {
	policy TransitionPolicy
}

func NewRegistry(policy TransitionPolicy) *Registry {
	if policy == nil {
		policy = FullMesh
	}
	return &Registry{policy: policy}
}

// ConfigFor derives the personality for a mode, skill level and explanation style
func (r *Registry) ConfigFor(mode store.Mode, skillLevel, stylePref string) (store.PersonalityConfig, error) {
	var cfg store.PersonalityConfig

	switch mode {
	case store.ModeTutor:
		cfg = store.PersonalityConfig{
			Tone:                "warm and patient",
			ResponseStyle:       "step-by-step explanations that build on what the learner already knows",
			QuestioningApproach: "check understanding with short comprehension questions",
			FeedbackStyle:       "encouraging, correcting misconceptions gently",
			ExampleUsage:        "concrete examples for every new concept",
		}
	case store.ModeInterviewer:
		cfg = store.PersonalityConfig{
			Tone:                "professional and neutral",
			ResponseStyle:       "concise prompts that let the candidate do most of the talking",
			QuestioningApproach: "probe with follow-up questions and increase difficulty gradually",
			FeedbackStyle:       "structured assessment of strengths and gaps",
			ExampleUsage:        "scenario-based questions instead of worked examples",
		}
	case store.ModeMentor:
		cfg = store.PersonalityConfig{
			Tone:                "supportive and candid",
			ResponseStyle:       "big-picture guidance connected to long-term goals",
			QuestioningApproach: "reflective questions that help the learner reach their own conclusions",
			FeedbackStyle:       "honest advice with actionable next steps",
			ExampleUsage:        "real-world stories and practical scenarios",
		}
	default:
		return store.PersonalityConfig{}, fmt.Errorf("unknown mode %q", mode)
	}

	switch strings.ToLower(skillLevel) {
	case store.SkillBeginner:
		cfg.LanguageComplexity = "plain language, define every technical term"
	case store.SkillAdvanced:
		cfg.LanguageComplexity = "precise technical language, skip the basics"
	default:
		cfg.LanguageComplexity = "clear language with technical terms introduced in context"
	}

	switch strings.ToLower(stylePref) {
	case store.StyleExamples:
		cfg.ExampleUsage = "lead with worked examples, then generalize"
	case store.StyleConcise:
		cfg.ResponseStyle = "short, direct answers without digressions"
	case store.StyleDetailed:
		cfg.ResponseStyle = "thorough explanations covering edge cases"
	case store.StyleSocratic:
		cfg.QuestioningApproach = "answer mostly with guiding questions"
	}

	return cfg, nil
}

// TransitionMessage is the user-facing acknowledgement of a mode change
func (r *Registry) TransitionMessage(from, to store.Mode, displayName string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "there"
	}

	if from == to {
		return fmt.Sprintf("Hi %s, we're still in %s mode. Let's continue where we left off.", name, to)
	}

	switch to {
	case store.ModeTutor:
		return fmt.Sprintf("Hi %s, I'm your tutor now. Ask me anything and we'll work through it step by step.", name)
	case store.ModeInterviewer:
		return fmt.Sprintf("Hi %s, let's start interview practice. I'll ask questions and give you feedback on your answers.", name)
	case store.ModeMentor:
		return fmt.Sprintf("Hi %s, I'm switching to mentor mode. Let's talk about your goals and how to get there.", name)
	}
	return fmt.Sprintf("Hi %s, switched to %s mode.", name, to)
}

func (r *Registry) IsValidTransition(from, to store.Mode) bool {
	return r.policy(from, to)
}

// Describe renders the personality layer of the system instruction
func (r *Registry) Describe(mode store.Mode, p store.PersonalityConfig) string {
	var role string
	switch mode {
	case store.ModeTutor:
		role = "You are a patient tutor helping a learner understand their own study materials."
	case store.ModeInterviewer:
		role = "You are a technical interviewer running a practice interview based on the candidate's materials."
	case store.ModeMentor:
		role = "You are an experienced mentor guiding a learner's growth."
	default:
		role = "You are a helpful learning assistant."
	}

	var sb strings.Builder
	sb.WriteString(role)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- Tone: %s\n", p.Tone)
	fmt.Fprintf(&sb, "- Response style: %s\n", p.ResponseStyle)
	fmt.Fprintf(&sb, "- Questioning: %s\n", p.QuestioningApproach)
	fmt.Fprintf(&sb, "- Feedback: %s\n", p.FeedbackStyle)
	fmt.Fprintf(&sb, "- Examples: %s\n", p.ExampleUsage)
	fmt.Fprintf(&sb, "- Language: %s\n", p.LanguageComplexity)
	return sb.String()
}
