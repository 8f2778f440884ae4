package store

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the active interaction persona
type Mode string

const (
	ModeTutor       Mode = "tutor"
	ModeInterviewer Mode = "interviewer"
	ModeMentor      Mode = "mentor"
)

// Modes returns every supported mode
func Modes() []Mode {
	return []Mode{ModeTutor, ModeInterviewer, ModeMentor}
}

func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m is one of the supported modes
func (m Mode) Valid() bool {
	switch m {
	case ModeTutor, ModeInterviewer, ModeMentor:
		return true
	}
	return false
}

// ParseMode normalizes and validates a mode identifier
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// Tier is a named inference backend configuration
type Tier string

const (
	TierFast     Tier = "fast"
	TierAdvanced Tier = "advanced"
)

// Role of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Query is the immutable input of one orchestration cycle
type Query struct {
	UserID              string
	SessionID           string
	Text                string
	Mode                Mode
	Language            string
	ConversationHistory []ConversationTurn
}

// ConversationTurn is a single append-only history entry
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SourceMetadata carries optional positional info about a source
type SourceMetadata struct {
	Topic   string `json:"topic,omitempty"`
	Page    *int   `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
}

// ContentSource is a ranked snippet of user-owned material
type ContentSource struct {
	DocumentID     string         `json:"document_id"`
	ChunkID        string         `json:"chunk_id"`
	Text           string         `json:"text"`
	RelevanceScore float64        `json:"relevance_score"`
	Metadata       SourceMetadata `json:"metadata"`
}

// AIResponse is the output of a single orchestration cycle
type AIResponse struct {
	Text                string          `json:"text"`
	Mode                Mode            `json:"mode"`
	Confidence          float64         `json:"confidence"`
	Sources             []ContentSource `json:"sources"`
	FollowUpSuggestions []string        `json:"follow_up_suggestions"`
	ModelTier           Tier            `json:"model_tier"`
	Cached              bool            `json:"cached"`
	EstimatedCost       float64         `json:"estimated_cost"`
}

// CacheEntry wraps a stored response with advisory expiry
type CacheEntry struct {
	CacheKey  string     `json:"cache_key"`
	Response  AIResponse `json:"response"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reports whether the entry is past its advisory expiry
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// ModeTransition is an audit record of a mode change
type ModeTransition struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	FromMode  Mode      `json:"from_mode"`
	ToMode    Mode      `json:"to_mode"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
}

const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"

	StyleBalanced = "balanced"
	StyleExamples = "examples"
	StyleConcise  = "concise"
	StyleDetailed = "detailed"
	StyleSocratic = "socratic"
)

// UserProfile holds per-user preferences; LastMode is only a default for new sessions
type UserProfile struct {
	UserID           string `json:"user_id"`
	DisplayName      string `json:"display_name"`
	SkillLevel       string `json:"skill_level"`
	ExplanationStyle string `json:"explanation_style"`
	LastMode         Mode   `json:"last_mode"`
}

// DefaultProfile returns the profile used for users with no stored preferences
func DefaultProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:           userID,
		SkillLevel:       SkillIntermediate,
		ExplanationStyle: StyleBalanced,
		LastMode:         ModeTutor,
	}
}

// PersonalityConfig is derived per request, never persisted
type PersonalityConfig struct {
	Tone                string `json:"tone"`
	ResponseStyle       string `json:"response_style"`
	QuestioningApproach string `json:"questioning_approach"`
	FeedbackStyle       string `json:"feedback_style"`
	ExampleUsage        string `json:"example_usage"`
	LanguageComplexity  string `json:"language_complexity"`
}
