package model

import (
	"time"

	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TutorSession rows are soft deleted on expiry; a new row may reuse the same SessionId
type TutorSession struct {
	Id           uuid.UUID                                         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    string                                            `gorm:"type:text;not null;uniqueIndex:idx_tutor_sessions_live,where:deleted_at IS NULL"`
	UserId       string                                            `gorm:"type:text;not null;index"`
	Mode         string                                            `gorm:"type:varchar(32);not null"`
	History      datatypes.JSONType[[]store.ConversationTurn]      `gorm:"type:jsonb"`
	TopicThreads datatypes.JSONType[map[string]*store.TopicThread] `gorm:"type:jsonb"`
	Version      int64                                             `gorm:"not null;default:0"`
	LastUpdated  time.Time                                         `gorm:"not null;index"`
	CreatedAt    time.Time                                         `gorm:"autoCreateTime"`
	UpdatedAt    time.Time                                         `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt                                    `gorm:"index"`
}

func (TutorSession) TableName() string {
	return "tutor_sessions"
}
