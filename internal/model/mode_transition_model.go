package model

import (
	"time"

	"github.com/google/uuid"
)

// ModeTransition is append-only: no UpdatedAt, no soft delete
type ModeTransition struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    string    `gorm:"type:text;not null;index"`
	SessionId string    `gorm:"type:text;not null;index"`
	FromMode  string    `gorm:"type:varchar(32);not null"`
	ToMode    string    `gorm:"type:varchar(32);not null"`
	Reason    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (ModeTransition) TableName() string {
	return "mode_transitions"
}
