package model

import (
	"time"
)

type UserProfile struct {
	UserId           string    `gorm:"type:text;primaryKey"`
	DisplayName      string    `gorm:"type:text"`
	SkillLevel       string    `gorm:"type:varchar(32);default:'intermediate'"`
	ExplanationStyle string    `gorm:"type:varchar(32);default:'balanced'"`
	LastMode         string    `gorm:"type:varchar(32);default:'tutor'"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
