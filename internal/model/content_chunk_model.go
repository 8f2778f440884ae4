package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ContentChunk is an embedded slice of a user's uploaded material. Rows are written by the ingestion service.
type ContentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         string          `gorm:"type:text;not null;index"`
	DocumentId     string          `gorm:"type:text;not null;index"`
	ChunkIndex     int             `gorm:"default:0"`
	Document       string          `gorm:"type:text"`
	Topic          string          `gorm:"type:text"`
	Page           *int            `gorm:"type:integer"`
	Section        string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (ContentChunk) TableName() string {
	return "content_chunks"
}
