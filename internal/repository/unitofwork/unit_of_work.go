package unitofwork

import (
	"context"

	"ai-tutor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TutorSessionRepository() contract.TutorSessionRepository
	UserProfileRepository() contract.UserProfileRepository
	ModeTransitionRepository() contract.ModeTransitionRepository
	ContentChunkRepository() contract.ContentChunkRepository
}
