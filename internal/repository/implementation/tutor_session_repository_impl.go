package implementation

import (
	"context"
	"errors"

	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"gorm.io/gorm"
)

type TutorSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TutorMapper
}

func NewTutorSessionRepository(db *gorm.DB) contract.TutorSessionRepository {
	return &TutorSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTutorMapper(),
	}
}

func (r *TutorSessionRepositoryImpl) FindBySessionID(ctx context.Context, sessionID string) (*store.Session, error) {
	var m model.TutorSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToStore(&m), nil
}

func (r *TutorSessionRepositoryImpl) Create(ctx context.Context, session *store.Session) error {
	m := r.mapper.SessionToModel(session)
	m.Version = 1
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.ErrVersionConflict
		}
		return err
	}
	session.Version = 1
	return nil
}

func (r *TutorSessionRepositoryImpl) UpdateIfVersion(ctx context.Context, session *store.Session, expectedVersion int64) error {
	m := r.mapper.SessionToModel(session)

	res := r.db.WithContext(ctx).
		Model(&model.TutorSession{}).
		Where("session_id = ? AND version = ?", session.SessionID, expectedVersion).
		Updates(map[string]interface{}{
			"mode":          m.Mode,
			"history":       m.History,
			"topic_threads": m.TopicThreads,
			"last_updated":  m.LastUpdated,
			"version":       expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrVersionConflict
	}
	session.Version = expectedVersion + 1
	return nil
}

func (r *TutorSessionRepositoryImpl) Expire(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.TutorSession{}).Error
}
