package implementation

import (
	"context"

	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/store"

	"gorm.io/gorm"
)

type ModeTransitionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TutorMapper
}

func NewModeTransitionRepository(db *gorm.DB) contract.ModeTransitionRepository {
	return &ModeTransitionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTutorMapper(),
	}
}

func (r *ModeTransitionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ModeTransitionRepositoryImpl) Create(ctx context.Context, transition *store.ModeTransition) error {
	m := r.mapper.TransitionToModel(transition)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	transition.ID = m.Id.String()
	return nil
}

func (r *ModeTransitionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*store.ModeTransition, error) {
	var models []*model.ModeTransition
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.TransitionsToStore(models), nil
}

func (r *ModeTransitionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ModeTransition{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
