package contract

import (
	"context"

	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/store"
)

type ModeTransitionRepository interface {
	Create(ctx context.Context, transition *store.ModeTransition) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*store.ModeTransition, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
