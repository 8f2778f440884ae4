package contract

import (
	"context"

	"ai-tutor-be/pkg/store"
)

type UserProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*store.UserProfile, error)
	Upsert(ctx context.Context, profile *store.UserProfile) error
}
