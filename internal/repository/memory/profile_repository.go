package memory

import (
	"context"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type ProfileRepository struct {
	cache *cache.Cache
}

var _ contract.UserProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*store.UserProfile, error) {
	if x, found := r.cache.Get(userID); found {
		p := *x.(*store.UserProfile)
		return &p, nil
	}
	return nil, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, profile *store.UserProfile) error {
	p := *profile
	r.cache.Set(profile.UserID, &p, cache.NoExpiration)
	return nil
}
