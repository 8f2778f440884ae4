package contract

import (
	"context"

	"ai-tutor-be/pkg/store"
)

type TutorSessionRepository interface {
	// FindBySessionID returns the live (not expired) session, or nil when none exists
	FindBySessionID(ctx context.Context, sessionID string) (*store.Session, error)
	// Create stores a new session at version 1 and sets session.Version.
	// apperror.ErrVersionConflict is returned when a live session with the same id exists.
	Create(ctx context.Context, session *store.Session) error
	// UpdateIfVersion persists session only if the stored version equals expectedVersion.
	// On success session.Version is advanced; otherwise apperror.ErrVersionConflict is returned.
	UpdateIfVersion(ctx context.Context, session *store.Session, expectedVersion int64) error
	// Expire soft deletes the live session row
	Expire(ctx context.Context, sessionID string) error
}
