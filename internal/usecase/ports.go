package usecase

import (
	"context"

	"github.com/orionchat/registry"
	"github.com/orionchat/registry/internal/domain"
)

// UserRepository defines persistence/lookup for user accounts. Create must be
// a single atomic insert whose uniqueness violation surfaces as a
// domain.ConflictError.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context, excludeID string) ([]domain.User, error)
	Search(ctx context.Context, q string, excludeID string, limit int) ([]domain.User, error)
	Count(ctx context.Context) (map[string]int64, error)
}

// IdentityRepository defines storage for identity records. Upsert must be
// atomic: concurrent upserts for one user resolve to exactly one submitted
// (key, registration id) pair.
type IdentityRepository interface {
	Upsert(ctx context.Context, record domain.IdentityRecord) (domain.IdentityRecord, error)
	Get(ctx context.Context, userID string) (domain.IdentityRecord, error)
	Delete(ctx context.Context, userID string) error
}

// PreKeyRepository defines storage for X3DH prekeys.
type PreKeyRepository interface {
	Replace(ctx context.Context, signed domain.SignedPreKey, oneTime []domain.OneTimePreKey) error
	GetSigned(ctx context.Context, userID string) (domain.SignedPreKey, error)
	TakeOneTime(ctx context.Context, userID string) (*domain.OneTimePreKey, error)
}

// EventPublisher broadcasts registry state changes to connected clients.
type EventPublisher interface {
	Publish(ctx context.Context, event registry.Event) error
}
