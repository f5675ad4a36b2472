package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/orionchat/registry"
	"github.com/orionchat/registry/internal/domain"
)

var tracer = otel.Tracer("registry")

// Stage tags a composed-operation failure with the step that produced it.
type Stage string

const (
	StageRegister  Stage = "register"
	StageBootstrap Stage = "bootstrap"
)

// StageError wraps a failure from a composed registry operation.
type StageError struct {
	Stage Stage
	Err   error
}

func (e StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e StageError) Unwrap() error {
	return e.Err
}

// RegistryUsecase is the single entry point composing account creation and
// identity bootstrap. It holds no state of its own.
type RegistryUsecase struct {
	account  *AccountUsecase
	identity *IdentityUsecase
	events   EventPublisher
}

func NewRegistryUsecase(account *AccountUsecase, identity *IdentityUsecase, events EventPublisher) *RegistryUsecase {
	return &RegistryUsecase{account: account, identity: identity, events: events}
}

// RegisterAndBootstrap creates the account and, when key material is
// supplied, bootstraps the identity record. A duplicate account aborts
// immediately; no identity write is attempted. Failures carry the stage that
// produced them.
func (u *RegistryUsecase) RegisterAndBootstrap(
	ctx context.Context,
	username, email, password string,
	publicKey []byte,
	registrationID int,
) (domain.User, *domain.IdentityRecord, error) {
	ctx, span := tracer.Start(ctx, "Registry.Usecase.RegisterAndBootstrap")
	defer span.End()

	user, err := u.account.Register(ctx, username, email, password)
	if err != nil {
		return domain.User{}, nil, StageError{Stage: StageRegister, Err: err}
	}

	u.publish(ctx, registry.Event{
		Type:      registry.EventUserRegistered,
		UserID:    user.ID,
		Timestamp: time.Now().UTC(),
	})

	if publicKey == nil {
		return user, nil, nil
	}

	record, err := u.identity.Upsert(ctx, user.ID, publicKey, registrationID)
	if err != nil {
		return user, nil, StageError{Stage: StageBootstrap, Err: err}
	}

	return user, &record, nil
}

// RotateIdentity replaces the identity record for an existing user. This is
// how a device re-registers keys without creating a duplicate account.
func (u *RegistryUsecase) RotateIdentity(ctx context.Context, userID string, publicKey []byte, registrationID int) (domain.IdentityRecord, error) {
	ctx, span := tracer.Start(ctx, "Registry.Usecase.RotateIdentity")
	defer span.End()

	if _, err := u.account.Get(ctx, userID); err != nil {
		return domain.IdentityRecord{}, err
	}

	record, err := u.identity.Upsert(ctx, userID, publicKey, registrationID)
	if err != nil {
		return domain.IdentityRecord{}, err
	}

	u.publish(ctx, registry.Event{
		Type:      registry.EventIdentityRotated,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	})

	return record, nil
}

// publish is best effort: a dropped event never fails the write that caused
// it.
func (u *RegistryUsecase) publish(ctx context.Context, event registry.Event) {
	if u.events == nil {
		return
	}
	if err := u.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish registry event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
	}
}
