package usecase

import (
	"context"

	"github.com/orionchat/registry/internal/domain"
)

// PreKeyUsecase manages the X3DH prekey pool alongside the identity store.
type PreKeyUsecase struct {
	repo     PreKeyRepository
	identity *IdentityUsecase
	config   domain.Config
}

func NewPreKeyUsecase(repo PreKeyRepository, identity *IdentityUsecase, config domain.Config) *PreKeyUsecase {
	return &PreKeyUsecase{repo: repo, identity: identity, config: config}
}

// Upload replaces the user's prekey set. The replace is idempotent, so it is
// retried on transient storage faults.
func (u *PreKeyUsecase) Upload(ctx context.Context, signed domain.SignedPreKey, oneTime []domain.OneTimePreKey) error {

	if err := ValidateKey(signed.PublicKey); err != nil {
		return err
	}
	if len(signed.Signature) == 0 {
		return domain.InvalidInputError{Reason: "signed prekey signature is required"}
	}
	for _, pk := range oneTime {
		if err := ValidateKey(pk.PublicKey); err != nil {
			return err
		}
	}

	return withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		return u.repo.Replace(ctx, signed, oneTime)
	})
}

// Bundle assembles the key material a peer needs to start a session with
// userID, consuming one one-time prekey if any remain. The consumption is not
// retried: a timed-out take may already have burned a key.
func (u *PreKeyUsecase) Bundle(ctx context.Context, userID string) (domain.IdentityRecord, domain.SignedPreKey, *domain.OneTimePreKey, error) {

	identity, err := u.identity.Get(ctx, userID)
	if err != nil {
		return domain.IdentityRecord{}, domain.SignedPreKey{}, nil, err
	}

	var signed domain.SignedPreKey
	err = withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		signed, err = u.repo.GetSigned(ctx, userID)
		return err
	})
	if err != nil {
		return domain.IdentityRecord{}, domain.SignedPreKey{}, nil, err
	}

	takeCtx, cancel := context.WithTimeout(ctx, u.config.StoreTimeout)
	defer cancel()

	oneTime, err := u.repo.TakeOneTime(takeCtx, userID)
	if err != nil {
		return domain.IdentityRecord{}, domain.SignedPreKey{}, nil, err
	}

	return identity, signed, oneTime, nil
}
