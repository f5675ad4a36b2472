package usecase

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/orionchat/registry"
	"github.com/orionchat/registry/codec"
	"github.com/orionchat/registry/internal/domain"
)

// IdentityUsecase is the identity store: one canonical key record per user,
// replaced in place on rotation.
type IdentityUsecase struct {
	repo   IdentityRepository
	codec  *codec.Codec
	config domain.Config
}

func NewIdentityUsecase(repo IdentityRepository, cdc *codec.Codec, config domain.Config) *IdentityUsecase {
	return &IdentityUsecase{repo: repo, codec: cdc, config: config}
}

// ValidateKey checks the canonical serialization of an identity public key:
// a 0x05 type byte followed by the 32-byte Curve25519 point.
func ValidateKey(publicKey []byte) error {
	if len(publicKey) != registry.SerializedKeyLen {
		return domain.InvalidKeyError{Reason: fmt.Sprintf("expected %d bytes, got %d", registry.SerializedKeyLen, len(publicKey))}
	}
	if publicKey[0] != registry.KeyTypeByte {
		return domain.InvalidKeyError{Reason: "missing key type byte"}
	}
	return nil
}

// ValidateRegistrationID checks the protocol's 14-bit installation id range.
// Ids are user-scoped; reuse across users is permitted.
func ValidateRegistrationID(id int) error {
	if id < registry.MinRegistrationID || id > registry.MaxRegistrationID {
		return domain.InvalidInputError{Reason: "registration id out of range"}
	}
	return nil
}

// Upsert stores or atomically replaces the identity record for userID.
// Idempotent: repeating the same call is a no-op, repeating with different
// values overwrites. Transient storage faults are retried; retrying an upsert
// is always safe.
func (u *IdentityUsecase) Upsert(ctx context.Context, userID string, publicKey []byte, registrationID int) (domain.IdentityRecord, error) {

	if err := ValidateKey(publicKey); err != nil {
		return domain.IdentityRecord{}, err
	}
	if err := ValidateRegistrationID(registrationID); err != nil {
		return domain.IdentityRecord{}, err
	}

	record := domain.IdentityRecord{
		UserID:         userID,
		PublicKey:      publicKey,
		RegistrationID: registrationID,
	}

	var stored domain.IdentityRecord
	err := withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		stored, err = u.repo.Upsert(ctx, record)
		return err
	})
	return stored, err
}

func (u *IdentityUsecase) Get(ctx context.Context, userID string) (domain.IdentityRecord, error) {

	var record domain.IdentityRecord
	err := withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		record, err = u.repo.Get(ctx, userID)
		return err
	})
	return record, err
}

// Delete removes the identity record; absent records are not an error.
func (u *IdentityUsecase) Delete(ctx context.Context, userID string) error {
	return withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		return u.repo.Delete(ctx, userID)
	})
}

const fingerprintIterations = 1024

// Fingerprint derives the human-comparable fingerprint for an identity. The
// owning user id is folded in as canonically encoded text: the whole point of
// the canonical codec is that two clients on different runtimes derive the
// same digits for the same identity.
func (u *IdentityUsecase) Fingerprint(record domain.IdentityRecord) (string, error) {

	idBytes, err := u.codec.Encode(record.UserID, codec.UTF8)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(append(append([]byte{0}, record.PublicKey...), idBytes...))
	for i := 1; i < fingerprintIterations; i++ {
		digest = sha256.Sum256(append(digest[:], record.PublicKey...))
	}

	// 30 decimal digits, 5 digits per chunk
	var out []byte
	for i := 0; i < 6; i++ {
		chunk := uint64(digest[i*5])<<32 |
			uint64(digest[i*5+1])<<24 |
			uint64(digest[i*5+2])<<16 |
			uint64(digest[i*5+3])<<8 |
			uint64(digest[i*5+4])
		out = append(out, fmt.Sprintf("%05d", chunk%100000)...)
	}
	return string(out), nil
}
