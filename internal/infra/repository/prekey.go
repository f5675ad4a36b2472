package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orionchat/registry/internal/domain"
	"github.com/orionchat/registry/internal/infra/database/models"
)

type PreKeyRepository struct {
	db *gorm.DB
}

func NewPreKeyRepository(db *gorm.DB) *PreKeyRepository {
	return &PreKeyRepository{db: db}
}

// Replace swaps the user's entire prekey set in one transaction: the signed
// prekey is upserted and the one-time pool is rebuilt from scratch.
func (r *PreKeyRepository) Replace(ctx context.Context, signed domain.SignedPreKey, oneTime []domain.OneTimePreKey) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		signedModel := models.SignedPreKey{
			UserID:    signed.UserID,
			KeyID:     signed.KeyID,
			PublicKey: signed.PublicKey,
			Signature: signed.Signature,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"key_id", "public_key", "signature"}),
		}).Create(&signedModel).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.OneTimePreKey{}, "user_id = ?", signed.UserID).Error; err != nil {
			return err
		}

		for _, pk := range oneTime {
			model := models.OneTimePreKey{
				UserID:    pk.UserID,
				KeyID:     pk.KeyID,
				PublicKey: pk.PublicKey,
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return storageError(err)
	}

	return nil
}

func (r *PreKeyRepository) GetSigned(ctx context.Context, userID string) (domain.SignedPreKey, error) {

	var model models.SignedPreKey
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SignedPreKey{}, domain.NotFoundError{Resource: "signed prekey"}
		}
		return domain.SignedPreKey{}, storageError(err)
	}

	return domain.SignedPreKey{
		UserID:    model.UserID,
		KeyID:     model.KeyID,
		PublicKey: model.PublicKey,
		Signature: model.Signature,
	}, nil
}

// TakeOneTime consumes one one-time prekey: the row is locked, returned, and
// deleted in the same transaction so no two bundle fetches receive the same
// key. Returns nil when the pool is empty.
func (r *PreKeyRepository) TakeOneTime(ctx context.Context, userID string) (*domain.OneTimePreKey, error) {

	var taken *domain.OneTimePreKey

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var model models.OneTimePreKey
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("user_id = ?", userID).
			Order("id asc").
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Delete(&models.OneTimePreKey{}, "id = ?", model.ID).Error; err != nil {
			return err
		}

		taken = &domain.OneTimePreKey{
			UserID:    model.UserID,
			KeyID:     model.KeyID,
			PublicKey: model.PublicKey,
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	return taken, nil
}
