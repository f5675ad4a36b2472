package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orionchat/registry/internal/domain"
	"github.com/orionchat/registry/internal/infra/database/models"
)

const identityCacheTTL = 300 // seconds

type IdentityRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

// NewIdentityRepository creates the identity store. mc may be nil, in which
// case reads always hit the database.
func NewIdentityRepository(db *gorm.DB, mc *memcache.Client) *IdentityRepository {
	return &IdentityRepository{db: db, mc: mc}
}

// Upsert inserts or replaces the identity record for userID in a single
// statement. Postgres serializes conflicting writes to the same row, so
// concurrent upserts for one user resolve to exactly one submitted pair,
// never a mix.
func (r *IdentityRepository) Upsert(ctx context.Context, record domain.IdentityRecord) (domain.IdentityRecord, error) {

	model := models.IdentityRecord{
		UserID:         record.UserID,
		PublicKey:      record.PublicKey,
		RegistrationID: record.RegistrationID,
		MDate:          time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"public_key", "registration_id", "m_date"}),
	}).Create(&model).Error
	if err != nil {
		return domain.IdentityRecord{}, storageError(err)
	}

	r.invalidate(record.UserID)

	return identityToDomain(model), nil
}

func (r *IdentityRepository) Get(ctx context.Context, userID string) (domain.IdentityRecord, error) {

	if cached, ok := r.fromCache(userID); ok {
		return cached, nil
	}

	var model models.IdentityRecord
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IdentityRecord{}, domain.NotFoundError{Resource: "identity"}
		}
		return domain.IdentityRecord{}, storageError(err)
	}

	record := identityToDomain(model)
	r.toCache(record)

	return record, nil
}

// Delete removes the identity record if present. Deleting an absent record is
// not an error.
func (r *IdentityRepository) Delete(ctx context.Context, userID string) error {

	err := r.db.WithContext(ctx).Delete(&models.IdentityRecord{}, "user_id = ?", userID).Error
	if err != nil {
		return storageError(err)
	}

	r.invalidate(userID)

	return nil
}

func identityCacheKey(userID string) string {
	return fmt.Sprintf("identity:%016x", xxh3.HashString(userID))
}

func (r *IdentityRepository) fromCache(userID string) (domain.IdentityRecord, bool) {
	if r.mc == nil {
		return domain.IdentityRecord{}, false
	}
	item, err := r.mc.Get(identityCacheKey(userID))
	if err != nil {
		return domain.IdentityRecord{}, false
	}
	var record domain.IdentityRecord
	if err := json.Unmarshal(item.Value, &record); err != nil {
		return domain.IdentityRecord{}, false
	}
	return record, true
}

func (r *IdentityRepository) toCache(record domain.IdentityRecord) {
	if r.mc == nil {
		return
	}
	value, err := json.Marshal(record)
	if err != nil {
		return
	}
	// cache failures are not storage failures
	_ = r.mc.Set(&memcache.Item{
		Key:        identityCacheKey(record.UserID),
		Value:      value,
		Expiration: identityCacheTTL,
	})
}

func (r *IdentityRepository) invalidate(userID string) {
	if r.mc == nil {
		return
	}
	_ = r.mc.Delete(identityCacheKey(userID))
}

func identityToDomain(model models.IdentityRecord) domain.IdentityRecord {
	return domain.IdentityRecord{
		UserID:         model.UserID,
		PublicKey:      model.PublicKey,
		RegistrationID: model.RegistrationID,
		UpdatedAt:      model.MDate,
	}
}
