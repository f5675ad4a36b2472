package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/orionchat/registry/internal/domain"
	"github.com/orionchat/registry/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user in a single atomic statement. Uniqueness of
// username and email is enforced by the database, not by a prior existence
// check; the unique violation surfaces as a domain conflict.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {

	model := models.User{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Avatar:       user.Avatar,
	}

	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, domain.ConflictError{Field: "username or email"}
		}
		return domain.User{}, storageError(err)
	}

	return userToDomain(model), nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {

	var model models.User
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.NotFoundError{Resource: "user"}
		}
		return domain.User{}, storageError(err)
	}

	return userToDomain(model), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {

	var model models.User
	err := r.db.WithContext(ctx).First(&model, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.NotFoundError{Resource: "user"}
		}
		return domain.User{}, storageError(err)
	}

	return userToDomain(model), nil
}

// List returns all users ordered by username, excluding excludeID when set.
func (r *UserRepository) List(ctx context.Context, excludeID string) ([]domain.User, error) {

	query := r.db.WithContext(ctx).Order("username asc")
	if excludeID != "" {
		query = query.Where("id != ?", excludeID)
	}

	var rows []models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, storageError(err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, userToDomain(row))
	}
	return users, nil
}

// Search matches username or email substrings, excluding excludeID when set.
func (r *UserRepository) Search(ctx context.Context, q string, excludeID string, limit int) ([]domain.User, error) {

	pattern := "%" + q + "%"
	query := r.db.WithContext(ctx).
		Where("username LIKE ? OR email LIKE ?", pattern, pattern).
		Order("username asc").
		Limit(limit)
	if excludeID != "" {
		query = query.Where("id != ?", excludeID)
	}

	var rows []models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, storageError(err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, userToDomain(row))
	}
	return users, nil
}

// Count returns the number of rows per registry table, for the diagnostic
// surface only.
func (r *UserRepository) Count(ctx context.Context) (map[string]int64, error) {

	counts := map[string]int64{}
	for name, model := range map[string]any{
		"users":             &models.User{},
		"identity_records":  &models.IdentityRecord{},
		"signed_pre_keys":   &models.SignedPreKey{},
		"one_time_pre_keys": &models.OneTimePreKey{},
	} {
		var count int64
		if err := r.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
			return nil, storageError(err)
		}
		counts[name] = count
	}
	return counts, nil
}

func userToDomain(model models.User) domain.User {
	return domain.User{
		ID:           model.ID,
		Username:     model.Username,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		Avatar:       model.Avatar,
		CreatedAt:    model.CDate,
	}
}

// storageError classifies database failures. Connectivity faults and timeouts
// are transient, so callers can retry idempotent operations with backoff.
// Cancellation and data-class errors pass through unclassified: retrying them
// cannot succeed.
func storageError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrInvalidValueOfLength),
		errors.Is(err, gorm.ErrInvalidField):
		return err
	}
	return domain.StorageUnavailableError{Cause: err}
}
