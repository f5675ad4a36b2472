package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/orionchat/registry"
	"github.com/orionchat/registry/internal/domain"
)

// dummyHash is compared against when the account does not exist, so login
// latency does not leak account existence.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AccountUsecase creates and authenticates user accounts.
type AccountUsecase struct {
	repo   UserRepository
	config domain.Config
}

func NewAccountUsecase(repo UserRepository, config domain.Config) *AccountUsecase {
	return &AccountUsecase{repo: repo, config: config}
}

// Register creates exactly one account per unique username/email pair. The
// uniqueness check lives in the storage layer's atomic insert; a violation
// comes back as domain.ConflictError, an expected outcome distinct from
// storage faults. Storage faults are not retried: the outcome of a timed-out
// insert is unknown.
func (u *AccountUsecase) Register(ctx context.Context, username, email, password string) (domain.User, error) {

	if u.config.Registration == "close" {
		return domain.User{}, domain.UnauthorizedError{}
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return domain.User{}, domain.InvalidInputError{Reason: "username is required"}
	}
	if email == "" {
		return domain.User{}, domain.InvalidInputError{Reason: "email is required"}
	}
	if !registry.IsEmail(email) {
		return domain.User{}, domain.InvalidInputError{Reason: "malformed email"}
	}
	if password == "" {
		return domain.User{}, domain.InvalidInputError{Reason: "password is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	storeCtx, cancel := context.WithTimeout(ctx, u.config.StoreTimeout)
	defer cancel()

	return u.repo.Create(storeCtx, user)
}

// Authenticate verifies email/password credentials.
func (u *AccountUsecase) Authenticate(ctx context.Context, email, password string) (domain.User, error) {

	var user domain.User
	err := withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		user, err = u.repo.GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return domain.User{}, domain.UnauthorizedError{}
		}
		return domain.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, domain.UnauthorizedError{}
	}

	return user, nil
}

// Get returns the account for id.
func (u *AccountUsecase) Get(ctx context.Context, id string) (domain.User, error) {

	var user domain.User
	err := withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		user, err = u.repo.Get(ctx, id)
		return err
	})
	return user, err
}

// List returns all accounts except excludeID, for the contact picker.
func (u *AccountUsecase) List(ctx context.Context, excludeID string) ([]domain.User, error) {

	var users []domain.User
	err := withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		users, err = u.repo.List(ctx, excludeID)
		return err
	})
	return users, err
}

const searchLimit = 20

// Search matches accounts by username or email substring.
func (u *AccountUsecase) Search(ctx context.Context, q string, excludeID string) ([]domain.User, error) {

	if strings.TrimSpace(q) == "" {
		return nil, domain.InvalidInputError{Reason: "search query is required"}
	}

	var users []domain.User
	err := withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		users, err = u.repo.Search(ctx, q, excludeID, searchLimit)
		return err
	})
	return users, err
}

// TableCounts reports per-table row counts for operational debugging. Not
// part of the registry contract; production logic must not depend on it.
func (u *AccountUsecase) TableCounts(ctx context.Context) (map[string]int64, error) {

	var counts map[string]int64
	err := withStorageRetry(ctx, u.config.StoreTimeout, func(ctx context.Context) error {
		var err error
		counts, err = u.repo.Count(ctx)
		return err
	})
	return counts, err
}
