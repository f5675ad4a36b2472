package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ConflictError represents a uniqueness violation. It is an expected outcome,
// not an internal fault: the caller already holds the account or the value it
// tried to claim is taken.
type ConflictError struct {
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return "already exists"
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

// Is enables errors.Is matching on ConflictError.
func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// ErrDuplicateAccount is the sentinel error for registration conflicts.
var ErrDuplicateAccount = ConflictError{}

// InvalidInputError represents a malformed request. Retrying as-is will not
// help.
type InvalidInputError struct {
	Reason string
}

func (e InvalidInputError) Error() string {
	if e.Reason == "" {
		return "invalid input"
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// Is enables errors.Is matching on InvalidInputError.
func (e InvalidInputError) Is(target error) bool {
	_, ok := target.(InvalidInputError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidInputError)
	return ok
}

// ErrInvalidInput is the sentinel error for malformed requests.
var ErrInvalidInput = InvalidInputError{}

// InvalidKeyError represents key material that failed canonical-encoding
// validation. Such input is rejected, never coerced.
type InvalidKeyError struct {
	Reason string
}

func (e InvalidKeyError) Error() string {
	if e.Reason == "" {
		return "invalid key"
	}
	return fmt.Sprintf("invalid key: %s", e.Reason)
}

// Is enables errors.Is matching on InvalidKeyError.
func (e InvalidKeyError) Is(target error) bool {
	_, ok := target.(InvalidKeyError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidKeyError)
	return ok
}

// ErrInvalidKey is the sentinel error for malformed key material.
var ErrInvalidKey = InvalidKeyError{}

// StorageUnavailableError represents a transient infrastructure fault. Safe to
// retry with backoff for idempotent operations.
type StorageUnavailableError struct {
	Cause error
}

func (e StorageUnavailableError) Error() string {
	if e.Cause == nil {
		return "storage unavailable"
	}
	return fmt.Sprintf("storage unavailable: %v", e.Cause)
}

func (e StorageUnavailableError) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is matching on StorageUnavailableError.
func (e StorageUnavailableError) Is(target error) bool {
	_, ok := target.(StorageUnavailableError)
	if ok {
		return true
	}
	_, ok = target.(*StorageUnavailableError)
	return ok
}

// ErrStorageUnavailable is the sentinel error for transient storage faults.
var ErrStorageUnavailable = StorageUnavailableError{}

// UnauthorizedError represents failed or missing authentication.
type UnauthorizedError struct{}

func (e UnauthorizedError) Error() string {
	return "unauthorized"
}

// Is enables errors.Is matching on UnauthorizedError.
func (e UnauthorizedError) Is(target error) bool {
	_, ok := target.(UnauthorizedError)
	if ok {
		return true
	}
	_, ok = target.(*UnauthorizedError)
	return ok
}

// ErrUnauthorized is the sentinel error for authentication failures.
var ErrUnauthorized = UnauthorizedError{}
