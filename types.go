package registry

import (
	"time"
)

// RegisterRequest is the payload for account creation. PublicKey and
// RegistrationID are optional; when both are present the identity record is
// bootstrapped in the same call.
type RegisterRequest struct {
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	PublicKey      *string `json:"publicKey,omitempty"` // base64
	RegistrationID *int    `json:"registrationId,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

type Identity struct {
	UserID         string    `json:"userId"`
	PublicKey      string    `json:"publicKey"` // base64
	RegistrationID int       `json:"registrationId"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RegisterResponse struct {
	Token    string    `json:"token"`
	User     User      `json:"user"`
	Identity *Identity `json:"identity,omitempty"`
}

// IdentityUpload is the payload for identity key registration and rotation.
type IdentityUpload struct {
	UserID         string `json:"userId"`
	PublicKey      string `json:"publicKey"` // base64
	RegistrationID int    `json:"registrationId"`
}

type SignedPreKey struct {
	KeyID     int    `json:"keyId"`
	PublicKey string `json:"publicKey"` // base64
	Signature string `json:"signature"` // base64
}

type OneTimePreKey struct {
	KeyID     int    `json:"keyId"`
	PublicKey string `json:"publicKey"` // base64
}

type PreKeyUpload struct {
	UserID         string          `json:"userId"`
	SignedPreKey   SignedPreKey    `json:"signedPreKey"`
	OneTimePreKeys []OneTimePreKey `json:"oneTimePreKeys,omitempty"`
}

// PreKeyBundle is the key material another client needs to start an X3DH
// session. OneTimePreKey is nil when the pool is exhausted.
type PreKeyBundle struct {
	IdentityKey    string         `json:"identityKey"` // base64
	RegistrationID int            `json:"registrationId"`
	SignedPreKey   SignedPreKey   `json:"signedPreKey"`
	OneTimePreKey  *OneTimePreKey `json:"oneTimePreKey,omitempty"`
}

const (
	EventIdentityRotated = "identity.rotated"
	EventUserRegistered  = "user.registered"
)

// Event is broadcast over the realtime channel when registry state changes.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}
