package domain

import "time"

// IdentityRecord is a user's canonical cryptographic identity: at most one per
// user, holding the most recently submitted key material. No history is
// retained; rotation replaces in place.
type IdentityRecord struct {
	UserID         string
	PublicKey      []byte
	RegistrationID int
	UpdatedAt      time.Time
}

// SignedPreKey is the medium-term X3DH prekey, signed by the identity key.
// One per user; uploads replace it.
type SignedPreKey struct {
	UserID    string
	KeyID     int
	PublicKey []byte
	Signature []byte
}

// OneTimePreKey is an ephemeral X3DH prekey. Batch-uploaded and consumed
// exactly once when a bundle is fetched.
type OneTimePreKey struct {
	UserID    string
	KeyID     int
	PublicKey []byte
}
