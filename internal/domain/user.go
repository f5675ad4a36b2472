package domain

import "time"

// User is a registered account without persistence concerns. Username and
// email are each globally unique across all users.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	CreatedAt    time.Time
}
