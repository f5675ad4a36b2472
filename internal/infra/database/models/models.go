package models

import (
	"time"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	Username     string    `json:"username" gorm:"type:text;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	Avatar       string    `json:"avatar" gorm:"type:text"`
	CDate        time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type IdentityRecord struct {
	UserID         string    `json:"user_id" gorm:"primaryKey;type:uuid"`
	User           User      `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	PublicKey      []byte    `json:"public_key" gorm:"type:bytea;not null"`
	RegistrationID int       `json:"registration_id" gorm:"type:integer;not null"`
	MDate          time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type SignedPreKey struct {
	UserID    string `json:"user_id" gorm:"primaryKey;type:uuid"`
	User      User   `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	KeyID     int    `json:"key_id" gorm:"type:integer;not null"`
	PublicKey []byte `json:"public_key" gorm:"type:bytea;not null"`
	Signature []byte `json:"signature" gorm:"type:bytea;not null"`
}

type OneTimePreKey struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string `json:"user_id" gorm:"type:uuid;index;not null"`
	User      User   `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	KeyID     int    `json:"key_id" gorm:"type:integer;not null"`
	PublicKey []byte `json:"public_key" gorm:"type:bytea;not null"`
}
