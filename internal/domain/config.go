package domain

import "time"

// Config is the runtime configuration shared by handlers and services.
type Config struct {
	FQDN         string
	Registration string // open, close
	JWTSecret    string
	TokenTTL     time.Duration
	StoreTimeout time.Duration
}
