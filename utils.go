package registry

import (
	"encoding/base64"
	"fmt"
	"regexp"
)

// Identity public keys are serialized the libsignal way: a type byte (0x05)
// followed by the 32-byte Curve25519 point.
const (
	KeyTypeByte      = 0x05
	SerializedKeyLen = 33
)

// Registration ids are 14-bit protocol installation identifiers.
const (
	MinRegistrationID = 1
	MaxRegistrationID = 0x3FFF
)

// EncodeKey renders raw key material for the wire.
func EncodeKey(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeKey parses wire key material. It only checks that the input is valid
// base64; structural validation is the registry's concern.
func DecodeKey(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 key material")
	}
	return b, nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}
