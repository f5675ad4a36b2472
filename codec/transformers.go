package codec

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// platformTransformer adapts a golang.org/x/text encoding.
type platformTransformer struct {
	enc encoding.Encoding
}

func (t platformTransformer) Encode(text string) ([]byte, error) {
	return t.enc.NewEncoder().Bytes([]byte(text))
}

func (t platformTransformer) Decode(b []byte) (string, error) {
	decoded, err := t.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// bundledUTF8 is the fallback UTF-8 transformer. Go strings are UTF-8, so
// conversion is a copy; validity is enforced by the caller.
type bundledUTF8 struct{}

func (bundledUTF8) Encode(text string) ([]byte, error) {
	return []byte(text), nil
}

func (bundledUTF8) Decode(b []byte) (string, error) {
	return string(b), nil
}

// bundledUTF16 is the fallback UTF-16 transformer.
type bundledUTF16 struct {
	bigEndian bool
}

func (t bundledUTF16) Encode(text string) ([]byte, error) {
	units := utf16.Encode([]rune(text))
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		if t.bigEndian {
			out = append(out, byte(u>>8), byte(u))
		} else {
			out = append(out, byte(u), byte(u>>8))
		}
	}
	return out, nil
}

func (t bundledUTF16) Decode(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", InvalidByteSequenceError{}
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		if t.bigEndian {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		} else {
			units = append(units, uint16(b[i+1])<<8|uint16(b[i]))
		}
	}
	return string(utf16.Decode(units)), nil
}

// validate rejects byte sequences that are not well formed in the named
// encoding: truncated or overlong UTF-8, odd-length UTF-16, and unpaired
// surrogates.
func validate(b []byte, name string) error {
	switch name {
	case UTF8:
		if !utf8.Valid(b) {
			return InvalidByteSequenceError{Encoding: name}
		}
	case UTF16LE, UTF16BE:
		if len(b)%2 != 0 {
			return InvalidByteSequenceError{Encoding: name}
		}
		big := name == UTF16BE
		var pendingHigh bool
		for i := 0; i < len(b); i += 2 {
			var u uint16
			if big {
				u = uint16(b[i])<<8 | uint16(b[i+1])
			} else {
				u = uint16(b[i+1])<<8 | uint16(b[i])
			}
			switch {
			case u >= 0xD800 && u <= 0xDBFF:
				if pendingHigh {
					return InvalidByteSequenceError{Encoding: name}
				}
				pendingHigh = true
			case u >= 0xDC00 && u <= 0xDFFF:
				if !pendingHigh {
					return InvalidByteSequenceError{Encoding: name}
				}
				pendingHigh = false
			default:
				if pendingHigh {
					return InvalidByteSequenceError{Encoding: name}
				}
			}
		}
		if pendingHigh {
			return InvalidByteSequenceError{Encoding: name}
		}
	default:
		return UnsupportedEncodingError{Name: name}
	}
	return nil
}
