// Package codec provides the canonical text/byte conversion used whenever key
// material crosses a serialization boundary. Conversions are deterministic and
// runtime-independent: the platform transformers (golang.org/x/text) are
// checked against fixed conformance vectors once per process, and any encoding
// whose platform transformer disagrees falls back to the bundled
// implementation. Some client runtimes shipped native text codecs that
// miscomputed non-UTF-8 conversions, so nothing here is trusted unverified.
package codec

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/encoding/unicode"
)

const (
	UTF8    = "utf-8"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
)

// UnsupportedEncodingError indicates an encoding name outside the supported set.
type UnsupportedEncodingError struct {
	Name string
}

func (e UnsupportedEncodingError) Error() string {
	if e.Name == "" {
		return "unsupported encoding"
	}
	return fmt.Sprintf("unsupported encoding: %s", e.Name)
}

// Is enables errors.Is matching on UnsupportedEncodingError.
func (e UnsupportedEncodingError) Is(target error) bool {
	_, ok := target.(UnsupportedEncodingError)
	if ok {
		return true
	}
	_, ok = target.(*UnsupportedEncodingError)
	return ok
}

// ErrUnsupportedEncoding is the sentinel error for unknown encoding names.
var ErrUnsupportedEncoding = UnsupportedEncodingError{}

// InvalidByteSequenceError indicates bytes that are not valid for the named
// encoding. Decoding never silently coerces such input.
type InvalidByteSequenceError struct {
	Encoding string
}

func (e InvalidByteSequenceError) Error() string {
	if e.Encoding == "" {
		return "invalid byte sequence"
	}
	return fmt.Sprintf("invalid byte sequence for %s", e.Encoding)
}

// Is enables errors.Is matching on InvalidByteSequenceError.
func (e InvalidByteSequenceError) Is(target error) bool {
	_, ok := target.(InvalidByteSequenceError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidByteSequenceError)
	return ok
}

// ErrInvalidByteSequence is the sentinel error for undecodable input.
var ErrInvalidByteSequence = InvalidByteSequenceError{}

// transformer converts between text and one concrete byte encoding. Decode is
// only called on input that already passed strict validation.
type transformer interface {
	Encode(text string) ([]byte, error)
	Decode(b []byte) (string, error)
}

// Codec holds the per-encoding transformer selection. The selection is made at
// construction and never changes afterwards.
type Codec struct {
	transformers map[string]transformer
}

// New builds a Codec, verifying every platform transformer against the
// conformance vectors and substituting the bundled implementation where the
// platform one diverges.
func New() *Codec {
	return newCodec(newPlatformTransformer)
}

// newCodec runs the conformance selection with the given platform-transformer
// constructor.
func newCodec(platformFor func(name string) transformer) *Codec {
	c := &Codec{transformers: make(map[string]transformer)}

	for _, name := range []string{UTF8, UTF16LE, UTF16BE} {
		platform := platformFor(name)
		if conforms(platform, vectors[name]) {
			c.transformers[name] = platform
		} else {
			c.transformers[name] = newBundledTransformer(name)
		}
	}

	return c
}

var (
	defaultCodec *Codec
	defaultOnce  sync.Once
)

// Default returns the process-wide Codec. The transformer selection is fixed
// for the process lifetime.
func Default() *Codec {
	defaultOnce.Do(func() {
		defaultCodec = New()
	})
	return defaultCodec
}

// Encode converts text to bytes in the named encoding.
func (c *Codec) Encode(text string, encoding string) ([]byte, error) {
	t, ok := c.transformers[normalize(encoding)]
	if !ok {
		return nil, UnsupportedEncodingError{Name: encoding}
	}
	return t.Encode(text)
}

// Decode converts bytes in the named encoding back to text. Input is strictly
// validated first; malformed sequences fail with InvalidByteSequenceError
// regardless of which transformer is selected.
func (c *Codec) Decode(b []byte, encoding string) (string, error) {
	name := normalize(encoding)
	t, ok := c.transformers[name]
	if !ok {
		return "", UnsupportedEncodingError{Name: encoding}
	}
	if err := validate(b, name); err != nil {
		return "", err
	}
	return t.Decode(b)
}

// Supported reports whether the encoding name is in the supported set.
func (c *Codec) Supported(encoding string) bool {
	_, ok := c.transformers[normalize(encoding)]
	return ok
}

func normalize(encoding string) string {
	name := strings.ToLower(strings.TrimSpace(encoding))
	switch name {
	case "utf8":
		return UTF8
	case "utf16le":
		return UTF16LE
	case "utf16be":
		return UTF16BE
	}
	return name
}

// conforms runs a transformer against known plaintext/byte pairs in both
// directions.
func conforms(t transformer, vs []vector) bool {
	for _, v := range vs {
		encoded, err := t.Encode(v.text)
		if err != nil || !bytes.Equal(encoded, v.bytes) {
			return false
		}
		decoded, err := t.Decode(v.bytes)
		if err != nil || decoded != v.text {
			return false
		}
	}
	return true
}

func newPlatformTransformer(name string) transformer {
	switch name {
	case UTF8:
		return platformTransformer{enc: unicode.UTF8}
	case UTF16LE:
		return platformTransformer{enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
	case UTF16BE:
		return platformTransformer{enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
	}
	panic("unknown encoding: " + name)
}

func newBundledTransformer(name string) transformer {
	switch name {
	case UTF8:
		return bundledUTF8{}
	case UTF16LE:
		return bundledUTF16{bigEndian: false}
	case UTF16BE:
		return bundledUTF16{bigEndian: true}
	}
	panic("unknown encoding: " + name)
}
