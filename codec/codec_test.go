package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTripAllEncodings(t *testing.T) {
	c := New()
	texts := []string{"", "orion", "café", "\U0001D11E", "鍵の素材", "aé\U0001F511"}

	for _, name := range []string{UTF8, UTF16LE, UTF16BE} {
		for _, text := range texts {
			encoded, err := c.Encode(text, name)
			if err != nil {
				t.Fatalf("encode %q as %s: %v", text, name, err)
			}
			decoded, err := c.Decode(encoded, name)
			if err != nil {
				t.Fatalf("decode %q as %s: %v", text, name, err)
			}
			if decoded != text {
				t.Fatalf("round trip mismatch for %s: %q != %q", name, decoded, text)
			}
		}
	}
}

func TestBundledMatchesPlatform(t *testing.T) {
	// Both implementations must agree byte for byte, otherwise the fallback
	// would change wire output depending on the conformance check outcome.
	texts := []string{"", "orion", "café", "\U0001D11E", "混在text\U0001D11E"}

	for _, name := range []string{UTF8, UTF16LE, UTF16BE} {
		platform := newPlatformTransformer(name)
		bundled := newBundledTransformer(name)
		for _, text := range texts {
			pb, err := platform.Encode(text)
			if err != nil {
				t.Fatalf("platform encode %s: %v", name, err)
			}
			bb, err := bundled.Encode(text)
			if err != nil {
				t.Fatalf("bundled encode %s: %v", name, err)
			}
			if !bytes.Equal(pb, bb) {
				t.Fatalf("%s: platform %x != bundled %x for %q", name, pb, bb, text)
			}
		}
	}
}

func TestConformanceVectors(t *testing.T) {
	c := New()
	for name, vs := range vectors {
		for _, v := range vs {
			encoded, err := c.Encode(v.text, name)
			if err != nil {
				t.Fatalf("encode vector %q as %s: %v", v.text, name, err)
			}
			if !bytes.Equal(encoded, v.bytes) {
				t.Fatalf("%s: got %x want %x for %q", name, encoded, v.bytes, v.text)
			}
			decoded, err := c.Decode(v.bytes, name)
			if err != nil {
				t.Fatalf("decode vector %x as %s: %v", v.bytes, name, err)
			}
			if decoded != v.text {
				t.Fatalf("%s: got %q want %q", name, decoded, v.text)
			}
		}
	}
}

// corruptTransformer flips the low bit of every encoded byte, emulating a
// host text codec that miscomputes conversions.
type corruptTransformer struct {
	inner transformer
}

func (t corruptTransformer) Encode(text string) ([]byte, error) {
	b, err := t.inner.Encode(text)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ 0x01
	}
	return out, nil
}

func (t corruptTransformer) Decode(b []byte) (string, error) {
	return t.inner.Decode(b)
}

func TestConformanceRejectsDivergingTransformer(t *testing.T) {
	for name, vs := range vectors {
		if conforms(corruptTransformer{inner: newPlatformTransformer(name)}, vs) {
			t.Fatalf("diverging %s transformer passed conformance", name)
		}
	}
}

func TestDivergingPlatformFallsBackToBundled(t *testing.T) {
	c := newCodec(func(name string) transformer {
		return corruptTransformer{inner: newPlatformTransformer(name)}
	})

	for _, name := range []string{UTF8, UTF16LE, UTF16BE} {
		switch c.transformers[name].(type) {
		case bundledUTF8, bundledUTF16:
		default:
			t.Fatalf("%s did not fall back to the bundled implementation", name)
		}
	}

	// output stays canonical despite the broken platform codec
	for name, vs := range vectors {
		for _, v := range vs {
			encoded, err := c.Encode(v.text, name)
			if err != nil {
				t.Fatalf("encode %q as %s: %v", v.text, name, err)
			}
			if !bytes.Equal(encoded, v.bytes) {
				t.Fatalf("%s: got %x want %x for %q", name, encoded, v.bytes, v.text)
			}
		}
	}
}

func TestBundledConforms(t *testing.T) {
	// The fallback path must itself pass the vectors it guards.
	for name, vs := range vectors {
		if !conforms(newBundledTransformer(name), vs) {
			t.Fatalf("bundled %s transformer fails conformance", name)
		}
	}
}

func TestUnsupportedEncoding(t *testing.T) {
	c := New()
	if _, err := c.Encode("x", "latin-1"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
	if _, err := c.Decode([]byte{0x78}, "shift-jis"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestEncodingNameAliases(t *testing.T) {
	c := New()
	for _, alias := range []string{"UTF-8", "utf8", " utf-8 "} {
		if !c.Supported(alias) {
			t.Fatalf("expected %q to be supported", alias)
		}
	}
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	c := New()
	invalid := [][]byte{
		{0xFF},
		{0xC3},             // truncated two-byte sequence
		{0x80, 0x80},       // stray continuation bytes
		{0xE2, 0x82},       // truncated three-byte sequence
		{0xF0, 0x9D, 0x84}, // truncated four-byte sequence
	}
	for _, b := range invalid {
		if _, err := c.Decode(b, UTF8); !errors.Is(err, ErrInvalidByteSequence) {
			t.Fatalf("expected ErrInvalidByteSequence for %x, got %v", b, err)
		}
	}
}

func TestDecodeRejectsInvalidUTF16(t *testing.T) {
	c := New()
	cases := []struct {
		name string
		b    []byte
	}{
		{UTF16LE, []byte{0x6F}},                   // odd length
		{UTF16LE, []byte{0x34, 0xD8}},             // lone high surrogate
		{UTF16LE, []byte{0x1E, 0xDD}},             // lone low surrogate
		{UTF16LE, []byte{0x34, 0xD8, 0x6F, 0x00}}, // high surrogate followed by non-surrogate
		{UTF16BE, []byte{0xD8, 0x34}},             // lone high surrogate
	}
	for _, tc := range cases {
		if _, err := c.Decode(tc.b, tc.name); !errors.Is(err, ErrInvalidByteSequence) {
			t.Fatalf("expected ErrInvalidByteSequence for %x as %s, got %v", tc.b, tc.name, err)
		}
	}
}

func TestDefaultIsStable(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default must return the same Codec for the process lifetime")
	}
}
