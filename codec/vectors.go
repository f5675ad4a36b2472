package codec

// vector is a known plaintext/byte-sequence pair used to verify a transformer
// before it is trusted with key material.
type vector struct {
	text  string
	bytes []byte
}

// The vectors cover ASCII, multi-byte BMP characters, and a non-BMP character
// that requires a surrogate pair in UTF-16 — the cases host implementations
// have historically gotten wrong.
var vectors = map[string][]vector{
	UTF8: {
		{text: "", bytes: []byte{}},
		{text: "orion", bytes: []byte{0x6F, 0x72, 0x69, 0x6F, 0x6E}},
		{text: "café", bytes: []byte{0x63, 0x61, 0x66, 0xC3, 0xA9}},
		{text: "\U0001D11E", bytes: []byte{0xF0, 0x9D, 0x84, 0x9E}},
	},
	UTF16LE: {
		{text: "", bytes: []byte{}},
		{text: "orion", bytes: []byte{0x6F, 0x00, 0x72, 0x00, 0x69, 0x00, 0x6F, 0x00, 0x6E, 0x00}},
		{text: "café", bytes: []byte{0x63, 0x00, 0x61, 0x00, 0x66, 0x00, 0xE9, 0x00}},
		{text: "\U0001D11E", bytes: []byte{0x34, 0xD8, 0x1E, 0xDD}},
	},
	UTF16BE: {
		{text: "", bytes: []byte{}},
		{text: "orion", bytes: []byte{0x00, 0x6F, 0x00, 0x72, 0x00, 0x69, 0x00, 0x6F, 0x00, 0x6E}},
		{text: "café", bytes: []byte{0x00, 0x63, 0x00, 0x61, 0x00, 0x66, 0x00, 0xE9}},
		{text: "\U0001D11E", bytes: []byte{0xD8, 0x34, 0xDD, 0x1E}},
	},
}
