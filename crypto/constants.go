package crypto

// Wire-level size limits shared by every layer of the library.
const (
	// MaxMessageLen is the largest Noise message the protocol permits.
	MaxMessageLen = 65535

	// TagLen is the length of the ChaCha20-Poly1305 authentication tag
	// appended to every transport ciphertext.
	TagLen = 16

	// MaxPayloadLen is the largest plaintext that fits in a single
	// transport message once the AEAD tag is accounted for.
	MaxPayloadLen = MaxMessageLen - TagLen

	// KeyLen is the length of a Curve25519 public or private key.
	KeyLen = 32
)
