// Package crypto provides the cryptographic foundation for the secure
// channel library: Curve25519 key pairs, reusable secure buffers, and
// memory-safe zeroization of sensitive material.
//
// The Noise protocol machinery itself lives in the session package; this
// package holds only the pieces that exist independently of any session:
// static identity keys, the scratch-buffer type sessions reuse across
// operations, and the wipe primitives every component relies on when
// releasing key material.
//
// # Key Generation
//
// Generate a fresh Curve25519 static key pair, or derive one from an
// existing 32-byte secret:
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer crypto.WipeKeyPair(keys)
//
//	restored, err := crypto.FromSecretKey(secretKeyBytes)
//
// # Zeroization
//
// SecureWipe and ZeroBytes overwrite buffers in a way the compiler cannot
// elide. The library wipes through these helpers a session's scratch
// buffer and remote static key on Close, generated and derived key pairs,
// the resilient layer's envelope buffers, and prior storage values. The
// resilient session's replay window, the batching queues, and the static
// key copy handed to the Noise handshake state are not wiped.
package crypto
