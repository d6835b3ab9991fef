// Package noisemobile implements a mobile-optimized secure channel library
// built on the Noise Protocol Framework.
//
// The library provides mutually authenticated, forward-secret, end-to-end
// encrypted channels using the Noise XX handshake pattern
// (Noise_XX_25519_ChaChaPoly_BLAKE2s). It is designed for peer-to-peer
// messaging applications running on resource-constrained devices, with
// battery-aware batching, replay protection, and strict zeroization of
// key material.
//
// # Subsystems
//
//   - [github.com/opd-ai/noise-mobile-go/session]: the handshake/transport
//     state machine, the resilient wrapper (sequence numbers, replay window,
//     resumption codec), and batched bulk crypto.
//   - [github.com/opd-ai/noise-mobile-go/crypto]: Curve25519 key pairs,
//     secure buffers, and zeroization helpers.
//   - [github.com/opd-ai/noise-mobile-go/storage]: pluggable identity and
//     session-blob storage with in-memory, SQLite, and encrypted-file
//     backends.
//   - [github.com/opd-ai/noise-mobile-go/capi]: the C-compatible foreign
//     function boundary for iOS and Android integration.
//
// # Getting Started
//
// Run the three-message XX handshake between an initiator and a responder,
// then exchange transport messages:
//
//	alice, _ := session.NewInitiator()
//	bob, _ := session.NewResponder()
//	defer alice.Close()
//	defer bob.Close()
//
//	msg1, _ := alice.WriteMessage(nil)
//	bob.ReadMessage(msg1)
//	msg2, _ := bob.WriteMessage(nil)
//	alice.ReadMessage(msg2)
//	msg3, _ := alice.WriteMessage(nil)
//	bob.ReadMessage(msg3)
//
//	ciphertext, _ := alice.Encrypt([]byte("Hello, Bob!"))
//	plaintext, _ := bob.Decrypt(ciphertext)
//
// Sessions are single-owner: distinct sessions may be used from distinct
// goroutines, but a single session must not be shared without external
// synchronization. Storage backends, in contrast, are safe for concurrent
// use.
package noisemobile

// Version is the library version.
const Version = "0.2.0"
