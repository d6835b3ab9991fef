// Package session implements the secure channel state machine and the
// mobile-oriented layers built directly on top of it.
//
// A [Session] runs the three-message Noise XX handshake
// (Noise_XX_25519_ChaChaPoly_BLAKE2s) and then switches permanently into
// transport mode, where arbitrary payloads up to 65,519 bytes are
// encrypted and decrypted in strict order. Sessions own a single reusable
// scratch buffer and zeroize it, along with the captured remote static
// key, when closed.
//
// [ResilientSession] wraps a transport-phase session with an application
// visible send sequence, a 64-entry sliding replay window on the receive
// side, and a compact serialization of that envelope-layer state for
// session resumption. Cryptographic state is never serialized; a
// rehydrated resilient session must be paired with a freshly negotiated
// session.
//
// [BatchedCrypto] wraps a session with plaintext and ciphertext queues
// that are drained in bulk, amortizing CPU wake-ups on battery-powered
// devices. Flushes fire when a queue reaches a threshold or when a
// configurable interval elapses.
//
// All three types are single-owner: use one instance from one goroutine
// at a time. Distinct instances are independent and need no external
// synchronization.
package session
