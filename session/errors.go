package session

import "errors"

// Sentinel errors for secure channel operations.
// These errors enable reliable error classification using errors.Is().

// Boundary validation errors.
var (
	// ErrInvalidParameter indicates a length, shape, or nil violation at
	// an API boundary.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrBufferTooSmall indicates a caller-provided output buffer is too
	// small for the result.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrOutOfMemory indicates an allocation failure reported across the
	// foreign function boundary.
	ErrOutOfMemory = errors.New("out of memory")
)

// Cryptographic failures.
var (
	// ErrHandshakeFailed indicates the XX handshake primitive failed.
	ErrHandshakeFailed = errors.New("handshake failed")

	// ErrEncryptionFailed indicates a transport encryption failed.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed indicates a tag mismatch or malformed
	// ciphertext.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Protocol and state errors.
var (
	// ErrInvalidState indicates an operation was called in the wrong
	// session state. These are programming errors and are never retried.
	ErrInvalidState = errors.New("invalid state")

	// ErrReplayDetected indicates a sequence number was already seen or
	// is too old for the replay window.
	ErrReplayDetected = errors.New("replay detected")

	// ErrInvalidMessage indicates a malformed envelope: too short for a
	// sequence number, or an unsupported serialization version.
	ErrInvalidMessage = errors.New("invalid message")
)
