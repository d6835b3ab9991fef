package main

import (
	"errors"

	"github.com/opd-ai/noise-mobile-go/session"
	"github.com/opd-ai/noise-mobile-go/storage"
)

// Code is an integer error code crossing the C boundary.
type Code int

// Error codes. Values are part of the C ABI and must not change.
const (
	CodeSuccess          Code = 0
	CodeInvalidParameter Code = 1
	CodeOutOfMemory      Code = 2
	CodeHandshakeFailed  Code = 3
	CodeEncryptionFailed Code = 4
	CodeDecryptionFailed Code = 5
	CodeBufferTooSmall   Code = 6
	CodeInvalidState     Code = 7
	CodeProtocolError    Code = 8
)

// Session modes. Values are part of the C ABI.
const (
	ModeInitiator = 0
	ModeResponder = 1
)

// codeFromError maps a library error to its C error code. Replay
// detection deliberately collapses into the decryption failure code so
// callers cannot distinguish a replayed message from a corrupted one;
// any unrecognized error surfaces as a protocol error.
func codeFromError(err error) Code {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, session.ErrInvalidParameter),
		errors.Is(err, storage.ErrInvalidParameter):
		return CodeInvalidParameter
	case errors.Is(err, session.ErrOutOfMemory):
		return CodeOutOfMemory
	case errors.Is(err, session.ErrHandshakeFailed):
		return CodeHandshakeFailed
	case errors.Is(err, session.ErrEncryptionFailed):
		return CodeEncryptionFailed
	case errors.Is(err, session.ErrDecryptionFailed),
		errors.Is(err, session.ErrReplayDetected):
		return CodeDecryptionFailed
	case errors.Is(err, session.ErrBufferTooSmall):
		return CodeBufferTooSmall
	case errors.Is(err, session.ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, session.ErrInvalidMessage):
		return CodeProtocolError
	default:
		return CodeProtocolError
	}
}

// errorDescription returns the static human-readable description for a
// code. Unknown codes map to a fixed placeholder rather than an empty
// string so C callers can always print the result.
func errorDescription(code Code) string {
	switch code {
	case CodeSuccess:
		return "success"
	case CodeInvalidParameter:
		return "invalid parameter"
	case CodeOutOfMemory:
		return "out of memory"
	case CodeHandshakeFailed:
		return "handshake failed"
	case CodeEncryptionFailed:
		return "encryption failed"
	case CodeDecryptionFailed:
		return "decryption failed"
	case CodeBufferTooSmall:
		return "buffer too small"
	case CodeInvalidState:
		return "invalid state"
	case CodeProtocolError:
		return "protocol error"
	default:
		return "unknown error"
	}
}
