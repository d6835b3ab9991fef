package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrInvalidParameter indicates a malformed key or an unknown
	// identifier. Lookups of absent identifiers report this rather than
	// a dedicated not-found error; callers that need to distinguish
	// should probe with HasIdentity or HasSession first.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IdentityKeyLen is the required length of a stored identity key.
const IdentityKeyLen = 32

// KeyStorage persists identity keys and session resumption blobs.
//
// Identity entries are exactly 32 bytes; session entries are arbitrary
// bytes (serialized envelope-layer state, never cryptographic keys).
// Implementations must be safe for concurrent use and must wipe prior
// values on overwrite or delete.
type KeyStorage interface {
	// StoreIdentity saves a 32-byte identity key under id, replacing and
	// wiping any previous value. Keys of any other length are rejected
	// with ErrInvalidParameter.
	StoreIdentity(key []byte, id string) error

	// LoadIdentity returns a copy of the identity key stored under id,
	// or ErrInvalidParameter if the id is unknown.
	LoadIdentity(id string) ([]byte, error)

	// DeleteIdentity removes and wipes the identity stored under id.
	// Deleting an absent id is not an error.
	DeleteIdentity(id string) error

	// ListIdentities returns the identifiers of all stored identities.
	ListIdentities() ([]string, error)

	// HasIdentity reports whether an identity is stored under id.
	HasIdentity(id string) (bool, error)

	// StoreSession saves a session blob under id, replacing and wiping
	// any previous value.
	StoreSession(data []byte, id string) error

	// LoadSession returns a copy of the session blob stored under id,
	// or ErrInvalidParameter if the id is unknown.
	LoadSession(id string) ([]byte, error)

	// DeleteSession removes and wipes the session blob stored under id.
	// Deleting an absent id is not an error.
	DeleteSession(id string) error

	// ListSessions returns the identifiers of all stored session blobs.
	ListSessions() ([]string, error)

	// HasSession reports whether a session blob is stored under id.
	HasSession(id string) (bool, error)
}
