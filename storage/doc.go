// Package storage defines the key and session persistence contract for
// the secure channel library, plus three backends.
//
// The [KeyStorage] interface maps string identifiers to 32-byte identity
// keys and to arbitrary session blobs (resumption state from the session
// package, never raw cryptographic keys). Implementations are safe for
// concurrent use. The memory and SQLite backends wipe the prior value
// they hold in memory on overwrite or delete; the encrypted-file backend
// zeroes the file on delete but replaces it by rename on overwrite,
// without zeroing the prior file first.
//
// Backends:
//
//   - [MemoryKeyStorage]: mutex-guarded maps; the reference
//     implementation and the right choice for tests.
//   - [SQLiteKeyStorage]: a GORM-backed SQLite store, the natural
//     on-device database for iOS and Android hosts.
//   - [EncryptedFileKeyStorage]: AES-256-GCM encrypted files with a
//     PBKDF2-derived key, for hosts without a usable OS keychain.
//
// Platform keychain/keystore integrations live with the platform
// bindings, not here; they implement the same interface.
package storage
