package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

const (
	// pbkdf2Iterations is the PBKDF2 iteration count for deriving the
	// at-rest encryption key from the master password.
	pbkdf2Iterations = 100000
	// fileFormatVersion is the current encrypted file format version.
	fileFormatVersion = 1
	// saltSize is the size of the PBKDF2 salt.
	saltSize = 32

	identityPrefix = "identity-"
	identitySuffix = ".key"
	sessionPrefix  = "session-"
	sessionSuffix  = ".bin"
)

// EncryptedFileKeyStorage stores identities and session blobs as
// AES-256-GCM encrypted files. The encryption key is derived from a
// master password with PBKDF2, so the backend provides at-rest
// protection on hosts without a usable OS keychain.
//
// File format: [version:2][nonce:12][ciphertext+tag:N], written
// atomically via a temporary file and rename. An overwrite replaces the
// prior file by that rename; the prior file's contents are not zeroed.
// A delete zeroes the file before removing it.
type EncryptedFileKeyStorage struct {
	mu            sync.Mutex
	encryptionKey [32]byte
	dataDir       string
	saltFile      string
}

// NewEncryptedFileKeyStorage creates a store rooted at dataDir. The
// master password is wiped before returning; callers must not reuse it.
func NewEncryptedFileKeyStorage(dataDir string, masterPassword []byte) (*EncryptedFileKeyStorage, error) {
	if len(masterPassword) == 0 {
		return nil, fmt.Errorf("%w: master password cannot be empty", ErrInvalidParameter)
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	ks := &EncryptedFileKeyStorage{
		dataDir:  dataDir,
		saltFile: filepath.Join(dataDir, ".salt"),
	}

	salt, err := ks.loadOrGenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize salt: %w", err)
	}

	derivedKey := pbkdf2.Key(masterPassword, salt, pbkdf2Iterations, 32, sha256.New)
	copy(ks.encryptionKey[:], derivedKey)
	crypto.ZeroBytes(derivedKey)
	crypto.ZeroBytes(masterPassword)

	logrus.WithFields(logrus.Fields{
		"data_dir": dataDir,
	}).Debug("Encrypted file key storage opened")

	return ks, nil
}

// Close wipes the derived encryption key. The store must not be used
// afterwards.
func (ks *EncryptedFileKeyStorage) Close() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	crypto.ZeroBytes(ks.encryptionKey[:])
	return nil
}

// loadOrGenerateSalt loads the existing salt or generates a new one with
// restricted permissions.
func (ks *EncryptedFileKeyStorage) loadOrGenerateSalt() ([]byte, error) {
	data, err := os.ReadFile(ks.saltFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read salt file: %w", err)
		}
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := os.WriteFile(ks.saltFile, salt, 0o600); err != nil {
			return nil, fmt.Errorf("failed to save salt: %w", err)
		}
		return salt, nil
	}

	if len(data) != saltSize {
		return nil, fmt.Errorf("invalid salt file size: got %d, want %d", len(data), saltSize)
	}
	return data, nil
}

// StoreIdentity saves a 32-byte identity key under id.
func (ks *EncryptedFileKeyStorage) StoreIdentity(key []byte, id string) error {
	if len(key) != IdentityKeyLen {
		return fmt.Errorf("%w: identity key must be %d bytes, got %d",
			ErrInvalidParameter, IdentityKeyLen, len(key))
	}
	return ks.store(identityFilename(id), key)
}

// LoadIdentity returns the identity key stored under id.
func (ks *EncryptedFileKeyStorage) LoadIdentity(id string) ([]byte, error) {
	data, err := ks.load(identityFilename(id))
	if err != nil {
		return nil, fmt.Errorf("%w: unknown identity %q", ErrInvalidParameter, id)
	}
	return data, nil
}

// DeleteIdentity removes the identity stored under id, overwriting the
// file contents first.
func (ks *EncryptedFileKeyStorage) DeleteIdentity(id string) error {
	return ks.delete(identityFilename(id))
}

// ListIdentities returns all identity identifiers.
func (ks *EncryptedFileKeyStorage) ListIdentities() ([]string, error) {
	return ks.list(identityPrefix, identitySuffix)
}

// HasIdentity reports whether an identity is stored under id.
func (ks *EncryptedFileKeyStorage) HasIdentity(id string) (bool, error) {
	return ks.has(identityFilename(id))
}

// StoreSession saves a session blob under id.
func (ks *EncryptedFileKeyStorage) StoreSession(data []byte, id string) error {
	return ks.store(sessionFilename(id), data)
}

// LoadSession returns the session blob stored under id.
func (ks *EncryptedFileKeyStorage) LoadSession(id string) ([]byte, error) {
	data, err := ks.load(sessionFilename(id))
	if err != nil {
		return nil, fmt.Errorf("%w: unknown session %q", ErrInvalidParameter, id)
	}
	return data, nil
}

// DeleteSession removes the session blob stored under id.
func (ks *EncryptedFileKeyStorage) DeleteSession(id string) error {
	return ks.delete(sessionFilename(id))
}

// ListSessions returns all session identifiers.
func (ks *EncryptedFileKeyStorage) ListSessions() ([]string, error) {
	return ks.list(sessionPrefix, sessionSuffix)
}

// HasSession reports whether a session blob is stored under id.
func (ks *EncryptedFileKeyStorage) HasSession(id string) (bool, error) {
	return ks.has(sessionFilename(id))
}

// identityFilename maps an identifier to a path-safe file name.
func identityFilename(id string) string {
	return identityPrefix + hex.EncodeToString([]byte(id)) + identitySuffix
}

// sessionFilename maps an identifier to a path-safe file name.
func sessionFilename(id string) string {
	return sessionPrefix + hex.EncodeToString([]byte(id)) + sessionSuffix
}

// store encrypts and writes plaintext to filename atomically.
func (ks *EncryptedFileKeyStorage) store(filename string, plaintext []byte) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	output := make([]byte, 2+len(nonce)+len(ciphertext))
	binary.BigEndian.PutUint16(output[0:2], fileFormatVersion)
	copy(output[2:2+len(nonce)], nonce)
	copy(output[2+len(nonce):], ciphertext)

	tmpFile := filepath.Join(ks.dataDir, filename+".tmp")
	finalFile := filepath.Join(ks.dataDir, filename)

	if err := os.WriteFile(tmpFile, output, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpFile, finalFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// load reads and decrypts filename.
func (ks *EncryptedFileKeyStorage) load(filename string) ([]byte, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(ks.dataDir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// version + nonce + tag
	if len(data) < 2+12+16 {
		return nil, fmt.Errorf("file too short: %d bytes", len(data))
	}

	version := binary.BigEndian.Uint16(data[0:2])
	if version != fileFormatVersion {
		return nil, fmt.Errorf("unsupported file format version: %d", version)
	}

	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	nonce := data[2 : 2+nonceSize]
	ciphertext := data[2+nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}
	return plaintext, nil
}

// delete overwrites the file with zeros (best effort) and removes it.
// Deleting an absent file is not an error.
func (ks *EncryptedFileKeyStorage) delete(filename string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	filePath := filepath.Join(ks.dataDir, filename)
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	zeros := make([]byte, info.Size())
	if err := os.WriteFile(filePath, zeros, 0o600); err != nil {
		return os.Remove(filePath)
	}
	return os.Remove(filePath)
}

// has reports whether filename exists.
func (ks *EncryptedFileKeyStorage) has(filename string) (bool, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	_, err := os.Stat(filepath.Join(ks.dataDir, filename))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// list returns the decoded identifiers of all files matching the given
// prefix and suffix. Files whose names fail to decode are skipped.
func (ks *EncryptedFileKeyStorage) list(prefix, suffix string) ([]string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	entries, err := os.ReadDir(ks.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		encoded := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		decoded, err := hex.DecodeString(encoded)
		if err != nil {
			continue
		}
		ids = append(ids, string(decoded))
	}
	return ids, nil
}
