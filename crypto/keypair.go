package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// KeyPair represents a Curve25519 static key pair used for Noise
// handshakes.
type KeyPair struct {
	Public  [KeyLen]byte
	Private [KeyLen]byte
}

// GenerateKeyPair creates a new random Curve25519 key pair using secure
// random entropy.
func GenerateKeyPair() (*KeyPair, error) {
	var private [KeyLen]byte
	if _, err := io.ReadFull(rand.Reader, private[:]); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "GenerateKeyPair",
			"error":    err.Error(),
		}).Error("Failed to read entropy for key pair")
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	kp, err := FromSecretKey(private)
	ZeroBytes(private[:])
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":           "GenerateKeyPair",
		"public_key_preview": fmt.Sprintf("%x", kp.Public[:8]),
	}).Debug("Generated new static key pair")

	return kp, nil
}

// FromSecretKey creates a key pair from an existing 32-byte private key,
// deriving the matching public key. The stored private key is the caller's
// original unclamped key; clamping is applied only to the temporary copy
// used for scalar multiplication.
func FromSecretKey(secretKey [KeyLen]byte) (*KeyPair, error) {
	if isZeroKey(secretKey) {
		logrus.WithFields(logrus.Fields{
			"function": "FromSecretKey",
			"error":    "all-zero secret key",
		}).Warn("Rejected invalid secret key")
		return nil, errors.New("invalid secret key: all zeros")
	}

	// Curve25519 requires a clamped scalar
	var clamped [KeyLen]byte
	copy(clamped[:], secretKey[:])
	clamped[0] &= 248
	clamped[31] &= 127
	clamped[31] |= 64

	var public [KeyLen]byte
	curve25519.ScalarBaseMult(&public, &clamped)
	ZeroBytes(clamped[:])

	return &KeyPair{
		Public:  public,
		Private: secretKey,
	}, nil
}

// isZeroKey checks if a key consists of all zeros.
func isZeroKey(key [KeyLen]byte) bool {
	var acc byte
	for _, b := range key {
		acc |= b
	}
	return acc == 0
}
