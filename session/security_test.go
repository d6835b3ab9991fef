package session

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalformedHandshakeMessageRejected(t *testing.T) {
	initiator, err := NewInitiator()
	require.NoError(t, err)
	defer initiator.Close()

	// Move to the point where the next inbound message carries an
	// authenticated static key, then feed garbage in its place
	_, err = initiator.WriteMessage(nil)
	require.NoError(t, err)

	garbage := make([]byte, 96)
	_, err = rand.Read(garbage)
	require.NoError(t, err)

	_, err = initiator.ReadMessage(garbage)
	assert.ErrorIs(t, err, ErrHandshakeFailed)

	// A failed handshake leaves the session in handshake state
	assert.True(t, initiator.IsHandshakeState())
}

func TestTruncatedHandshakeMessageRejected(t *testing.T) {
	initiator, err := NewInitiator()
	require.NoError(t, err)
	responder, err := NewResponder()
	require.NoError(t, err)
	defer initiator.Close()
	defer responder.Close()

	msg1, err := initiator.WriteMessage(nil)
	require.NoError(t, err)

	_, err = responder.ReadMessage(msg1[:len(msg1)/2])
	assert.ErrorIs(t, err, ErrHandshakeFailed)
}

func TestTamperedCiphertextRejected(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	ciphertext, err := alice.Encrypt([]byte("integrity protected"))
	require.NoError(t, err)

	for _, position := range []int{0, len(ciphertext) / 2, len(ciphertext) - 1} {
		tampered := append([]byte(nil), ciphertext...)
		tampered[position] ^= 0x01

		_, err = bob.Decrypt(tampered)
		assert.ErrorIs(t, err, ErrDecryptionFailed, "flip at position %d not detected", position)
	}
}

func TestTruncatedCiphertextRejected(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	// Shorter than an AEAD tag can never authenticate
	_, err := bob.Decrypt([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	// The channel stays usable for well-formed traffic
	ciphertext, err := alice.Encrypt([]byte("still fine"))
	require.NoError(t, err)
	plaintext, err := bob.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "still fine", string(plaintext))
}

func TestCiphertextReplayRejectedByCipherState(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	ciphertext, err := alice.Encrypt([]byte("Hello, Bob!"))
	require.NoError(t, err)
	require.Len(t, ciphertext, 27)

	plaintext, err := bob.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, "Hello, Bob!", string(plaintext))

	// The transport nonce has advanced, so the same wire bytes can
	// never authenticate twice
	_, err = bob.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestStaticKeyMismatchVisible(t *testing.T) {
	// Two independent handshakes: a peer claiming to be Bob from a
	// different session presents a different static key, which the
	// application layer can detect by comparison.
	alice1, bob1 := connectedPair(t)
	defer alice1.Close()
	defer bob1.Close()
	alice2, bob2 := connectedPair(t)
	defer alice2.Close()
	defer bob2.Close()

	remote1, present := alice1.RemoteStatic()
	require.True(t, present)
	remote2, present := alice2.RemoteStatic()
	require.True(t, present)

	assert.NotEqual(t, remote1, remote2, "independent responders must have distinct statics")
}

func TestEphemeralKeysGiveDistinctTranscripts(t *testing.T) {
	// The same plaintext across two channels must produce unrelated
	// ciphertexts: fresh ephemerals feed every session's keys.
	alice1, _ := connectedPair(t)
	defer alice1.Close()
	alice2, _ := connectedPair(t)
	defer alice2.Close()

	ct1, err := alice1.Encrypt([]byte("identical plaintext"))
	require.NoError(t, err)
	ct2, err := alice2.Encrypt([]byte("identical plaintext"))
	require.NoError(t, err)

	assert.NotEqual(t, ct1, ct2)
}

func TestCrossSessionCiphertextRejected(t *testing.T) {
	alice1, _ := connectedPair(t)
	defer alice1.Close()
	_, bob2 := connectedPair(t)
	defer bob2.Close()

	ciphertext, err := alice1.Encrypt([]byte("wrong channel"))
	require.NoError(t, err)

	// A message from one channel never authenticates on another
	_, err = bob2.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
