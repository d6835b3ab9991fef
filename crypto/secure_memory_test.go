package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	err := SecureWipe(data)
	require.NoError(t, err)

	for i, b := range data {
		assert.Zero(t, b, "byte at position %d not wiped", i)
	}
}

func TestSecureWipeNil(t *testing.T) {
	err := SecureWipe(nil)
	assert.Error(t, err)
}

func TestSecureWipeEmpty(t *testing.T) {
	err := SecureWipe([]byte{})
	assert.NoError(t, err)
}

func TestZeroBytes(t *testing.T) {
	data := []byte{0xff, 0xff, 0xff}
	ZeroBytes(data)
	assert.Equal(t, []byte{0, 0, 0}, data)

	// Nil must not panic
	ZeroBytes(nil)
}

func TestWipeKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	// The private key must be non-zero before wiping for the test to
	// mean anything
	require.False(t, isZeroKey(kp.Private), "generated private key is all zeros")

	err = WipeKeyPair(kp)
	require.NoError(t, err)
	assert.True(t, isZeroKey(kp.Private), "private key not wiped")
}

func TestWipeKeyPairNil(t *testing.T) {
	assert.Error(t, WipeKeyPair(nil))
}

func TestSecureBufferWipe(t *testing.T) {
	buf := NewSecureBuffer(64)
	require.Equal(t, 64, buf.Len())

	copy(buf.Bytes(), []byte("sensitive plaintext material"))
	buf.Wipe()

	for i, b := range buf.Bytes() {
		assert.Zero(t, b, "buffer byte %d not wiped", i)
	}

	// The buffer stays usable after a wipe
	copy(buf.Bytes(), []byte("again"))
	buf.Wipe()
	assert.Zero(t, buf.Bytes()[0])
}
