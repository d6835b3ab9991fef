package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	require.NotNil(t, kp)

	assert.False(t, isZeroKey(kp.Public), "public key is all zeros")
	assert.False(t, isZeroKey(kp.Private), "private key is all zeros")

	// Two generations must not collide
	kp2, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.NotEqual(t, kp.Private, kp2.Private)
	assert.NotEqual(t, kp.Public, kp2.Public)
}

func TestFromSecretKey(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	restored, err := FromSecretKey(kp.Private)
	require.NoError(t, err)

	// Deriving from the same secret reproduces the same public key
	assert.Equal(t, kp.Public, restored.Public)
	assert.Equal(t, kp.Private, restored.Private)
}

func TestFromSecretKeyRejectsZeros(t *testing.T) {
	var zero [KeyLen]byte
	_, err := FromSecretKey(zero)
	assert.Error(t, err)
}

func TestConstants(t *testing.T) {
	assert.Equal(t, 65535, MaxMessageLen)
	assert.Equal(t, 65519, MaxPayloadLen)
	assert.Equal(t, 16, TagLen)
	assert.Equal(t, 32, KeyLen)
}

func BenchmarkGenerateKeyPair(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := GenerateKeyPair(); err != nil {
			b.Fatal(err)
		}
	}
}
