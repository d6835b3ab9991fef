package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

func TestBatchEncryptFlush(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	batch := NewBatchedCrypto(alice)

	batch.QueueEncrypt([]byte("Hello"))
	batch.QueueEncrypt([]byte("World"))
	batch.QueueEncrypt([]byte("Test"))
	require.Equal(t, 3, batch.PendingEncryptsCount())

	results, err := batch.FlushEncrypts()
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 0, batch.PendingEncryptsCount())

	assert.Len(t, results[0], 5+crypto.TagLen)
	assert.Len(t, results[1], 5+crypto.TagLen)
	assert.Len(t, results[2], 4+crypto.TagLen)

	// The peer decrypts in enqueue order
	for i, expected := range []string{"Hello", "World", "Test"} {
		plaintext, err := bob.Decrypt(results[i])
		require.NoError(t, err)
		assert.Equal(t, expected, string(plaintext))
	}
}

func TestBatchDecryptFlush(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	batch := NewBatchedCrypto(bob)

	for _, msg := range []string{"Hello", "World", "Test"} {
		ct, err := alice.Encrypt([]byte(msg))
		require.NoError(t, err)
		batch.QueueDecrypt(ct)
	}
	require.Equal(t, 3, batch.PendingDecryptsCount())

	results, err := batch.FlushDecrypts()
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 0, batch.PendingDecryptsCount())

	assert.Equal(t, "Hello", string(results[0]))
	assert.Equal(t, "World", string(results[1]))
	assert.Equal(t, "Test", string(results[2]))
}

func TestThresholdAutoFlush(t *testing.T) {
	alice, _ := connectedPair(t)
	defer alice.Close()

	batch := NewBatchedCryptoWithSettings(alice, 3, 10*time.Second)

	batch.QueueEncrypt([]byte("Message 1"))
	batch.QueueEncrypt([]byte("Message 2"))
	assert.Equal(t, 2, batch.PendingEncryptsCount())

	// The third message reaches the threshold and triggers the flush
	batch.QueueEncrypt([]byte("Message 3"))
	assert.Equal(t, 0, batch.PendingEncryptsCount())
}

func TestThresholdAutoFlushAtFive(t *testing.T) {
	alice, _ := connectedPair(t)
	defer alice.Close()

	batch := NewBatchedCryptoWithSettings(alice, 5, 10*time.Second)

	for i := 1; i <= 4; i++ {
		batch.QueueEncrypt(fmt.Appendf(nil, "Message %d", i))
	}
	assert.Equal(t, 4, batch.PendingCount())

	batch.QueueEncrypt([]byte("Message 5"))
	assert.Equal(t, 0, batch.PendingCount())
}

func TestFlushPreservesEnqueueOrder(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	batch := NewBatchedCryptoWithSettings(alice, 100, 10*time.Second)

	const n = 5
	for i := 1; i <= n; i++ {
		batch.QueueEncrypt(fmt.Appendf(nil, "Ordered %d", i))
	}

	ciphertexts, err := batch.FlushEncrypts()
	require.NoError(t, err)
	require.Len(t, ciphertexts, n)

	for i, ct := range ciphertexts {
		plaintext, err := bob.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Ordered %d", i+1), string(plaintext))
	}
}

func TestTimeBasedFlush(t *testing.T) {
	alice, _ := connectedPair(t)
	defer alice.Close()

	// High threshold so only the timer can trigger
	batch := NewBatchedCryptoWithSettings(alice, 100, 50*time.Millisecond)

	batch.QueueEncrypt([]byte("Test"))
	require.Equal(t, 1, batch.PendingEncryptsCount())

	// Before the interval elapses nothing is flushed
	encrypted, decrypted, err := batch.CheckTimeBasedFlush()
	require.NoError(t, err)
	assert.Empty(t, encrypted)
	assert.Empty(t, decrypted)

	time.Sleep(60 * time.Millisecond)

	encrypted, _, err = batch.CheckTimeBasedFlush()
	require.NoError(t, err)
	assert.Len(t, encrypted, 1)
	assert.Equal(t, 0, batch.PendingEncryptsCount())
}

func TestFlushAllMixedOperations(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	batch := NewBatchedCryptoWithSettings(bob, 100, 10*time.Second)

	ct, err := alice.Encrypt([]byte("Encrypted"))
	require.NoError(t, err)

	batch.QueueEncrypt([]byte("Plain"))
	batch.QueueDecrypt(ct)
	require.Equal(t, 2, batch.PendingCount())

	encrypted, decrypted, err := batch.FlushAll()
	require.NoError(t, err)
	require.Len(t, encrypted, 1)
	require.Len(t, decrypted, 1)
	assert.Equal(t, "Encrypted", string(decrypted[0]))
	assert.Equal(t, 0, batch.PendingCount())
}

func TestFlushEmptyQueuesIsNoOp(t *testing.T) {
	alice, _ := connectedPair(t)
	defer alice.Close()

	batch := NewBatchedCrypto(alice)

	results, err := batch.FlushEncrypts()
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = batch.FlushDecrypts()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFlushErrorRequeuesFailingItem(t *testing.T) {
	// A session still in handshake state makes every encrypt fail
	fresh, err := NewInitiator()
	require.NoError(t, err)
	defer fresh.Close()

	batch := NewBatchedCryptoWithSettings(fresh, 100, 10*time.Second)

	batch.QueueEncrypt([]byte("first"))
	batch.QueueEncrypt([]byte("second"))

	_, err = batch.FlushEncrypts()
	require.ErrorIs(t, err, ErrInvalidState)

	// The failing item is back at the front; items after it are lost
	require.Equal(t, 1, batch.PendingEncryptsCount())
	assert.Equal(t, []byte("first"), batch.pendingEncrypts[0])
}

func TestDecryptFlushErrorRequeuesFailingItem(t *testing.T) {
	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()

	batch := NewBatchedCryptoWithSettings(bob, 100, 10*time.Second)

	good, err := alice.Encrypt([]byte("good"))
	require.NoError(t, err)

	tampered := append([]byte(nil), good...)
	tampered[0] ^= 0xFF

	batch.QueueDecrypt(tampered)
	_, err = batch.FlushDecrypts()
	require.ErrorIs(t, err, ErrDecryptionFailed)

	require.Equal(t, 1, batch.PendingDecryptsCount())
	assert.Equal(t, tampered, batch.pendingDecrypts[0])
}

func TestBatchConfigurationSetters(t *testing.T) {
	alice, _ := connectedPair(t)
	defer alice.Close()

	batch := NewBatchedCrypto(alice)
	assert.Equal(t, DefaultFlushThreshold, batch.flushThreshold)
	assert.Equal(t, DefaultFlushInterval, batch.flushInterval)

	batch.SetFlushThreshold(25)
	batch.SetFlushInterval(time.Second)
	assert.Equal(t, 25, batch.flushThreshold)
	assert.Equal(t, time.Second, batch.flushInterval)
}

func TestBatchHandshakeCheck(t *testing.T) {
	fresh, err := NewInitiator()
	require.NoError(t, err)
	defer fresh.Close()

	assert.False(t, NewBatchedCrypto(fresh).IsHandshakeComplete())

	alice, bob := connectedPair(t)
	defer alice.Close()
	defer bob.Close()
	assert.True(t, NewBatchedCrypto(alice).IsHandshakeComplete())
}
