package session

import (
	"testing"
	"time"
)

// benchConnectedPair is connectedPair without the testing.T plumbing.
func benchConnectedPair(b *testing.B) (*Session, *Session) {
	b.Helper()

	initiator, err := NewInitiator()
	if err != nil {
		b.Fatal(err)
	}
	responder, err := NewResponder()
	if err != nil {
		b.Fatal(err)
	}

	msg1, err := initiator.WriteMessage(nil)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := responder.ReadMessage(msg1); err != nil {
		b.Fatal(err)
	}
	msg2, err := responder.WriteMessage(nil)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := initiator.ReadMessage(msg2); err != nil {
		b.Fatal(err)
	}
	msg3, err := initiator.WriteMessage(nil)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := responder.ReadMessage(msg3); err != nil {
		b.Fatal(err)
	}

	return initiator, responder
}

// BenchmarkHandshake measures the full three-message XX exchange.
func BenchmarkHandshake(b *testing.B) {
	for i := 0; i < b.N; i++ {
		initiator, responder := benchConnectedPair(b)
		initiator.Close()
		responder.Close()
	}
}

// BenchmarkEncrypt measures transport encryption throughput at 1KiB.
func BenchmarkEncrypt(b *testing.B) {
	alice, bob := benchConnectedPair(b)
	defer alice.Close()
	defer bob.Close()

	plaintext := make([]byte, 1024)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := alice.Encrypt(plaintext); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEncryptDecrypt measures a full transport round trip at 1KiB.
func BenchmarkEncryptDecrypt(b *testing.B) {
	alice, bob := benchConnectedPair(b)
	defer alice.Close()
	defer bob.Close()

	plaintext := make([]byte, 1024)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ciphertext, err := alice.Encrypt(plaintext)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := bob.Decrypt(ciphertext); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkResilientEncrypt measures the sequence-envelope overhead.
func BenchmarkResilientEncrypt(b *testing.B) {
	alice, bob := benchConnectedPair(b)
	defer alice.Close()
	defer bob.Close()

	sender := NewResilientSession(alice)
	plaintext := make([]byte, 1024)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := sender.EncryptWithSequence(plaintext); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBatchedEncrypt measures bulk flushes of ten messages against
// ten individual encrypts (see BenchmarkIndividualEncrypts).
func BenchmarkBatchedEncrypt(b *testing.B) {
	alice, bob := benchConnectedPair(b)
	defer alice.Close()
	defer bob.Close()

	batch := NewBatchedCryptoWithSettings(alice, 1000, 10*time.Second)
	plaintext := make([]byte, 256)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for j := 0; j < 10; j++ {
			batch.QueueEncrypt(plaintext)
		}
		if _, err := batch.FlushEncrypts(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIndividualEncrypts is the unbatched baseline for
// BenchmarkBatchedEncrypt.
func BenchmarkIndividualEncrypts(b *testing.B) {
	alice, bob := benchConnectedPair(b)
	defer alice.Close()
	defer bob.Close()

	plaintext := make([]byte, 256)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for j := 0; j < 10; j++ {
			if _, err := alice.Encrypt(plaintext); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkSessionCreation measures constructor cost, dominated by key
// generation.
func BenchmarkSessionCreation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s, err := NewInitiator()
		if err != nil {
			b.Fatal(err)
		}
		s.Close()
	}
}
