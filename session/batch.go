package session

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Default auto-flush tuning applied by NewBatchedCrypto.
const (
	DefaultFlushThreshold = 10
	DefaultFlushInterval  = 100 * time.Millisecond
)

// BatchedCrypto batches encryption and decryption through a session to
// minimize CPU wake-ups on mobile devices. Messages queue until either
// the pending count reaches the flush threshold or the flush interval
// elapses since the last queue operation.
//
// An auto-flush returns neither its results nor its error to the caller;
// failures are only logged at warn level. Callers that need failure
// signalling must use the explicit flush methods.
type BatchedCrypto struct {
	session         *Session
	pendingEncrypts [][]byte
	pendingDecrypts [][]byte
	flushThreshold  int
	flushInterval   time.Duration
	lastOperation   time.Time
}

// NewBatchedCrypto wraps a session with default flush settings.
func NewBatchedCrypto(s *Session) *BatchedCrypto {
	return NewBatchedCryptoWithSettings(s, DefaultFlushThreshold, DefaultFlushInterval)
}

// NewBatchedCryptoWithSettings wraps a session with a custom flush
// threshold and interval.
func NewBatchedCryptoWithSettings(s *Session, threshold int, interval time.Duration) *BatchedCrypto {
	return &BatchedCrypto{
		session:        s,
		flushThreshold: threshold,
		flushInterval:  interval,
		lastOperation:  time.Now(),
	}
}

// QueueEncrypt appends a plaintext to the encryption queue. The queue
// takes ownership of the slice. If the auto-flush predicate fires, the
// encryption queue is flushed and any error is discarded.
func (b *BatchedCrypto) QueueEncrypt(plaintext []byte) {
	b.pendingEncrypts = append(b.pendingEncrypts, plaintext)
	b.lastOperation = time.Now()

	if b.shouldAutoFlush() {
		if _, err := b.FlushEncrypts(); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err.Error(),
				"pending": len(b.pendingEncrypts),
			}).Warn("Implicit encrypt flush failed; error discarded")
		}
	}
}

// QueueDecrypt appends a ciphertext to the decryption queue. The queue
// takes ownership of the slice. If the auto-flush predicate fires, the
// decryption queue is flushed and any error is discarded.
func (b *BatchedCrypto) QueueDecrypt(ciphertext []byte) {
	b.pendingDecrypts = append(b.pendingDecrypts, ciphertext)
	b.lastOperation = time.Now()

	if b.shouldAutoFlush() {
		if _, err := b.FlushDecrypts(); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err.Error(),
				"pending": len(b.pendingDecrypts),
			}).Warn("Implicit decrypt flush failed; error discarded")
		}
	}
}

// FlushEncrypts drains the plaintext queue, encrypting each element in
// enqueue order. On failure the failing plaintext is re-inserted at the
// front of the now-empty queue and the error is returned; ciphertexts
// already produced in this flush are lost. Callers observing a flush
// error should treat the session as unusable.
func (b *BatchedCrypto) FlushEncrypts() ([][]byte, error) {
	if len(b.pendingEncrypts) == 0 {
		return nil, nil
	}

	messages := b.pendingEncrypts
	b.pendingEncrypts = nil

	results := make([][]byte, 0, len(messages))
	for _, plaintext := range messages {
		ciphertext, err := b.session.Encrypt(plaintext)
		if err != nil {
			b.pendingEncrypts = append([][]byte{plaintext}, b.pendingEncrypts...)
			return nil, err
		}
		results = append(results, ciphertext)
	}

	b.lastOperation = time.Now()
	return results, nil
}

// FlushDecrypts drains the ciphertext queue, decrypting each element in
// enqueue order, with the same partial-failure semantics as
// FlushEncrypts.
func (b *BatchedCrypto) FlushDecrypts() ([][]byte, error) {
	if len(b.pendingDecrypts) == 0 {
		return nil, nil
	}

	messages := b.pendingDecrypts
	b.pendingDecrypts = nil

	results := make([][]byte, 0, len(messages))
	for _, ciphertext := range messages {
		plaintext, err := b.session.Decrypt(ciphertext)
		if err != nil {
			b.pendingDecrypts = append([][]byte{ciphertext}, b.pendingDecrypts...)
			return nil, err
		}
		results = append(results, plaintext)
	}

	b.lastOperation = time.Now()
	return results, nil
}

// FlushAll flushes both queues. Encryption is flushed first; a failure
// there leaves the decryption queue untouched.
func (b *BatchedCrypto) FlushAll() (encrypted, decrypted [][]byte, err error) {
	encrypted, err = b.FlushEncrypts()
	if err != nil {
		return nil, nil, err
	}
	decrypted, err = b.FlushDecrypts()
	if err != nil {
		return nil, nil, err
	}
	return encrypted, decrypted, nil
}

// CheckTimeBasedFlush flushes both queues if the flush interval has
// elapsed since the last queue operation. Intended to be driven by a
// periodic caller-side timer.
func (b *BatchedCrypto) CheckTimeBasedFlush() (encrypted, decrypted [][]byte, err error) {
	if b.PendingCount() > 0 && time.Since(b.lastOperation) >= b.flushInterval {
		return b.FlushAll()
	}
	return nil, nil, nil
}

// SetFlushThreshold updates the pending-count trigger for auto-flush.
func (b *BatchedCrypto) SetFlushThreshold(threshold int) {
	b.flushThreshold = threshold
}

// SetFlushInterval updates the time trigger for auto-flush.
func (b *BatchedCrypto) SetFlushInterval(interval time.Duration) {
	b.flushInterval = interval
}

// PendingCount returns the total number of queued operations.
func (b *BatchedCrypto) PendingCount() int {
	return len(b.pendingEncrypts) + len(b.pendingDecrypts)
}

// PendingEncryptsCount returns the number of queued plaintexts.
func (b *BatchedCrypto) PendingEncryptsCount() int {
	return len(b.pendingEncrypts)
}

// PendingDecryptsCount returns the number of queued ciphertexts.
func (b *BatchedCrypto) PendingDecryptsCount() int {
	return len(b.pendingDecrypts)
}

// shouldAutoFlush evaluates the auto-flush predicate: the pending total
// reached the threshold, or messages are pending and the interval has
// elapsed.
func (b *BatchedCrypto) shouldAutoFlush() bool {
	if b.PendingCount() >= b.flushThreshold {
		return true
	}
	if b.PendingCount() > 0 && time.Since(b.lastOperation) >= b.flushInterval {
		return true
	}
	return false
}

// IsHandshakeComplete reports whether the wrapped session is in transport
// state.
func (b *BatchedCrypto) IsHandshakeComplete() bool {
	return b.session.IsTransportState()
}

// Inner returns the wrapped session.
func (b *BatchedCrypto) Inner() *Session {
	return b.session
}
