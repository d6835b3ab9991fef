package session

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

// ReplayWindowSize is the width of the sliding replay window: the number
// of most-recent sequence numbers the receiver can still distinguish.
const ReplayWindowSize = 64

// sequenceLen is the size of the big-endian sequence prefix inside the
// encrypted envelope.
const sequenceLen = 8

// serializationVersion is the resumption blob format version.
const serializationVersion = 1

// ResilientSession wraps a transport-phase session with message ordering
// and replay defense. Every sent payload is prefixed with a monotonically
// increasing 8-byte big-endian sequence number before encryption; every
// received sequence is checked against a sliding window so each one is
// accepted at most once.
//
// The envelope-layer counters and window can be serialized for session
// resumption. Cryptographic state is never serialized: a deserialized
// resilient session must be paired with a freshly negotiated session.
type ResilientSession struct {
	inner        *Session
	lastSent     uint64
	lastReceived uint64
	replayWindow []bool
}

// NewResilientSession wraps the given session. The session should have
// completed its handshake before the resilient operations are used.
func NewResilientSession(inner *Session) *ResilientSession {
	return &ResilientSession{
		inner:        inner,
		replayWindow: make([]bool, ReplayWindowSize),
	}
}

// EncryptWithSequence increments the send counter (wrapping at 2^64-1)
// and encrypts the sequence-prefixed envelope as a single transport
// message.
func (r *ResilientSession) EncryptWithSequence(plaintext []byte) ([]byte, error) {
	r.lastSent++

	envelope := make([]byte, sequenceLen+len(plaintext))
	binary.BigEndian.PutUint64(envelope[:sequenceLen], r.lastSent)
	copy(envelope[sequenceLen:], plaintext)

	ciphertext, err := r.inner.Encrypt(envelope)
	crypto.ZeroBytes(envelope)
	if err != nil {
		return nil, err
	}
	return ciphertext, nil
}

// DecryptWithReplayCheck decrypts a transport message, extracts the
// sequence number, and applies the replay window. On replay the payload
// is wiped and never exposed to the caller.
func (r *ResilientSession) DecryptWithReplayCheck(ciphertext []byte) ([]byte, error) {
	decrypted, err := r.inner.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}

	if len(decrypted) < sequenceLen {
		crypto.ZeroBytes(decrypted)
		return nil, fmt.Errorf("%w: envelope shorter than sequence prefix", ErrInvalidMessage)
	}

	sequence := binary.BigEndian.Uint64(decrypted[:sequenceLen])
	if !r.CheckAndUpdateReplayWindow(sequence) {
		crypto.ZeroBytes(decrypted)
		logrus.WithFields(logrus.Fields{
			"sequence":      sequence,
			"last_received": r.lastReceived,
		}).Warn("Replay detected, payload discarded")
		return nil, fmt.Errorf("%w: sequence %d", ErrReplayDetected, sequence)
	}

	payload := append([]byte(nil), decrypted[sequenceLen:]...)
	crypto.ZeroBytes(decrypted)
	return payload, nil
}

// CheckAndUpdateReplayWindow reports whether the sequence number is fresh
// and records it. Sequence numbers start at 1; zero is always rejected.
//
// Window position k corresponds to sequence lastReceived-k. A sequence at
// or below the high-water mark is accepted only if it falls inside the
// window and has not been seen; a sequence above it shifts the window
// forward (or clears it entirely on a window-exceeding jump) and becomes
// the new high-water mark.
func (r *ResilientSession) CheckAndUpdateReplayWindow(sequence uint64) bool {
	if sequence == 0 {
		return false
	}

	width := uint64(len(r.replayWindow))

	if sequence <= r.lastReceived {
		diff := r.lastReceived - sequence
		if diff >= width {
			// Too old, definitely a replay
			return false
		}
		if r.replayWindow[diff] {
			return false
		}
		r.replayWindow[diff] = true
		return true
	}

	advance := sequence - r.lastReceived
	if advance > width {
		// Big jump, reset the window
		for i := range r.replayWindow {
			r.replayWindow[i] = false
		}
	} else {
		// Shift forward: old bit at index i moves to index i+advance,
		// the freshly covered positions start unseen.
		n := int(advance)
		copy(r.replayWindow[n:], r.replayWindow[:len(r.replayWindow)-n])
		for i := 0; i < n; i++ {
			r.replayWindow[i] = false
		}
	}

	r.lastReceived = sequence
	if len(r.replayWindow) > 0 {
		r.replayWindow[0] = true
	}
	return true
}

// SetReplayWindowSize resizes the replay window, clearing all recorded
// bits. Intended for testing and tuning.
func (r *ResilientSession) SetReplayWindowSize(size int) {
	r.replayWindow = make([]bool, size)
}

// Serialize emits the envelope-layer state for resumption:
//
//	offset  length  field
//	0       1       format version (= 1)
//	1       8       last sent sequence (big-endian)
//	9       8       last received sequence (big-endian)
//	17      4       window length N (big-endian)
//	21      ceil(N/8)  packed window bits, MSB of byte 0 = position 0
//
// The wrapped session's cryptographic state is deliberately excluded; key
// material must not reach disk through this layer.
func (r *ResilientSession) Serialize() []byte {
	windowBytes := (len(r.replayWindow) + 7) / 8
	data := make([]byte, 0, 1+8+8+4+windowBytes)

	data = append(data, serializationVersion)
	data = binary.BigEndian.AppendUint64(data, r.lastSent)
	data = binary.BigEndian.AppendUint64(data, r.lastReceived)
	data = binary.BigEndian.AppendUint32(data, uint32(len(r.replayWindow)))

	var current byte
	bitCount := 0
	for _, bit := range r.replayWindow {
		if bit {
			current |= 1 << (7 - bitCount)
		}
		bitCount++
		if bitCount == 8 {
			data = append(data, current)
			current = 0
			bitCount = 0
		}
	}
	if bitCount > 0 {
		data = append(data, current)
	}

	return data
}

// DeserializeResilientSession parses a blob produced by Serialize and
// attaches the caller-provided session. The session must be freshly
// negotiated; only the envelope-layer counters and window are restored.
func DeserializeResilientSession(data []byte, inner *Session) (*ResilientSession, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty resumption blob", ErrInvalidMessage)
	}
	if data[0] != serializationVersion {
		return nil, fmt.Errorf("%w: unsupported resumption version %d", ErrInvalidMessage, data[0])
	}

	offset := 1
	if len(data) < offset+16 {
		return nil, fmt.Errorf("%w: resumption blob truncated before counters", ErrInvalidMessage)
	}
	lastSent := binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	lastReceived := binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8

	if len(data) < offset+4 {
		return nil, fmt.Errorf("%w: resumption blob truncated before window length", ErrInvalidMessage)
	}
	windowSize := int(binary.BigEndian.Uint32(data[offset : offset+4]))
	offset += 4

	windowBytes := (windowSize + 7) / 8
	if len(data) < offset+windowBytes {
		return nil, fmt.Errorf("%w: resumption blob truncated before window bits", ErrInvalidMessage)
	}

	replayWindow := make([]bool, windowSize)
	for i := 0; i < windowSize; i++ {
		byteIndex := offset + i/8
		bitOffset := 7 - (i % 8)
		replayWindow[i] = (data[byteIndex]>>bitOffset)&1 != 0
	}

	return &ResilientSession{
		inner:        inner,
		lastSent:     lastSent,
		lastReceived: lastReceived,
		replayWindow: replayWindow,
	}, nil
}

// SendSequence returns the sequence number of the most recently sent
// message.
func (r *ResilientSession) SendSequence() uint64 {
	return r.lastSent
}

// ReceiveSequence returns the highest sequence number accepted so far.
func (r *ResilientSession) ReceiveSequence() uint64 {
	return r.lastReceived
}

// IsHandshakeComplete reports whether the wrapped session is in transport
// state.
func (r *ResilientSession) IsHandshakeComplete() bool {
	return r.inner.IsTransportState()
}

// Inner returns the wrapped session for non-resilient operations.
func (r *ResilientSession) Inner() *Session {
	return r.inner
}
