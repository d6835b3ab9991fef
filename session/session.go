package session

import (
	"crypto/rand"
	"fmt"

	"github.com/flynn/noise"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

// ProtocolName is the Noise protocol name negotiated by every session.
const ProtocolName = "Noise_XX_25519_ChaChaPoly_BLAKE2s"

// cipherSuite matches ProtocolName: Curve25519, ChaCha20-Poly1305, BLAKE2s.
var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2s)

// state is the discriminator for the session's polymorphic cryptographic
// state. transitioning exists solely so completeHandshake can move the
// handshake value out of the slot and install the transport ciphers; no
// public operation ever observes it.
type state uint8

const (
	stateHandshake state = iota
	stateTransport
	stateTransitioning
)

func (s state) String() string {
	switch s {
	case stateHandshake:
		return "handshake"
	case stateTransport:
		return "transport"
	case stateTransitioning:
		return "transitioning"
	}
	return "unknown"
}

// Session is a secure channel endpoint. It begins in handshake state,
// moves to transport state when the three-message XX exchange completes,
// and never returns to handshake state.
//
// A Session is single-owner; distinct sessions may be used concurrently
// on separate goroutines without synchronization.
type Session struct {
	state        state
	initiator    bool
	handshake    *noise.HandshakeState
	sendCipher   *noise.CipherState
	recvCipher   *noise.CipherState
	buffer       *crypto.SecureBuffer
	remoteStatic []byte
	closed       bool
}

// NewInitiator constructs a session in the initiator role with a freshly
// generated Curve25519 static key.
func NewInitiator() (*Session, error) {
	return newSession(nil, true)
}

// NewResponder constructs a session in the responder role with a freshly
// generated Curve25519 static key.
func NewResponder() (*Session, error) {
	return newSession(nil, false)
}

// NewSessionWithKey constructs a session using the caller-supplied 32-byte
// static private key. The key slice is copied; the caller retains
// ownership of (and responsibility for wiping) the original.
func NewSessionWithKey(key []byte, initiator bool) (*Session, error) {
	if len(key) != crypto.KeyLen {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d",
			ErrInvalidParameter, crypto.KeyLen, len(key))
	}
	var secret [crypto.KeyLen]byte
	copy(secret[:], key)
	kp, err := crypto.FromSecretKey(secret)
	crypto.ZeroBytes(secret[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	defer crypto.WipeKeyPair(kp)
	return newSession(kp, initiator)
}

// newSession builds the underlying handshake state. A nil key pair means
// generate a fresh one.
func newSession(kp *crypto.KeyPair, initiator bool) (*Session, error) {
	if kp == nil {
		generated, err := crypto.GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
		}
		defer crypto.WipeKeyPair(generated)
		kp = generated
	}

	static := noise.DHKey{
		Private: append([]byte(nil), kp.Private[:]...),
		Public:  append([]byte(nil), kp.Public[:]...),
	}

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeXX,
		Initiator:     initiator,
		StaticKeypair: static,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"protocol":  ProtocolName,
		"initiator": initiator,
	}).Debug("Session created")

	return &Session{
		state:     stateHandshake,
		initiator: initiator,
		handshake: hs,
		buffer:    crypto.NewSecureBuffer(crypto.MaxMessageLen),
	}, nil
}

// IsHandshakeState reports whether the session is still performing the
// handshake. Exactly one of IsHandshakeState and IsTransportState is true
// at any observable moment.
func (s *Session) IsHandshakeState() bool {
	return s.state == stateHandshake
}

// IsTransportState reports whether the handshake has completed and the
// session can encrypt and decrypt transport messages.
func (s *Session) IsTransportState() bool {
	return s.state == stateTransport
}

// RemoteStatic returns a copy of the peer's 32-byte static public key.
// The second return value is false until the handshake has completed.
func (s *Session) RemoteStatic() ([]byte, bool) {
	if s.remoteStatic == nil {
		return nil, false
	}
	return append([]byte(nil), s.remoteStatic...), true
}

// WriteMessage produces the next handshake wire message, mixing in the
// optional payload. Valid only in handshake state. If writing this
// message completes the handshake, the session captures the remote static
// key and transitions to transport state before returning.
func (s *Session) WriteMessage(payload []byte) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: session is closed", ErrInvalidState)
	}
	if s.state != stateHandshake {
		return nil, fmt.Errorf("%w: write_message called in %s state", ErrInvalidState, s.state)
	}

	msg, cs1, cs2, err := s.handshake.WriteMessage(s.buffer.Bytes()[:0], payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	out := append([]byte(nil), msg...)
	if cs1 != nil && cs2 != nil {
		s.completeHandshake(cs1, cs2)
	}
	return out, nil
}

// ReadMessage consumes the next handshake wire message and returns any
// payload the peer mixed in. Valid only in handshake state. If reading
// this message completes the handshake, the session captures the remote
// static key and transitions to transport state before returning.
func (s *Session) ReadMessage(input []byte) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: session is closed", ErrInvalidState)
	}
	if s.state != stateHandshake {
		return nil, fmt.Errorf("%w: read_message called in %s state", ErrInvalidState, s.state)
	}

	payload, cs1, cs2, err := s.handshake.ReadMessage(s.buffer.Bytes()[:0], input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	out := append([]byte(nil), payload...)
	if cs1 != nil && cs2 != nil {
		s.completeHandshake(cs1, cs2)
	}
	return out, nil
}

// completeHandshake performs the atomic handshake-to-transport swap. The
// transitioning state covers the window in which the handshake value has
// been taken out of the slot but the ciphers are not yet installed.
func (s *Session) completeHandshake(cs1, cs2 *noise.CipherState) {
	s.state = stateTransitioning

	if peer := s.handshake.PeerStatic(); peer != nil {
		s.remoteStatic = append([]byte(nil), peer...)
	}

	// cs1 encrypts initiator-to-responder traffic, cs2 the reverse.
	if s.initiator {
		s.sendCipher, s.recvCipher = cs1, cs2
	} else {
		s.sendCipher, s.recvCipher = cs2, cs1
	}
	s.handshake = nil
	s.state = stateTransport

	preview := ""
	if len(s.remoteStatic) >= 8 {
		preview = fmt.Sprintf("%x", s.remoteStatic[:8])
	}
	logrus.WithFields(logrus.Fields{
		"protocol":      ProtocolName,
		"initiator":     s.initiator,
		"remote_static": preview,
	}).Debug("Handshake complete, session in transport state")
}

// Encrypt encrypts a transport message. Valid only in transport state.
// The plaintext must not exceed 65,519 bytes; the returned ciphertext is
// exactly 16 bytes longer than the plaintext.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: session is closed", ErrInvalidState)
	}
	if s.state != stateTransport {
		return nil, fmt.Errorf("%w: encrypt called in %s state", ErrInvalidState, s.state)
	}
	if len(plaintext) > crypto.MaxPayloadLen {
		return nil, fmt.Errorf("%w: plaintext length %d exceeds maximum %d",
			ErrInvalidParameter, len(plaintext), crypto.MaxPayloadLen)
	}

	ct, err := s.sendCipher.Encrypt(s.buffer.Bytes()[:0], nil, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return append([]byte(nil), ct...), nil
}

// Decrypt decrypts a transport message. Valid only in transport state.
// Fails with ErrDecryptionFailed on tag mismatch or truncated input.
func (s *Session) Decrypt(ciphertext []byte) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: session is closed", ErrInvalidState)
	}
	if s.state != stateTransport {
		return nil, fmt.Errorf("%w: decrypt called in %s state", ErrInvalidState, s.state)
	}
	if len(ciphertext) > crypto.MaxMessageLen {
		return nil, fmt.Errorf("%w: ciphertext length %d exceeds maximum %d",
			ErrInvalidParameter, len(ciphertext), crypto.MaxMessageLen)
	}

	pt, err := s.recvCipher.Decrypt(s.buffer.Bytes()[:0], nil, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return append([]byte(nil), pt...), nil
}

// ProcessMessage dispatches on the current state: handshake messages are
// read, transport messages are decrypted.
func (s *Session) ProcessMessage(input []byte) ([]byte, error) {
	if s.state == stateHandshake {
		return s.ReadMessage(input)
	}
	return s.Decrypt(input)
}

// GenerateMessage dispatches on the current state: handshake messages are
// written, transport payloads are encrypted.
func (s *Session) GenerateMessage(payload []byte) ([]byte, error) {
	if s.state == stateHandshake {
		return s.WriteMessage(payload)
	}
	return s.Encrypt(payload)
}

// Close zeroizes the scratch buffer and the captured remote static key
// and releases the cryptographic state. Close is idempotent; any
// operation after Close fails with ErrInvalidState.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	s.buffer.Wipe()
	if s.remoteStatic != nil {
		crypto.ZeroBytes(s.remoteStatic)
		s.remoteStatic = nil
	}
	s.handshake = nil
	s.sendCipher = nil
	s.recvCipher = nil

	logrus.WithFields(logrus.Fields{
		"protocol": ProtocolName,
	}).Debug("Session closed, transient buffers zeroized")
}
