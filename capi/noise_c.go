package main

/*
#include <stdlib.h>
#include <stdint.h>
#include <stddef.h>
*/
import "C"

import (
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/noise-mobile-go/crypto"
	"github.com/opd-ai/noise-mobile-go/session"
)

func main() {} // Required for c-shared build mode

// errorStrings holds one static NUL-terminated string per code. The
// strings are allocated once and intentionally never freed; C callers
// may hold the pointers for the life of the process.
var errorStrings = func() map[Code]*C.char {
	codes := []Code{
		CodeSuccess, CodeInvalidParameter, CodeOutOfMemory,
		CodeHandshakeFailed, CodeEncryptionFailed, CodeDecryptionFailed,
		CodeBufferTooSmall, CodeInvalidState, CodeProtocolError,
	}
	m := make(map[Code]*C.char, len(codes))
	for _, code := range codes {
		m[code] = C.CString(errorDescription(code))
	}
	return m
}()

var unknownErrorString = C.CString("unknown error")

// handleToID dereferences an opaque handle. The handle is a pointer to
// the registry id, as issued by newHandle.
func handleToID(handle unsafe.Pointer) int {
	return *(*int)(handle)
}

// newHandle wraps a registry id in an opaque pointer for the C side.
func newHandle(id int) unsafe.Pointer {
	handle := new(int)
	*handle = id
	return unsafe.Pointer(handle)
}

// lookupSession resolves a handle to its session.
func lookupSession(handle unsafe.Pointer) (*session.Session, bool) {
	if handle == nil {
		return nil, false
	}
	return sessionRegistry.get(handleToID(handle))
}

// inputSlice converts a C pointer/length pair to a Go slice. A null
// pointer with zero length is an empty input; a null pointer with a
// nonzero length is a caller error.
func inputSlice(ptr *C.uchar, length C.size_t) ([]byte, Code) {
	if ptr == nil {
		if length != 0 {
			return nil, CodeInvalidParameter
		}
		return nil, CodeSuccess
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(length)), CodeSuccess
}

// copyOut applies the output-buffer contract to a C buffer.
func copyOut(src []byte, out *C.uchar, outLen *C.size_t) Code {
	if outLen == nil {
		return CodeInvalidParameter
	}

	var dst []byte
	if out != nil {
		dst = unsafe.Slice((*byte)(unsafe.Pointer(out)), int(*outLen))
	}

	length := uint64(*outLen)
	code := fillOutput(src, dst, &length)
	*outLen = C.size_t(length)
	return code
}

//export noise_session_new
func noise_session_new(mode C.int, errOut *C.int) unsafe.Pointer {
	if errOut == nil {
		return nil
	}
	if mode != ModeInitiator && mode != ModeResponder {
		*errOut = C.int(CodeInvalidParameter)
		return nil
	}

	var (
		s   *session.Session
		err error
	)
	if mode == ModeInitiator {
		s, err = session.NewInitiator()
	} else {
		s, err = session.NewResponder()
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "noise_session_new",
			"error":    err.Error(),
		}).Error("Failed to create session")
		*errOut = C.int(codeFromError(err))
		return nil
	}

	*errOut = C.int(CodeSuccess)
	return newHandle(sessionRegistry.add(s))
}

//export noise_session_new_with_key
func noise_session_new_with_key(key *C.uchar, keyLen C.size_t, mode C.int, errOut *C.int) unsafe.Pointer {
	if errOut == nil {
		return nil
	}
	if key == nil || mode != ModeInitiator && mode != ModeResponder {
		*errOut = C.int(CodeInvalidParameter)
		return nil
	}

	keyBytes := unsafe.Slice((*byte)(unsafe.Pointer(key)), int(keyLen))
	s, err := session.NewSessionWithKey(keyBytes, mode == ModeInitiator)
	if err != nil {
		*errOut = C.int(codeFromError(err))
		return nil
	}

	*errOut = C.int(CodeSuccess)
	return newHandle(sessionRegistry.add(s))
}

//export noise_session_free
func noise_session_free(handle unsafe.Pointer) {
	if handle == nil {
		return
	}
	if s, ok := sessionRegistry.remove(handleToID(handle)); ok {
		s.Close()
	}
}

//export noise_write_message
func noise_write_message(handle unsafe.Pointer, payload *C.uchar, payloadLen C.size_t, out *C.uchar, outLen *C.size_t) C.int {
	s, ok := lookupSession(handle)
	if !ok || outLen == nil {
		return C.int(CodeInvalidParameter)
	}
	in, code := inputSlice(payload, payloadLen)
	if code != CodeSuccess {
		return C.int(code)
	}

	msg, err := s.WriteMessage(in)
	if err != nil {
		return C.int(codeFromError(err))
	}
	return C.int(copyOut(msg, out, outLen))
}

//export noise_read_message
func noise_read_message(handle unsafe.Pointer, input *C.uchar, inputLen C.size_t, out *C.uchar, outLen *C.size_t) C.int {
	s, ok := lookupSession(handle)
	if !ok || outLen == nil {
		return C.int(CodeInvalidParameter)
	}
	in, code := inputSlice(input, inputLen)
	if code != CodeSuccess {
		return C.int(code)
	}

	payload, err := s.ReadMessage(in)
	if err != nil {
		return C.int(codeFromError(err))
	}
	return C.int(copyOut(payload, out, outLen))
}

//export noise_is_handshake_complete
func noise_is_handshake_complete(handle unsafe.Pointer) C.int {
	s, ok := lookupSession(handle)
	if !ok {
		return 0
	}
	if s.IsTransportState() {
		return 1
	}
	return 0
}

//export noise_encrypt
func noise_encrypt(handle unsafe.Pointer, plaintext *C.uchar, plaintextLen C.size_t, out *C.uchar, outLen *C.size_t) C.int {
	s, ok := lookupSession(handle)
	if !ok || outLen == nil {
		return C.int(CodeInvalidParameter)
	}
	in, code := inputSlice(plaintext, plaintextLen)
	if code != CodeSuccess {
		return C.int(code)
	}

	ciphertext, err := s.Encrypt(in)
	if err != nil {
		return C.int(codeFromError(err))
	}
	return C.int(copyOut(ciphertext, out, outLen))
}

//export noise_decrypt
func noise_decrypt(handle unsafe.Pointer, ciphertext *C.uchar, ciphertextLen C.size_t, out *C.uchar, outLen *C.size_t) C.int {
	s, ok := lookupSession(handle)
	if !ok || outLen == nil {
		return C.int(CodeInvalidParameter)
	}
	in, code := inputSlice(ciphertext, ciphertextLen)
	if code != CodeSuccess {
		return C.int(code)
	}

	plaintext, err := s.Decrypt(in)
	if err != nil {
		return C.int(codeFromError(err))
	}
	return C.int(copyOut(plaintext, out, outLen))
}

//export noise_get_remote_static
func noise_get_remote_static(handle unsafe.Pointer, out *C.uchar, outLen *C.size_t) C.int {
	s, ok := lookupSession(handle)
	if !ok || outLen == nil {
		return C.int(CodeInvalidParameter)
	}

	remote, present := s.RemoteStatic()
	if !present {
		return C.int(CodeInvalidState)
	}
	return C.int(copyOut(remote, out, outLen))
}

//export noise_max_message_len
func noise_max_message_len() C.size_t {
	return C.size_t(crypto.MaxMessageLen)
}

//export noise_max_payload_len
func noise_max_payload_len() C.size_t {
	return C.size_t(crypto.MaxPayloadLen)
}

//export noise_error_string
func noise_error_string(code C.int) *C.char {
	if s, ok := errorStrings[Code(code)]; ok {
		return s
	}
	return unknownErrorString
}
