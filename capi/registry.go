package main

import (
	"sync"

	"github.com/opd-ai/noise-mobile-go/session"
)

// registry maps opaque integer handles to live sessions. Handle zero is
// never issued so a zeroed handle value is always invalid.
type registry struct {
	mu       sync.RWMutex
	sessions map[int]*session.Session
	nextID   int
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[int]*session.Session),
		nextID:   1,
	}
}

// add stores a session and returns its new handle.
func (r *registry) add(s *session.Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.sessions[id] = s
	return id
}

// get looks up a session by handle.
func (r *registry) get(id int) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// remove deletes and returns the session for a handle. Removing an
// unknown handle is harmless, so double frees are tolerated.
func (r *registry) remove(id int) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// sessionRegistry is the process-wide handle table for the C surface.
var sessionRegistry = newRegistry()

// fillOutput implements the shared output-buffer contract: the required
// size is always written through outLen; the copy happens only when the
// caller's buffer is large enough.
func fillOutput(src []byte, out []byte, outLen *uint64) Code {
	if outLen == nil {
		return CodeInvalidParameter
	}

	required := uint64(len(src))
	*outLen = required

	if uint64(len(out)) < required {
		return CodeBufferTooSmall
	}

	copy(out, src)
	return CodeSuccess
}
