// Package main provides the C API for the noise-mobile library, the
// foreign function boundary consumed by iOS and Android bindings.
//
// # Overview
//
// Sessions are exposed as opaque integer-backed handles; all data crosses
// the boundary as byte pointer/length pairs. Every fallible function
// returns an integer error code (see errors.go); a companion
// noise_error_string function maps codes to static NUL-terminated
// descriptions for logging.
//
// # Buffer Protocol
//
// Every output function takes a caller-sized buffer plus an in/out length
// pointer. When the buffer is too small the function writes the required
// size through the length pointer and returns CodeBufferTooSmall (6);
// on success it writes the number of bytes actually produced. A null
// required pointer yields CodeInvalidParameter (1); predicates simply
// return 0 for null handles.
//
// # Build Instructions
//
// To build as a C shared library:
//
//	go build -buildmode=c-shared -o libnoisemobile.so ./capi/
//
// This generates:
//   - libnoisemobile.so: The shared library
//   - libnoisemobile.h: Auto-generated C header with function declarations
//
// # Thread Safety
//
// The handle registry is guarded by a mutex, so handles may be created
// and freed from any thread. Operations on a single session are not
// synchronized; a session handle is single-owner, matching the Go API.
package main
