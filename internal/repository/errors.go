// Package repository provides MySQL persistence for the pieces that live
// downstream of the in-memory registry: the committed event journal and the
// operator credential store used by the HTTP gateway.  This file defines
// error values reused across repositories so that handlers can distinguish
// failure scenarios without string matching.
package repository

import "errors"

// ErrIdentityExists is returned when registering an operator whose identity
// is already taken.  Handlers should translate this into an HTTP 409.
var ErrIdentityExists = errors.New("identity already exists")
