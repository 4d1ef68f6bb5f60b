package domain

import "errors"

// ErrInvalidToken is returned when a handshake token fails verification or
// carries no usable identity. Connections presenting one are closed before
// registration.
var ErrInvalidToken = errors.New("invalid token")

// ErrNotFound is returned by the store when a shape does not exist in the
// given room.
var ErrNotFound = errors.New("shape not found")

// ValidationError marks a malformed inbound message. It fails that single
// message only; the connection stays up.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
