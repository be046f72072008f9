package domain

import "errors"

var (
	// ErrStreamStarting marks a transport error seen before any frame arrived:
	// the pipeline may simply not have begun emitting yet, so the condition is
	// transient rather than a hard failure.
	ErrStreamStarting = errors.New("stream not started yet")

	ErrSessionClosed    = errors.New("session closed")
	ErrSocketNotOpen    = errors.New("socket not open")
	ErrNotFound         = errors.New("not found")
	ErrZoneTooFewPoints = errors.New("zone polygon needs at least 3 vertices")
)
