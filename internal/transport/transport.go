// Package transport defines the interface for mail submission backends.
package transport

import (
	"context"
	"io"
)

// Envelope is one submission: the envelope sender, the envelope
// recipients, and the serialized RFC 5322 message.
type Envelope struct {
	From       string
	Recipients []string
	Message    io.WriterTo
}

// Transport is the interface that submission backends must implement.
// The dispatcher calls Reset before every Submit so a failed message
// never leaks transaction state into the next one.
type Transport interface {
	// Reset clears any in-progress transaction state on the session.
	Reset(ctx context.Context) error

	// Submit delivers one envelope. A returned error must be discrete
	// and recoverable: the dispatcher records it and moves on.
	Submit(ctx context.Context, env *Envelope) error

	// Name returns the human-readable name of this transport.
	Name() string
}
