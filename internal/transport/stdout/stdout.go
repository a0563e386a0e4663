// Package stdout implements a Transport that prints submissions to
// standard output instead of delivering them. Useful for dry runs.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mailcast/internal/transport"
)

// Transport prints each envelope and its serialized message.
type Transport struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a Transport that writes to os.Stdout.
func New() *Transport {
	return &Transport{writer: os.Stdout}
}

// NewWithWriter creates a Transport that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Transport {
	return &Transport{writer: w}
}

// Reset is a no-op: there is no session state.
func (t *Transport) Reset(_ context.Context) error {
	return nil
}

// Submit prints the envelope and the raw message.
func (t *Transport) Submit(_ context.Context, env *transport.Envelope) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("Envelope-From: %s\n", env.From))
	b.WriteString(fmt.Sprintf("Envelope-To: %s\n", strings.Join(env.Recipients, ", ")))
	b.WriteString("----------------------------------------\n")

	if _, err := fmt.Fprint(t.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}
	if _, err := env.Message.WriteTo(t.writer); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if _, err := fmt.Fprint(t.writer, "\n========================================\n"); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}

	return nil
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return "stdout"
}
