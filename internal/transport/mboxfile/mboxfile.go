// Package mboxfile implements a Transport that appends submissions to
// an mbox file instead of delivering them, producing a replayable
// archive of the run.
package mboxfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-mbox"

	"github.com/shineum/mailcast/internal/transport"
)

// Archive appends each submitted message as one mbox entry.
type Archive struct {
	file   *os.File
	writer *mbox.Writer
}

// Open opens (creating if needed) the mbox file for appending.
func Open(path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open mbox file %q: %w", path, err)
	}

	return &Archive{file: f, writer: mbox.NewWriter(f)}, nil
}

// Reset is a no-op: there is no session state.
func (a *Archive) Reset(_ context.Context) error {
	return nil
}

// Submit appends the message with a From_ line built from the envelope
// sender and the current time.
func (a *Archive) Submit(_ context.Context, env *transport.Envelope) error {
	mw, err := a.writer.CreateMessage(env.From, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create mbox entry: %w", err)
	}
	if _, err := env.Message.WriteTo(mw); err != nil {
		return fmt.Errorf("failed to write mbox entry: %w", err)
	}
	return nil
}

// Name returns the transport name.
func (a *Archive) Name() string {
	return "mbox"
}

// Close finalizes the last entry and closes the file.
func (a *Archive) Close() error {
	if err := a.writer.Close(); err != nil {
		a.file.Close()
		return fmt.Errorf("failed to finalize mbox file: %w", err)
	}
	return a.file.Close()
}
