package mboxfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shineum/mailcast/internal/transport"
)

func TestSubmit_AppendsEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archive", "sent.mbox")
	a, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, subject := range []string{"first", "second"} {
		env := &transport.Envelope{
			From:       "bounce@example.com",
			Recipients: []string{"to@example.com"},
			Message:    bytes.NewReader([]byte("Subject: " + subject + "\r\n\r\nbody\r\n")),
		}
		if err := a.Submit(context.Background(), env); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	text := string(data)

	var fromLines int
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "From bounce@example.com") {
			fromLines++
		}
	}
	if fromLines != 2 {
		t.Errorf("From_ separators: got %d, want 2\n%s", fromLines, text)
	}
	if !strings.Contains(text, "Subject: first") || !strings.Contains(text, "Subject: second") {
		t.Errorf("archive missing entries:\n%s", text)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deep", "nested", "out.mbox")
	a, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if a.Name() != "mbox" {
		t.Errorf("Name: got %q, want %q", a.Name(), "mbox")
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("archive directory not created: %v", err)
	}
}
