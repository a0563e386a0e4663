package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shineum/mailcast/internal/transport"
)

func TestSubmit_PrintsEnvelopeAndMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := NewWithWriter(&buf)

	env := &transport.Envelope{
		From:       "bounce@example.com",
		Recipients: []string{"a@example.com", "b@example.com"},
		Message:    bytes.NewReader([]byte("Subject: hi\r\n\r\nbody")),
	}
	if err := tr.Submit(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Envelope-From: bounce@example.com") {
		t.Errorf("output missing envelope sender: %q", out)
	}
	if !strings.Contains(out, "Envelope-To: a@example.com, b@example.com") {
		t.Errorf("output missing envelope recipients: %q", out)
	}
	if !strings.Contains(out, "Subject: hi") {
		t.Errorf("output missing raw message: %q", out)
	}
}

func TestTransport_NameAndReset(t *testing.T) {
	t.Parallel()

	tr := New()
	if tr.Name() != "stdout" {
		t.Errorf("Name: got %q, want %q", tr.Name(), "stdout")
	}
	if err := tr.Reset(context.Background()); err != nil {
		t.Errorf("Reset: got %v, want nil", err)
	}
}
