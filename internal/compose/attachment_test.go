package compose

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shineum/mailcast/internal/config"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestResolveAttachment_ExplicitTypeTrusted(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "report.dat", []byte("not really a pdf"))
	resolved, err := ResolveAttachment(config.FileAttachment{Type: "application/pdf", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ContentType != "application/pdf" {
		t.Errorf("ContentType: got %q, want %q", resolved.ContentType, "application/pdf")
	}
	if resolved.Filename != "report.pdf" {
		t.Errorf("Filename: got %q, want %q", resolved.Filename, "report.pdf")
	}
}

func TestResolveAttachment_InferredFromExtension(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "notes.html", []byte("<p>hi</p>"))
	resolved, err := ResolveAttachment(config.FileAttachment{File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ContentType != "text/html" {
		t.Errorf("ContentType: got %q, want %q", resolved.ContentType, "text/html")
	}
	if resolved.Filename != "notes.html" {
		t.Errorf("Filename: got %q, want %q", resolved.Filename, "notes.html")
	}
}

func TestResolveAttachment_SniffedFromContents(t *testing.T) {
	t.Parallel()

	// No extension, so the type can only come from the payload itself.
	path := writeFile(t, "readme", []byte("plain text contents\n"))
	resolved, err := ResolveAttachment(config.FileAttachment{File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ContentType != "text/plain" {
		t.Errorf("ContentType: got %q, want %q", resolved.ContentType, "text/plain")
	}
	if resolved.Filename != "readme.txt" {
		t.Errorf("Filename: got %q, want %q", resolved.Filename, "readme.txt")
	}
}

func TestResolveAttachment_NeverEmptyType(t *testing.T) {
	t.Parallel()

	resolved, err := ResolveAttachment(config.ContentAttachment{Content: "payload"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ContentType != "application/octet-stream" {
		t.Errorf("ContentType: got %q, want %q", resolved.ContentType, "application/octet-stream")
	}
	if !strings.HasPrefix(resolved.Filename, "noname") {
		t.Errorf("Filename: got %q, want noname placeholder", resolved.Filename)
	}
	if !bytes.Equal(resolved.Payload, []byte("payload")) {
		t.Errorf("Payload: got %q, want %q", resolved.Payload, "payload")
	}
}

func TestResolveAttachment_UnreadableFile(t *testing.T) {
	t.Parallel()

	_, err := ResolveAttachment(config.FileAttachment{File: filepath.Join(t.TempDir(), "missing.pdf")})
	if !errors.Is(err, ErrAttachmentUnreadable) {
		t.Errorf("got %v, want ErrAttachmentUnreadable", err)
	}
}

func TestResolveAttachment_Calendar(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	resolved, err := ResolveAttachment(config.CalendarAttachment{
		Name:        "kickoff",
		Summary:     "Project kickoff",
		Description: "Agenda attached",
		Start:       time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		End:         &end,
		Organizer:   &config.Participant{Name: "Events", Address: "events@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ContentType != "text/calendar" {
		t.Errorf("ContentType: got %q, want %q", resolved.ContentType, "text/calendar")
	}
	if resolved.Filename != "kickoff.ics" {
		t.Errorf("Filename: got %q, want %q", resolved.Filename, "kickoff.ics")
	}

	payload := string(resolved.Payload)
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:Project kickoff", "METHOD:REQUEST"} {
		if !strings.Contains(payload, want) {
			t.Errorf("payload missing %q", want)
		}
	}
}

func TestResolveInline_ContentIDNotItsConcern(t *testing.T) {
	t.Parallel()

	resolved, err := ResolveInline(config.InlineAttachment{Content: "pixels", ContentID: "logo.01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ContentType != "application/octet-stream" {
		t.Errorf("ContentType: got %q, want %q", resolved.ContentType, "application/octet-stream")
	}
	if resolved.Filename != "" {
		t.Errorf("Filename: got %q, want empty for inline parts", resolved.Filename)
	}
}

func TestResolveInline_UnreadableFile(t *testing.T) {
	t.Parallel()

	_, err := ResolveInline(config.InlineAttachment{File: filepath.Join(t.TempDir(), "missing.png"), ContentID: "x"})
	if !errors.Is(err, ErrAttachmentUnreadable) {
		t.Errorf("got %v, want ErrAttachmentUnreadable", err)
	}
}
