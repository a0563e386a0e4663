package compose

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shineum/mailcast/internal/config"
	"github.com/shineum/mailcast/internal/message"
)

const testHTML = `<h1>Hello</h1><p>Details below.</p><table><tr><th>ColQuota</th><td>ValQuota</td></tr></table><img src="cid:logo.01">`

func buildFixture(t *testing.T) *message.Built {
	t.Helper()
	built, err := Build(testHTML, "text/html",
		[]config.InlineAttachment{
			{Name: "logo", Content: "fake-png", ContentID: "logo.01"},
		},
		[]config.AttachmentSpec{
			{Attachment: config.ContentAttachment{Type: "text/plain", Name: "note", Content: "hello"}},
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return built
}

func TestBuild_TreeShape(t *testing.T) {
	t.Parallel()

	built := buildFixture(t)

	mixed := built.Root
	if mixed.Subtype != "mixed" {
		t.Fatalf("root subtype: got %q, want %q", mixed.Subtype, "mixed")
	}
	if len(mixed.Parts) != 2 {
		t.Fatalf("mixed children: got %d, want 2", len(mixed.Parts))
	}

	attachment, ok := mixed.Parts[0].(*message.Leaf)
	if !ok {
		t.Fatalf("mixed first child: got %T, want leaf", mixed.Parts[0])
	}
	if attachment.ContentType != "text/plain" || attachment.Filename == "" {
		t.Errorf("attachment part: got type %q filename %q", attachment.ContentType, attachment.Filename)
	}

	alternative, ok := mixed.Parts[len(mixed.Parts)-1].(*message.Multipart)
	if !ok || alternative.Subtype != "alternative" {
		t.Fatalf("mixed last child: got %T, want multipart/alternative", mixed.Parts[len(mixed.Parts)-1])
	}
	if len(alternative.Parts) != 2 {
		t.Fatalf("alternative children: got %d, want 2", len(alternative.Parts))
	}

	plain, ok := alternative.Parts[0].(*message.Leaf)
	if !ok || plain.ContentType != "text/plain" {
		t.Fatalf("alternative first child: got %T, want text/plain leaf", alternative.Parts[0])
	}

	related, ok := alternative.Parts[1].(*message.Multipart)
	if !ok || related.Subtype != "related" {
		t.Fatalf("alternative second child: got %T, want multipart/related", alternative.Parts[1])
	}

	body, ok := related.Parts[0].(*message.Leaf)
	if !ok || body.ContentType != "text/html" {
		t.Fatalf("related first child: got %T, want text/html leaf", related.Parts[0])
	}

	inline, ok := related.Parts[1].(*message.Leaf)
	if !ok {
		t.Fatalf("related second child: got %T, want leaf", related.Parts[1])
	}
	if inline.ContentID != "logo.01" {
		t.Errorf("inline Content-ID: got %q, want %q", inline.ContentID, "logo.01")
	}
}

func TestBuild_PlainTextStripsTables(t *testing.T) {
	t.Parallel()

	built := buildFixture(t)
	alternative := built.Root.Parts[1].(*message.Multipart)
	plain := alternative.Parts[0].(*message.Leaf)

	text := string(plain.Body)
	if !strings.Contains(text, "Hello") {
		t.Errorf("plain text missing heading, got %q", text)
	}
	if !strings.Contains(text, "Details below.") {
		t.Errorf("plain text missing paragraph, got %q", text)
	}
	// Tables are removed outright, cell text included, not linearized.
	for _, stripped := range []string{"<table>", "ColQuota", "ValQuota"} {
		if strings.Contains(text, stripped) {
			t.Errorf("plain text still contains %q: %q", stripped, text)
		}
	}
}

func TestBuild_PlainTemplatePassthrough(t *testing.T) {
	t.Parallel()

	built, err := Build("just text", "text/plain", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alternative := built.Root.Parts[0].(*message.Multipart)
	plain := alternative.Parts[0].(*message.Leaf)
	if string(plain.Body) != "just text" {
		t.Errorf("plain alternative: got %q, want passthrough", plain.Body)
	}
	body := alternative.Parts[1].(*message.Multipart).Parts[0].(*message.Leaf)
	if body.ContentType != "text/plain" {
		t.Errorf("related body type: got %q, want text/plain", body.ContentType)
	}
}

func TestBuild_AlwaysWrapsMixed(t *testing.T) {
	t.Parallel()

	built, err := Build("<p>no attachments</p>", "text/html", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built.Root.Subtype != "mixed" {
		t.Errorf("root subtype: got %q, want %q even with zero attachments", built.Root.Subtype, "mixed")
	}
	if len(built.Root.Parts) != 1 {
		t.Errorf("mixed children: got %d, want 1", len(built.Root.Parts))
	}
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	first := buildFixture(t)
	second := buildFixture(t)

	if !reflect.DeepEqual(first.Root, second.Root) {
		t.Error("building the same inputs twice produced different trees")
	}
}
