// Package compose turns a template and attachment descriptors into the
// fixed multipart tree a mail client can degrade through gracefully.
package compose

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/shineum/mailcast/internal/config"
)

// ErrAttachmentUnreadable indicates a referenced attachment file could
// not be read. It is fatal to building that recipient's message and is
// surfaced before any send attempt.
var ErrAttachmentUnreadable = errors.New("attachment file cannot be read")

// fallbackContentType is used whenever no type is declared and none can
// be inferred. Resolution never fails on an unknown type.
const fallbackContentType = "application/octet-stream"

// contentPlaceholderName names parts whose payload came inline with the
// specification and therefore has no natural filename.
const contentPlaceholderName = "noname"

// preferredExtensions pins extensions for types the mime package may not
// know on a minimal system, keeping suggested filenames deterministic.
var preferredExtensions = map[string]string{
	"text/calendar":   ".ics",
	"text/html":       ".html",
	"text/plain":      ".txt",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// Resolved is a concrete attachment payload ready to become a MIME part.
type Resolved struct {
	ContentType string
	Filename    string
	Payload     []byte
}

// ResolveAttachment produces the payload, content type, and suggested
// filename for a top-level attachment variant. A declared type is
// trusted verbatim; otherwise the type is inferred from the file name,
// then its contents, falling back to application/octet-stream.
func ResolveAttachment(spec config.Attachment) (Resolved, error) {
	switch att := spec.(type) {
	case config.FileAttachment:
		payload, err := os.ReadFile(att.File)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: %q: %v", ErrAttachmentUnreadable, att.File, err)
		}
		contentType := resolveFileType(att.Type, att.File, payload)
		stem := fileStem(att.File)
		return Resolved{
			ContentType: contentType,
			Filename:    stem + extensionForType(contentType),
			Payload:     payload,
		}, nil

	case config.ContentAttachment:
		contentType := normalizeType(att.Type)
		return Resolved{
			ContentType: contentType,
			Filename:    contentPlaceholderName + extensionForType(contentType),
			Payload:     []byte(att.Content),
		}, nil

	case config.CalendarAttachment:
		stem := att.Name
		if stem == "" {
			stem = "invite"
		}
		return Resolved{
			ContentType: "text/calendar",
			Filename:    stem + extensionForType("text/calendar"),
			Payload:     calendarPayload(att),
		}, nil

	default:
		return Resolved{}, fmt.Errorf("unsupported attachment variant %T", spec)
	}
}

// ResolveInline produces the payload and content type for an inline
// attachment. The suggested filename does not apply: inline parts are
// addressed by content identifier, not downloaded.
func ResolveInline(spec config.InlineAttachment) (Resolved, error) {
	if spec.File != "" {
		payload, err := os.ReadFile(spec.File)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: %q: %v", ErrAttachmentUnreadable, spec.File, err)
		}
		return Resolved{
			ContentType: resolveFileType(spec.Type, spec.File, payload),
			Payload:     payload,
		}, nil
	}
	return Resolved{
		ContentType: normalizeType(spec.Type),
		Payload:     []byte(spec.Content),
	}, nil
}

// resolveFileType resolves the content type of a file-backed payload:
// declared type, extension lookup, content sniffing, octet-stream.
func resolveFileType(declared, path string, payload []byte) string {
	if declared != "" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return stripParams(byExt)
	}
	if detected := mimetype.Detect(payload); detected != nil {
		return stripParams(detected.String())
	}
	return fallbackContentType
}

func normalizeType(declared string) string {
	if declared == "" {
		return fallbackContentType
	}
	return declared
}

// extensionForType derives a filename extension from a resolved content
// type. An unknown type yields no extension rather than an error.
func extensionForType(contentType string) string {
	if ext, ok := preferredExtensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func stripParams(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		return strings.TrimSpace(contentType[:i])
	}
	return contentType
}
