// Package message defines the multipart tree a mailing run builds once per
// recipient, and its RFC 2045 wire encoding.
package message

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
)

// Node is one node of the MIME tree: either a Multipart container or a
// Leaf body part.
type Node interface {
	isNode()
}

// Multipart is a container part (mixed, alternative, related) holding
// child nodes in render order.
type Multipart struct {
	Subtype string
	Parts   []Node
}

func (*Multipart) isNode() {}

// Leaf is a terminal body part. Text parts (Charset set) are transferred
// quoted-printable; everything else is base64. When Filename is set the
// part is rendered as an attachment; when ContentID is set the part can
// be referenced from HTML via a cid: URL.
type Leaf struct {
	ContentType string
	Charset     string
	Filename    string
	ContentID   string
	Body        []byte
}

func (*Leaf) isNode() {}

// Built is a fully assembled message body tree. It is immutable by
// convention once returned from the builder: sealing copies headers
// around it and shares the tree, it never modifies it.
type Built struct {
	Root *Multipart
}

// WriteEntity writes the MIME-Version and top-level Content-Type headers
// followed by the encoded body tree. Boundaries are generated fresh on
// every call.
func (b *Built) WriteEntity(w io.Writer) error {
	boundary := newBoundary()
	if _, err := fmt.Fprintf(w, "MIME-Version: 1.0\r\nContent-Type: multipart/%s; boundary=%q\r\n\r\n", b.Root.Subtype, boundary); err != nil {
		return err
	}
	return writeMultipart(w, b.Root, boundary)
}

// newBoundary returns a boundary token unique enough to never collide
// with message content in practice.
func newBoundary() string {
	return "=_" + uuid.New().String()
}

func writeMultipart(w io.Writer, mp *Multipart, boundary string) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return fmt.Errorf("failed to set multipart boundary: %w", err)
	}

	for _, node := range mp.Parts {
		switch part := node.(type) {
		case *Multipart:
			inner := newBoundary()
			header := textproto.MIMEHeader{
				"Content-Type": {fmt.Sprintf("multipart/%s; boundary=%q", part.Subtype, inner)},
			}
			pw, err := mw.CreatePart(header)
			if err != nil {
				return fmt.Errorf("failed to create multipart/%s part: %w", part.Subtype, err)
			}
			if err := writeMultipart(pw, part, inner); err != nil {
				return err
			}
		case *Leaf:
			pw, err := mw.CreatePart(part.header())
			if err != nil {
				return fmt.Errorf("failed to create %s part: %w", part.ContentType, err)
			}
			if err := part.writeBody(pw); err != nil {
				return fmt.Errorf("failed to encode %s part: %w", part.ContentType, err)
			}
		}
	}

	return mw.Close()
}

// header builds the per-part header block.
func (l *Leaf) header() textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)

	contentType := l.ContentType
	if l.Charset != "" {
		contentType = fmt.Sprintf("%s; charset=%s", contentType, strings.ToUpper(l.Charset))
	}
	h.Set("Content-Type", contentType)

	if l.Charset != "" {
		h.Set("Content-Transfer-Encoding", "quoted-printable")
	} else {
		h.Set("Content-Transfer-Encoding", "base64")
	}

	if l.ContentID != "" {
		h.Set("Content-Id", l.ContentID)
	}
	if l.Filename != "" {
		h.Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", mime.QEncoding.Encode("UTF-8", l.Filename)))
	}

	return h
}

func (l *Leaf) writeBody(w io.Writer) error {
	if l.Charset != "" {
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write(l.Body); err != nil {
			return err
		}
		return qp.Close()
	}
	_, err := io.WriteString(w, encodeBase64WithLineBreaks(l.Body))
	return err
}

// encodeBase64WithLineBreaks encodes bytes to base64 with 76-character
// line breaks per RFC 2045.
func encodeBase64WithLineBreaks(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var lines []string
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		lines = append(lines, encoded[i:end])
	}
	return strings.Join(lines, "\r\n")
}
