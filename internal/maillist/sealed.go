package maillist

import (
	"fmt"
	"io"

	"github.com/shineum/mailcast/internal/transport"
)

type header struct {
	name  string
	value string
}

// Sealed is one dispatch-ready message: the shared body tree plus its
// own resolved header set. It is never modified after Seal returns and
// becomes eligible for release once its submission outcome is recorded.
type Sealed struct {
	headers      []header
	body         interface{ WriteEntity(io.Writer) error }
	messageID    string
	recipient    string
	envelopeFrom string
	recipients   []string
}

// MessageID returns the unique message identifier assigned at seal time.
func (s *Sealed) MessageID() string {
	return s.messageID
}

// Recipient returns the display rendering of the primary recipient set,
// used for logging outcomes.
func (s *Sealed) Recipient() string {
	return s.recipient
}

// Envelope returns the submission envelope for this message.
func (s *Sealed) Envelope() *transport.Envelope {
	return &transport.Envelope{
		From:       s.envelopeFrom,
		Recipients: s.recipients,
		Message:    s,
	}
}

// WriteTo serializes the full RFC 5322 message: the sealed header block
// followed by the MIME entity of the shared body tree.
func (s *Sealed) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, h := range s.headers {
		if _, err := fmt.Fprintf(cw, "%s: %s\r\n", h.name, h.value); err != nil {
			return cw.n, err
		}
	}
	if err := s.body.WriteEntity(cw); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
