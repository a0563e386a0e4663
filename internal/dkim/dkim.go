// Package dkim wraps a Transport with DKIM signing: every submitted
// message is serialized, signed, and forwarded in signed form.
package dkim

import (
	"bytes"
	"context"
	"fmt"
	"os"

	godkim "github.com/toorop/go-dkim"

	"github.com/shineum/mailcast/internal/transport"
)

// signedHeaders lists the headers covered by the signature. Only headers
// every sealed message is guaranteed to carry are included, so signing
// never depends on the recipient-set shape.
var signedHeaders = []string{
	"from",
	"subject",
	"date",
	"message-id",
	"list-id",
	"mime-version",
	"content-type",
}

// Config holds the signing parameters.
type Config struct {
	Selector string
	Domain   string
	KeyFile  string
}

// Signer is a Transport middleware that signs before delegating.
type Signer struct {
	next     transport.Transport
	key      []byte
	selector string
	domain   string
}

// Wrap reads the PEM-encoded private key and returns the signing
// middleware around next.
func Wrap(next transport.Transport, cfg Config) (*Signer, error) {
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read DKIM key file %q: %w", cfg.KeyFile, err)
	}
	return &Signer{
		next:     next,
		key:      key,
		selector: cfg.Selector,
		domain:   cfg.Domain,
	}, nil
}

// Reset delegates to the wrapped transport.
func (s *Signer) Reset(ctx context.Context) error {
	return s.next.Reset(ctx)
}

// Submit signs the serialized message and submits the signed bytes. A
// signing failure is a submission failure for this message only.
func (s *Signer) Submit(ctx context.Context, env *transport.Envelope) error {
	var buf bytes.Buffer
	if _, err := env.Message.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize message for signing: %w", err)
	}

	raw := buf.Bytes()
	opts := godkim.NewSigOptions()
	opts.PrivateKey = s.key
	opts.Domain = s.domain
	opts.Selector = s.selector
	opts.Canonicalization = "relaxed/relaxed"
	opts.Headers = signedHeaders
	opts.AddSignatureTimestamp = true

	if err := godkim.Sign(&raw, opts); err != nil {
		return fmt.Errorf("failed to sign message: %w", err)
	}

	return s.next.Submit(ctx, &transport.Envelope{
		From:       env.From,
		Recipients: env.Recipients,
		Message:    bytes.NewReader(raw),
	})
}

// Name returns the wrapped transport name with a signing marker.
func (s *Signer) Name() string {
	return s.next.Name() + "+dkim"
}
