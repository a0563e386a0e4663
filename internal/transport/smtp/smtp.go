// Package smtp implements a Transport over an authenticated mail
// submission session (STARTTLS + PLAIN auth).
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/shineum/mailcast/internal/transport"
)

// Config holds the submission session parameters.
type Config struct {
	Hostname string
	Port     int
	Username string
	Password string
}

// Session is the subset of the go-smtp client the transport drives.
// Used for testing with fake sessions.
type Session interface {
	Mail(from string, opts *gosmtp.MailOptions) error
	Rcpt(to string, opts *gosmtp.RcptOptions) error
	Data() (io.WriteCloser, error)
	Reset() error
	Quit() error
}

// Client is a connected, authenticated submission session.
type Client struct {
	client Session
}

// Dial connects to the submission endpoint, upgrading to TLS via
// STARTTLS before anything else is sent, and authenticates when
// credentials are set.
func Dial(cfg Config) (*Client, error) {
	addr := net.JoinHostPort(cfg.Hostname, strconv.Itoa(cfg.Port))

	c, err := gosmtp.DialStartTLS(addr, &tls.Config{ServerName: cfg.Hostname})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	if cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", cfg.Username, cfg.Password)); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to authenticate as %s: %w", cfg.Username, err)
		}
	}

	return &Client{client: c}, nil
}

// NewWithSession wraps an established session, used for testing.
func NewWithSession(s Session) *Client {
	return &Client{client: s}
}

// Reset issues RSET, aborting any in-progress mail transaction.
func (c *Client) Reset(_ context.Context) error {
	return c.client.Reset()
}

// Submit performs one MAIL/RCPT/DATA transaction for the envelope.
func (c *Client) Submit(_ context.Context, env *transport.Envelope) error {
	if err := c.client.Mail(env.From, nil); err != nil {
		return fmt.Errorf("sender %s rejected: %w", env.From, err)
	}
	for _, rcpt := range env.Recipients {
		if err := c.client.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("recipient %s rejected: %w", rcpt, err)
		}
	}

	w, err := c.client.Data()
	if err != nil {
		return fmt.Errorf("data command rejected: %w", err)
	}
	if _, err := env.Message.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}

	return nil
}

// Name returns the transport name.
func (c *Client) Name() string {
	return "smtp"
}

// Close ends the session with QUIT.
func (c *Client) Close() error {
	return c.client.Quit()
}
