// Package maillist owns the mailing-list identity, seals personalized
// messages with protocol headers, and drives sequential dispatch.
package maillist

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/mailcast/internal/address"
	"github.com/shineum/mailcast/internal/message"
)

// ErrNoRecipient indicates a seal call with none of To, Cc, or Bcc set.
// The call fails without touching the existing collection.
var ErrNoRecipient = errors.New("at least one recipient must be specified")

// Importance is the Importance header value set.
type Importance string

// Priority is the Priority header value set.
type Priority string

// Sensitivity is the Sensitivity header value set.
type Sensitivity string

const (
	ImportanceLow    Importance = "low"
	ImportanceNormal Importance = "normal"
	ImportanceHigh   Importance = "high"

	PriorityNonUrgent Priority = "non-urgent"
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"

	SensitivityPersonal     Sensitivity = "personal"
	SensitivityPrivate      Sensitivity = "private"
	SensitivityConfidential Sensitivity = "company confidential"
)

// Config carries the list-level identity. Author and Sender default to
// the originator; the namespace defaults to "localhost"; the Message-ID
// domain defaults to the originator's domain. Addresses must already be
// validated (address.New), so malformed mailboxes never reach sealing.
type Config struct {
	Originator      address.Address
	Author          *address.Address
	Sender          *address.Address
	Contact         *address.Address
	ListLabel       string
	ListNamespace   string
	MessageIDDomain string
}

// List holds the fixed identity and the append-only collection of sealed
// messages for one run. It is not safe for concurrent use; a run owns it
// exclusively.
type List struct {
	originator address.Address
	author     address.Address
	sender     address.Address
	contact    *address.Address
	listID     string
	domain     string

	log        *slog.Logger
	collection []*Sealed
}

// New resolves identity defaults and returns an empty list. A nil logger
// falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *List {
	if logger == nil {
		logger = slog.Default()
	}

	author := cfg.Originator
	if cfg.Author != nil {
		author = *cfg.Author
	}
	sender := cfg.Originator
	if cfg.Sender != nil {
		sender = *cfg.Sender
	}

	label := cfg.ListLabel
	if label == "" {
		label = uuid.New().String()
	}
	namespace := cfg.ListNamespace
	if namespace == "" {
		namespace = "localhost"
	}

	domain := cfg.MessageIDDomain
	if domain == "" {
		domain = cfg.Originator.Domain()
	}

	return &List{
		originator: cfg.Originator,
		author:     author,
		sender:     sender,
		contact:    cfg.Contact,
		// An IP-literal namespace composes the same way as a domain one.
		listID: label + "." + namespace,
		domain: domain,
		log:    logger,
	}
}

// ListID returns the rendered list identifier (label.namespace).
func (l *List) ListID() string {
	return l.listID
}

// Len returns the number of sealed messages awaiting dispatch.
func (l *List) Len() int {
	return len(l.collection)
}

// SealOptions selects the recipients and the per-message disposition
// headers of one sealed copy. Zero-valued disposition fields take their
// documented defaults (normal, normal, personal).
type SealOptions struct {
	To          []address.Address
	Cc          []address.Address
	Bcc         []address.Address
	Importance  Importance
	Priority    Priority
	Sensitivity Sensitivity
}

// Seal appends one sealed copy of the built message: the shared body
// tree plus a fresh header set carrying the list identity, recipients,
// and a unique Message-ID scoped to the configured domain. The built
// message is never modified, so it can seed further sealed copies.
func (l *List) Seal(msg *message.Built, subject string, opts SealOptions) error {
	if len(opts.To)+len(opts.Cc)+len(opts.Bcc) == 0 {
		return ErrNoRecipient
	}

	if opts.Importance == "" {
		opts.Importance = ImportanceNormal
	}
	if opts.Priority == "" {
		opts.Priority = PriorityNormal
	}
	if opts.Sensitivity == "" {
		opts.Sensitivity = SensitivityPersonal
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), l.domain)

	headers := []header{
		{"From", l.author.String()},
		{"Sender", l.sender.String()},
		{"Return-Path", l.originator.String()},
	}
	if len(opts.To) > 0 {
		headers = append(headers, header{"To", address.Format(opts.To)})
	}
	if len(opts.Cc) > 0 {
		headers = append(headers, header{"Cc", address.Format(opts.Cc)})
	}
	if len(opts.Bcc) > 0 {
		headers = append(headers, header{"Bcc", address.Format(opts.Bcc)})
	}
	headers = append(headers,
		header{"Subject", mime.QEncoding.Encode("UTF-8", subject)},
		header{"Date", time.Now().Format(time.RFC1123Z)},
		header{"List-Id", "<" + l.listID + ">"},
		header{"Message-Id", messageID},
		header{"Importance", string(opts.Importance)},
		header{"Priority", string(opts.Priority)},
		header{"Sensitivity", string(opts.Sensitivity)},
	)
	if l.contact != nil {
		headers = append(headers, header{"Reply-To", l.contact.String()})
	}

	recipients := make([]string, 0, len(opts.To)+len(opts.Cc)+len(opts.Bcc))
	for _, set := range [][]address.Address{opts.To, opts.Cc, opts.Bcc} {
		for _, a := range set {
			recipients = append(recipients, a.Addr)
		}
	}

	display := opts.To
	if len(display) == 0 {
		display = opts.Cc
	}
	if len(display) == 0 {
		display = opts.Bcc
	}

	l.collection = append(l.collection, &Sealed{
		headers:      headers,
		body:         msg,
		messageID:    messageID,
		recipient:    address.Format(display),
		envelopeFrom: l.originator.Addr,
		recipients:   recipients,
	})

	return nil
}
