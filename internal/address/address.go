// Package address provides the mailbox pair used for every originator,
// sender, and recipient in a mailing run.
package address

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrInvalidAddress indicates a string that does not satisfy RFC 5322
// addr-spec syntax. It is raised at construction time so malformed
// mailboxes never reach header composition.
var ErrInvalidAddress = errors.New("invalid email address")

// Address is an immutable display-name/mailbox pair.
// The zero value is not valid; construct through New.
type Address struct {
	Name string
	Addr string
}

// New validates addr and returns the pair. The display name is optional
// and carried verbatim; it is encoded only at header-rendering time.
func New(name, addr string) (Address, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	// Reject inputs that smuggle a display name into the addr-spec slot.
	if parsed.Name != "" || parsed.Address != strings.TrimSpace(addr) {
		return Address{}, fmt.Errorf("%w: %q: not a bare addr-spec", ErrInvalidAddress, addr)
	}
	return Address{Name: name, Addr: parsed.Address}, nil
}

// String renders the pair as an RFC 5322 mailbox, quoting and encoding
// the display name as needed.
func (a Address) String() string {
	return (&mail.Address{Name: a.Name, Address: a.Addr}).String()
}

// Domain returns the part of the mailbox after the last "@".
func (a Address) Domain() string {
	if i := strings.LastIndex(a.Addr, "@"); i >= 0 {
		return a.Addr[i+1:]
	}
	return ""
}

// Format renders a list of pairs as a comma-separated address list
// suitable for a To, Cc, or Bcc header.
func Format(addrs []Address) string {
	rendered := make([]string, 0, len(addrs))
	for _, a := range addrs {
		rendered = append(rendered, a.String())
	}
	return strings.Join(rendered, ", ")
}
