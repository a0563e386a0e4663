// Package config loads the mailing specification file and the
// environment-supplied runtime settings.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Spec is the root of the YAML mailing specification.
type Spec struct {
	Email       EmailSpec        `yaml:"email"`
	MailingList ListSpec         `yaml:"mailing_list"`
	Logging     *LoggingSpec     `yaml:"logging"`
	Multithread *MultithreadSpec `yaml:"multithread"`
}

// EmailSpec describes the message every recipient receives: identity
// roles, subject, template, and attachments.
type EmailSpec struct {
	Originator  Participant      `yaml:"originator"`
	Author      *Participant     `yaml:"author"`
	Sender      *Participant     `yaml:"sender"`
	Contact     *Participant     `yaml:"contact"`
	Subject     string           `yaml:"subject"`
	Template    Template         `yaml:"template"`
	Attachments []AttachmentSpec `yaml:"attachments"`
}

// ListSpec carries the mailing-list identity fields.
type ListSpec struct {
	ListID ListID `yaml:"list_id"`
}

// LoggingSpec mirrors the optional logging block of the specification.
type LoggingSpec struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MultithreadSpec is accepted for forward compatibility but inert: the
// dispatcher is strictly sequential.
type MultithreadSpec struct{}

// Participant is a display-name/address pair. In YAML it may be either a
// bare address string or a {name, address} mapping.
type Participant struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

func (p *Participant) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&p.Address)
	}
	type plain Participant
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Address == "" {
		return fmt.Errorf("line %d: participant requires an address", value.Line)
	}
	*p = Participant(raw)
	return nil
}

// ListID identifies the mailing list per RFC 2919: a label scoped to a
// domain, an IP literal, or "localhost".
type ListID struct {
	Label     string `yaml:"label"`
	Namespace string `yaml:"namespace"`
}

func (l *ListID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&l.Label)
	}
	type plain ListID
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*l = ListID(raw)
	return nil
}

// IsIP reports whether the namespace is an IP literal rather than a
// domain. Rendering does not currently distinguish the two, but the
// specification models them as different address kinds.
func (l ListID) IsIP() bool {
	return net.ParseIP(l.Namespace) != nil
}

// Attachment is the closed set of top-level attachment variants.
type Attachment interface {
	isAttachment()
}

// FileAttachment references an on-disk payload. Type, when set, is used
// verbatim; otherwise the resolver infers one from the file.
type FileAttachment struct {
	Type string
	Name string
	File string
}

func (FileAttachment) isAttachment() {}

// ContentAttachment carries its payload inline in the specification.
type ContentAttachment struct {
	Type    string
	Name    string
	Content string
}

func (ContentAttachment) isAttachment() {}

// CalendarAttachment describes a calendar invitation to be rendered as a
// text/calendar part.
type CalendarAttachment struct {
	Name        string
	Summary     string
	Description string
	Start       time.Time
	End         *time.Time
	Organizer   *Participant
}

func (CalendarAttachment) isAttachment() {}

// AttachmentSpec wraps the Attachment union so it can sit in a YAML
// sequence. The variant is discriminated by the keys present: a
// text/calendar type selects the calendar variant, otherwise exactly one
// of file or content must be given. A bare scalar is shorthand for a
// file reference.
type AttachmentSpec struct {
	Attachment
}

func (a *AttachmentSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var path string
		if err := value.Decode(&path); err != nil {
			return err
		}
		a.Attachment = FileAttachment{File: path}
		return nil
	}

	var raw struct {
		Type        string       `yaml:"type"`
		Name        string       `yaml:"name"`
		File        string       `yaml:"file"`
		Content     string       `yaml:"content"`
		Summary     string       `yaml:"summary"`
		Description string       `yaml:"description"`
		Start       time.Time    `yaml:"start"`
		End         *time.Time   `yaml:"end"`
		Organizer   *Participant `yaml:"organizer"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	switch {
	case raw.Type == "text/calendar":
		if raw.Summary == "" || raw.Start.IsZero() {
			return fmt.Errorf("line %d: calendar attachment requires summary and start", value.Line)
		}
		a.Attachment = CalendarAttachment{
			Name:        raw.Name,
			Summary:     raw.Summary,
			Description: raw.Description,
			Start:       raw.Start,
			End:         raw.End,
			Organizer:   raw.Organizer,
		}
	case raw.File != "" && raw.Content == "":
		a.Attachment = FileAttachment{Type: raw.Type, Name: raw.Name, File: raw.File}
	case raw.Content != "" && raw.File == "":
		a.Attachment = ContentAttachment{Type: raw.Type, Name: raw.Name, Content: raw.Content}
	default:
		return fmt.Errorf("line %d: attachment requires exactly one of file or content", value.Line)
	}
	return nil
}

// InlineAttachment is an attachment referenced from the HTML body via a
// cid: URL. Exactly one of File or Content carries the payload.
type InlineAttachment struct {
	Type      string `yaml:"type"`
	Name      string `yaml:"name"`
	File      string `yaml:"file"`
	Content   string `yaml:"content"`
	ContentID string `yaml:"content_id"`
}

func (i *InlineAttachment) UnmarshalYAML(value *yaml.Node) error {
	type plain InlineAttachment
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.ContentID == "" {
		return fmt.Errorf("line %d: inline attachment requires content_id", value.Line)
	}
	if (raw.File == "") == (raw.Content == "") {
		return fmt.Errorf("line %d: inline attachment requires exactly one of file or content", value.Line)
	}
	*i = InlineAttachment(raw)
	return nil
}

// Template is the message body source: an HTML or plain-text document
// from a file or inline content, plus its inline attachments. A bare
// scalar is shorthand for a file reference.
type Template struct {
	ContentType       string             `yaml:"type"`
	File              string             `yaml:"file"`
	Content           string             `yaml:"content"`
	InlineAttachments []InlineAttachment `yaml:"inline_attachments"`
}

func (t *Template) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.ContentType = "text/html"
		return value.Decode(&t.File)
	}

	type plain Template
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.ContentType == "" {
		raw.ContentType = "text/html"
	}
	if raw.ContentType != "text/html" && raw.ContentType != "text/plain" {
		return fmt.Errorf("line %d: template type must be text/html or text/plain, got %q", value.Line, raw.ContentType)
	}
	if (raw.File == "") == (raw.Content == "") {
		return fmt.Errorf("line %d: template requires exactly one of file or content", value.Line)
	}

	seen := make(map[string]struct{}, len(raw.InlineAttachments))
	for _, inline := range raw.InlineAttachments {
		if _, dup := seen[inline.ContentID]; dup {
			return fmt.Errorf("line %d: duplicate inline content_id %q", value.Line, inline.ContentID)
		}
		seen[inline.ContentID] = struct{}{}
	}

	*t = Template(raw)
	return nil
}

// Load reads the template body from its file or inline content.
func (t Template) Load() (string, error) {
	if t.File != "" {
		data, err := os.ReadFile(t.File)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return t.Content, nil
}

// LoadSpec reads and decodes the specification file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specification file: %w", err)
	}

	spec := &Spec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("failed to parse specification file: %w", err)
	}

	if spec.Email.Originator.Address == "" {
		return nil, fmt.Errorf("specification requires email.originator")
	}
	if spec.Email.Template.File == "" && spec.Email.Template.Content == "" {
		return nil, fmt.Errorf("specification requires email.template")
	}

	return spec, nil
}
