package compose

import (
	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/shineum/mailcast/internal/config"
	"github.com/shineum/mailcast/internal/message"
)

// textConverter derives the plain-text alternative from the HTML body.
// Tables are removed outright rather than linearized: a table flattened
// to plain text is unreadable.
var textConverter = newTextConverter()

func newTextConverter() *md.Converter {
	conv := md.NewConverter("", true, nil)
	conv.Remove("table", "thead", "tbody", "tr", "th", "td")
	return conv
}

// Build assembles the canonical tree for one personalized body:
//
//	mixed
//	├── attachment parts, in input order
//	└── alternative
//	    ├── text/plain rendering of the body
//	    └── related
//	        ├── body (text/html or text/plain)
//	        └── inline parts, in input order
//
// The shape is fixed so clients can degrade: no multipart support falls
// back to the plain-text branch, no attachment support still renders the
// alternative branch, and the related wrapper carries cid-referenced
// parts wherever they exist. The mixed wrapper is kept even with zero
// attachments for header consistency.
func Build(content, contentType string, inline []config.InlineAttachment, attachments []config.AttachmentSpec) (*message.Built, error) {
	related := &message.Multipart{
		Subtype: "related",
		Parts: []message.Node{
			&message.Leaf{
				ContentType: contentType,
				Charset:     "utf-8",
				Body:        []byte(content),
			},
		},
	}
	for _, spec := range inline {
		resolved, err := ResolveInline(spec)
		if err != nil {
			return nil, err
		}
		related.Parts = append(related.Parts, &message.Leaf{
			ContentType: resolved.ContentType,
			ContentID:   spec.ContentID,
			Body:        resolved.Payload,
		})
	}

	alternative := &message.Multipart{
		Subtype: "alternative",
		Parts: []message.Node{
			&message.Leaf{
				ContentType: "text/plain",
				Charset:     "utf-8",
				Body:        []byte(plainText(content, contentType)),
			},
			related,
		},
	}

	mixed := &message.Multipart{Subtype: "mixed"}
	for _, spec := range attachments {
		resolved, err := ResolveAttachment(spec.Attachment)
		if err != nil {
			return nil, err
		}
		mixed.Parts = append(mixed.Parts, &message.Leaf{
			ContentType: resolved.ContentType,
			Filename:    resolved.Filename,
			Body:        resolved.Payload,
		})
	}
	mixed.Parts = append(mixed.Parts, alternative)

	return &message.Built{Root: mixed}, nil
}

// plainText renders the body for the text/plain alternative. A plain
// template is passed through; an HTML template is converted, falling
// back to the raw markup if conversion fails.
func plainText(content, contentType string) string {
	if contentType != "text/html" {
		return content
	}
	text, err := textConverter.ConvertString(content)
	if err != nil {
		return content
	}
	return text
}
