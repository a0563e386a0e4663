package maillist

import (
	"context"
	"fmt"

	"github.com/shineum/mailcast/internal/transport"
)

// Outcome records the result of one submission attempt.
type Outcome struct {
	Recipient string
	Err       error
}

// Sent reports whether the message was submitted successfully.
func (o Outcome) Sent() bool {
	return o.Err == nil
}

// Send submits every sealed message in append order over the transport,
// one outcome per message. A failed submission is logged and recorded,
// never escalated: one bad recipient must not abort the batch. An empty
// collection is a warning and zero outcomes.
func (l *List) Send(ctx context.Context, t transport.Transport) []Outcome {
	if len(l.collection) == 0 {
		l.log.Warn("no message was sent due to empty message queue")
		return nil
	}

	outcomes := make([]Outcome, 0, len(l.collection))
	for _, sealed := range l.collection {
		err := l.submit(ctx, t, sealed)
		if err != nil {
			l.log.Error("failed to send message",
				"recipient", sealed.recipient,
				"message_id", sealed.messageID,
				"error", err,
			)
		} else {
			l.log.Info("sent message successfully",
				"recipient", sealed.recipient,
				"message_id", sealed.messageID,
			)
		}
		outcomes = append(outcomes, Outcome{Recipient: sealed.recipient, Err: err})
	}

	return outcomes
}

// submit resets the session and submits one message. The reset keeps a
// previous failure's transaction state from bleeding into this one.
func (l *List) submit(ctx context.Context, t transport.Transport, sealed *Sealed) error {
	if err := t.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	if err := t.Submit(ctx, sealed.Envelope()); err != nil {
		return fmt.Errorf("failed to submit message: %w", err)
	}
	return nil
}
