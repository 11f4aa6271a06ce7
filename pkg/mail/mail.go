// Package mail defines the mailbox collaborator consumed by the ingest
// pipeline, plus a Gmail REST implementation.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Message is one mail item returned by a search. The attachment payload is
// fetched separately via FetchAttachment.
type Message struct {
	ID             string
	From           string
	Subject        string
	ReceivedAt     time.Time
	AttachmentName string
}

// Client is the mail collaborator. Implementations own their credentials
// and call-level timeouts; the pipeline only consumes this interface.
type Client interface {
	// Search returns messages matching the query, in provider order.
	Search(ctx context.Context, q Query) ([]Message, error)

	// FetchAttachment downloads the raw attachment payload for a message.
	FetchAttachment(ctx context.Context, messageID string) ([]byte, error)

	// CheckAuth exercises the credentials without processing anything.
	CheckAuth(ctx context.Context) error
}

// Query describes a mailbox search. An empty From matches any sender.
type Query struct {
	From          string
	Subject       string
	Label         string
	HasAttachment bool
}

// String assembles the provider search expression.
func (q Query) String() string {
	parts := make([]string, 0, 4)

	if q.Label != "" {
		parts = append(parts, fmt.Sprintf("label:%s", q.Label))
	}

	if q.From != "" {
		parts = append(parts, fmt.Sprintf("from:%s", q.From))
	}

	if q.Subject != "" {
		parts = append(parts, fmt.Sprintf("subject:%q", q.Subject))
	}

	if q.HasAttachment {
		parts = append(parts, "has:attachment")
	}

	return strings.Join(parts, " ")
}
