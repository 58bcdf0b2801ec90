// Package mailbox wraps the Gmail API behind the small surface the
// processor and the API handlers need: list unread, fetch one message with
// decoded bodies, archive.
package mailbox

import (
	"context"
	"strings"
	"time"
)

// Header is a single RFC 5322 header of a fetched message.
type Header struct {
	Name  string
	Value string
}

// Message is one fetched mail message with its MIME bodies decoded.
type Message struct {
	ID         string
	ThreadID   string
	Subject    string
	Sender     string
	Snippet    string
	Headers    []Header
	Text       string // first text/plain part
	HTML       string // first text/html part
	ReceivedAt time.Time
}

// Content returns the text used for classification and summarization:
// the plain-text body when present, the raw HTML otherwise.
func (m *Message) Content() string {
	if strings.TrimSpace(m.Text) != "" {
		return m.Text
	}
	return m.HTML
}

// Header returns the first header with the given name, case-insensitively.
func (m *Message) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Mailbox is the mail-provider collaborator.
type Mailbox interface {
	// ListUnread returns the IDs of up to max unread inbox messages.
	ListUnread(ctx context.Context, max int64) ([]string, error)
	// Get fetches a full message by ID.
	Get(ctx context.Context, id string) (*Message, error)
	// Archive marks a message read and removes it from the inbox.
	Archive(ctx context.Context, id string) error
}
