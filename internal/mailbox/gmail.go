package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Gmail implements Mailbox on top of the Gmail REST API.
type Gmail struct {
	svc *gmail.Service
}

// NewGmail builds a mailbox from an OAuth config and a user token, as
// stored per account.
func NewGmail(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*Gmail, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &Gmail{svc: svc}, nil
}

// NewGmailFromFiles builds a mailbox from a credentials.json and a cached
// token file, for single-account deployments without the web login flow.
func NewGmailFromFiles(ctx context.Context, credentialsPath, tokenPath string) (*Gmail, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, gmail.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	tok, err := TokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return NewGmail(ctx, conf, tok)
}

// TokenFromFile loads a cached OAuth token.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

// SaveToken caches an OAuth token to disk.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

func (g *Gmail) ListUnread(ctx context.Context, max int64) ([]string, error) {
	resp, err := g.svc.Users.Messages.List("me").
		Q("is:unread in:inbox").
		MaxResults(max).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (g *Gmail) Get(ctx context.Context, id string) (*Message, error) {
	m, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return parseMessage(m), nil
}

// Archive removes the UNREAD and INBOX labels, matching what the Gmail UI
// does when a message is archived after reading.
func (g *Gmail) Archive(ctx context.Context, id string) error {
	_, err := g.svc.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD", "INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("archive message %s: %w", id, err)
	}
	return nil
}

// parseMessage converts an API message into our Message, decoding the MIME
// tree into plain-text and HTML bodies.
func parseMessage(m *gmail.Message) *Message {
	msg := &Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  m.Snippet,
	}
	if m.InternalDate > 0 {
		msg.ReceivedAt = time.UnixMilli(m.InternalDate).UTC()
	}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			msg.Headers = append(msg.Headers, Header{Name: h.Name, Value: h.Value})
			switch h.Name {
			case "Subject":
				msg.Subject = h.Value
			case "From":
				msg.Sender = h.Value
			}
		}
		msg.Text, msg.HTML = extractBodies(m.Payload)
	}
	return msg
}
