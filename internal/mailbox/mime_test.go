package mailbox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func b64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestDecodeBody(t *testing.T) {
	t.Run("base64url", func(t *testing.T) {
		got, err := decodeBody(b64url("hello <world>?"))
		require.NoError(t, err)
		assert.Equal(t, "hello <world>?", got)
	})

	t.Run("standard base64 fallback", func(t *testing.T) {
		// "+" and "/" only occur in the standard alphabet.
		raw := []byte{0xfb, 0xff, 0xfe}
		got, err := decodeBody(base64.StdEncoding.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, string(raw), got)
	})

	t.Run("padded input accepted", func(t *testing.T) {
		got, err := decodeBody(base64.URLEncoding.EncodeToString([]byte("ab")))
		require.NoError(t, err)
		assert.Equal(t, "ab", got)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := decodeBody("!!not base64!!")
		assert.Error(t, err)
	})
}

func TestExtractBodies(t *testing.T) {
	t.Run("flat plain text", func(t *testing.T) {
		payload := &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: b64url("just text")},
		}
		text, html := extractBodies(payload)
		assert.Equal(t, "just text", text)
		assert.Empty(t, html)
	})

	t.Run("multipart alternative", func(t *testing.T) {
		payload := &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("plain body")}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64url("<p>html body</p>")}},
			},
		}
		text, html := extractBodies(payload)
		assert.Equal(t, "plain body", text)
		assert.Equal(t, "<p>html body</p>", html)
	})

	t.Run("nested multipart", func(t *testing.T) {
		payload := &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("deep text")}},
						{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64url("<b>deep html</b>")}},
					},
				},
				{MimeType: "application/pdf", Body: &gmail.MessagePartBody{Data: b64url("%PDF")}},
			},
		}
		text, html := extractBodies(payload)
		assert.Equal(t, "deep text", text)
		assert.Equal(t, "<b>deep html</b>", html)
	})

	t.Run("first part of each type wins", func(t *testing.T) {
		payload := &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("first")}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("second")}},
			},
		}
		text, _ := extractBodies(payload)
		assert.Equal(t, "first", text)
	})

	t.Run("undecodable part skipped", func(t *testing.T) {
		payload := &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: "!!bad!!"}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("good")}},
			},
		}
		text, _ := extractBodies(payload)
		assert.Equal(t, "good", text)
	})

	t.Run("nil payload", func(t *testing.T) {
		text, html := extractBodies(nil)
		assert.Empty(t, text)
		assert.Empty(t, html)
	})
}

func TestParseMessage(t *testing.T) {
	m := &gmail.Message{
		Id:           "msg-1",
		ThreadId:     "thr-1",
		Snippet:      "Your weekly digest",
		InternalDate: 1756500000000,
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Weekly digest"},
				{Name: "From", Value: "news@acme.com"},
				{Name: "List-Unsubscribe", Value: "<https://news.acme.com/u>"},
			},
			Body: &gmail.MessagePartBody{Data: b64url("<p>digest</p>")},
		},
	}

	got := parseMessage(m)
	assert.Equal(t, "msg-1", got.ID)
	assert.Equal(t, "Weekly digest", got.Subject)
	assert.Equal(t, "news@acme.com", got.Sender)
	assert.Equal(t, "<https://news.acme.com/u>", got.Header("list-unsubscribe"))
	assert.Equal(t, "<p>digest</p>", got.HTML)
	assert.False(t, got.ReceivedAt.IsZero())
}

func TestMessageContent(t *testing.T) {
	assert.Equal(t, "plain", (&Message{Text: "plain", HTML: "<p>html</p>"}).Content())
	assert.Equal(t, "<p>html</p>", (&Message{Text: "  \n", HTML: "<p>html</p>"}).Content())
}
