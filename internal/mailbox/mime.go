package mailbox

import (
	"encoding/base64"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// extractBodies walks the MIME part tree and returns the first decoded
// text/plain and text/html bodies it finds, in document order. Parts that
// fail to decode are skipped.
func extractBodies(payload *gmail.MessagePart) (text, html string) {
	walkParts(payload, &text, &html)
	return text, html
}

func walkParts(p *gmail.MessagePart, text, html *string) {
	if p == nil {
		return
	}
	if p.Body != nil && p.Body.Data != "" {
		switch {
		case p.MimeType == "text/plain" && *text == "":
			if s, err := decodeBody(p.Body.Data); err == nil {
				*text = s
			}
		case p.MimeType == "text/html" && *html == "":
			if s, err := decodeBody(p.Body.Data); err == nil {
				*html = s
			}
		}
	}
	for _, child := range p.Parts {
		if *text != "" && *html != "" {
			return
		}
		walkParts(child, text, html)
	}
}

// decodeBody decodes a Gmail body blob. The API uses unpadded base64url,
// but payloads relayed from other sources occasionally arrive in standard
// base64, so that is tried second.
func decodeBody(data string) (string, error) {
	trimmed := strings.TrimRight(data, "=")
	b, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err == nil {
		return string(b), nil
	}
	b, err = base64.RawStdEncoding.DecodeString(trimmed)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
