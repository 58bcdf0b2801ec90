// Package classify assigns incoming mail to user-defined categories and
// produces short summaries. A Bedrock-hosted model does the real work when
// configured; a keyword scorer and an excerpt summary cover the rest.
package classify

import (
	"context"

	"github.com/google/uuid"
)

// Category is a user-defined bucket for incoming mail.
type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
}

// Classifier picks the best category for a message body. ok is false when
// no category is a confident match; callers fall back to their default.
type Classifier interface {
	Classify(ctx context.Context, content string, categories []Category) (id uuid.UUID, ok bool)
}

// Summarizer produces a short human-readable summary of a message body.
// It is best-effort and never fails; degraded output is an excerpt.
type Summarizer interface {
	Summarize(ctx context.Context, content string) string
}

// maxPromptChars caps how much of a message body is sent to the model.
const maxPromptChars = 2000

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
