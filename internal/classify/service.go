package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/email-sorter/internal/pkg/logger"
)

// Service implements Classifier and Summarizer, preferring the configured
// model and degrading to keyword scoring and excerpt summaries when the
// model is absent or errors.
type Service struct {
	model Model // nil means keyword-only operation
}

// NewService builds a classification service. model may be nil.
func NewService(model Model) *Service {
	return &Service{model: model}
}

func (s *Service) Classify(ctx context.Context, content string, categories []Category) (uuid.UUID, bool) {
	if len(categories) == 0 {
		return uuid.Nil, false
	}
	if s.model == nil {
		return keywordClassify(content, categories)
	}

	answer, err := s.model.Complete(ctx, classifyPrompt(content, categories))
	if err != nil {
		logger.Warn("classify: model call failed, using keyword fallback", "error", err)
		return keywordClassify(content, categories)
	}

	answer = strings.TrimSpace(strings.Trim(strings.TrimSpace(answer), `"'`))
	if strings.EqualFold(answer, "NONE") {
		return uuid.Nil, false
	}
	for _, c := range categories {
		if strings.EqualFold(answer, c.Name) {
			return c.ID, true
		}
	}

	// The model answered off-script; trust the keywords instead.
	logger.Debug("classify: unrecognized model answer, using keyword fallback", "answer", answer)
	return keywordClassify(content, categories)
}

func (s *Service) Summarize(ctx context.Context, content string) string {
	if s.model == nil {
		return basicSummary(content)
	}
	answer, err := s.model.Complete(ctx, summarizePrompt(content))
	if err != nil {
		logger.Warn("classify: summarize call failed, using excerpt", "error", err)
		return basicSummary(content)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return basicSummary(content)
	}
	return answer
}

func classifyPrompt(content string, categories []Category) string {
	var b strings.Builder
	b.WriteString("You are sorting an email into one of the user's categories.\n\nCategories:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	b.WriteString("\nEmail content:\n")
	b.WriteString(truncate(content, maxPromptChars))
	b.WriteString("\n\nReply with exactly one category name from the list above, or NONE if no category fits.")
	return b.String()
}

func summarizePrompt(content string) string {
	return "Summarize this email in one or two concise sentences:\n\n" +
		truncate(content, maxPromptChars)
}
