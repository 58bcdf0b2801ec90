package classify

import (
	"strings"

	"github.com/google/uuid"
)

// keywordThreshold is the minimum score for a keyword match to count.
const keywordThreshold = 2

// keywordClassify scores each category against the message text: a category
// name appearing in the text scores 5, each description word longer than
// three characters scores 1. The best category wins if it clears the
// threshold.
func keywordClassify(content string, categories []Category) (uuid.UUID, bool) {
	text := strings.ToLower(content)

	var bestID uuid.UUID
	bestScore := 0
	for _, c := range categories {
		score := 0
		if name := strings.ToLower(strings.TrimSpace(c.Name)); name != "" && strings.Contains(text, name) {
			score += 5
		}
		for _, word := range strings.Fields(strings.ToLower(c.Description)) {
			word = strings.Trim(word, ".,;:!?\"'()")
			if len(word) > 3 && strings.Contains(text, word) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestID = c.ID
		}
	}
	if bestScore < keywordThreshold {
		return uuid.Nil, false
	}
	return bestID, true
}

// basicSummary is the degraded summarizer: the first sentence-ish chunk of
// the message, whitespace collapsed, capped at 150 characters.
func basicSummary(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	if collapsed == "" {
		return "(no content)"
	}
	if len(collapsed) <= 150 {
		return collapsed
	}
	cut := collapsed[:150]
	if i := strings.LastIndexByte(cut, ' '); i > 100 {
		cut = cut[:i]
	}
	return cut + "..."
}
