package unsubscribe

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/email-sorter/internal/pkg/logger"
)

// formSuccessKeywords classifies a form-submit response as success.
var formSuccessKeywords = []string{"unsubscribed", "removed", "success", "confirmed"}

// clickSuccessKeywords classifies a link-click response as success.
var clickSuccessKeywords = []string{"unsubscribed", "removed", "success"}

// SubmitForm submits a candidate form on the session: POST sends the fields
// form-encoded, GET sends them as query parameters. There is no
// business-level resubmission; transient transport errors were already
// retried inside the session. Returns true only when the response is 2xx
// and its text contains a success keyword.
func SubmitForm(ctx context.Context, s *Session, form Form) bool {
	var resp *http.Response
	var err error

	if form.Method == "POST" {
		resp, err = s.do(ctx, http.MethodPost, form.SubmitURL,
			strings.NewReader(form.Values().Encode()),
			"application/x-www-form-urlencoded")
	} else {
		submitURL := form.SubmitURL
		if query := form.Values().Encode(); query != "" {
			sep := "?"
			if strings.Contains(submitURL, "?") {
				sep = "&"
			}
			submitURL += sep + query
		}
		resp, err = s.do(ctx, http.MethodGet, submitURL, nil, "")
	}
	if err != nil {
		logger.Warn("unsubscribe: form submission failed", "url", form.SubmitURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("unsubscribe: form submission rejected", "url", form.SubmitURL, "status", resp.StatusCode)
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false
	}
	return containsAny(strings.ToLower(string(body)), formSuccessKeywords)
}

// ClickLinks follows candidate confirmation links in order, stopping at the
// first whose 2xx response text contains a success keyword. Errors and
// unconvincing responses move on to the next candidate; exhausting the list
// returns false.
func ClickLinks(ctx context.Context, s *Session, links []Link) bool {
	for _, link := range links {
		resp, err := s.do(ctx, http.MethodGet, link.URL, nil, "")
		if err != nil {
			logger.Debug("unsubscribe: link click failed", "url", link.URL, "error", err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			continue
		}
		if containsAny(strings.ToLower(string(body)), clickSuccessKeywords) {
			return true
		}
	}
	return false
}
