package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ignite/email-sorter/internal/pkg/httputil"
	"github.com/ignite/email-sorter/internal/pkg/logger"
	"github.com/ignite/email-sorter/internal/store"
	"github.com/ignite/email-sorter/internal/unsubscribe"
)

// UnsubscribeResult is the per-message result entry. Success is a
// tri-state: true, "partial", or false.
type UnsubscribeResult struct {
	EmailID uuid.UUID `json:"email_id"`
	Success any       `json:"success"`
	Message string    `json:"message,omitempty"`
	URL     string    `json:"url,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type unsubscribeResponse struct {
	Results []UnsubscribeResult `json:"results"`
}

// UnsubscribeEmails attempts an automated unsubscribe for each requested
// email. Messages are independent: one failure never aborts the rest, and
// every requested ID gets a result entry.
func (h *Handlers) UnsubscribeEmails(w http.ResponseWriter, r *http.Request) {
	var req emailIDsRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.EmailIDs) == 0 {
		httputil.BadRequest(w, "email_ids is required")
		return
	}

	emails, err := h.store.GetEmails(r.Context(), req.EmailIDs)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	byID := make(map[uuid.UUID]*store.Email, len(emails))
	for i := range emails {
		byID[emails[i].ID] = &emails[i]
	}

	results := make([]UnsubscribeResult, 0, len(req.EmailIDs))
	for _, id := range req.EmailIDs {
		email, ok := byID[id]
		if !ok {
			results = append(results, UnsubscribeResult{
				EmailID: id, Success: false, Error: "email not found",
			})
			continue
		}
		results = append(results, h.unsubscribeOne(r, email))
	}

	httputil.OK(w, unsubscribeResponse{Results: results})
}

// unsubscribeOne re-fetches the message from Gmail for its headers and HTML
// body, then runs the engine.
func (h *Handlers) unsubscribeOne(r *http.Request, email *store.Email) UnsubscribeResult {
	ctx := r.Context()

	account, err := h.store.GetGmailAccount(ctx, email.GmailAccountID)
	if err != nil {
		return UnsubscribeResult{EmailID: email.ID, Success: false, Error: "gmail account unavailable"}
	}
	mb, err := h.openMailbox(ctx, account.Credentials)
	if err != nil {
		logger.Warn("api: mailbox open failed", "account", account.Email, "error", err)
		return UnsubscribeResult{EmailID: email.ID, Success: false, Error: "mailbox unavailable"}
	}
	msg, err := mb.Get(ctx, email.GmailMessageID)
	if err != nil {
		logger.Warn("api: message fetch failed", "message_id", email.GmailMessageID, "error", err)
		return UnsubscribeResult{EmailID: email.ID, Success: false, Error: "failed to fetch message"}
	}

	headers := make([]unsubscribe.Header, len(msg.Headers))
	for i, hd := range msg.Headers {
		headers[i] = unsubscribe.Header{Name: hd.Name, Value: hd.Value}
	}

	outcome := h.engine.Attempt(ctx, headers, msg.HTML)
	result := UnsubscribeResult{EmailID: email.ID}
	switch outcome.Status {
	case unsubscribe.StatusSuccess:
		result.Success = true
		result.Message = outcome.Message
	case unsubscribe.StatusPartial:
		result.Success = "partial"
		result.Message = outcome.Message
		result.URL = outcome.URL
	default:
		result.Success = false
		result.Error = outcome.Err
	}
	return result
}
