package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/email-sorter/internal/pkg/httputil"
	"github.com/ignite/email-sorter/internal/pkg/logger"
	"github.com/ignite/email-sorter/internal/store"
)

func (h *Handlers) ListCategoryEmails(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r)
	if !ok {
		return
	}
	emails, err := h.store.ListEmailsByCategory(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if emails == nil {
		emails = []store.Email{}
	}
	httputil.OK(w, emails)
}

func (h *Handlers) GetEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r)
	if !ok {
		return
	}
	email, err := h.store.GetEmail(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "email not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, email)
}

type emailIDsRequest struct {
	EmailIDs []uuid.UUID `json:"email_ids"`
}

func (h *Handlers) DeleteEmails(w http.ResponseWriter, r *http.Request) {
	var req emailIDsRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.EmailIDs) == 0 {
		httputil.BadRequest(w, "email_ids is required")
		return
	}
	deleted, err := h.store.DeleteEmails(r.Context(), req.EmailIDs)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int64{"deleted": deleted})
}

// TriggerProcessing kicks off a batch in the background, like the
// scheduler would, and returns immediately.
func (h *Handlers) TriggerProcessing(w http.ResponseWriter, _ *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		h.processor.ProcessAll(ctx)
	}()
	logger.Info("api: processing triggered")
	httputil.OK(w, map[string]string{"message": "Processing started"})
}
