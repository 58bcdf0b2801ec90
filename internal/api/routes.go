package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/email-sorter/internal/auth"
	"github.com/ignite/email-sorter/internal/pkg/httputil"
)

// NewRouter builds the full route tree. authManager may be nil, which
// leaves every endpoint open (single-user deployments).
func NewRouter(h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if authManager != nil {
		r.Use(authManager.RequireAuth)
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/me", authManager.HandleMe)
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.OK(w, map[string]string{"message": "Email Sorter API"})
	})
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/user/{id}", h.GetUser)
		r.Get("/user/{id}/gmail-accounts", h.ListGmailAccounts)
		r.Get("/user/{id}/categories", h.ListCategories)
		r.Post("/user/{id}/categories", h.CreateCategory)
		r.Get("/category/{id}/emails", h.ListCategoryEmails)
		r.Get("/email/{id}", h.GetEmail)
		r.Post("/emails/delete", h.DeleteEmails)
		r.Post("/emails/unsubscribe", h.UnsubscribeEmails)
		r.Post("/process-emails", h.TriggerProcessing)
	})

	return r
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}
