// Package api is the HTTP surface: user, category, and email endpoints
// plus the unsubscribe and processing triggers.
package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignite/email-sorter/internal/processor"
	"github.com/ignite/email-sorter/internal/store"
	"github.com/ignite/email-sorter/internal/unsubscribe"
)

// Storage is the persistence surface the handlers need.
type Storage interface {
	GetUser(ctx context.Context, id uuid.UUID) (*store.User, error)
	ListGmailAccounts(ctx context.Context, userID uuid.UUID) ([]store.GmailAccount, error)
	GetGmailAccount(ctx context.Context, id uuid.UUID) (*store.GmailAccount, error)
	CreateCategory(ctx context.Context, userID uuid.UUID, name, description string) (*store.Category, error)
	ListCategoriesWithCounts(ctx context.Context, userID uuid.UUID) ([]store.CategoryCount, error)
	ListEmailsByCategory(ctx context.Context, categoryID uuid.UUID) ([]store.Email, error)
	GetEmail(ctx context.Context, id uuid.UUID) (*store.Email, error)
	GetEmails(ctx context.Context, ids []uuid.UUID) ([]store.Email, error)
	DeleteEmails(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// UnsubscribeEngine runs one unsubscribe attempt per message.
type UnsubscribeEngine interface {
	Attempt(ctx context.Context, headers []unsubscribe.Header, htmlBody string) unsubscribe.Outcome
}

// BatchProcessor triggers a full ingestion batch.
type BatchProcessor interface {
	ProcessAll(ctx context.Context)
}

// Handlers carries the dependencies for all API endpoints.
type Handlers struct {
	store       Storage
	engine      UnsubscribeEngine
	processor   BatchProcessor
	openMailbox processor.MailboxFactory
}

// NewHandlers wires the API dependencies together.
func NewHandlers(st Storage, engine UnsubscribeEngine, batch BatchProcessor, openMailbox processor.MailboxFactory) *Handlers {
	return &Handlers{
		store:       st,
		engine:      engine,
		processor:   batch,
		openMailbox: openMailbox,
	}
}
