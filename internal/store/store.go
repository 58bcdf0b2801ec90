// Package store persists users, linked Gmail accounts, categories, and
// processed emails in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User is an account holder who signed in with Google.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GmailAccount is a linked mailbox with its OAuth credentials.
type GmailAccount struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Credentials string    `json:"-"` // OAuth token JSON, never serialized out
	CreatedAt   time.Time `json:"created_at"`
}

// Category is a user-defined sorting bucket.
type Category struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryCount is a category with its stored email count.
type CategoryCount struct {
	Category
	EmailCount int `json:"email_count"`
}

// Email is one processed message.
type Email struct {
	ID             uuid.UUID `json:"id"`
	GmailAccountID uuid.UUID `json:"gmail_account_id"`
	CategoryID     uuid.UUID `json:"category_id"`
	GmailMessageID string    `json:"gmail_message_id"`
	Subject        string    `json:"subject"`
	Sender         string    `json:"sender"`
	Body           string    `json:"body,omitempty"`
	Summary        string    `json:"summary"`
	ReceivedAt     time.Time `json:"received_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store wraps the database handle.
type Store struct{ db *sql.DB }

// New creates a Store on an existing handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS gmail_accounts (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		email       TEXT NOT NULL UNIQUE,
		credentials TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS categories (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, name)
	);
	CREATE TABLE IF NOT EXISTS emails (
		id               UUID PRIMARY KEY,
		gmail_account_id UUID NOT NULL REFERENCES gmail_accounts(id) ON DELETE CASCADE,
		category_id      UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		gmail_message_id TEXT NOT NULL UNIQUE,
		subject          TEXT NOT NULL DEFAULT '',
		sender           TEXT NOT NULL DEFAULT '',
		body             TEXT NOT NULL DEFAULT '',
		summary          TEXT NOT NULL DEFAULT '',
		received_at      TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_emails_category ON emails (category_id, received_at DESC);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
