package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// UpsertUser creates or refreshes a user on login and returns the stored row.
func (s *Store) UpsertUser(ctx context.Context, email, name string) (*User, error) {
	u := &User{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, email, name, created_at
	`, uuid.New(), email, name).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpsertGmailAccount links a mailbox to a user, replacing credentials on
// re-link.
func (s *Store) UpsertGmailAccount(ctx context.Context, userID uuid.UUID, email, credentials string) (*GmailAccount, error) {
	a := &GmailAccount{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO gmail_accounts (id, user_id, email, credentials)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET user_id = EXCLUDED.user_id, credentials = EXCLUDED.credentials
		RETURNING id, user_id, email, credentials, created_at
	`, uuid.New(), userID, email, credentials).Scan(&a.ID, &a.UserID, &a.Email, &a.Credentials, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert gmail account: %w", err)
	}
	return a, nil
}

// GetGmailAccount returns one linked account with its credentials.
func (s *Store) GetGmailAccount(ctx context.Context, id uuid.UUID) (*GmailAccount, error) {
	a := &GmailAccount{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, credentials, created_at
		FROM gmail_accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.UserID, &a.Email, &a.Credentials, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get gmail account: %w", err)
	}
	return a, nil
}

// ListGmailAccounts returns the accounts linked to one user.
func (s *Store) ListGmailAccounts(ctx context.Context, userID uuid.UUID) ([]GmailAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, email, credentials, created_at
		FROM gmail_accounts WHERE user_id = $1 ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list gmail accounts: %w", err)
	}
	defer rows.Close()
	return scanGmailAccounts(rows)
}

// ListAllGmailAccounts returns every linked account, for the processor.
func (s *Store) ListAllGmailAccounts(ctx context.Context) ([]GmailAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, email, credentials, created_at
		FROM gmail_accounts ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list all gmail accounts: %w", err)
	}
	defer rows.Close()
	return scanGmailAccounts(rows)
}

func scanGmailAccounts(rows *sql.Rows) ([]GmailAccount, error) {
	var out []GmailAccount
	for rows.Next() {
		var a GmailAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Email, &a.Credentials, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gmail account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
