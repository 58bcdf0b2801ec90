package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EmailExists reports whether a Gmail message was already processed.
func (s *Store) EmailExists(ctx context.Context, gmailMessageID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM emails WHERE gmail_message_id = $1)
	`, gmailMessageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return exists, nil
}

// InsertEmail stores one processed message. The caller sets everything but
// ID and CreatedAt.
func (s *Store) InsertEmail(ctx context.Context, e *Email) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emails
			(id, gmail_account_id, category_id, gmail_message_id,
			 subject, sender, body, summary, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.GmailAccountID, e.CategoryID, e.GmailMessageID,
		e.Subject, e.Sender, e.Body, e.Summary, e.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert email: %w", err)
	}
	return nil
}

// GetEmail returns one stored email with its full body.
func (s *Store) GetEmail(ctx context.Context, id uuid.UUID) (*Email, error) {
	e := &Email{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, gmail_account_id, category_id, gmail_message_id,
		       subject, sender, body, summary, received_at, created_at
		FROM emails WHERE id = $1
	`, id).Scan(&e.ID, &e.GmailAccountID, &e.CategoryID, &e.GmailMessageID,
		&e.Subject, &e.Sender, &e.Body, &e.Summary, &e.ReceivedAt, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get email: %w", err)
	}
	return e, nil
}

// ListEmailsByCategory returns a category's emails, newest first, without
// bodies.
func (s *Store) ListEmailsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Email, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gmail_account_id, category_id, gmail_message_id,
		       subject, sender, summary, received_at, created_at
		FROM emails WHERE category_id = $1
		ORDER BY received_at DESC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	var out []Email
	for rows.Next() {
		var e Email
		if err := rows.Scan(&e.ID, &e.GmailAccountID, &e.CategoryID, &e.GmailMessageID,
			&e.Subject, &e.Sender, &e.Summary, &e.ReceivedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEmails returns the stored emails for the given IDs; missing IDs are
// silently absent from the result.
func (s *Store) GetEmails(ctx context.Context, ids []uuid.UUID) ([]Email, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gmail_account_id, category_id, gmail_message_id,
		       subject, sender, body, summary, received_at, created_at
		FROM emails WHERE id = ANY($1)
	`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("get emails: %w", err)
	}
	defer rows.Close()

	var out []Email
	for rows.Next() {
		var e Email
		if err := rows.Scan(&e.ID, &e.GmailAccountID, &e.CategoryID, &e.GmailMessageID,
			&e.Subject, &e.Sender, &e.Body, &e.Summary, &e.ReceivedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEmails removes the given emails and reports how many went away.
func (s *Store) DeleteEmails(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM emails WHERE id = ANY($1)
	`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, fmt.Errorf("delete emails: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete emails: %w", err)
	}
	return n, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
