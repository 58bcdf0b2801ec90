package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// UncategorizedName is the default bucket for mail no category matches.
const UncategorizedName = "Uncategorized"

// CreateCategory inserts a new category for a user.
func (s *Store) CreateCategory(ctx context.Context, userID uuid.UUID, name, description string) (*Category, error) {
	c := &Category{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, description, created_at
	`, uuid.New(), userID, name, description).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// ListCategories returns a user's categories in creation order.
func (s *Store) ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, created_at
		FROM categories WHERE user_id = $1 ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCategoriesWithCounts returns a user's categories with how many emails
// each holds.
func (s *Store) ListCategoriesWithCounts(ctx context.Context, userID uuid.UUID) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.name, c.description, c.created_at,
		       COUNT(e.id) AS email_count
		FROM categories c
		LEFT JOIN emails e ON e.category_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories with counts: %w", err)
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt, &c.EmailCount); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetOrCreateUncategorized returns the user's default bucket, creating it on
// first use.
func (s *Store) GetOrCreateUncategorized(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM categories WHERE user_id = $1 AND name = $2
	`, userID, UncategorizedName).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("find uncategorized: %w", err)
	}

	c, err := s.CreateCategory(ctx, userID, UncategorizedName,
		"Emails that don't match any specific category")
	if err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}
