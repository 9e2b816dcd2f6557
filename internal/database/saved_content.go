package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
)

const savedContentColumns = "id, user_id, type, title, content, metadata, created_at, updated_at"

// SavedContentRepository handles saved content database operations
type SavedContentRepository struct {
	db *DB
}

// NewSavedContentRepository creates a new saved content repository
func NewSavedContentRepository(db *DB) *SavedContentRepository {
	return &SavedContentRepository{db: db}
}

// Create inserts a saved item
func (r *SavedContentRepository) Create(ctx context.Context, item *models.SavedContent) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	query := `
		INSERT INTO saved_content (id, user_id, type, title, content, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		string(item.Type),
		item.Title,
		item.Content,
		item.Metadata,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create saved content: %w", err)
	}
	return nil
}

// List returns the user's saved items, newest first. An empty contentType lists every type.
func (r *SavedContentRepository) List(ctx context.Context, userID uuid.UUID, contentType models.ContentType, limit int) ([]*models.SavedContent, error) {
	query := `
		SELECT ` + savedContentColumns + `
		FROM saved_content
		WHERE user_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, string(contentType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved content: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*models.SavedContent
	for rows.Next() {
		item, err := scanSavedContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved content: %w", err)
	}
	return items, nil
}

// Update applies patch to an item owned by userID and returns the stored row
func (r *SavedContentRepository) Update(ctx context.Context, id, userID uuid.UUID, patch *models.SavedContentPatch) (*models.SavedContent, error) {
	var metadata any
	if patch.Metadata != nil {
		metadata = patch.Metadata
	}

	query := `
		UPDATE saved_content
		SET title = COALESCE($3, title),
			content = COALESCE($4, content),
			metadata = COALESCE($5, metadata),
			updated_at = $6
		WHERE id = $1 AND user_id = $2
		RETURNING ` + savedContentColumns

	row := r.db.QueryRowContext(ctx, query, id, userID, patch.Title, patch.Content, metadata, time.Now().UTC())
	item, err := scanSavedContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// Delete removes an item owned by userID
func (r *SavedContentRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM saved_content WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved content: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedContent(row rowScanner) (*models.SavedContent, error) {
	item := &models.SavedContent{}
	var contentType string
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&contentType,
		&item.Title,
		&item.Content,
		&item.Metadata,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan saved content: %w", err)
	}
	item.Type = models.ContentType(contentType)
	return item, nil
}
