package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/sparkreply/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert records the authenticated caller, refreshing email and name on every sign-in
func (r *UserRepository) Upsert(ctx context.Context, identity *models.Identity) (*models.User, error) {
	var name *string
	if identity.Name != "" {
		name = &identity.Name
	}

	query := `
		INSERT INTO users (id, subject, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = COALESCE(EXCLUDED.name, users.name),
			updated_at = EXCLUDED.updated_at
		RETURNING id, subject, email, name, created_at, updated_at
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query,
		identity.UserID,
		identity.Subject,
		identity.Email,
		name,
		time.Now().UTC(),
	).Scan(&user.ID, &user.Subject, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}
