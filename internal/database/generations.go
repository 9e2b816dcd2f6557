package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
)

// historyTables is the allowlist of generation history tables. Table names cannot be
// bound as parameters, so every query checks against it.
var historyTables = map[string]bool{
	"dm_generations":        true,
	"reply_generations":     true,
	"thread_generations":    true,
	"post_generations":      true,
	"post_idea_generations": true,
}

const generationColumns = "id, user_id, content_type, input, variants, target_context, extraction_tier, created_at"

// HistoryTables returns the allowlisted tables, sorted
func HistoryTables() []string {
	out := make([]string, 0, len(historyTables))
	for t := range historyTables {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func checkTable(table string) error {
	if !historyTables[table] {
		return fmt.Errorf("unknown history table %q", table)
	}
	return nil
}

// GenerationRepository stores immutable generation results
type GenerationRepository struct {
	db *DB
}

// NewGenerationRepository creates a new generation repository
func NewGenerationRepository(db *DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts a generation into table
func (r *GenerationRepository) Create(ctx context.Context, table string, g *models.Generation) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, table, generationColumns)

	_, err := r.db.ExecContext(ctx, query,
		g.ID,
		g.UserID,
		string(g.ContentType),
		g.Input,
		g.Variants,
		g.TargetContext,
		g.ExtractionTier,
		g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation: %w", err)
	}
	return nil
}

// List returns the user's generations of one content type from table, newest first
func (r *GenerationRepository) List(ctx context.Context, table string, userID uuid.UUID, contentType models.ContentType, limit int) ([]*models.Generation, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1 AND content_type = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, generationColumns, table)

	rows, err := r.db.QueryContext(ctx, query, userID, string(contentType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanGenerations(rows)
}

// ListAll returns the user's generations across every history table, newest first
func (r *GenerationRepository) ListAll(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Generation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM (%s) g
		ORDER BY created_at DESC
		LIMIT $2
	`, generationColumns, unionAll(generationColumns))

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanGenerations(rows)
}

// Delete removes a generation owned by userID. It returns ErrNotFound when no row matched.
func (r *GenerationRepository) Delete(ctx context.Context, table string, id, userID uuid.UUID) error {
	if err := checkTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, table)

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete generation: %w", err)
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

// unionAll selects columns from every history table for user $1
func unionAll(columns string) string {
	parts := make([]string, 0, len(historyTables))
	for _, table := range HistoryTables() {
		parts = append(parts, fmt.Sprintf("SELECT %s FROM %s WHERE user_id = $1", columns, table))
	}
	return strings.Join(parts, " UNION ALL ")
}

func scanGenerations(rows *sql.Rows) ([]*models.Generation, error) {
	var out []*models.Generation
	for rows.Next() {
		g := &models.Generation{}
		var contentType string
		var targetJSON []byte
		if err := rows.Scan(
			&g.ID,
			&g.UserID,
			&contentType,
			&g.Input,
			&g.Variants,
			&targetJSON,
			&g.ExtractionTier,
			&g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		g.ContentType = models.ContentType(contentType)
		if len(targetJSON) > 0 {
			g.TargetContext = &models.TargetContext{}
			if err := json.Unmarshal(targetJSON, g.TargetContext); err != nil {
				return nil, fmt.Errorf("failed to unmarshal target_context: %w", err)
			}
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return out, nil
}
