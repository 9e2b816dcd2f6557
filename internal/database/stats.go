package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
)

const (
	recentActivityLimit = 5
	streakLookbackDays  = 366
)

// StatsRepository computes dashboard statistics from the history and saved-content tables
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Dashboard returns the user's stats. Weeks are rolling seven-day windows ending at now.
func (r *StatsRepository) Dashboard(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		ByType:         make(map[models.ContentType]int),
		RecentActivity: []models.ActivityItem{},
	}
	weekStart := now.AddDate(0, 0, -7)
	lastWeekStart := now.AddDate(0, 0, -14)

	countQuery := fmt.Sprintf(`
		SELECT content_type,
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE created_at >= $3 AND created_at < $2)
		FROM (%s) g
		GROUP BY content_type
	`, unionAll("content_type, created_at"))

	rows, err := r.db.QueryContext(ctx, countQuery, userID, weekStart, lastWeekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count generations: %w", err)
	}
	for rows.Next() {
		var ct string
		var total, thisWeek, lastWeek int
		if err := rows.Scan(&ct, &total, &thisWeek, &lastWeek); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan generation counts: %w", err)
		}
		stats.ByType[models.ContentType(ct)] = total
		stats.TotalGenerations += total
		stats.GenerationsThisWeek += thisWeek
		stats.GenerationsLastWeek += lastWeek
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate generation counts: %w", err)
	}
	_ = rows.Close()
	stats.WeeklyGrowth = models.WeeklyGrowthPercent(stats.GenerationsThisWeek, stats.GenerationsLastWeek)

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_content WHERE user_id = $1`, userID,
	).Scan(&stats.SavedItems); err != nil {
		return nil, fmt.Errorf("failed to count saved content: %w", err)
	}

	dayQuery := fmt.Sprintf(`
		SELECT DISTINCT (created_at AT TIME ZONE 'UTC')::date AS day
		FROM (%s) g
		ORDER BY day DESC
		LIMIT %d
	`, unionAll("created_at"), streakLookbackDays)

	dayRows, err := r.db.QueryContext(ctx, dayQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active days: %w", err)
	}
	var days []time.Time
	for dayRows.Next() {
		var day time.Time
		if err := dayRows.Scan(&day); err != nil {
			_ = dayRows.Close()
			return nil, fmt.Errorf("failed to scan active day: %w", err)
		}
		days = append(days, day)
	}
	_ = dayRows.Close()
	stats.StreakDays = models.StreakDays(days, now)

	recentQuery := fmt.Sprintf(`
		SELECT id, content_type, variants, created_at
		FROM (%s) g
		ORDER BY created_at DESC
		LIMIT %d
	`, unionAll("id, content_type, variants, created_at"), recentActivityLimit)

	recentRows, err := r.db.QueryContext(ctx, recentQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	defer func() { _ = recentRows.Close() }()
	for recentRows.Next() {
		var id uuid.UUID
		var ct string
		var variants models.Variants
		var createdAt time.Time
		if err := recentRows.Scan(&id, &ct, &variants, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent activity: %w", err)
		}
		item := models.ActivityItem{ID: id.String(), ContentType: models.ContentType(ct), CreatedAt: createdAt}
		if len(variants) > 0 {
			item.Preview = logger.SanitizeString(variants[0].Text, 100)
		}
		stats.RecentActivity = append(stats.RecentActivity, item)
	}
	if err := recentRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent activity: %w", err)
	}

	return stats, nil
}
