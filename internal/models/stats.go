package models

import "time"

// ActivityItem is a recent generation shown on the dashboard
type ActivityItem struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"content_type"`
	Preview     string      `json:"preview"`
	CreatedAt   time.Time   `json:"created_at"`
}

// DashboardStats summarises a user's generation history
type DashboardStats struct {
	TotalGenerations    int                 `json:"total_generations"`
	GenerationsThisWeek int                 `json:"generations_this_week"`
	GenerationsLastWeek int                 `json:"generations_last_week"`
	WeeklyGrowth        float64             `json:"weekly_growth"`
	SavedItems          int                 `json:"saved_items"`
	StreakDays          int                 `json:"streak_days"`
	ByType              map[ContentType]int `json:"by_type"`
	RecentActivity      []ActivityItem      `json:"recent_activity"`
}

// WeeklyGrowthPercent compares this week against last week. Growth from zero is 100%.
func WeeklyGrowthPercent(thisWeek, lastWeek int) float64 {
	if lastWeek == 0 {
		if thisWeek == 0 {
			return 0
		}
		return 100
	}
	return float64(thisWeek-lastWeek) / float64(lastWeek) * 100
}

// StreakDays counts consecutive days ending today (or yesterday) that have activity.
// days must hold distinct UTC dates, newest first.
func StreakDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	cursor := truncateDay(now)
	if first := truncateDay(days[0]); first.Before(cursor) {
		// a streak that ended yesterday is still alive until today is over
		cursor = cursor.AddDate(0, 0, -1)
	}
	streak := 0
	for _, d := range days {
		day := truncateDay(d)
		if !day.Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
