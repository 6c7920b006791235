package storage

import (
	"context"
	"fmt"
	"time"
)

// Streak holds consecutive-training-day counters. Current counts back from
// today or yesterday; an older last workout means the streak is broken.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// DayCount is one calendar day's workout count.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// VolumeBucket is one week's total training volume (Σ reps × weight).
type VolumeBucket struct {
	Week   string  `json:"week"`
	Volume float64 `json:"volume"`
}

// ExerciseCount is how often an exercise appears across workouts.
type ExerciseCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Overview holds headline workout counts.
type Overview struct {
	ThisWeek  int64 `json:"workoutsThisWeek"`
	ThisMonth int64 `json:"workoutsThisMonth"`
	Total     int64 `json:"totalWorkouts"`
}

// HistoryPoint is one calendar day's workout count in the all-time history.
type HistoryPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// GetStreak computes the user's current and longest streak of consecutive
// training days.
func (db *DB) GetStreak(ctx context.Context, userID string, now time.Time) (Streak, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT date::date FROM workouts WHERE user_id = $1 ORDER BY 1`,
		userID)
	if err != nil {
		return Streak{}, fmt.Errorf("querying training days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return Streak{}, fmt.Errorf("scanning training day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return Streak{}, err
	}
	if len(days) == 0 {
		return Streak{}, nil
	}

	var streak Streak
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > streak.Longest {
			streak.Longest = run
		}
	}
	if run > streak.Longest {
		streak.Longest = run
	}

	// The run ending on the most recent day only counts as current if that
	// day is today or yesterday.
	today := now.UTC().Truncate(24 * time.Hour)
	last := days[len(days)-1]
	if gap := today.Sub(last); gap == 0 || gap == 24*time.Hour {
		streak.Current = run
	}
	return streak, nil
}

// GetWeeklyStats returns Monday-through-Sunday workout counts for the current
// ISO week.
func (db *DB) GetWeeklyStats(ctx context.Context, userID string, now time.Time) ([]DayCount, error) {
	weekStart := startOfWeek(now)

	rows, err := db.Pool.Query(ctx,
		`SELECT date::date, COUNT(*) FROM workouts
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 GROUP BY 1`,
		userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("querying weekly stats: %w", err)
	}
	defer rows.Close()

	counts := make([]DayCount, 7)
	for i := range counts {
		counts[i].Day = weekdayLabels[i]
	}
	for rows.Next() {
		var day time.Time
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scanning weekly stat: %w", err)
		}
		idx := int(day.Sub(weekStart).Hours() / 24)
		if idx >= 0 && idx < 7 {
			counts[idx].Count = count
		}
	}
	return counts, rows.Err()
}

// GetVolumeStats returns eight weekly volume buckets, oldest first, labeled
// W1 through W8 with W8 being the current week.
func (db *DB) GetVolumeStats(ctx context.Context, userID string, now time.Time) ([]VolumeBucket, error) {
	start := startOfWeek(now).AddDate(0, 0, -7*7)

	rows, err := db.Pool.Query(ctx,
		`SELECT (date::date - $2::date) / 7,
		        COALESCE(SUM((s->>'reps')::numeric * (s->>'weight')::numeric), 0)
		 FROM workouts,
		      jsonb_array_elements(exercises) e,
		      jsonb_array_elements(e->'sets') s
		 WHERE user_id = $1 AND date >= $2
		 GROUP BY 1`,
		userID, start)
	if err != nil {
		return nil, fmt.Errorf("querying volume stats: %w", err)
	}
	defer rows.Close()

	buckets := make([]VolumeBucket, 8)
	for i := range buckets {
		buckets[i].Week = fmt.Sprintf("W%d", i+1)
	}
	for rows.Next() {
		var idx int
		var volume float64
		if err := rows.Scan(&idx, &volume); err != nil {
			return nil, fmt.Errorf("scanning volume bucket: %w", err)
		}
		if idx >= 0 && idx < 8 {
			buckets[idx].Volume = volume
		}
	}
	return buckets, rows.Err()
}

// GetTopExercises returns the user's most frequent exercises, by number of
// workout appearances.
func (db *DB) GetTopExercises(ctx context.Context, userID string, limit int) ([]ExerciseCount, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT e->>'name', COUNT(*)
		 FROM workouts, jsonb_array_elements(exercises) e
		 WHERE user_id = $1
		 GROUP BY 1
		 ORDER BY 2 DESC, 1
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top exercises: %w", err)
	}
	defer rows.Close()

	result := []ExerciseCount{}
	for rows.Next() {
		var c ExerciseCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning exercise count: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetOverview returns this-week, this-month, and all-time workout counts.
func (db *DB) GetOverview(ctx context.Context, userID string, now time.Time) (Overview, error) {
	weekStart := startOfWeek(now)
	monthStart := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)

	var o Overview
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE date >= $2),
		        COUNT(*) FILTER (WHERE date >= $3),
		        COUNT(*)
		 FROM workouts WHERE user_id = $1`,
		userID, weekStart, monthStart).Scan(&o.ThisWeek, &o.ThisMonth, &o.Total)
	if err != nil {
		return Overview{}, fmt.Errorf("querying overview: %w", err)
	}
	return o, nil
}

// GetHistory returns per-day workout counts across all time, oldest first.
func (db *DB) GetHistory(ctx context.Context, userID string) ([]HistoryPoint, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date::date, COUNT(*) FROM workouts
		 WHERE user_id = $1
		 GROUP BY 1 ORDER BY 1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	result := []HistoryPoint{}
	for rows.Next() {
		var day time.Time
		var p HistoryPoint
		if err := rows.Scan(&day, &p.Count); err != nil {
			return nil, fmt.Errorf("scanning history day: %w", err)
		}
		p.Date = day.Format("2006-01-02")
		result = append(result, p)
	}
	return result, rows.Err()
}

// startOfWeek returns midnight UTC of the Monday of now's week.
func startOfWeek(now time.Time) time.Time {
	t := now.UTC().Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
