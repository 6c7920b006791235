package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/claude/gains/internal/models"
)

// ProgressPoint is one calendar day's best effort for an exercise.
type ProgressPoint struct {
	Date               string  `json:"date"`
	Weight             float64 `json:"weight"`
	Reps               int     `json:"reps"`
	EstimatedOneRepMax float64 `json:"estimatedOneRepMax"`
	IsPR               bool    `json:"isPR"`
}

// GetProgression returns per-day best-set data points for one exercise,
// oldest first. The exercise name is matched case-insensitively. A point is
// flagged as a PR when its weight exceeds every earlier point's weight. When
// since is non-nil only workouts on or after it contribute.
func (db *DB) GetProgression(ctx context.Context, userID, exercise string, since *time.Time) ([]ProgressPoint, error) {
	query := `SELECT date, exercises FROM workouts
		 WHERE user_id = $1
		   AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(exercises) e
			WHERE lower(e->>'name') = lower($2)
		   )`
	args := []any{userID, exercise}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	query += ` ORDER BY date`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying progression: %w", err)
	}
	defer rows.Close()

	// Best set per calendar day, across multiple workouts on the same day.
	type best struct {
		weight float64
		reps   int
	}
	byDay := map[string]best{}
	order := []string{}
	for rows.Next() {
		var date time.Time
		var raw []byte
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, fmt.Errorf("scanning progression row: %w", err)
		}
		var exercises []models.Exercise
		if err := json.Unmarshal(raw, &exercises); err != nil {
			return nil, fmt.Errorf("decoding exercises: %w", err)
		}

		day := date.UTC().Format("2006-01-02")
		for _, ex := range exercises {
			if !strings.EqualFold(ex.Name, exercise) {
				continue
			}
			for _, set := range ex.Sets {
				weight := set.Weight
				if w := set.WeightKg.Max(); w > weight {
					weight = w
				}
				cur, seen := byDay[day]
				if !seen {
					order = append(order, day)
				}
				if !seen || weight > cur.weight {
					byDay[day] = best{weight: weight, reps: set.Reps}
				}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	points := []ProgressPoint{}
	runningMax := 0.0
	for _, day := range order {
		b := byDay[day]
		p := ProgressPoint{
			Date:               day,
			Weight:             b.weight,
			Reps:               b.reps,
			EstimatedOneRepMax: models.EstimateOneRepMax(b.weight, b.reps),
		}
		if b.weight > runningMax {
			p.IsPR = true
			runningMax = b.weight
		}
		points = append(points, p)
	}
	return points, nil
}
