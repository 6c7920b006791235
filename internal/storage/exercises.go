package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/gains/internal/models"
)

// ExerciseNames returns the distinct exercise names across a user's workouts,
// sorted. When title is non-empty only workouts with that title contribute.
func (db *DB) ExerciseNames(ctx context.Context, userID, title string) ([]string, error) {
	query := `SELECT DISTINCT e->>'name'
		 FROM workouts, jsonb_array_elements(exercises) e
		 WHERE user_id = $1`
	args := []any{userID}
	if title != "" {
		query += ` AND title = $2`
		args = append(args, title)
	}
	query += ` ORDER BY 1`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercise names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning exercise name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// MergeExerciseNames renames every exercise called from to to across the
// user's workouts and returns the number of exercise entries changed. The
// rename is idempotent: a second run with the same arguments modifies nothing.
func (db *DB) MergeExerciseNames(ctx context.Context, userID, from, to string) (int, error) {
	// Containment narrows the scan to workouts that actually hold the name.
	filter, err := json.Marshal([]map[string]string{{"name": from}})
	if err != nil {
		return 0, fmt.Errorf("encoding filter: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercises FROM workouts
		 WHERE user_id = $1 AND exercises @> $2`,
		userID, filter)
	if err != nil {
		return 0, fmt.Errorf("querying workouts for merge: %w", err)
	}
	defer rows.Close()

	type pending struct {
		id        any
		exercises []models.Exercise
	}
	var updates []pending
	modified := 0
	for rows.Next() {
		var p pending
		var raw []byte
		if err := rows.Scan(&p.id, &raw); err != nil {
			return 0, fmt.Errorf("scanning workout for merge: %w", err)
		}
		if err := json.Unmarshal(raw, &p.exercises); err != nil {
			return 0, fmt.Errorf("decoding exercises: %w", err)
		}
		if changed := models.RenameExercises(p.exercises, from, to); changed > 0 {
			updates = append(updates, p)
			modified += changed
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, p := range updates {
		encoded, err := json.Marshal(p.exercises)
		if err != nil {
			return 0, fmt.Errorf("encoding exercises: %w", err)
		}
		if _, err := db.Pool.Exec(ctx,
			`UPDATE workouts SET exercises = $3, updated_at = NOW()
			 WHERE id = $1 AND user_id = $2`,
			p.id, userID, encoded); err != nil {
			return 0, fmt.Errorf("updating workout exercises: %w", err)
		}
	}
	return modified, nil
}
