package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/gains/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workoutColumns = `id, user_id, date, title, notes, exercises, duration, created_at, updated_at`

// ListOptions controls workout pagination and date filtering.
type ListOptions struct {
	Page     int
	Limit    int
	DateFrom *time.Time
	DateTo   *time.Time
}

// InsertWorkout persists a new workout document. The caller provides the ID;
// timestamps are assigned by the database and written back.
func (db *DB) InsertWorkout(ctx context.Context, w *models.Workout) error {
	exercises, err := json.Marshal(w.Exercises)
	if err != nil {
		return fmt.Errorf("encoding exercises: %w", err)
	}
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (id, user_id, date, title, notes, exercises, duration)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		w.ID, w.UserID, w.Date, w.Title, w.Notes, exercises, w.Duration,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// QueryWorkouts retrieves a page of a user's workouts, newest first, along
// with the total matching count.
func (db *DB) QueryWorkouts(ctx context.Context, userID string, opts ListOptions) ([]models.Workout, int64, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if opts.DateFrom != nil {
		args = append(args, *opts.DateFrom)
		where += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if opts.DateTo != nil {
		args = append(args, *opts.DateTo)
		where += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	var total int64
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM workouts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting workouts: %w", err)
	}

	offset := (opts.Page - 1) * opts.Limit
	args = append(args, opts.Limit, offset)
	rows, err := db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM workouts %s ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
			workoutColumns, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	workouts, err := scanWorkouts(rows)
	if err != nil {
		return nil, 0, err
	}
	return workouts, total, nil
}

// GetWorkout retrieves a single workout by ID, scoped to the user.
func (db *DB) GetWorkout(ctx context.Context, userID string, id uuid.UUID) (*models.Workout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`,
		id, userID)
	w, err := scanWorkout(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	return w, nil
}

// UpdateWorkout writes the full document state back. The handler applies
// partial updates onto a fetched workout first.
func (db *DB) UpdateWorkout(ctx context.Context, w *models.Workout) error {
	exercises, err := json.Marshal(w.Exercises)
	if err != nil {
		return fmt.Errorf("encoding exercises: %w", err)
	}
	err = db.Pool.QueryRow(ctx,
		`UPDATE workouts
		 SET date = $3, title = $4, notes = $5, exercises = $6, duration = $7, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at`,
		w.ID, w.UserID, w.Date, w.Title, w.Notes, exercises, w.Duration,
	).Scan(&w.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating workout: %w", err)
	}
	return nil
}

// DeleteWorkout removes a workout by ID, scoped to the user.
func (db *DB) DeleteWorkout(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctTitles returns the user's workout titles, sorted, without duplicates.
func (db *DB) DistinctTitles(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT title FROM workouts WHERE user_id = $1 ORDER BY title`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying titles: %w", err)
	}
	defer rows.Close()

	titles := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// LatestByTitle returns the most recent workout with the given title, or
// ErrNotFound when the user has none.
func (db *DB) LatestByTitle(ctx context.Context, userID, title string) (*models.Workout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1 AND title = $2
		 ORDER BY date DESC, created_at DESC
		 LIMIT 1`,
		userID, title)
	w, err := scanWorkout(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest workout: %w", err)
	}
	return w, nil
}

// WorkoutExistsOnDay reports whether the user already has a workout with this
// title on the given calendar day. Used by the importer for deduplication.
func (db *DB) WorkoutExistsOnDay(ctx context.Context, userID, title string, day time.Time) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM workouts
			WHERE user_id = $1 AND title = $2 AND date::date = $3::date
		)`, userID, title, day).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking workout existence: %w", err)
	}
	return exists, nil
}

func scanWorkout(row pgx.Row) (*models.Workout, error) {
	var w models.Workout
	var exercises []byte
	if err := row.Scan(&w.ID, &w.UserID, &w.Date, &w.Title, &w.Notes, &exercises,
		&w.Duration, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exercises, &w.Exercises); err != nil {
		return nil, fmt.Errorf("decoding exercises: %w", err)
	}
	if w.Exercises == nil {
		w.Exercises = []models.Exercise{}
	}
	return &w, nil
}

func scanWorkouts(rows pgx.Rows) ([]models.Workout, error) {
	result := []models.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}
