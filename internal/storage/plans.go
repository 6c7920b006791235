package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/gains/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const planColumns = `id, user_id, name, workout_title, sections, progression_notes, created_at, updated_at`

// QueryPlans retrieves all of a user's training plans, sorted by name.
func (db *DB) QueryPlans(ctx context.Context, userID string) ([]models.TrainingPlan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+planColumns+` FROM training_plans WHERE user_id = $1 ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []models.TrainingPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetPlan retrieves a single training plan by ID, scoped to the user.
func (db *DB) GetPlan(ctx context.Context, userID string, id uuid.UUID) (*models.TrainingPlan, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM training_plans WHERE id = $1 AND user_id = $2`,
		id, userID)
	p, err := scanPlan(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}
	return p, nil
}

// InsertPlan persists a new training plan.
func (db *DB) InsertPlan(ctx context.Context, p *models.TrainingPlan) error {
	sections, err := json.Marshal(p.Sections)
	if err != nil {
		return fmt.Errorf("encoding sections: %w", err)
	}
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO training_plans (id, user_id, name, workout_title, sections, progression_notes)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Name, p.WorkoutTitle, sections, p.ProgressionNotes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

// UpdatePlan writes the full plan state back.
func (db *DB) UpdatePlan(ctx context.Context, p *models.TrainingPlan) error {
	sections, err := json.Marshal(p.Sections)
	if err != nil {
		return fmt.Errorf("encoding sections: %w", err)
	}
	err = db.Pool.QueryRow(ctx,
		`UPDATE training_plans
		 SET name = $3, workout_title = $4, sections = $5, progression_notes = $6, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at`,
		p.ID, p.UserID, p.Name, p.WorkoutTitle, sections, p.ProgressionNotes,
	).Scan(&p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}
	return nil
}

// DeletePlan removes a training plan by ID, scoped to the user.
func (db *DB) DeletePlan(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM training_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPlan(row pgx.Row) (*models.TrainingPlan, error) {
	var p models.TrainingPlan
	var sections []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.WorkoutTitle, &sections,
		&p.ProgressionNotes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sections, &p.Sections); err != nil {
		return nil, fmt.Errorf("decoding sections: %w", err)
	}
	if p.Sections == nil {
		p.Sections = []models.PlanSection{}
	}
	return &p, nil
}
