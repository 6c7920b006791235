// Package importer is the deterministic counterpart to the parse pipeline:
// it transforms a third-party training export into canonical workouts with no
// model call, sharing the same normalization primitives.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/claude/gains/internal/models"
	"github.com/claude/gains/internal/validate"
	"github.com/google/uuid"
)

// ExportReps is the export format's reps field: a plain number or a compound
// "6+5+4" string.
type ExportReps struct {
	Number  int
	Display string // set when the export used compound notation
}

func (r *ExportReps) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.Display = s
		r.Number = models.TotalReps(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reps must be a number or a string")
	}
	r.Number = int(n)
	return nil
}

// ExportSet is one set in the export document.
type ExportSet struct {
	Reps            *ExportReps      `json:"reps"`
	WeightKg        *models.WeightKg `json:"weight_kg"`
	Type            string           `json:"type"`
	DurationMinutes *float64         `json:"duration_minutes"`
	DurationSeconds *float64         `json:"duration_seconds"`
	Notes           string           `json:"notes"`
}

// ExportExercise is one exercise in the export document.
type ExportExercise struct {
	Name        string      `json:"name"`
	WeightKg    *float64    `json:"weight_kg"`
	Bodyweight  bool        `json:"bodyweight"`
	WeightUnit  string      `json:"weight_unit"`
	Sets        []ExportSet `json:"sets"`
	RestSeconds *float64    `json:"rest_seconds"`
	Notes       *string     `json:"notes"`
}

// ExportSession is one training session in the export document.
type ExportSession struct {
	Date      string           `json:"date"`
	Type      string           `json:"type"`
	Notes     *string          `json:"notes"`
	Exercises []ExportExercise `json:"exercises"`
}

// Export is the top-level export document.
type Export struct {
	ExportDate string          `json:"export_date"`
	Sessions   []ExportSession `json:"sessions"`
}

// Store is the storage surface the importer needs.
type Store interface {
	WorkoutExistsOnDay(ctx context.Context, userID, title string, day time.Time) (bool, error)
	InsertWorkout(ctx context.Context, w *models.Workout) error
}

// Importer writes transformed sessions, skipping duplicates.
type Importer struct {
	store Store
	out   io.Writer
}

func New(store Store, out io.Writer) *Importer {
	return &Importer{store: store, out: out}
}

// Run imports every session in the export, deduplicating on
// (user, capitalized title, calendar day). With dryRun nothing is written.
// Returns the imported and skipped counts.
func (im *Importer) Run(ctx context.Context, data *Export, userID string, dryRun bool) (int, int, error) {
	var imported, skipped int
	for _, session := range data.Sessions {
		workout, err := TransformSession(session, userID)
		if err != nil {
			return imported, skipped, fmt.Errorf("session %q on %s: %w", session.Type, session.Date, err)
		}

		exists, err := im.store.WorkoutExistsOnDay(ctx, userID, workout.Title, workout.Date)
		if err != nil {
			return imported, skipped, fmt.Errorf("checking for duplicate: %w", err)
		}
		if exists {
			fmt.Fprintf(im.out, "  Skipped (duplicate): %s on %s\n", workout.Title, session.Date)
			skipped++
			continue
		}

		if !dryRun {
			if err := im.store.InsertWorkout(ctx, workout); err != nil {
				return imported, skipped, fmt.Errorf("inserting workout: %w", err)
			}
		}

		setCount := 0
		for _, ex := range workout.Exercises {
			setCount += len(ex.Sets)
		}
		fmt.Fprintf(im.out, "  Imported: %s on %s (%d exercises, %d sets)\n",
			workout.Title, session.Date, len(workout.Exercises), setCount)
		imported++
	}
	return imported, skipped, nil
}

// TransformSession converts one export session into a canonical workout. The
// result goes through the same validation gate as the parse pipeline and the
// manual form; a session with violations fails with the field-path issues.
func TransformSession(session ExportSession, userID string) (*models.Workout, error) {
	date, err := validate.ParseDate(session.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid session date %q", session.Date)
	}

	exercises := make([]models.Exercise, 0, len(session.Exercises))
	var totalMinutes float64
	for _, ex := range session.Exercises {
		out := models.Exercise{
			Name:        ex.Name,
			Bodyweight:  ex.Bodyweight,
			WeightUnit:  ex.WeightUnit,
			WeightKg:    ex.WeightKg,
			RestSeconds: ex.RestSeconds,
			Notes:       ex.Notes,
			Sets:        make([]models.Set, 0, len(ex.Sets)),
		}
		for _, s := range ex.Sets {
			out.Sets = append(out.Sets, transformSet(s, ex.WeightKg))
			if s.DurationMinutes != nil {
				totalMinutes += *s.DurationMinutes
			}
			if s.DurationSeconds != nil {
				totalMinutes += *s.DurationSeconds / 60
			}
		}
		out.Category = models.DetectCategory(out)
		exercises = append(exercises, out)
	}

	draft := models.WorkoutDraft{
		Title:     CapitalizeType(session.Type),
		Date:      session.Date,
		Notes:     stringOrEmpty(session.Notes),
		Exercises: exercises,
		Duration:  math.Round(totalMinutes),
	}
	if issues := validate.WorkoutDraft(&draft); len(issues) > 0 {
		return nil, issues
	}

	return &models.Workout{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      date,
		Title:     draft.Title,
		Notes:     draft.Notes,
		Exercises: draft.Exercises,
		Duration:  draft.Duration,
	}, nil
}

// transformSet applies the export rules: set-level weight overrides the
// exercise-level default, compound rep strings keep their display form, and
// the representative weight is the maximum stated stage weight.
func transformSet(s ExportSet, exerciseWeight *float64) models.Set {
	out := models.Set{
		Type:            s.Type,
		DurationMinutes: s.DurationMinutes,
		DurationSeconds: s.DurationSeconds,
		Notes:           s.Notes,
	}

	if s.Reps != nil {
		out.Reps = s.Reps.Number
		out.RepsDisplay = s.Reps.Display
	}

	weightKg := s.WeightKg
	if weightKg == nil && exerciseWeight != nil {
		weightKg = &models.WeightKg{Values: []float64{*exerciseWeight}}
	}
	out.WeightKg = weightKg
	out.Weight = weightKg.Max()

	return out
}

// CapitalizeType upper-cases the first letter of each hyphen-separated part:
// "push-pull" becomes "Push-Pull".
func CapitalizeType(t string) string {
	parts := strings.Split(t, "-")
	for i, part := range parts {
		runes := []rune(part)
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, "-")
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
