// Package validate is the single normalization boundary between loosely
// shaped payloads and the canonical workout model. Every producer — the
// parse pipeline's model output, the manual form, the import transform —
// goes through the same checks; nothing "trusted" skips the gate.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/claude/gains/internal/models"
)

// Issue is one violation, tagged with the dot-joined path of the offending
// field (e.g. "exercises.0.sets.2.reps").
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Issues collects every violation found, not just the first, so a caller can
// highlight all offending fields at once.
type Issues []Issue

func (is Issues) Error() string {
	parts := make([]string, len(is))
	for i, issue := range is {
		parts[i] = issue.Path + ": " + issue.Message
	}
	return strings.Join(parts, "; ")
}

func (is *Issues) add(path, message string) {
	*is = append(*is, Issue{Path: path, Message: message})
}

// Chat-message caps: bound prompt size and cost before the pipeline runs.
const (
	MaxMessages   = 50
	MaxMessageLen = 1000
)

// ParseDate accepts a calendar date or a full RFC 3339 instant.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// WorkoutDraft validates and normalizes a create-shaped payload in place.
// On success the draft has non-nil exercise and set slices and is stable
// under re-validation.
func WorkoutDraft(d *models.WorkoutDraft) Issues {
	var issues Issues

	if strings.TrimSpace(d.Title) == "" {
		issues.add("title", "Title is required")
	}
	if d.Date != "" {
		if _, err := ParseDate(d.Date); err != nil {
			issues.add("date", "invalid date")
		}
	}
	if d.Duration < 0 {
		issues.add("duration", "must be greater than or equal to 0")
	}
	if d.Exercises == nil {
		d.Exercises = []models.Exercise{}
	}
	for i := range d.Exercises {
		issues = append(issues, exercise(&d.Exercises[i], fmt.Sprintf("exercises.%d", i))...)
	}

	return issues
}

// WorkoutUpdate is a partial update: only the fields present are applied.
type WorkoutUpdate struct {
	Title     *string            `json:"title"`
	Date      *string            `json:"date"`
	Notes     *string            `json:"notes"`
	Exercises *[]models.Exercise `json:"exercises"`
	Duration  *float64           `json:"duration"`
}

// Update validates a partial workout update.
func Update(u *WorkoutUpdate) Issues {
	var issues Issues

	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		issues.add("title", "Title is required")
	}
	if u.Date != nil {
		if _, err := ParseDate(*u.Date); err != nil {
			issues.add("date", "invalid date")
		}
	}
	if u.Duration != nil && *u.Duration < 0 {
		issues.add("duration", "must be greater than or equal to 0")
	}
	if u.Exercises != nil {
		for i := range *u.Exercises {
			issues = append(issues, exercise(&(*u.Exercises)[i], fmt.Sprintf("exercises.%d", i))...)
		}
	}

	return issues
}

func exercise(ex *models.Exercise, path string) Issues {
	var issues Issues

	if strings.TrimSpace(ex.Name) == "" {
		issues.add(path+".name", "Exercise name is required")
	}
	if ex.Sets == nil {
		ex.Sets = []models.Set{}
	}
	// Exercise-level weight_kg, rest_seconds and notes are nullable: null is
	// a valid value meaning "explicitly cleared", not a violation.
	if ex.WeightKg != nil && *ex.WeightKg < 0 {
		issues.add(path+".weight_kg", "must be greater than or equal to 0")
	}
	if ex.RestSeconds != nil && *ex.RestSeconds < 0 {
		issues.add(path+".rest_seconds", "must be greater than or equal to 0")
	}
	for i := range ex.Sets {
		issues = append(issues, set(&ex.Sets[i], fmt.Sprintf("%s.sets.%d", path, i))...)
	}

	return issues
}

func set(s *models.Set, path string) Issues {
	var issues Issues

	if s.Reps < 0 {
		issues.add(path+".reps", "must be greater than or equal to 0")
	}
	if s.Weight < 0 {
		issues.add(path+".weight", "must be greater than or equal to 0")
	}
	if s.WeightKg != nil {
		for i, v := range s.WeightKg.Values {
			if v < 0 {
				issues.add(fmt.Sprintf("%s.weight_kg.%d", path, i), "must be greater than or equal to 0")
			}
		}
	}
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"duration_minutes", s.DurationMinutes},
		{"duration_seconds", s.DurationSeconds},
		{"duration", s.Duration},
		{"distance", s.Distance},
	} {
		if f.value != nil && *f.value < 0 {
			issues.add(path+"."+f.name, "must be greater than or equal to 0")
		}
	}

	return issues
}

// ParseRequest caps the chat transcript before it ever reaches the pipeline.
func ParseRequest(messages []string) Issues {
	var issues Issues

	if len(messages) == 0 {
		issues.add("messages", "messages must be a non-empty array of strings")
		return issues
	}
	if len(messages) > MaxMessages {
		issues.add("messages", fmt.Sprintf("at most %d messages allowed", MaxMessages))
	}
	for i, m := range messages {
		if len(m) == 0 {
			issues.add(fmt.Sprintf("messages.%d", i), "must not be empty")
		} else if len(m) > MaxMessageLen {
			issues.add(fmt.Sprintf("messages.%d", i), fmt.Sprintf("at most %d characters allowed", MaxMessageLen))
		}
	}

	return issues
}

// Plan validates a training plan payload.
func Plan(p *models.TrainingPlan) Issues {
	var issues Issues

	if strings.TrimSpace(p.Name) == "" {
		issues.add("name", "Name is required")
	}
	if strings.TrimSpace(p.WorkoutTitle) == "" {
		issues.add("workoutTitle", "Workout title is required")
	}
	if p.Sections == nil {
		p.Sections = []models.PlanSection{}
	}
	for i := range p.Sections {
		sec := &p.Sections[i]
		secPath := fmt.Sprintf("sections.%d", i)
		if strings.TrimSpace(sec.Name) == "" {
			issues.add(secPath+".name", "Section name is required")
		}
		if sec.Exercises == nil {
			sec.Exercises = []models.PlanExercise{}
		}
		for j := range sec.Exercises {
			exPath := fmt.Sprintf("%s.exercises.%d", secPath, j)
			if strings.TrimSpace(sec.Exercises[j].Name) == "" {
				issues.add(exPath+".name", "Exercise name is required")
			}
			if strings.TrimSpace(sec.Exercises[j].SetsReps) == "" {
				issues.add(exPath+".setsReps", "Sets/reps is required")
			}
		}
	}

	return issues
}

// Settings validates a settings update; unknown enum values are rejected.
func Settings(s *models.Settings) Issues {
	var issues Issues

	if s.WeightUnit != "" && s.WeightUnit != "kg" && s.WeightUnit != "lbs" {
		issues.add("weightUnit", "must be kg or lbs")
	}
	if s.DistanceUnit != "" && s.DistanceUnit != "km" && s.DistanceUnit != "mi" {
		issues.add("distanceUnit", "must be km or mi")
	}
	if s.Language != "" && s.Language != "en" && s.Language != "de" {
		issues.add("language", "must be en or de")
	}

	return issues
}
