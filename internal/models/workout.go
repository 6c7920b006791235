package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WeightKg is a set's stated weight: a single value, or one value per stage
// for dropsets. On the wire it is a JSON number, an array of numbers, or null.
type WeightKg struct {
	Values []float64
	// Multi records whether the original notation was an array. A single-element
	// array round-trips as an array.
	Multi bool
}

// Max returns the representative weight: the maximum stage weight for
// dropsets, the value itself for single weights, 0 when empty.
func (w *WeightKg) Max() float64 {
	if w == nil || len(w.Values) == 0 {
		return 0
	}
	max := w.Values[0]
	for _, v := range w.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func (w *WeightKg) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		w.Values = nil
		w.Multi = false
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var vals []float64
		if err := json.Unmarshal(data, &vals); err != nil {
			return fmt.Errorf("weight_kg must be a number, an array of numbers, or null")
		}
		w.Values = vals
		w.Multi = true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("weight_kg must be a number, an array of numbers, or null")
	}
	w.Values = []float64{v}
	w.Multi = false
	return nil
}

func (w WeightKg) MarshalJSON() ([]byte, error) {
	if w.Multi {
		return json.Marshal(w.Values)
	}
	if len(w.Values) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(w.Values[0])
}

// Set is one repetition unit within an exercise. Field presence matters:
// pointer fields distinguish "absent" from "explicitly zero".
type Set struct {
	Reps            int       `json:"reps"`
	RepsDisplay     string    `json:"repsDisplay,omitempty"`
	Weight          float64   `json:"weight"`
	WeightKg        *WeightKg `json:"weight_kg,omitempty"`
	Type            string    `json:"type,omitempty"`
	DurationMinutes *float64  `json:"duration_minutes,omitempty"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	Duration        *float64  `json:"duration,omitempty"`
	Distance        *float64  `json:"distance,omitempty"`
	DistanceUnit    string    `json:"distanceUnit,omitempty"`
	Unit            string    `json:"unit,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// SetTypeDropset marks a multi-stage set logged as one compound entry.
const SetTypeDropset = "dropset"

// Exercise categories.
const (
	CategoryStrength   = "strength"
	CategoryCardio     = "cardio"
	CategoryBodyweight = "bodyweight"
)

// Exercise is one movement within a workout. Sets are stored in performed
// order.
type Exercise struct {
	Name        string   `json:"name"`
	Sets        []Set    `json:"sets"`
	Category    string   `json:"category,omitempty"`
	Bodyweight  bool     `json:"bodyweight,omitempty"`
	WeightUnit  string   `json:"weight_unit,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	RestSeconds *float64 `json:"rest_seconds,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// Workout is one logged session. Exercises are persisted as a single JSON
// document column: the stored state is always the latest full document.
type Workout struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"userId"`
	Date      time.Time  `json:"date"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	Exercises []Exercise `json:"exercises"`
	Duration  float64    `json:"duration"` // total session minutes
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// WorkoutDraft is a workout-shaped payload before it is owned and persisted:
// the parse pipeline's output and the create-form input.
type WorkoutDraft struct {
	Title     string     `json:"title"`
	Date      string     `json:"date,omitempty"`
	Notes     string     `json:"notes"`
	Exercises []Exercise `json:"exercises"`
	Duration  float64    `json:"duration"`
}

// PlanExercise is one prescribed movement inside a training plan section.
type PlanExercise struct {
	Name     string `json:"name"`
	SetsReps string `json:"setsReps"`
	Rest     string `json:"rest,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// PlanSection groups plan exercises (e.g. warm-up, main block).
type PlanSection struct {
	Name      string         `json:"name"`
	Duration  string         `json:"duration,omitempty"`
	Exercises []PlanExercise `json:"exercises"`
}

// TrainingPlan is a user-authored template. Its WorkoutTitle feeds the
// parsing pipeline's workout-type vocabulary.
type TrainingPlan struct {
	ID               uuid.UUID     `json:"id"`
	UserID           string        `json:"userId"`
	Name             string        `json:"name"`
	WorkoutTitle     string        `json:"workoutTitle"`
	Sections         []PlanSection `json:"sections"`
	ProgressionNotes string        `json:"progressionNotes,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Settings are per-user display preferences, merged over defaults on read.
type Settings struct {
	WeightUnit   string `json:"weightUnit,omitempty"`
	DistanceUnit string `json:"distanceUnit,omitempty"`
	DarkMode     *bool  `json:"darkMode,omitempty"`
	Language     string `json:"language,omitempty"`
}

// DefaultSettings are applied under whatever the user has stored.
func DefaultSettings() Settings {
	dark := true
	return Settings{WeightUnit: "kg", DistanceUnit: "km", DarkMode: &dark, Language: "en"}
}

// Merge returns s with any unset field filled from def.
func (s Settings) Merge(def Settings) Settings {
	out := s
	if out.WeightUnit == "" {
		out.WeightUnit = def.WeightUnit
	}
	if out.DistanceUnit == "" {
		out.DistanceUnit = def.DistanceUnit
	}
	if out.DarkMode == nil {
		out.DarkMode = def.DarkMode
	}
	if out.Language == "" {
		out.Language = def.Language
	}
	return out
}

// User is an account row. Subject is the opaque identity-provider subject all
// data is scoped by; PasswordHash is set only for local accounts.
type User struct {
	Subject      string    `json:"subject"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Settings     Settings  `json:"settings"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
