package models

import (
	"strconv"
	"strings"
)

// TotalReps sums a compound rep notation: "6+5+4" → 15. Plain integers pass
// through, non-numeric parts count as 0, empty input is 0.
func TotalReps(display string) int {
	if display == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(display, "+") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		total += n
	}
	return total
}

// DetectCategory infers an exercise's category. Duration presence on any set
// wins over the bodyweight flag; strength is the default.
func DetectCategory(ex Exercise) string {
	for _, s := range ex.Sets {
		if s.Duration != nil || s.DurationMinutes != nil || s.DurationSeconds != nil {
			return CategoryCardio
		}
	}
	if ex.Bodyweight {
		return CategoryBodyweight
	}
	return CategoryStrength
}

// UnifiedDuration returns the set's duration in seconds. The unified field
// wins; otherwise it is synthesized from the legacy minute/second fields.
// nil means "no duration data", which is distinct from an explicit zero.
func (s Set) UnifiedDuration() *float64 {
	if s.Duration != nil {
		d := *s.Duration
		return &d
	}
	if s.DurationMinutes == nil && s.DurationSeconds == nil {
		return nil
	}
	var d float64
	if s.DurationMinutes != nil {
		d += *s.DurationMinutes * 60
	}
	if s.DurationSeconds != nil {
		d += *s.DurationSeconds
	}
	return &d
}

// Columns reports which table columns carry data for a list of sets. A
// column is shown iff at least one set has a strictly positive value.
type Columns struct {
	Reps     bool `json:"reps"`
	Weight   bool `json:"weight"`
	Duration bool `json:"duration"`
	Distance bool `json:"distance"`
}

// DetectColumns drives adaptive set-table rendering.
func DetectColumns(sets []Set) Columns {
	var c Columns
	for _, s := range sets {
		if s.Reps > 0 {
			c.Reps = true
		}
		if s.Weight > 0 {
			c.Weight = true
		}
		if d := s.UnifiedDuration(); d != nil && *d > 0 {
			c.Duration = true
		}
		if s.Distance != nil && *s.Distance > 0 {
			c.Distance = true
		}
	}
	return c
}

// RenameExercises rewrites every exercise named from to to, in place, and
// returns the number of entries changed. Re-applying is a no-op: renamed
// entries no longer match.
func RenameExercises(exercises []Exercise, from, to string) int {
	if from == to {
		return 0
	}
	changed := 0
	for i := range exercises {
		if exercises[i].Name == from {
			exercises[i].Name = to
			changed++
		}
	}
	return changed
}

// EstimateOneRepMax extrapolates a one-rep maximum from one set using the
// Epley formula. A single rep is the lift itself; zero reps give 0.
func EstimateOneRepMax(weight float64, reps int) float64 {
	if reps <= 0 || weight <= 0 {
		return 0
	}
	if reps == 1 {
		return weight
	}
	return weight * (1 + float64(reps)/30)
}
