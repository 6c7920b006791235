package parse

import (
	"fmt"
	"strings"

	"github.com/claude/gains/internal/models"
)

// maxKnownNames bounds the reconciliation list injected into the prompt.
const maxKnownNames = 200

// staticVocabulary is the fallback workout-type taxonomy used when the user
// has no training plans.
const staticVocabulary = `WORKOUT TYPES (title must be exactly one of these):
- "Brust" — chest workouts (Bankdrücken, Fliegende, Butterfly, Dips, etc.)
- "Rücken" — back workouts (Klimmzüge, Rudern, Latzug, Kreuzheben, etc.)
- "Beine" — leg workouts (Kniebeugen, Beinpresse, Ausfallschritte, Wadenheben, etc.)

The user may say things like "heute brust", "brust workout", "chest day", "rücken training", "leg day", "beine" etc.
Always map to exactly one of: "Brust", "Rücken", "Beine" as the title.
If the workout type is unclear from context, infer it from the exercises.`

// knownNamesSection renders the exercise-name reconciliation list, or "" when
// the user has no history. At most maxKnownNames names are included.
func knownNamesSection(names []string) string {
	if len(names) == 0 {
		return ""
	}
	if len(names) > maxKnownNames {
		names = names[:maxKnownNames]
	}
	return "KNOWN EXERCISES (the user has logged these before — when a message refers to one of them, prefer these exact spellings instead of inventing a new variant):\n" +
		strings.Join(names, ", ")
}

// vocabularySection renders the workout-type section from the user's training
// plans, falling back to the static taxonomy when there are none.
func vocabularySection(plans []models.TrainingPlan) string {
	if len(plans) == 0 {
		return staticVocabulary
	}

	var b strings.Builder
	b.WriteString("WORKOUT TYPES (title must be exactly one of these):\n")
	for _, p := range plans {
		fmt.Fprintf(&b, "- %q — %s\n", p.WorkoutTitle, planSummary(p))
	}
	b.WriteString("\nAlways use exactly one of the titles above, matching the plan the user is following.\n")
	b.WriteString("If the workout type is unclear from context, infer it from the exercises.\n")

	for _, p := range plans {
		fmt.Fprintf(&b, "\nPlan structure for %q:\n", p.WorkoutTitle)
		for _, s := range p.Sections {
			fmt.Fprintf(&b, "  %s:\n", s.Name)
			for _, e := range s.Exercises {
				fmt.Fprintf(&b, "    %s (%s)\n", e.Name, e.SetsReps)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// planSummary lists the first 5 exercise names per section as a
// classification aid, with "etc." marking truncation.
func planSummary(p models.TrainingPlan) string {
	var names []string
	truncated := false
	for _, s := range p.Sections {
		for i, e := range s.Exercises {
			if i >= 5 {
				truncated = true
				break
			}
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		return "no exercises listed"
	}
	summary := strings.Join(names, ", ")
	if truncated {
		summary += ", etc."
	}
	return summary
}
