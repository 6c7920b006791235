package parse

import (
	"fmt"
	"strings"

	"github.com/claude/gains/internal/models"
)

const parsingRules = `Rules:
- Exercise names: keep the original name the user typed
- "5x5 40kg" means 5 sets of 5 reps at 40kg
- "3x8" without weight means 3 sets of 8 reps, weight: 0
- "pro Hand" or "per hand" means weight_unit: "per_hand"
- "pro Seite" or "per side" means weight_unit: "per_side"
- "bodyweight" or "bw" means category: "bodyweight", weight: 0
- Dropsets: "20/15/10kg 6+5+4" means 3 sets. Each set has type: "dropset", repsDisplay: "6+5+4", reps: 15 (total), weight_kg: [20,15,10], weight: 20 (max)
- Duration exercises (cardio): "10min Rudermaschine" → category: "cardio", one set with duration: 600 (duration is always in seconds, so 10min = 600)
- Timed holds like "Plank 90s" are bodyweight, not cardio: category: "bodyweight", one set with duration: 90. Seconds stay seconds — never multiply them by 60
- rest_seconds if mentioned: "90s Pause" → rest_seconds: 90 on the preceding exercise
- If no weight specified for a strength exercise, set weight to 0
- Detect category: "strength" (default), "cardio" (has duration/minutes), "bodyweight" (explicitly stated or exercises like Dips, Klimmzüge, Liegestütze, Push-ups, Pull-ups without weight)
- For each exercise, create individual set objects. "5x5 40kg" → 5 separate set objects each with reps: 5, weight: 40, unit: "kg"
- Keep every other descriptive remark as notes: on the exercise when it refers to a specific movement, otherwise on the workout. Never silently drop text`

const targetShape = `Return this exact JSON structure:
{
  "title": "workout title from first message",
  "date": "%s",
  "notes": "",
  "exercises": [
    {
      "name": "Exercise Name",
      "category": "strength",
      "sets": [
        { "reps": 5, "weight": 40, "unit": "kg" }
      ]
    }
  ]
}

For cardio exercises, sets look like:
{ "duration": 600, "distance": 0, "distanceUnit": "km" }
where duration is in seconds.

For bodyweight exercises, sets look like:
{ "reps": 10, "weight": 0, "unit": "kg" }

Return ONLY valid JSON. No markdown fences, no explanation, no extra text.`

// buildPrompt assembles the single-turn instruction document: role line,
// reconciliation list, workout-type vocabulary, parsing rules, target shape,
// and the numbered message transcript.
func buildPrompt(messages, knownNames []string, plans []models.TrainingPlan, today string) string {
	var b strings.Builder
	b.WriteString("You are a fitness workout parser. Parse the following gym workout messages into structured JSON.\n")
	b.WriteString("The user logs exercises one message at a time. The first message usually indicates the workout type.\n\n")

	if section := knownNamesSection(knownNames); section != "" {
		b.WriteString(section)
		b.WriteString("\n\n")
	}

	b.WriteString(vocabularySection(plans))
	b.WriteString("\n\n")
	b.WriteString(parsingRules)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, targetShape, today)
	b.WriteString("\n\nUser messages:\n")
	for i, m := range messages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m)
	}
	return strings.TrimRight(b.String(), "\n")
}
