// Package parse turns free-text workout messages into a validated workout
// draft via a single-turn language-model completion. The model is an
// untrusted text generator: its output re-enters the same validation gate as
// user input before anything is returned.
package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/gains/internal/models"
	"github.com/claude/gains/internal/validate"
)

// ErrUpstreamInvalid means the model returned text that failed JSON parsing
// or the validation gate. Signals "try again", not "fix your input".
var ErrUpstreamInvalid = errors.New("model returned invalid workout structure")

// ErrUpstreamUnavailable means the completion call itself failed.
var ErrUpstreamUnavailable = errors.New("completion request failed")

// Completer is the single-turn text-completion dependency.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NameSource provides the user's known exercise names for reconciliation.
type NameSource interface {
	ExerciseNames(ctx context.Context, userID, title string) ([]string, error)
}

// PlanSource provides the user's training plans for the workout-type
// vocabulary.
type PlanSource interface {
	QueryPlans(ctx context.Context, userID string) ([]models.TrainingPlan, error)
}

// Pipeline assembles the prompt, invokes the model once, and validates the
// result. It never writes to storage.
type Pipeline struct {
	completer Completer
	names     NameSource
	plans     PlanSource
	log       *slog.Logger
	now       func() time.Time
}

func NewPipeline(completer Completer, names NameSource, plans PlanSource, log *slog.Logger) *Pipeline {
	return &Pipeline{completer: completer, names: names, plans: plans, log: log, now: time.Now}
}

// Parse runs the full pipeline for one request. Vocabulary lookups are
// enrichments: a failed lookup degrades to generic rules instead of blocking
// the request.
func (p *Pipeline) Parse(ctx context.Context, userID string, messages []string) (*models.WorkoutDraft, error) {
	names, err := p.names.ExerciseNames(ctx, userID, "")
	if err != nil {
		p.log.Warn("exercise name lookup failed, continuing without", "error", err)
		names = nil
	}
	plans, err := p.plans.QueryPlans(ctx, userID)
	if err != nil {
		p.log.Warn("plan lookup failed, continuing without", "error", err)
		plans = nil
	}

	today := p.now().UTC().Format("2006-01-02")
	prompt := buildPrompt(messages, names, plans, today)

	raw, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		p.log.Error("completion call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	cleaned := stripFences(raw)
	var draft models.WorkoutDraft
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		p.log.Error("model output is not valid JSON", "error", err)
		return nil, ErrUpstreamInvalid
	}

	if issues := validate.WorkoutDraft(&draft); len(issues) > 0 {
		p.log.Error("model output failed validation", "issues", issues.Error())
		return nil, ErrUpstreamInvalid
	}
	if draft.Date == "" {
		draft.Date = today
	}

	// The gate does not enforce title membership; a deviation is worth a log
	// line because it signals a prompt problem.
	if !titleInVocabulary(draft.Title, plans) {
		p.log.Warn("model chose a title outside the vocabulary", "title", draft.Title)
	}

	return &draft, nil
}

// stripFences removes Markdown code-fence artifacts the model sometimes emits
// despite being told not to.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func titleInVocabulary(title string, plans []models.TrainingPlan) bool {
	if len(plans) == 0 {
		return title == "Brust" || title == "Rücken" || title == "Beine"
	}
	for _, p := range plans {
		if p.WorkoutTitle == title {
			return true
		}
	}
	return false
}
