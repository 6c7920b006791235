package validate

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/claude/gains/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestWorkoutDraftEmptyTitle(t *testing.T) {
	d := &models.WorkoutDraft{Title: "", Exercises: []models.Exercise{}}
	issues := WorkoutDraft(d)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %v", len(issues), issues)
	}
	if issues[0].Path != "title" {
		t.Errorf("path = %q, want %q", issues[0].Path, "title")
	}
}

func TestWorkoutDraftCollectsAllIssues(t *testing.T) {
	d := &models.WorkoutDraft{
		Title: "",
		Exercises: []models.Exercise{
			{Name: "", Sets: []models.Set{{Reps: -1, Weight: -2}}},
			{Name: "Bench Press", Sets: []models.Set{{Duration: fptr(-1)}}},
		},
	}
	issues := WorkoutDraft(d)

	wantPaths := []string{
		"title",
		"exercises.0.name",
		"exercises.0.sets.0.reps",
		"exercises.0.sets.0.weight",
		"exercises.1.sets.0.duration",
	}
	var gotPaths []string
	for _, i := range issues {
		gotPaths = append(gotPaths, i.Path)
	}
	if !reflect.DeepEqual(gotPaths, wantPaths) {
		t.Errorf("paths = %v, want %v", gotPaths, wantPaths)
	}

	detail := issues.Error()
	if !strings.Contains(detail, "title: Title is required") {
		t.Errorf("detail missing title issue: %s", detail)
	}
	if strings.Count(detail, ";") != len(wantPaths)-1 {
		t.Errorf("detail not semicolon-joined: %s", detail)
	}
}

func TestWorkoutDraftDefaults(t *testing.T) {
	var d models.WorkoutDraft
	if err := json.Unmarshal([]byte(`{"title":"Brust"}`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if issues := WorkoutDraft(&d); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if d.Exercises == nil {
		t.Error("exercises not defaulted to empty slice")
	}
	if d.Notes != "" || d.Duration != 0 {
		t.Errorf("defaults wrong: notes=%q duration=%v", d.Notes, d.Duration)
	}
}

func TestWorkoutDraftSetDefaults(t *testing.T) {
	var d models.WorkoutDraft
	raw := `{"title":"Brust","exercises":[{"name":"Bankdrücken","sets":[{}]}]}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if issues := WorkoutDraft(&d); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	set := d.Exercises[0].Sets[0]
	if set.Reps != 0 || set.Weight != 0 {
		t.Errorf("set defaults wrong: %+v", set)
	}
}

func TestWorkoutDraftNullableExerciseFields(t *testing.T) {
	var d models.WorkoutDraft
	raw := `{"title":"Brust","exercises":[{"name":"Dips","weight_kg":null,"rest_seconds":null,"notes":null}]}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if issues := WorkoutDraft(&d); len(issues) != 0 {
		t.Fatalf("null exercise fields rejected: %v", issues)
	}
}

// Any payload accepted by the gate, re-validated unchanged, is accepted again
// and normalizes to an identical structure.
func TestWorkoutDraftIdempotent(t *testing.T) {
	var d models.WorkoutDraft
	raw := `{"title":"Beine","date":"2026-08-20","exercises":[
		{"name":"Kniebeugen","sets":[{"reps":5,"weight":80,"unit":"kg"}]},
		{"name":"Plank","bodyweight":true,"sets":[{"duration":90}]}]}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if issues := WorkoutDraft(&d); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	first, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if issues := WorkoutDraft(&d); len(issues) != 0 {
		t.Fatalf("re-validation rejected accepted payload: %v", issues)
	}
	second, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("normalization not stable:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestWorkoutDraftNegativeDropsetStage(t *testing.T) {
	var d models.WorkoutDraft
	raw := `{"title":"Brust","exercises":[{"name":"Butterfly","sets":[{"weight_kg":[20,-15,10]}]}]}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	issues := WorkoutDraft(&d)
	if len(issues) != 1 || issues[0].Path != "exercises.0.sets.0.weight_kg.1" {
		t.Errorf("issues = %v, want one at exercises.0.sets.0.weight_kg.1", issues)
	}
}

func TestUpdatePartial(t *testing.T) {
	title := "Rücken"
	u := &WorkoutUpdate{Title: &title}
	if issues := Update(u); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	empty := ""
	u = &WorkoutUpdate{Title: &empty}
	if issues := Update(u); len(issues) != 1 || issues[0].Path != "title" {
		t.Errorf("issues = %v, want title issue", issues)
	}

	bad := "not-a-date"
	u = &WorkoutUpdate{Date: &bad}
	if issues := Update(u); len(issues) != 1 || issues[0].Path != "date" {
		t.Errorf("issues = %v, want date issue", issues)
	}
}

func TestParseRequest(t *testing.T) {
	long := strings.Repeat("x", MaxMessageLen+1)
	many := make([]string, MaxMessages+1)
	for i := range many {
		many[i] = "ok"
	}

	tests := []struct {
		name     string
		messages []string
		wantPath string
	}{
		{"empty array", nil, "messages"},
		{"too many", many, "messages"},
		{"empty entry", []string{"heute brust", ""}, "messages.1"},
		{"entry too long", []string{long}, "messages.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := ParseRequest(tt.messages)
			if len(issues) == 0 {
				t.Fatal("expected issues")
			}
			if issues[0].Path != tt.wantPath {
				t.Errorf("path = %q, want %q", issues[0].Path, tt.wantPath)
			}
		})
	}

	if issues := ParseRequest([]string{"heute brust", "bankdrücken 5x5 40kg"}); len(issues) != 0 {
		t.Errorf("valid request rejected: %v", issues)
	}
}

func TestPlan(t *testing.T) {
	p := &models.TrainingPlan{
		Name:         "Push Day",
		WorkoutTitle: "Brust",
		Sections: []models.PlanSection{
			{Name: "Main", Exercises: []models.PlanExercise{{Name: "Bankdrücken", SetsReps: "5x5"}}},
		},
	}
	if issues := Plan(p); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	p = &models.TrainingPlan{
		Sections: []models.PlanSection{{Exercises: []models.PlanExercise{{}}}},
	}
	issues := Plan(p)
	wantPaths := map[string]bool{
		"name":                            true,
		"workoutTitle":                    true,
		"sections.0.name":                 true,
		"sections.0.exercises.0.name":     true,
		"sections.0.exercises.0.setsReps": true,
	}
	if len(issues) != len(wantPaths) {
		t.Fatalf("got %d issues, want %d: %v", len(issues), len(wantPaths), issues)
	}
	for _, i := range issues {
		if !wantPaths[i.Path] {
			t.Errorf("unexpected issue path %q", i.Path)
		}
	}
}

func TestSettings(t *testing.T) {
	s := &models.Settings{WeightUnit: "lbs", DistanceUnit: "mi", Language: "de"}
	if issues := Settings(s); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	s = &models.Settings{WeightUnit: "stone"}
	if issues := Settings(s); len(issues) != 1 || issues[0].Path != "weightUnit" {
		t.Errorf("issues = %v, want weightUnit issue", issues)
	}
}
