package importer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/claude/gains/internal/models"
	"github.com/claude/gains/internal/validate"
)

type fakeStore struct {
	inserted []*models.Workout
}

func (f *fakeStore) WorkoutExistsOnDay(_ context.Context, userID, title string, day time.Time) (bool, error) {
	for _, w := range f.inserted {
		if w.UserID == userID && w.Title == title &&
			w.Date.UTC().Format("2006-01-02") == day.UTC().Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertWorkout(_ context.Context, w *models.Workout) error {
	f.inserted = append(f.inserted, w)
	return nil
}

func ptr(v float64) *float64 { return &v }

func sampleSession() ExportSession {
	notes := "felt strong"
	return ExportSession{
		Date:  "2024-03-04",
		Type:  "push-pull",
		Notes: &notes,
		Exercises: []ExportExercise{
			{
				Name:     "Bankdrücken",
				WeightKg: ptr(60),
				Sets: []ExportSet{
					{Reps: &ExportReps{Number: 8}},
					{Reps: &ExportReps{Number: 8}, WeightKg: &models.WeightKg{Values: []float64{65}}},
				},
				RestSeconds: ptr(90),
			},
			{
				Name:       "Klimmzüge",
				Bodyweight: true,
				Sets: []ExportSet{
					{Reps: &ExportReps{Number: 15, Display: "6+5+4"}, Type: "dropset",
						WeightKg: &models.WeightKg{Values: []float64{20, 15, 10}, Multi: true}},
				},
			},
			{
				Name: "Rudermaschine",
				Sets: []ExportSet{
					{DurationMinutes: ptr(10)},
				},
			},
		},
	}
}

func TestTransformSession(t *testing.T) {
	w, err := TransformSession(sampleSession(), "user-1")
	if err != nil {
		t.Fatalf("TransformSession: %v", err)
	}

	if w.Title != "Push-Pull" {
		t.Errorf("title = %q, want %q", w.Title, "Push-Pull")
	}
	if w.Notes != "felt strong" {
		t.Errorf("notes = %q", w.Notes)
	}
	if w.Duration != 10 {
		t.Errorf("duration = %v, want 10", w.Duration)
	}

	bench := w.Exercises[0]
	if bench.Category != models.CategoryStrength {
		t.Errorf("bench category = %q, want strength", bench.Category)
	}
	// First set inherits the exercise-level weight, the second overrides it.
	if got := bench.Sets[0].Weight; got != 60 {
		t.Errorf("inherited weight = %v, want 60", got)
	}
	if got := bench.Sets[1].Weight; got != 65 {
		t.Errorf("overridden weight = %v, want 65", got)
	}

	pullups := w.Exercises[1]
	if pullups.Category != models.CategoryBodyweight {
		t.Errorf("pullups category = %q, want bodyweight", pullups.Category)
	}
	drop := pullups.Sets[0]
	if drop.Reps != 15 || drop.RepsDisplay != "6+5+4" {
		t.Errorf("dropset reps = %d/%q, want 15/6+5+4", drop.Reps, drop.RepsDisplay)
	}
	if drop.Weight != 20 {
		t.Errorf("dropset weight = %v, want 20 (max stage)", drop.Weight)
	}

	rowing := w.Exercises[2]
	if rowing.Category != models.CategoryCardio {
		t.Errorf("rowing category = %q, want cardio", rowing.Category)
	}
}

// TestTransformSessionRejectsNegativeValues checks that the import path is
// held to the same gate as the other producers: negative numbers in an export
// file must not reach storage.
func TestTransformSessionRejectsNegativeValues(t *testing.T) {
	s := ExportSession{
		Date: "2024-03-04",
		Type: "push",
		Exercises: []ExportExercise{
			{
				Name: "Bankdrücken",
				Sets: []ExportSet{
					{Reps: &ExportReps{Number: -5},
						WeightKg: &models.WeightKg{Values: []float64{-20}}},
				},
			},
		},
	}

	_, err := TransformSession(s, "user-1")
	if err == nil {
		t.Fatal("expected validation error for negative reps and weight")
	}
	var issues validate.Issues
	if !errors.As(err, &issues) {
		t.Fatalf("error = %T, want validate.Issues", err)
	}
	wantPaths := map[string]bool{
		"exercises.0.sets.0.reps":        true,
		"exercises.0.sets.0.weight":      true,
		"exercises.0.sets.0.weight_kg.0": true,
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

// TestRunFailsInvalidSession verifies Run surfaces gate violations instead of
// persisting the session.
func TestRunFailsInvalidSession(t *testing.T) {
	store := &fakeStore{}
	var out bytes.Buffer
	im := New(store, &out)
	data := &Export{Sessions: []ExportSession{{
		Date:      "2024-03-04",
		Type:      "push",
		Exercises: []ExportExercise{{Name: "Bankdrücken", Sets: []ExportSet{{Reps: &ExportReps{Number: -5}}}}},
	}}}

	if _, _, err := im.Run(context.Background(), data, "user-1", false); err == nil {
		t.Fatal("expected error for invalid session")
	}
	if len(store.inserted) != 0 {
		t.Errorf("stored %d workouts, want 0", len(store.inserted))
	}
}

func TestTransformSessionBadDate(t *testing.T) {
	s := sampleSession()
	s.Date = "sometime in march"
	if _, err := TransformSession(s, "user-1"); err == nil {
		t.Fatal("expected error for unparseable date")
	}
}

// TestImportDeduplication verifies the (user, title, day) duplicate key:
// importing the same export twice yields one import and one skip per session.
func TestImportDeduplication(t *testing.T) {
	store := &fakeStore{}
	var out bytes.Buffer
	im := New(store, &out)
	data := &Export{Sessions: []ExportSession{sampleSession()}}

	imported, skipped, err := im.Run(context.Background(), data, "user-1", false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if imported != 1 || skipped != 0 {
		t.Fatalf("first run = %d imported, %d skipped; want 1, 0", imported, skipped)
	}

	imported, skipped, err = im.Run(context.Background(), data, "user-1", false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if imported != 0 || skipped != 1 {
		t.Fatalf("second run = %d imported, %d skipped; want 0, 1", imported, skipped)
	}
	if len(store.inserted) != 1 {
		t.Errorf("stored workouts = %d, want 1", len(store.inserted))
	}
	if !strings.Contains(out.String(), "Skipped (duplicate): Push-Pull on 2024-03-04") {
		t.Errorf("missing skip report in output:\n%s", out.String())
	}
}

func TestImportDryRun(t *testing.T) {
	store := &fakeStore{}
	var out bytes.Buffer
	im := New(store, &out)
	data := &Export{Sessions: []ExportSession{sampleSession()}}

	imported, skipped, err := im.Run(context.Background(), data, "user-1", true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if imported != 1 || skipped != 0 {
		t.Fatalf("dry run = %d imported, %d skipped; want 1, 0", imported, skipped)
	}
	if len(store.inserted) != 0 {
		t.Errorf("dry run stored %d workouts, want 0", len(store.inserted))
	}
}

func TestCapitalizeType(t *testing.T) {
	tests := []struct{ in, want string }{
		{"push", "Push"},
		{"push-pull", "Push-Pull"},
		{"BEINE", "BEINE"},
		{"rücken", "Rücken"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CapitalizeType(tt.in); got != tt.want {
			t.Errorf("CapitalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
