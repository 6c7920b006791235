package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/gains/internal/models"
	"github.com/claude/gains/internal/parse"
	"github.com/claude/gains/internal/storage"
	"github.com/claude/gains/internal/validate"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.Error("health check db ping failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	q := r.URL.Query()

	opts := storage.ListOptions{Page: 1, Limit: defaultPageLimit}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		opts.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		opts.Limit = min(v, maxPageLimit)
	}
	if v := q.Get("dateFrom"); v != "" {
		t, err := validate.ParseDate(v)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "dateFrom: invalid date")
			return
		}
		opts.DateFrom = &t
	}
	if v := q.Get("dateTo"); v != "" {
		t, err := validate.ParseDate(v)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "dateTo: invalid date")
			return
		}
		opts.DateTo = &t
	}

	workouts, total, err := s.db.QueryWorkouts(r.Context(), id.Subject, opts)
	if err != nil {
		s.log.Error("listing workouts failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	totalPages := (total + int64(opts.Limit) - 1) / int64(opts.Limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       workouts,
		"total":      total,
		"page":       opts.Page,
		"limit":      opts.Limit,
		"totalPages": totalPages,
	})
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var draft models.WorkoutDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if issues := validate.WorkoutDraft(&draft); len(issues) > 0 {
		writeProblem(w, r, http.StatusBadRequest, issues.Error())
		return
	}

	date := time.Now().UTC()
	if draft.Date != "" {
		date, _ = validate.ParseDate(draft.Date)
	}

	workout := &models.Workout{
		ID:        uuid.New(),
		UserID:    id.Subject,
		Date:      date,
		Title:     draft.Title,
		Notes:     draft.Notes,
		Exercises: draft.Exercises,
		Duration:  draft.Duration,
	}
	if err := s.db.InsertWorkout(r.Context(), workout); err != nil {
		s.log.Error("creating workout failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid workout ID")
		return
	}

	workout, err := s.db.GetWorkout(r.Context(), id.Subject, workoutID)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, r, http.StatusNotFound, "workout not found")
		return
	}
	if err != nil {
		s.log.Error("getting workout failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid workout ID")
		return
	}

	var update validate.WorkoutUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if issues := validate.Update(&update); len(issues) > 0 {
		writeProblem(w, r, http.StatusBadRequest, issues.Error())
		return
	}

	workout, err := s.db.GetWorkout(r.Context(), id.Subject, workoutID)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, r, http.StatusNotFound, "workout not found")
		return
	}
	if err != nil {
		s.log.Error("getting workout failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if update.Title != nil {
		workout.Title = *update.Title
	}
	if update.Date != nil {
		workout.Date, _ = validate.ParseDate(*update.Date)
	}
	if update.Notes != nil {
		workout.Notes = *update.Notes
	}
	if update.Exercises != nil {
		workout.Exercises = *update.Exercises
	}
	if update.Duration != nil {
		workout.Duration = *update.Duration
	}

	if err := s.db.UpdateWorkout(r.Context(), workout); err != nil {
		s.log.Error("updating workout failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid workout ID")
		return
	}

	err = s.db.DeleteWorkout(r.Context(), id.Subject, workoutID)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, r, http.StatusNotFound, "workout not found")
		return
	}
	if err != nil {
		s.log.Error("deleting workout failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleWorkoutTitles(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	titles, err := s.db.DistinctTitles(r.Context(), id.Subject)
	if err != nil {
		s.log.Error("listing titles failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, titles)
}

func (s *Server) handleLatestWorkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	title := r.URL.Query().Get("title")
	if title == "" {
		writeProblem(w, r, http.StatusBadRequest, "title parameter required")
		return
	}

	workout, err := s.db.LatestByTitle(r.Context(), id.Subject, title)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		s.log.Error("getting latest workout failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleParseWorkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		Messages []string `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if issues := validate.ParseRequest(req.Messages); len(issues) > 0 {
		writeProblem(w, r, http.StatusBadRequest, issues.Error())
		return
	}

	draft, err := s.pipeline.Parse(r.Context(), id.Subject, req.Messages)
	if errors.Is(err, parse.ErrUpstreamInvalid) {
		writeProblem(w, r, http.StatusBadGateway, "AI returned invalid workout structure, please try again")
		return
	}
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "Failed to parse workout")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleExerciseNames(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	names, err := s.db.ExerciseNames(r.Context(), id.Subject, r.URL.Query().Get("title"))
	if err != nil {
		s.log.Error("listing exercise names failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleMergeExercises(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.From == "" || req.To == "" {
		writeProblem(w, r, http.StatusBadRequest, "from and to are required")
		return
	}

	modified, err := s.db.MergeExerciseNames(r.Context(), id.Subject, req.From, req.To)
	if err != nil {
		s.log.Error("merging exercise names failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"modified": modified})
}
