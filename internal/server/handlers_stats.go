package server

import (
	"net/http"
	"strconv"
	"time"
)

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	streak, err := s.db.GetStreak(r.Context(), id.Subject, time.Now())
	if err != nil {
		s.log.Error("streak query failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	counts, err := s.db.GetWeeklyStats(r.Context(), id.Subject, time.Now())
	if err != nil {
		s.log.Error("weekly stats query failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleVolumeStats(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	buckets, err := s.db.GetVolumeStats(r.Context(), id.Subject, time.Now())
	if err != nil {
		s.log.Error("volume stats query failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

const (
	defaultTopExercises = 10
	maxTopExercises     = 50
)

func (s *Server) handleTopExercises(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	limit := defaultTopExercises
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxTopExercises)
	}

	top, err := s.db.GetTopExercises(r.Context(), id.Subject, limit)
	if err != nil {
		s.log.Error("top exercises query failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	overview, err := s.db.GetOverview(r.Context(), id.Subject, time.Now())
	if err != nil {
		s.log.Error("overview query failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	history, err := s.db.GetHistory(r.Context(), id.Subject)
	if err != nil {
		s.log.Error("history query failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// progressPeriods maps the period parameter to a lookback window. "All" (the
// default) means no lower bound.
var progressPeriods = map[string]time.Duration{
	"1M": 30 * 24 * time.Hour,
	"3M": 90 * 24 * time.Hour,
	"6M": 180 * 24 * time.Hour,
	"1Y": 365 * 24 * time.Hour,
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeProblem(w, r, http.StatusBadRequest, "exercise parameter required")
		return
	}

	var since *time.Time
	period := r.URL.Query().Get("period")
	if period != "" && period != "All" {
		window, ok := progressPeriods[period]
		if !ok {
			writeProblem(w, r, http.StatusBadRequest, "period must be one of 1M, 3M, 6M, 1Y, All")
			return
		}
		t := time.Now().UTC().Add(-window)
		since = &t
	}

	points, err := s.db.GetProgression(r.Context(), id.Subject, exercise, since)
	if err != nil {
		s.log.Error("progression query failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, points)
}
