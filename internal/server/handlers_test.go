package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/gains/internal/auth"
	"github.com/claude/gains/internal/models"
	"github.com/claude/gains/internal/parse"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withIdentity(r *http.Request, subject string) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, auth.Identity{Subject: subject})
	return r.WithContext(ctx)
}

func TestWriteProblem(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/workouts/abc", nil)
	rec := httptest.NewRecorder()

	writeProblem(rec, req, http.StatusNotFound, "workout not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}

	var p Problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Type != "about:blank" || p.Title != "Not Found" || p.Status != 404 {
		t.Errorf("problem = %+v", p)
	}
	if p.Instance != "/api/workouts/abc" {
		t.Errorf("instance = %q", p.Instance)
	}
	if p.Detail != "workout not found" {
		t.Errorf("detail = %q", p.Detail)
	}
}

func TestCORSOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("configured origin", func(t *testing.T) {
		h := CORS("https://gains.example.com")(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://gains.example.com" {
			t.Errorf("allow-origin = %q, want configured origin", got)
		}
	})

	t.Run("default wildcard", func(t *testing.T) {
		h := CORS("")(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("allow-origin = %q, want *", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		h := CORS("https://gains.example.com")(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/workouts", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", rec.Code)
		}
	})
}

func TestAuthConfigLocal(t *testing.T) {
	local := auth.NewLocal([]byte("secret"), true)
	s := &Server{verifier: local, local: local, log: discardLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/config", nil)
	rec := httptest.NewRecorder()
	s.handleAuthConfig(rec, req)

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["provider"] != "local" {
		t.Errorf("provider = %v, want local", resp["provider"])
	}
	if resp["registrationEnabled"] != true {
		t.Errorf("registrationEnabled = %v, want true", resp["registrationEnabled"])
	}
}

func TestAuthenticateRejects(t *testing.T) {
	local := auth.NewLocal([]byte("secret"), false)
	s := &Server{verifier: local, log: discardLogger()}
	handler := s.authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler reached without valid token")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

type stubCompleter struct {
	reply string
	err   error
}

func (c *stubCompleter) Complete(context.Context, string) (string, error) {
	return c.reply, c.err
}

type emptyNames struct{}

func (emptyNames) ExerciseNames(context.Context, string, string) ([]string, error) {
	return nil, nil
}

type emptyPlans struct{}

func (emptyPlans) QueryPlans(context.Context, string) ([]models.TrainingPlan, error) {
	return nil, nil
}

func parseServer(c parse.Completer) *Server {
	log := discardLogger()
	return &Server{
		pipeline: parse.NewPipeline(c, emptyNames{}, emptyPlans{}, log),
		log:      log,
	}
}

func TestHandleParseWorkout(t *testing.T) {
	s := parseServer(&stubCompleter{reply: `{
		"title": "Brust",
		"date": "2026-03-14",
		"exercises": [{"name": "Bankdrücken", "sets": [{"reps": 5, "weight": 40, "unit": "kg"}]}]
	}`})

	body := strings.NewReader(`{"messages": ["heute brust", "bankdrücken 5x5 40kg"]}`)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/workouts/parse", body), "user-1")
	rec := httptest.NewRecorder()
	s.handleParseWorkout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var draft models.WorkoutDraft
	if err := json.NewDecoder(rec.Body).Decode(&draft); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if draft.Title != "Brust" || len(draft.Exercises) != 1 {
		t.Errorf("draft = %+v", draft)
	}
}

func TestHandleParseWorkoutEmptyMessages(t *testing.T) {
	s := parseServer(&stubCompleter{reply: "{}"})

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/workouts/parse",
		strings.NewReader(`{"messages": []}`)), "user-1")
	rec := httptest.NewRecorder()
	s.handleParseWorkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleParseWorkoutUpstreamInvalid(t *testing.T) {
	s := parseServer(&stubCompleter{reply: "sorry, I can't do that"})

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/workouts/parse",
		strings.NewReader(`{"messages": ["brust"]}`)), "user-1")
	rec := httptest.NewRecorder()
	s.handleParseWorkout(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleParseWorkoutUpstreamUnavailable(t *testing.T) {
	s := parseServer(&stubCompleter{err: errors.New("connection refused")})

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/workouts/parse",
		strings.NewReader(`{"messages": ["brust"]}`)), "user-1")
	rec := httptest.NewRecorder()
	s.handleParseWorkout(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleProgressValidation(t *testing.T) {
	s := &Server{log: discardLogger()}

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/progress", nil), "user-1")
	rec := httptest.NewRecorder()
	s.handleProgress(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing exercise: status = %d, want 400", rec.Code)
	}

	req = withIdentity(httptest.NewRequest(http.MethodGet, "/api/progress?exercise=Bench&period=2W", nil), "user-1")
	rec = httptest.NewRecorder()
	s.handleProgress(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad period: status = %d, want 400", rec.Code)
	}
}

func TestHandleListWorkoutsBadDate(t *testing.T) {
	s := &Server{log: discardLogger()}

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/workouts?dateFrom=tomorrow", nil), "user-1")
	rec := httptest.NewRecorder()
	s.handleListWorkouts(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRegisterDisabled(t *testing.T) {
	local := auth.NewLocal([]byte("secret"), false)
	s := &Server{verifier: local, local: local, log: discardLogger()}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email": "a@b.c", "password": "longenough"}`))
	rec := httptest.NewRecorder()
	s.handleRegister(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandleRegisterShortPassword(t *testing.T) {
	local := auth.NewLocal([]byte("secret"), true)
	s := &Server{verifier: local, local: local, log: discardLogger()}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email": "a@b.c", "password": "short"}`))
	rec := httptest.NewRecorder()
	s.handleRegister(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleLoginWithoutLocalProvider(t *testing.T) {
	s := &Server{log: discardLogger()}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "a@b.c", "password": "whatever"}`))
	rec := httptest.NewRecorder()
	s.handleLogin(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
