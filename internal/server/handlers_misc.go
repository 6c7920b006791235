package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/gains/internal/auth"
	"github.com/claude/gains/internal/models"
	"github.com/claude/gains/internal/storage"
	"github.com/claude/gains/internal/validate"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// --- Training plans ---

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	plans, err := s.db.QueryPlans(r.Context(), id.Subject)
	if err != nil {
		s.log.Error("listing plans failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid plan ID")
		return
	}

	plan, err := s.db.GetPlan(r.Context(), id.Subject, planID)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, r, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		s.log.Error("getting plan failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var plan models.TrainingPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if issues := validate.Plan(&plan); len(issues) > 0 {
		writeProblem(w, r, http.StatusBadRequest, issues.Error())
		return
	}

	plan.ID = uuid.New()
	plan.UserID = id.Subject
	if err := s.db.InsertPlan(r.Context(), &plan); err != nil {
		s.log.Error("creating plan failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid plan ID")
		return
	}

	var plan models.TrainingPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if issues := validate.Plan(&plan); len(issues) > 0 {
		writeProblem(w, r, http.StatusBadRequest, issues.Error())
		return
	}

	plan.ID = planID
	plan.UserID = id.Subject
	err = s.db.UpdatePlan(r.Context(), &plan)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, r, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		s.log.Error("updating plan failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid plan ID")
		return
	}

	err = s.db.DeletePlan(r.Context(), id.Subject, planID)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, r, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		s.log.Error("deleting plan failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Settings & profile ---

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	settings, err := s.db.GetSettings(r.Context(), id.Subject)
	if err != nil {
		s.log.Error("getting settings failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var incoming models.Settings
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if issues := validate.Settings(&incoming); len(issues) > 0 {
		writeProblem(w, r, http.StatusBadRequest, issues.Error())
		return
	}

	current, err := s.db.GetSettings(r.Context(), id.Subject)
	if err != nil {
		s.log.Error("getting settings failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	merged := incoming.Merge(current)
	if err := s.db.UpdateSettings(r.Context(), id.Subject, merged); err != nil {
		s.log.Error("updating settings failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, merged.Merge(models.DefaultSettings()))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	user, err := s.db.GetUser(r.Context(), id.Subject)
	if err != nil {
		s.log.Error("getting profile failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	user.Settings = user.Settings.Merge(models.DefaultSettings())
	writeJSON(w, http.StatusOK, user)
}

// --- Auth ---

func (s *Server) handleAuthConfig(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"provider": s.verifier.Provider()}
	if s.local != nil {
		resp["registrationEnabled"] = s.local.RegistrationEnabled()
	}
	writeJSON(w, http.StatusOK, resp)
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		writeProblem(w, r, http.StatusNotFound, "local authentication is not enabled")
		return
	}
	if !s.local.RegistrationEnabled() {
		writeProblem(w, r, http.StatusForbidden, "registration is disabled")
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if creds.Email == "" {
		writeProblem(w, r, http.StatusBadRequest, "email: Email is required")
		return
	}
	if len(creds.Password) < 8 {
		writeProblem(w, r, http.StatusBadRequest, "password: must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		s.log.Error("password hashing failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	user := &models.User{
		Subject:      "local_" + uuid.NewString(),
		DisplayName:  creds.DisplayName,
		Email:        creds.Email,
		PasswordHash: hash,
	}
	err = s.db.CreateLocalUser(r.Context(), user)
	if errors.Is(err, storage.ErrDuplicate) {
		writeProblem(w, r, http.StatusConflict, "an account with this email already exists")
		return
	}
	if err != nil {
		s.log.Error("creating account failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	pair, err := s.local.IssueTokens(user.Subject, user.Email, user.DisplayName)
	if err != nil {
		s.log.Error("token issuance failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		writeProblem(w, r, http.StatusNotFound, "local authentication is not enabled")
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	user, err := s.db.GetUserByEmail(r.Context(), creds.Email)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, creds.Password)) {
		writeProblem(w, r, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		s.log.Error("login lookup failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	pair, err := s.local.IssueTokens(user.Subject, user.Email, user.DisplayName)
	if err != nil {
		s.log.Error("token issuance failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		writeProblem(w, r, http.StatusNotFound, "local authentication is not enabled")
		return
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	subject, err := s.local.VerifyRefresh(req.RefreshToken)
	if err != nil {
		writeProblem(w, r, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	user, err := s.db.GetUser(r.Context(), subject)
	if err != nil {
		writeProblem(w, r, http.StatusUnauthorized, "account no longer exists")
		return
	}

	pair, err := s.local.IssueTokens(user.Subject, user.Email, user.DisplayName)
	if err != nil {
		s.log.Error("token issuance failed", "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
