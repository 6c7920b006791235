package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/gains/internal/auth"
	"github.com/claude/gains/internal/mcp"
	"github.com/claude/gains/internal/parse"
	"github.com/claude/gains/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db         *storage.DB
	verifier   auth.Verifier
	local      *auth.Local // nil unless the local provider is active
	pipeline   *parse.Pipeline
	corsOrigin string
	log        *slog.Logger
	router     chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, verifier auth.Verifier, local *auth.Local, pipeline *parse.Pipeline, corsOrigin string, log *slog.Logger) *Server {
	s := &Server{
		db:         db,
		verifier:   verifier,
		local:      local,
		pipeline:   pipeline,
		corsOrigin: corsOrigin,
		log:        log,
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS(s.corsOrigin))

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/auth/config", s.handleAuthConfig)

	// Credential endpoints are limited per IP: the caller has no identity yet.
	s.router.Group(func(r chi.Router) {
		r.Use(httprate.Limit(5, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited)))
		r.Post("/api/auth/register", s.handleRegister)
		r.Post("/api/auth/login", s.handleLogin)
	})
	s.router.Post("/api/auth/refresh", s.handleRefresh)

	s.router.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(httprate.Limit(100, 15*time.Minute,
			httprate.WithKeyFuncs(rateKey),
			httprate.WithLimitHandler(rateLimited)))

		r.Route("/api/workouts", func(r chi.Router) {
			r.Get("/", s.handleListWorkouts)
			r.Post("/", s.handleCreateWorkout)
			// The model-backed endpoint gets its own tighter budget.
			r.With(httprate.Limit(10, time.Minute,
				httprate.WithKeyFuncs(rateKey),
				httprate.WithLimitHandler(rateLimited))).
				Post("/parse", s.handleParseWorkout)
			r.Get("/titles", s.handleWorkoutTitles)
			r.Get("/latest", s.handleLatestWorkout)
			r.Get("/{id}", s.handleGetWorkout)
			r.Put("/{id}", s.handleUpdateWorkout)
			r.Delete("/{id}", s.handleDeleteWorkout)
		})

		r.Get("/api/exercises", s.handleExerciseNames)
		r.Post("/api/exercises/merge", s.handleMergeExercises)

		r.Route("/api/stats", func(r chi.Router) {
			r.Get("/streak", s.handleStreak)
			r.Get("/weekly", s.handleWeeklyStats)
			r.Get("/volume", s.handleVolumeStats)
			r.Get("/top-exercises", s.handleTopExercises)
			r.Get("/overview", s.handleOverview)
			r.Get("/history", s.handleHistory)
		})
		r.Get("/api/progress", s.handleProgress)

		r.Route("/api/plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Post("/", s.handleCreatePlan)
			r.Get("/{id}", s.handleGetPlan)
			r.Put("/{id}", s.handleUpdatePlan)
			r.Delete("/{id}", s.handleDeletePlan)
		})

		r.Get("/api/settings", s.handleGetSettings)
		r.Put("/api/settings", s.handleUpdateSettings)
		r.Get("/api/user/profile", s.handleProfile)
	})
}

// MountMCP attaches the MCP endpoint behind authentication, forwarding the
// verified subject into the tool handlers' context.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Handle("/mcp", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := identityFrom(req.Context())
			h.ServeHTTP(w, req.WithContext(mcp.WithUserID(req.Context(), id.Subject)))
		}))
	})
}
