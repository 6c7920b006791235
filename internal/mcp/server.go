// Package mcp exposes the workout data over the Model Context Protocol so
// assistants can query training history through the same storage layer as the
// REST API. The transport layer injects the verified user subject into the
// request context.
package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/gains/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user subject injected by the transport
// layer; empty when no authenticated user is attached.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID returns a context carrying the given user subject.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds *storage.DB, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Gains", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Gains fitness tracking server. Query workouts, exercise names, statistics, and per-exercise progression. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolListExerciseNames, Handler: h.listExerciseNames},
		server.ServerTool{Tool: toolGetStatsOverview, Handler: h.getStatsOverview},
		server.ServerTool{Tool: toolGetProgression, Handler: h.getProgression},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  *storage.DB
	log *slog.Logger
}

var resRecentWorkouts = mcp.NewResource(
	"gains://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
