package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/gains/internal/storage"
	"github.com/claude/gains/internal/validate"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List logged workouts, newest first. Each workout includes its exercises with full set data (reps, weight, duration)."),
	mcp.WithString("start", mcp.Description("Only workouts on or after this date (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Description("Only workouts on or before this date (YYYY-MM-DD)")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts to return. Defaults to 20, capped at 100.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get a single workout by ID with all exercises and sets."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID (UUID)")),
)

var toolListExerciseNames = mcp.NewTool("list_exercise_names",
	mcp.WithDescription("List the distinct exercise names the user has ever logged, sorted."),
	mcp.WithString("title", mcp.Description("Only names occurring in workouts with this title (e.g. 'Brust')")),
)

var toolGetStatsOverview = mcp.NewTool("get_stats_overview",
	mcp.WithDescription("Headline training statistics: workout counts for this week, this month, and all time, plus current and longest training-day streaks."),
)

var toolGetProgression = mcp.NewTool("get_progression",
	mcp.WithDescription("Per-day best set for one exercise: weight, reps, estimated one-rep max, and personal-record flags. Oldest first."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (case-insensitive match)")),
	mcp.WithString("since", mcp.Description("Only workouts on or after this date (YYYY-MM-DD). Defaults to all time.")),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	opts := storage.ListOptions{Page: 1, Limit: 20}
	if v := req.GetInt("limit", 20); v > 0 {
		opts.Limit = min(v, 100)
	}
	if s := req.GetString("start", ""); s != "" {
		t, err := validate.ParseDate(s)
		if err != nil {
			return mcp.NewToolResultError("invalid start date: " + s), nil
		}
		opts.DateFrom = &t
	}
	if s := req.GetString("end", ""); s != "" {
		t, err := validate.ParseDate(s)
		if err != nil {
			return mcp.NewToolResultError("invalid end date: " + s), nil
		}
		opts.DateTo = &t
	}

	workouts, total, err := h.ds.QueryWorkouts(ctx, uid, opts)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"workouts": workouts, "total": total})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid workout ID"), nil
	}

	workout, err := h.ds.GetWorkout(ctx, uid, id)
	if err == storage.ErrNotFound {
		return mcp.NewToolResultError("workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workout)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExerciseNames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	names, err := h.ds.ExerciseNames(ctx, uid, req.GetString("title", ""))
	if err != nil {
		h.log.Error("mcp list_exercise_names", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(names)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStatsOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	now := time.Now()
	overview, err := h.ds.GetOverview(ctx, uid, now)
	if err != nil {
		h.log.Error("mcp get_stats_overview", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	streak, err := h.ds.GetStreak(ctx, uid, now)
	if err != nil {
		h.log.Error("mcp get_stats_overview streak", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"overview": overview, "streak": streak})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	var since *time.Time
	if s := req.GetString("since", ""); s != "" {
		t, err := validate.ParseDate(s)
		if err != nil {
			return mcp.NewToolResultError("invalid since date: " + s), nil
		}
		since = &t
	}

	points, err := h.ds.GetProgression(ctx, uid, exercise, since)
	if err != nil {
		h.log.Error("mcp get_progression", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	start := time.Now().AddDate(0, 0, -14)

	workouts, _, err := h.ds.QueryWorkouts(ctx, uid, storage.ListOptions{
		Page: 1, Limit: 100, DateFrom: &start,
	})
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(workouts)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
