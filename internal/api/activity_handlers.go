package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joetm/ckanext-feeds/internal/auth"
	"github.com/joetm/ckanext-feeds/internal/database"
	"github.com/joetm/ckanext-feeds/internal/models"
)

// ActivityHandlers serves the JSON activity endpoints: the plain dashboard
// view and the activity recording endpoint the platform writes through.
type ActivityHandlers struct {
	repo   *database.ActivityRepository
	logger *slog.Logger
}

// NewActivityHandlers creates the activity endpoint handlers.
func NewActivityHandlers(repo *database.ActivityRepository, logger *slog.Logger) *ActivityHandlers {
	return &ActivityHandlers{
		repo:   repo,
		logger: logger,
	}
}

// DashboardPage handles the dashboard view when no feed format is requested:
// the user's activity stream as JSON.
func (h *ActivityHandlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "You must be logged in to access your dashboard", http.StatusUnauthorized)
		return
	}

	params := r.URL.Query()

	limit := 100
	if raw := params.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if raw := params.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	activities, err := h.repo.DashboardActivityList(r.Context(), userID, offset, limit,
		boolParam(params.Get("is_new")), params.Get("q"))
	if err != nil {
		h.logger.Error("failed to list dashboard activities", "user_id", userID, "error", err)
		http.Error(w, "Failed to retrieve activities", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"activities": activities,
		"count":      len(activities),
	})
}

// recordActivityRequest is the payload for recording one activity with its
// optional detail records.
type recordActivityRequest struct {
	Activity models.Activity         `json:"activity"`
	Details  []models.ActivityDetail `json:"details,omitempty"`
}

// RecordActivity handles POST /api/activities.
func (h *ActivityHandlers) RecordActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req recordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Activity.ActivityType == "" || req.Activity.UserID == "" || req.Activity.ObjectID == "" {
		http.Error(w, "activity_type, user_id and object_id are required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Record(r.Context(), &req.Activity, req.Details); err != nil {
		h.logger.Error("failed to record activity", "activity_type", req.Activity.ActivityType, "error", err)
		http.Error(w, "Failed to record activity", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      req.Activity.ID,
		"details": len(req.Details),
	})
}
