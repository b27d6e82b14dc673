package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avelar/taskboard-be/internal/auth"
	"github.com/avelar/taskboard-be/internal/services"
	ws "github.com/avelar/taskboard-be/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// TaskHandler handles HTTP requests for task management. All operations act
// on behalf of the identity the Guard resolved, never on ids from the body.
type TaskHandler struct {
	service services.TaskServiceProvider
	hub     *ws.Hub
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider, hub *ws.Hub) *TaskHandler {
	return &TaskHandler{service: service, hub: hub}
}

// List returns the authenticated user's tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	tasks, err := h.service.ListTasks(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list tasks")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// Create adds a new task for the authenticated user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	task, err := h.service.CreateTask(user.ID, payload.Title)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	h.hub.BroadcastToUser(user.ID, ws.NewMessage(ws.ActionTaskCreated, task))
	respondJSON(w, http.StatusCreated, task)
}

// SetCompleted sets a task's completion flag. The explicit boolean keeps
// retried requests idempotent.
func (h *TaskHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())
	id := chi.URLParam(r, "id")

	var payload struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Completed == nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "A completed flag is required"})
		return
	}

	task, err := h.service.SetTaskCompleted(user.ID, id, *payload.Completed)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	h.hub.BroadcastToUser(user.ID, ws.NewMessage(ws.ActionTaskUpdated, task))
	respondJSON(w, http.StatusOK, task)
}

// Delete removes a task owned by the authenticated user.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteTask(user.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}

	h.hub.BroadcastToUser(user.ID, ws.NewMessage(ws.ActionTaskDeleted, map[string]string{"id": id}))
	w.WriteHeader(http.StatusNoContent)
}
