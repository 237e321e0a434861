package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/homehq/internal/apperr"
	"github.com/dukerupert/homehq/internal/auth"
	"github.com/dukerupert/homehq/internal/model"
	"github.com/dukerupert/homehq/internal/store"
	ws "github.com/dukerupert/homehq/internal/websocket"
)

type TaskHandler struct {
	taskStore *store.TaskStore
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, hub *ws.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, hub: hub, logger: logger}
}

type taskRequest struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	DueDate           *string `json:"due_date"`
	IsPrivate         bool    `json:"is_private"`
	AssignedProfileID *int64  `json:"assigned_profile_id"`
	AssignedMemberID  *int64  `json:"assigned_member_id"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		t, err := parseFlexibleTime(*req.DueDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "due_date must be RFC3339 or YYYY-MM-DD format"})
			return
		}
		dueDate = &t
	}

	ac, _ := auth.FromContext(r.Context())
	task, err := h.taskStore.Create(ac.FamilyID, ac.ProfileID, req.Title, req.Description,
		dueDate, req.IsPrivate, req.AssignedProfileID, req.AssignedMemberID)
	if err != nil {
		h.logger.Error("create task", "family_id", ac.FamilyID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	tasks, err := h.taskStore.List(ac.FamilyID, ac.ProfileID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	task, err := h.taskStore.Complete(ac.FamilyID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("task", "completed", task.ID, nil))
	writeJSON(w, http.StatusOK, task)
}

// Delete archives the task. The same zero-row disambiguation as events:
// missing and archived rows are NOT_FOUND, someone else's row is FORBIDDEN.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	rows, err := h.taskStore.Archive(ac.FamilyID, id, ac.ProfileID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to archive task"})
		return
	}
	if rows == 0 {
		current, err := h.taskStore.GetAnyByID(ac.FamilyID, id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to archive task"})
			return
		}
		if current == nil || current.ArchivedAt != nil {
			writeError(w, apperr.New(apperr.CodeNotFound, "task not found"))
			return
		}
		writeError(w, apperr.New(apperr.CodeForbidden, "only the creator may modify this task"))
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("task", "archived", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
