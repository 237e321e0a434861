package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/homehq/internal/auth"
	"github.com/dukerupert/homehq/internal/event"
	"github.com/dukerupert/homehq/internal/model"
	"github.com/dukerupert/homehq/internal/store"
	"github.com/dukerupert/homehq/internal/suggestion"
	ws "github.com/dukerupert/homehq/internal/websocket"
)

type EventHandler struct {
	orchestrator *event.Orchestrator
	guard        *event.Guard
	eventStore   *store.EventStore
	engine       suggestion.Engine
	hub          *ws.Hub
	logger       *slog.Logger
}

func NewEventHandler(orchestrator *event.Orchestrator, guard *event.Guard, eventStore *store.EventStore, engine suggestion.Engine, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		orchestrator: orchestrator,
		guard:        guard,
		eventStore:   eventStore,
		engine:       engine,
		hub:          hub,
		logger:       logger,
	}
}

type createEventRequest struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	StartTime             string   `json:"start_time"`
	EndTime               string   `json:"end_time"`
	IsPrivate             bool     `json:"is_private"`
	ParticipantAccountIDs []int64  `json:"participant_account_ids"`
	ParticipantMemberIDs  []int64  `json:"participant_member_ids"`
	AcceptedSuggestionIDs []string `json:"accepted_suggestion_ids"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be RFC3339 format"})
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_time must be RFC3339 format"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	result, err := h.orchestrator.Create(r.Context(), ac.FamilyID, ac.ProfileID, ac.Role, event.Draft{
		Title:                 req.Title,
		Description:           req.Description,
		StartTime:             startTime,
		EndTime:               endTime,
		IsPrivate:             req.IsPrivate,
		ParticipantAccountIDs: req.ParticipantAccountIDs,
		ParticipantMemberIDs:  req.ParticipantMemberIDs,
		AcceptedSuggestionIDs: req.AcceptedSuggestionIDs,
	})
	if err != nil {
		h.logger.Error("create event", "family_id", ac.FamilyID, "error", err)
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("event", "created", result.Event.ID, nil))
	for _, task := range result.CreatedTasks {
		h.hub.Broadcast(ac.FamilyID, ws.NewMessage("task", "created", task.ID, nil))
	}

	writeJSON(w, http.StatusCreated, result)
}

// Suggest previews the suggestions for a draft so the client can choose
// which ones to accept at creation time.
func (h *EventHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be RFC3339 format"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	suggestions, err := h.engine.Suggest(r.Context(), ac.FamilyID, suggestion.Request{
		Title:                 req.Title,
		StartTime:             startTime,
		ParticipantAccountIDs: req.ParticipantAccountIDs,
		ParticipantMemberIDs:  req.ParticipantMemberIDs,
		RequesterRole:         ac.Role,
	})
	if err != nil {
		h.logger.Warn("suggestion preview failed", "family_id", ac.FamilyID, "error", err)
		writeError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []suggestion.Suggestion{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	ev, participants, err := h.eventStore.GetWithParticipants(ac.FamilyID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load event"})
		return
	}
	// Private events read like missing ones to everyone but their creator.
	if ev == nil || (ev.IsPrivate && ev.CreatedBy != ac.ProfileID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"event": ev, "participants": participants})
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start and end query parameters are required"})
		return
	}

	start, err := parseFlexibleTime(startStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be RFC3339 or YYYY-MM-DD format"})
		return
	}
	end, err := parseFlexibleTime(endStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must be RFC3339 or YYYY-MM-DD format"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	events, err := h.eventStore.ListByDateRange(ac.FamilyID, ac.ProfileID, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list events"})
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

type updateEventRequest struct {
	Title                 *string `json:"title"`
	Description           *string `json:"description"`
	StartTime             *string `json:"start_time"`
	EndTime               *string `json:"end_time"`
	IsPrivate             *bool   `json:"is_private"`
	ParticipantAccountIDs []int64 `json:"participant_account_ids"`
	ParticipantMemberIDs  []int64 `json:"participant_member_ids"`
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	upd := event.Update{
		Title:                 req.Title,
		Description:           req.Description,
		IsPrivate:             req.IsPrivate,
		ParticipantAccountIDs: req.ParticipantAccountIDs,
		ParticipantMemberIDs:  req.ParticipantMemberIDs,
	}
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be RFC3339 format"})
			return
		}
		upd.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_time must be RFC3339 format"})
			return
		}
		upd.EndTime = &t
	}

	ac, _ := auth.FromContext(r.Context())
	ev, participants, err := h.guard.Update(ac.FamilyID, id, ac.ProfileID, upd)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("event", "updated", ev.ID, nil))
	writeJSON(w, http.StatusOK, map[string]any{"event": ev, "participants": participants})
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if err := h.guard.Archive(ac.FamilyID, id, ac.ProfileID); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("event", "archived", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
