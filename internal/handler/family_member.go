package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/homehq/internal/auth"
	"github.com/dukerupert/homehq/internal/model"
	"github.com/dukerupert/homehq/internal/store"
	ws "github.com/dukerupert/homehq/internal/websocket"
)

type FamilyMemberHandler struct {
	memberStore *store.FamilyMemberStore
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewFamilyMemberHandler(ms *store.FamilyMemberStore, hub *ws.Hub, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{memberStore: ms, hub: hub, logger: logger}
}

type familyMemberRequest struct {
	Name      string `json:"name"`
	IsAdult   bool   `json:"is_adult"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	member, err := h.memberStore.Create(ac.FamilyID, req.Name, req.IsAdult, req.Color)
	if err != nil {
		h.logger.Error("create family member", "family_id", ac.FamilyID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create family member"})
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("family_member", "created", member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	members, err := h.memberStore.ListByFamily(ac.FamilyID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list family members"})
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req familyMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	existing, err := h.memberStore.GetByID(ac.FamilyID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load family member"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "family member not found"})
		return
	}

	member, err := h.memberStore.Update(ac.FamilyID, id, req.Name, req.IsAdult, req.Color, req.SortOrder)
	if err != nil {
		h.logger.Error("update family member", "family_id", ac.FamilyID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update family member"})
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("family_member", "updated", member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if err := h.memberStore.Delete(ac.FamilyID, id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete family member"})
		return
	}

	h.hub.Broadcast(ac.FamilyID, ws.NewMessage("family_member", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
