package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	respond "github.com/perscribe/persona-backend/internal/api/respond"
	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/services"
)

// PersonaHandler is a thin HTTP transport over PersonaService.
type PersonaHandler struct {
	svc *services.PersonaService
}

func NewPersonaHandler(svc *services.PersonaService) *PersonaHandler {
	return &PersonaHandler{svc: svc}
}

// CreatePersona POST /api/users/{userId}/personas
func (h *PersonaHandler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Kind            model.PersonaKind   `json:"kind"`
		ParentPersonaID *string             `json:"parentPersonaId,omitempty"`
		Name            string              `json:"name"`
		Description     *string             `json:"description,omitempty"`
		PrivacyLevel    model.PrivacyLevel  `json:"privacyLevel"`
		GuardRails      model.GuardRails    `json:"guardRails"`
		ContentFilter   model.ContentFilter `json:"contentFilter"`
		Monetization    *model.Monetization `json:"monetization,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.CreatePersona(r.Context(), services.CreatePersonaRequest{
		OwnerUserID:     userID,
		Kind:            in.Kind,
		ParentPersonaID: in.ParentPersonaID,
		Name:            in.Name,
		Description:     in.Description,
		PrivacyLevel:    in.PrivacyLevel,
		GuardRails:      in.GuardRails,
		ContentFilter:   in.ContentFilter,
		Monetization:    in.Monetization,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListPersonas GET /api/users/{userId}/personas
func (h *PersonaHandler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	ps, err := h.svc.ListPersonas(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"personas": ps, "count": len(ps)})
}

// GetPersona GET /api/personas/{personaId}
func (h *PersonaHandler) GetPersona(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPersona(r.Context(), mux.Vars(r)["personaId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// UpdatePersona PATCH /api/users/{userId}/personas/{personaId}
func (h *PersonaHandler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var patch model.PersonaPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.UpdatePersona(r.Context(), vars["userId"], vars["personaId"], patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeletePersona DELETE /api/users/{userId}/personas/{personaId}
func (h *PersonaHandler) DeletePersona(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeletePersona(r.Context(), vars["userId"], vars["personaId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTraits GET /api/personas/{personaId}/traits
func (h *PersonaHandler) ListTraits(w http.ResponseWriter, r *http.Request) {
	req := model.ListTraitsRequest{PersonaID: mux.Vars(r)["personaId"]}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		req.Limit = n
	}
	if r.URL.Query().Get("includeExpired") == "true" {
		req.IncludeExpired = true
	}
	entries, err := h.svc.ListTraits(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

// RecordInteraction POST /api/personas/{personaId}/interactions
func (h *PersonaHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RecordInteraction(r.Context(), mux.Vars(r)["personaId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
