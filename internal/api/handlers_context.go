package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/perscribe/persona-backend/internal/api/respond"
	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/services"
)

// ContextHandler serves assembled memory contexts and relationship upserts.
type ContextHandler struct {
	assembler   *services.AssemblerService
	connections *services.ConnectionService
}

func NewContextHandler(asm *services.AssemblerService, conn *services.ConnectionService) *ContextHandler {
	return &ContextHandler{assembler: asm, connections: conn}
}

// AssembleContext POST /api/personas/{personaId}/context
func (h *ContextHandler) AssembleContext(w http.ResponseWriter, r *http.Request) {
	personaID := mux.Vars(r)["personaId"]
	var in struct {
		RequesterUserID  string             `json:"requesterUserId"`
		Relationship     model.Relationship `json:"relationship,omitempty"`
		InteractionDepth int                `json:"interactionDepth"`
		MaxEntries       int                `json:"maxEntries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.assembler.AssembleContext(r.Context(), services.AssembleRequest{
		PersonaID:        personaID,
		RequesterUserID:  in.RequesterUserID,
		Relationship:     in.Relationship,
		InteractionDepth: in.InteractionDepth,
		MaxEntries:       in.MaxEntries,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpsertConnection PUT /api/personas/{personaId}/connections/{requesterUserId}
func (h *ContextHandler) UpsertConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var in struct {
		Relationship model.Relationship `json:"relationship"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	c, err := h.connections.UpsertConnection(r.Context(), &model.UserConnection{
		RequesterUserID: vars["requesterUserId"],
		TargetPersonaID: vars["personaId"],
		Relationship:    in.Relationship,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// GetConnection GET /api/personas/{personaId}/connections/{requesterUserId}
func (h *ContextHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := h.connections.GetConnection(r.Context(), vars["requesterUserId"], vars["personaId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}
