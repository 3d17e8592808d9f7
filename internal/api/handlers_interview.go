package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/perscribe/persona-backend/internal/api/respond"
	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/services"
)

// InterviewHandler is a thin HTTP transport over InterviewService.
type InterviewHandler struct {
	svc *services.InterviewService
}

func NewInterviewHandler(svc *services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

// StartInterview POST /api/personas/{personaId}/interviews
func (h *InterviewHandler) StartInterview(w http.ResponseWriter, r *http.Request) {
	personaID := mux.Vars(r)["personaId"]
	var in struct {
		SessionType model.SessionType `json:"sessionType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	iv, err := h.svc.StartInterview(r.Context(), personaID, in.SessionType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, iv)
}

// GetInterview GET /api/interviews/{interviewId}
// The body carries the interview plus the question it is waiting on, if any.
func (h *InterviewHandler) GetInterview(w http.ResponseWriter, r *http.Request) {
	interviewID := mux.Vars(r)["interviewId"]
	iv, err := h.svc.GetInterview(r.Context(), interviewID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	q, err := h.svc.CurrentQuestion(r.Context(), interviewID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"interview":       iv,
		"currentQuestion": q,
	})
}

// ListInterviews GET /api/personas/{personaId}/interviews
func (h *InterviewHandler) ListInterviews(w http.ResponseWriter, r *http.Request) {
	ivs, err := h.svc.ListInterviews(r.Context(), mux.Vars(r)["personaId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"interviews": ivs, "count": len(ivs)})
}

// ListQuestions GET /api/questions/{sessionType}
func (h *InterviewHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.ListQuestions(r.Context(), model.SessionType(mux.Vars(r)["sessionType"]))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"questions": qs, "count": len(qs)})
}

// AnswerQuestion POST /api/interviews/{interviewId}/answers
func (h *InterviewHandler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	interviewID := mux.Vars(r)["interviewId"]
	var in struct {
		QuestionID string   `json:"questionId"`
		AnswerText string   `json:"answerText"`
		MediaRefs  []string `json:"mediaRefs,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	res, err := h.svc.AnswerQuestion(r.Context(), services.AnswerRequest{
		InterviewID: interviewID,
		QuestionID:  in.QuestionID,
		AnswerText:  in.AnswerText,
		MediaRefs:   in.MediaRefs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"interview":      res.Interview,
		"acceptedTraits": res.Accepted,
	})
}

// AbandonInterview POST /api/interviews/{interviewId}/abandon
func (h *InterviewHandler) AbandonInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := h.svc.AbandonInterview(r.Context(), mux.Vars(r)["interviewId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, iv)
}
