package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perscribe/persona-backend/internal/extractor"
	"github.com/perscribe/persona-backend/internal/services"
	"github.com/perscribe/persona-backend/internal/store/sqlite"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	st := sqlite.NewWithDB(db)

	log := zerolog.Nop()
	root := mux.NewRouter()
	root.Use(Recover)

	user := NewUserHandler(services.NewUserService(st))
	root.HandleFunc("/api/users", user.CreateUser).Methods("POST")
	root.HandleFunc("/api/users/{userId}", user.GetUser).Methods("GET")

	persona := NewPersonaHandler(services.NewPersonaService(st))
	root.HandleFunc("/api/users/{userId}/personas", persona.CreatePersona).Methods("POST")
	root.HandleFunc("/api/users/{userId}/personas", persona.ListPersonas).Methods("GET")
	root.HandleFunc("/api/users/{userId}/personas/{personaId}", persona.UpdatePersona).Methods("PATCH")
	root.HandleFunc("/api/users/{userId}/personas/{personaId}", persona.DeletePersona).Methods("DELETE")
	root.HandleFunc("/api/personas/{personaId}", persona.GetPersona).Methods("GET")

	interview := NewInterviewHandler(services.NewInterviewService(st, extractor.Noop{}, 0.5, log))
	root.HandleFunc("/api/personas/{personaId}/interviews", interview.StartInterview).Methods("POST")
	root.HandleFunc("/api/interviews/{interviewId}", interview.GetInterview).Methods("GET")
	root.HandleFunc("/api/interviews/{interviewId}/answers", interview.AnswerQuestion).Methods("POST")

	contextHandler := NewContextHandler(services.NewAssemblerService(st, 0, log), services.NewConnectionService(st))
	root.HandleFunc("/api/personas/{personaId}/context", contextHandler.AssembleContext).Methods("POST")
	root.HandleFunc("/api/personas/{personaId}/connections/{requesterUserId}", contextHandler.UpsertConnection).Methods("PUT")

	return root
}

func do(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}

func createUser(t *testing.T, router *mux.Router, email string) (userID, mainPersonaID string) {
	t.Helper()
	rr := do(t, router, http.MethodPost, "/api/users", map[string]interface{}{"email": email})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decode(t, rr)
	user := body["user"].(map[string]interface{})
	main := body["mainPersona"].(map[string]interface{})
	return user["userId"].(string), main["personaId"].(string)
}

func TestAPI_UserRegistration(t *testing.T) {
	router := newTestRouter(t)

	userID, mainID := createUser(t, router, "ada@example.com")
	require.NotEmpty(t, userID)
	require.NotEmpty(t, mainID)

	rr := do(t, router, http.MethodGet, "/api/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/users/nobody", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/users", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, rr.Code, "missing email")
}

func TestAPI_PersonaStatusMapping(t *testing.T) {
	router := newTestRouter(t)
	userID, mainID := createUser(t, router, "ada@example.com")

	// Second main persona: 409.
	rr := do(t, router, http.MethodPost, "/api/users/"+userID+"/personas", map[string]interface{}{
		"kind": "main", "name": "Second", "privacyLevel": "private",
	})
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	// A child narrower than the all-permissive main is accepted.
	rr = do(t, router, http.MethodPost, "/api/users/"+userID+"/personas", map[string]interface{}{
		"kind": "child", "name": "Wide", "privacyLevel": "friends",
		"parentPersonaId": mainID,
		"guardRails":      map[string]interface{}{"maxInteractionDepth": 0},
		"contentFilter":   map[string]interface{}{"allowSecrets": true},
	})
	require.Equal(t, http.StatusCreated, rr.Code, "main allows everything, so this is not an escalation")
	childID := decode(t, rr)["personaId"].(string)

	// Deriving from a child: 422.
	rr = do(t, router, http.MethodPost, "/api/users/"+userID+"/personas", map[string]interface{}{
		"kind": "child", "name": "Grandchild", "privacyLevel": "private",
		"parentPersonaId": childID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	// Changing the main persona's privacy: 403.
	rr = do(t, router, http.MethodPatch, "/api/users/"+userID+"/personas/"+mainID, map[string]interface{}{
		"privacyLevel": "public",
	})
	require.Equal(t, http.StatusForbidden, rr.Code, rr.Body.String())

	// Deleting the main persona: 403.
	rr = do(t, router, http.MethodDelete, "/api/users/"+userID+"/personas/"+mainID, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	// Deleting the child: 204, then 404 on lookup.
	rr = do(t, router, http.MethodDelete, "/api/users/"+userID+"/personas/"+childID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, router, http.MethodGet, "/api/personas/"+childID, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_InterviewFlow(t *testing.T) {
	router := newTestRouter(t)
	_, mainID := createUser(t, router, "ada@example.com")

	rr := do(t, router, http.MethodPost, fmt.Sprintf("/api/personas/%s/interviews", mainID),
		map[string]interface{}{"sessionType": "initial"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	interviewID := decode(t, rr)["interviewId"].(string)

	// Starting another while one is open: 409.
	rr = do(t, router, http.MethodPost, fmt.Sprintf("/api/personas/%s/interviews", mainID),
		map[string]interface{}{"sessionType": "topical"})
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/interviews/"+interviewID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	q := body["currentQuestion"].(map[string]interface{})
	questionID := q["questionId"].(string)

	rr = do(t, router, http.MethodPost, fmt.Sprintf("/api/interviews/%s/answers", interviewID),
		map[string]interface{}{"questionId": questionID, "answerText": "Hello, this is me."})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Out-of-order answer: 409.
	rr = do(t, router, http.MethodPost, fmt.Sprintf("/api/interviews/%s/answers", interviewID),
		map[string]interface{}{"questionId": "initial-4", "answerText": "skipping ahead"})
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
}

func TestAPI_ContextAssembly(t *testing.T) {
	router := newTestRouter(t)
	userID, mainID := createUser(t, router, "ada@example.com")

	// The owner of a private main persona can assemble their own context.
	rr := do(t, router, http.MethodPost, fmt.Sprintf("/api/personas/%s/context", mainID),
		map[string]interface{}{"requesterUserId": userID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// A stranger gets an empty context, not an error, and nothing in the
	// payload hints at how much was withheld.
	rr = do(t, router, http.MethodPost, fmt.Sprintf("/api/personas/%s/context", mainID),
		map[string]interface{}{"requesterUserId": "stranger"})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	require.Empty(t, body["entries"])
	require.NotContains(t, body, "omitted")

	// Relationship upsert validates the relationship value.
	rr = do(t, router, http.MethodPut, fmt.Sprintf("/api/personas/%s/connections/stranger", mainID),
		map[string]interface{}{"relationship": "bestie"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPut, fmt.Sprintf("/api/personas/%s/connections/stranger", mainID),
		map[string]interface{}{"relationship": "friend"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
