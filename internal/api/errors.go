package api

import (
	"errors"
	"net/http"

	respond "github.com/perscribe/persona-backend/internal/api/respond"
	"github.com/perscribe/persona-backend/internal/model"
)

// writeServiceError maps domain errors onto HTTP status codes. Every handler
// funnels service failures through here so the mapping stays in one place.
//
//	validation, missing media        400
//	unknown resource                 404
//	main persona immutability        403
//	duplicate main, active interview,
//	out-of-order answer, races       409
//	hierarchy / guard-rail widening  422
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case model.IsValidationError(err) || model.IsMediaRequiredError(err):
		respond.WriteBadRequest(w, err.Error())
	case model.IsNotFoundError(err):
		respond.WriteNotFound(w, err.Error())
	case model.IsImmutablePersonaError(err):
		respond.WriteError(w, http.StatusForbidden, err.Error())
	case model.IsDuplicateMainPersonaError(err),
		model.IsInterviewInProgressError(err),
		model.IsInvalidQuestionError(err),
		errors.Is(err, model.ErrConflict):
		respond.WriteConflict(w, err.Error())
	case model.IsInvalidHierarchyError(err) || model.IsGuardRailViolationError(err):
		respond.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
