package model

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by store drivers. Services translate them into the
// typed domain errors below before they reach a caller.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a missing persona, interview, or related resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) NotFoundError {
	return NotFoundError{Resource: resource, ID: id}
}

func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne) || errors.Is(err, ErrNotFound)
}

// DuplicateMainPersonaError reports a second Main persona creation attempt
// for the same owner.
type DuplicateMainPersonaError struct {
	OwnerUserID string
}

func (e DuplicateMainPersonaError) Error() string {
	return fmt.Sprintf("user %s already has a main persona", e.OwnerUserID)
}

func IsDuplicateMainPersonaError(err error) bool {
	var de DuplicateMainPersonaError
	return errors.As(err, &de)
}

// ImmutablePersonaError reports an update or delete against a protected Main
// persona field.
type ImmutablePersonaError struct {
	PersonaID string
	Field     string
}

func (e ImmutablePersonaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("persona %s: field %s is immutable", e.PersonaID, e.Field)
	}
	return fmt.Sprintf("persona %s is immutable", e.PersonaID)
}

func IsImmutablePersonaError(err error) bool {
	var ie ImmutablePersonaError
	return errors.As(err, &ie)
}

// InvalidHierarchyError reports an attempt to derive from a non-Main persona.
type InvalidHierarchyError struct {
	ParentPersonaID string
	ParentKind      PersonaKind
}

func (e InvalidHierarchyError) Error() string {
	return fmt.Sprintf("persona %s (kind %s) cannot be derived from; only main personas have children", e.ParentPersonaID, e.ParentKind)
}

func IsInvalidHierarchyError(err error) bool {
	var he InvalidHierarchyError
	return errors.As(err, &he)
}

// GuardRailViolationError reports a child configuration broader than its
// parent's effective disclosure scope. Field names the offending setting so
// the caller can resubmit a compliant configuration.
type GuardRailViolationError struct {
	Field   string
	Message string
}

func (e GuardRailViolationError) Error() string {
	return fmt.Sprintf("guard-rail violation on %s: %s", e.Field, e.Message)
}

func IsGuardRailViolationError(err error) bool {
	var ge GuardRailViolationError
	return errors.As(err, &ge)
}

// InterviewInProgressError reports that a persona already has an in-progress
// interview.
type InterviewInProgressError struct {
	PersonaID string
}

func (e InterviewInProgressError) Error() string {
	return fmt.Sprintf("persona %s already has an interview in progress", e.PersonaID)
}

func IsInterviewInProgressError(err error) bool {
	var ie InterviewInProgressError
	return errors.As(err, &ie)
}

// InvalidQuestionError reports an answer for a question other than the
// current one, or against an interview that is not in progress.
type InvalidQuestionError struct {
	InterviewID string
	QuestionID  string
	Message     string
}

func (e InvalidQuestionError) Error() string {
	return fmt.Sprintf("interview %s question %s: %s", e.InterviewID, e.QuestionID, e.Message)
}

func IsInvalidQuestionError(err error) bool {
	var qe InvalidQuestionError
	return errors.As(err, &qe)
}

// MediaRequiredError reports a media-expecting question answered without
// media references.
type MediaRequiredError struct {
	QuestionID string
}

func (e MediaRequiredError) Error() string {
	return fmt.Sprintf("question %s expects at least one media reference", e.QuestionID)
}

func IsMediaRequiredError(err error) bool {
	var me MediaRequiredError
	return errors.As(err, &me)
}
