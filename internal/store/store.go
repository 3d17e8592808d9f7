package store

import (
	"context"

	"github.com/perscribe/persona-backend/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
//
// Invariants carried by the data layer, not in-process locking:
// at most one main persona per owner, and at most one in-progress interview
// per persona. Drivers surface constraint races as model.ErrConflict.
type Store interface {
	Users() Users
	Personas() Personas
	Traits() Traits
	Questions() Questions
	Interviews() Interviews
	Responses() Responses
	Connections() Connections
}

type Users interface {
	// CreateWithMainPersona inserts the user row and its main persona in one
	// transaction so a user never exists without a main persona.
	CreateWithMainPersona(ctx context.Context, u *model.User, main *model.Persona) (*model.User, *model.Persona, error)
	Get(ctx context.Context, userID string) (*model.User, error)
}

type Personas interface {
	// CreateWithSnapshot inserts the persona and its inherited trait snapshot
	// in one transaction. The snapshot may be empty (main personas).
	CreateWithSnapshot(ctx context.Context, p *model.Persona, snapshot []*model.TraitEntry) (*model.Persona, error)
	Get(ctx context.Context, personaID string) (*model.Persona, error)
	List(ctx context.Context, ownerUserID string) ([]*model.Persona, error)
	// Update replaces the mutable columns of an existing persona row.
	Update(ctx context.Context, p *model.Persona) (*model.Persona, error)
	// Delete removes the persona, cascading trait entries and not-yet-completed
	// interviews; completed interviews are kept with the persona reference
	// nulled for audit. Runs in one transaction.
	Delete(ctx context.Context, personaID string) error
	RecordInteraction(ctx context.Context, personaID string) error
}

type Traits interface {
	Create(ctx context.Context, e *model.TraitEntry) (*model.TraitEntry, error)
	// List returns entries ordered by confidence DESC, creation time DESC.
	List(ctx context.Context, req model.ListTraitsRequest) ([]*model.TraitEntry, error)
	GetByID(ctx context.Context, personaID, entryID string) (*model.TraitEntry, error)
}

type Questions interface {
	Put(ctx context.Context, q *model.InterviewQuestion) (*model.InterviewQuestion, error)
	// ListBySession returns the ordered question bank for a session type.
	ListBySession(ctx context.Context, st model.SessionType) ([]*model.InterviewQuestion, error)
}

// RecordAnswerRequest is the atomic unit of work for answering a question:
// upsert the response, drop trait entries previously derived from the same
// question, insert the newly accepted entries, and persist the interview's
// advanced cursor/status. Drivers execute it in a single transaction.
type RecordAnswerRequest struct {
	Interview *model.Interview
	Response  *model.InterviewResponse
	Traits    []*model.TraitEntry
}

type Interviews interface {
	Create(ctx context.Context, iv *model.Interview) (*model.Interview, error)
	Get(ctx context.Context, interviewID string) (*model.Interview, error)
	ListByPersona(ctx context.Context, personaID string) ([]*model.Interview, error)
	// UpdateStatus persists a status transition (completed, abandoned).
	UpdateStatus(ctx context.Context, iv *model.Interview) error
	RecordAnswer(ctx context.Context, req RecordAnswerRequest) error
}

type Responses interface {
	Get(ctx context.Context, interviewID, questionID string) (*model.InterviewResponse, error)
	ListByInterview(ctx context.Context, interviewID string) ([]*model.InterviewResponse, error)
}

type Connections interface {
	Upsert(ctx context.Context, c *model.UserConnection) (*model.UserConnection, error)
	Get(ctx context.Context, requesterUserID, targetPersonaID string) (*model.UserConnection, error)
}
