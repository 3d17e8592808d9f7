package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/perscribe/persona-backend/internal/guardrail"
	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// AssemblerService builds the disclosure-safe memory context handed to a
// conversation runtime. Assembly is read-only; it never mutates persona
// state.
type AssemblerService struct {
	store      store.Store
	maxEntries int
	log        zerolog.Logger
}

// NewAssemblerService returns an assembler whose contexts are capped at
// maxEntries when the request does not set its own limit; a non-positive
// maxEntries falls back to DefaultMaxEntries.
func NewAssemblerService(s store.Store, maxEntries int, log zerolog.Logger) *AssemblerService {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &AssemblerService{store: s, maxEntries: maxEntries, log: log}
}

// AssembleRequest identifies the persona being talked to, who is asking, and
// how deep the conversation already is. MaxEntries of 0 applies the
// service-wide cap. Relationship, when set, is taken as already verified by
// the caller; when empty it is resolved from the connections store.
type AssembleRequest struct {
	PersonaID        string
	RequesterUserID  string
	Relationship     model.Relationship
	InteractionDepth int
	MaxEntries       int
}

// DefaultMaxEntries caps an assembled context when the caller does not set
// its own limit.
const DefaultMaxEntries = 50

// AssembledContext is what the runtime receives. Denied entries are omitted
// without any marker. Omitted counts them for callers inside this process;
// it is never serialized, since even an aggregate count would tell a
// requester that filtered content exists.
type AssembledContext struct {
	PersonaID    string              `json:"personaId"`
	PersonaName  string              `json:"personaName"`
	Description  *string             `json:"description,omitempty"`
	Relationship model.Relationship  `json:"relationship"`
	Entries      []*model.TraitEntry `json:"entries"`
	Omitted      int                 `json:"-"`
}

// AssembleContext evaluates every live trait entry of the persona against the
// disclosure rules for this requester and returns the allowed ones, best
// first, up to the cap. Nothing in the result reveals that entries were
// withheld; denials surface only in the debug log.
func (s *AssemblerService) AssembleContext(ctx context.Context, req AssembleRequest) (*AssembledContext, error) {
	if req.PersonaID == "" {
		return nil, model.NewValidationError("personaId", "must not be empty")
	}
	if req.RequesterUserID == "" {
		return nil, model.NewValidationError("requesterUserId", "must not be empty")
	}
	p, err := s.store.Personas().Get(ctx, req.PersonaID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("persona", req.PersonaID)
		}
		return nil, err
	}

	rel := req.Relationship
	if rel == "" {
		rel = s.relationship(ctx, req.RequesterUserID, req.PersonaID)
	} else if !validRelationship(rel) {
		return nil, model.NewValidationError("relationship", fmt.Sprintf("unknown relationship %q", rel))
	}

	entries, err := s.store.Traits().List(ctx, model.ListTraitsRequest{PersonaID: req.PersonaID})
	if err != nil {
		return nil, err
	}

	limit := req.MaxEntries
	if limit <= 0 {
		limit = s.maxEntries
	}

	out := &AssembledContext{
		PersonaID:    p.PersonaID,
		PersonaName:  p.Name,
		Description:  p.Description,
		Relationship: rel,
		Entries:      []*model.TraitEntry{},
	}
	for _, e := range entries {
		d := guardrail.Evaluate(guardrail.Request{
			RequesterUserID:  req.RequesterUserID,
			Persona:          p,
			Entry:            e,
			Relationship:     rel,
			InteractionDepth: req.InteractionDepth,
		})
		if !d.Allowed {
			out.Omitted++
			s.log.Debug().
				Str("persona_id", p.PersonaID).
				Str("entry_id", e.EntryID).
				Str("rule", d.Rule).
				Str("reason", d.Reason).
				Msg("entry withheld from context")
			continue
		}
		if len(out.Entries) < limit {
			out.Entries = append(out.Entries, e)
		}
	}
	return out, nil
}

// relationship resolves the requester's connection to the persona. A missing
// connection row means no relationship; a lookup failure degrades the same
// way rather than failing assembly.
func (s *AssemblerService) relationship(ctx context.Context, requesterUserID, personaID string) model.Relationship {
	c, err := s.store.Connections().Get(ctx, requesterUserID, personaID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.log.Warn().Err(err).Str("persona_id", personaID).Msg("connection lookup failed")
		}
		return model.RelationNone
	}
	return c.Relationship
}
