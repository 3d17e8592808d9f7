package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// PersonaService manages the persona hierarchy: one immutable main persona
// per owner, with derived personas that may only narrow what the parent
// discloses.
type PersonaService struct {
	store store.Store
}

func NewPersonaService(s store.Store) *PersonaService { return &PersonaService{store: s} }

// CreatePersonaRequest carries the configuration of a new persona. For
// derived kinds ParentPersonaID must name the owner's main persona.
type CreatePersonaRequest struct {
	OwnerUserID     string
	Kind            model.PersonaKind
	ParentPersonaID *string
	Name            string
	Description     *string
	PrivacyLevel    model.PrivacyLevel
	GuardRails      model.GuardRails
	ContentFilter   model.ContentFilter
	Monetization    *model.Monetization
}

// CreatePersona creates a main or derived persona. Derived personas receive a
// point-in-time snapshot of the parent's trait entries, filtered through the
// child's own content filter; later parent learning does not flow down.
func (s *PersonaService) CreatePersona(ctx context.Context, req CreatePersonaRequest) (*model.Persona, error) {
	if req.OwnerUserID == "" {
		return nil, model.NewValidationError("ownerUserId", "must not be empty")
	}
	if req.Name == "" {
		return nil, model.NewValidationError("name", "must not be empty")
	}
	if !req.Kind.Valid() {
		return nil, model.NewValidationError("kind", fmt.Sprintf("unknown persona kind %q", req.Kind))
	}
	if !req.PrivacyLevel.Valid() {
		return nil, model.NewValidationError("privacyLevel", fmt.Sprintf("unknown privacy level %q", req.PrivacyLevel))
	}
	if req.GuardRails.MaxInteractionDepth < 0 {
		return nil, model.NewValidationError("guardRails.maxInteractionDepth", "must not be negative")
	}

	p := &model.Persona{
		OwnerUserID:   req.OwnerUserID,
		Kind:          req.Kind,
		Name:          req.Name,
		Description:   req.Description,
		PrivacyLevel:  req.PrivacyLevel,
		GuardRails:    req.GuardRails,
		ContentFilter: req.ContentFilter,
		Monetization:  req.Monetization,
	}

	if req.Kind == model.KindMain {
		if req.ParentPersonaID != nil {
			return nil, model.NewValidationError("parentPersonaId", "main personas have no parent")
		}
		created, err := s.store.Personas().CreateWithSnapshot(ctx, p, nil)
		if errors.Is(err, model.ErrConflict) {
			return nil, model.DuplicateMainPersonaError{OwnerUserID: req.OwnerUserID}
		}
		return created, err
	}

	if req.ParentPersonaID == nil || *req.ParentPersonaID == "" {
		return nil, model.NewValidationError("parentPersonaId", "required for derived personas")
	}
	parent, err := s.store.Personas().Get(ctx, *req.ParentPersonaID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("persona", *req.ParentPersonaID)
		}
		return nil, err
	}
	if parent.OwnerUserID != req.OwnerUserID {
		return nil, model.NewNotFoundError("persona", *req.ParentPersonaID)
	}
	if parent.Kind != model.KindMain {
		return nil, model.InvalidHierarchyError{ParentPersonaID: parent.PersonaID, ParentKind: parent.Kind}
	}
	if err := validateNoEscalation(parent, p); err != nil {
		return nil, err
	}
	p.ParentPersonaID = &parent.PersonaID

	snapshot, err := s.buildSnapshot(ctx, parent, p)
	if err != nil {
		return nil, err
	}
	return s.store.Personas().CreateWithSnapshot(ctx, p, snapshot)
}

// buildSnapshot copies the parent's live trait entries that the child's
// content filter would permit disclosing. Expired entries and, when the child
// disallows media, media-bearing entries are skipped.
func (s *PersonaService) buildSnapshot(ctx context.Context, parent, child *model.Persona) ([]*model.TraitEntry, error) {
	entries, err := s.store.Traits().List(ctx, model.ListTraitsRequest{PersonaID: parent.PersonaID})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var out []*model.TraitEntry
	for _, e := range entries {
		if e.Expired(now) {
			continue
		}
		if !child.ContentFilter.AllowsSensitivity(e.Sensitivity) {
			continue
		}
		if e.HasMedia() && !child.ContentFilter.AllowMedia {
			continue
		}
		src := e.EntryID
		out = append(out, &model.TraitEntry{
			Sensitivity:   e.Sensitivity,
			Topic:         e.Topic,
			Content:       e.Content,
			Confidence:    e.Confidence,
			MediaRefs:     e.MediaRefs,
			InheritedFrom: &src,
			ExpiresAt:     e.ExpiresAt,
		})
	}
	return out, nil
}

// validateNoEscalation rejects a child configuration that would disclose more
// than its parent: the child may relax nothing the parent restricts.
func validateNoEscalation(parent, child *model.Persona) error {
	pf, cf := parent.ContentFilter, child.ContentFilter
	if cf.AllowExplicit && !pf.AllowExplicit {
		return model.GuardRailViolationError{Field: "contentFilter.allowExplicit", Message: "parent disallows explicit content"}
	}
	if cf.AllowPersonalInfo && !pf.AllowPersonalInfo {
		return model.GuardRailViolationError{Field: "contentFilter.allowPersonalInfo", Message: "parent disallows personal info"}
	}
	if cf.AllowSecrets && !pf.AllowSecrets {
		return model.GuardRailViolationError{Field: "contentFilter.allowSecrets", Message: "parent disallows secrets"}
	}
	if cf.AllowMedia && !pf.AllowMedia {
		return model.GuardRailViolationError{Field: "contentFilter.allowMedia", Message: "parent disallows media"}
	}

	pg, cg := parent.GuardRails, child.GuardRails
	for _, u := range pg.BlockedUserIDs {
		if !cg.BlocksUser(u) {
			return model.GuardRailViolationError{Field: "guardRails.blockedUserIds", Message: fmt.Sprintf("user %s blocked by parent must stay blocked", u)}
		}
	}
	for _, t := range pg.BlockedTopics {
		if !cg.BlocksTopic(t) {
			return model.GuardRailViolationError{Field: "guardRails.blockedTopics", Message: fmt.Sprintf("topic %q blocked by parent must stay blocked", t)}
		}
	}
	if len(pg.AllowedTopics) > 0 {
		if len(cg.AllowedTopics) == 0 {
			return model.GuardRailViolationError{Field: "guardRails.allowedTopics", Message: "parent restricts topics; child must declare a subset"}
		}
		for _, t := range cg.AllowedTopics {
			if !contains(pg.AllowedTopics, t) {
				return model.GuardRailViolationError{Field: "guardRails.allowedTopics", Message: fmt.Sprintf("topic %q is outside the parent's allow list", t)}
			}
		}
	}
	if len(pg.AllowedUserIDs) > 0 {
		for _, u := range cg.AllowedUserIDs {
			if !contains(pg.AllowedUserIDs, u) {
				return model.GuardRailViolationError{Field: "guardRails.allowedUserIds", Message: fmt.Sprintf("user %s is outside the parent's allow list", u)}
			}
		}
	}
	if pg.MaxInteractionDepth > 0 {
		if cg.MaxInteractionDepth == 0 || cg.MaxInteractionDepth > pg.MaxInteractionDepth {
			return model.GuardRailViolationError{Field: "guardRails.maxInteractionDepth", Message: fmt.Sprintf("must be between 1 and %d", pg.MaxInteractionDepth)}
		}
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (s *PersonaService) GetPersona(ctx context.Context, personaID string) (*model.Persona, error) {
	p, err := s.store.Personas().Get(ctx, personaID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("persona", personaID)
		}
		return nil, err
	}
	return p, nil
}

func (s *PersonaService) ListPersonas(ctx context.Context, ownerUserID string) ([]*model.Persona, error) {
	return s.store.Personas().List(ctx, ownerUserID)
}

// UpdatePersona applies a partial update. Main personas accept only name and
// description changes; kind and parent are immutable everywhere. Derived
// personas are re-checked against their parent after the patch.
func (s *PersonaService) UpdatePersona(ctx context.Context, ownerUserID, personaID string, patch model.PersonaPatch) (*model.Persona, error) {
	p, err := s.GetPersona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if p.OwnerUserID != ownerUserID {
		return nil, model.NewNotFoundError("persona", personaID)
	}
	if patch.Kind != nil && *patch.Kind != p.Kind {
		return nil, model.ImmutablePersonaError{PersonaID: personaID, Field: "kind"}
	}
	if patch.ParentID != nil {
		return nil, model.ImmutablePersonaError{PersonaID: personaID, Field: "parentPersonaId"}
	}
	if p.Kind == model.KindMain {
		if patch.PrivacyLevel != nil && *patch.PrivacyLevel != p.PrivacyLevel {
			return nil, model.ImmutablePersonaError{PersonaID: personaID, Field: "privacyLevel"}
		}
		if patch.GuardRails != nil {
			return nil, model.ImmutablePersonaError{PersonaID: personaID, Field: "guardRails"}
		}
		if patch.ContentFilter != nil {
			return nil, model.ImmutablePersonaError{PersonaID: personaID, Field: "contentFilter"}
		}
		if patch.Monetization != nil {
			return nil, model.ImmutablePersonaError{PersonaID: personaID, Field: "monetization"}
		}
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, model.NewValidationError("name", "must not be empty")
		}
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.PrivacyLevel != nil {
		if !patch.PrivacyLevel.Valid() {
			return nil, model.NewValidationError("privacyLevel", fmt.Sprintf("unknown privacy level %q", *patch.PrivacyLevel))
		}
		p.PrivacyLevel = *patch.PrivacyLevel
	}
	if patch.GuardRails != nil {
		if patch.GuardRails.MaxInteractionDepth < 0 {
			return nil, model.NewValidationError("guardRails.maxInteractionDepth", "must not be negative")
		}
		p.GuardRails = *patch.GuardRails
	}
	if patch.ContentFilter != nil {
		p.ContentFilter = *patch.ContentFilter
	}
	if patch.Monetization != nil {
		p.Monetization = patch.Monetization
	}

	if p.Kind.Derived() && p.ParentPersonaID != nil {
		parent, err := s.store.Personas().Get(ctx, *p.ParentPersonaID)
		if err != nil {
			return nil, err
		}
		if err := validateNoEscalation(parent, p); err != nil {
			return nil, err
		}
	}
	return s.store.Personas().Update(ctx, p)
}

// DeletePersona removes a derived persona and its learned data. The main
// persona cannot be deleted while the account exists.
func (s *PersonaService) DeletePersona(ctx context.Context, ownerUserID, personaID string) error {
	p, err := s.GetPersona(ctx, personaID)
	if err != nil {
		return err
	}
	if p.OwnerUserID != ownerUserID {
		return model.NewNotFoundError("persona", personaID)
	}
	if p.Kind == model.KindMain {
		return model.ImmutablePersonaError{PersonaID: personaID}
	}
	return s.store.Personas().Delete(ctx, personaID)
}

// RecordInteraction bumps the persona's interaction counters.
func (s *PersonaService) RecordInteraction(ctx context.Context, personaID string) error {
	err := s.store.Personas().RecordInteraction(ctx, personaID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewNotFoundError("persona", personaID)
	}
	return err
}

// ListTraits returns the persona's trait entries, best first.
func (s *PersonaService) ListTraits(ctx context.Context, req model.ListTraitsRequest) ([]*model.TraitEntry, error) {
	if req.PersonaID == "" {
		return nil, model.NewValidationError("personaId", "must not be empty")
	}
	if _, err := s.GetPersona(ctx, req.PersonaID); err != nil {
		return nil, err
	}
	return s.store.Traits().List(ctx, req)
}
