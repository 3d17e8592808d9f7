package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// ConnectionService mirrors relationship facts from the external social
// service. The persona backend only reads them during assembly.
type ConnectionService struct {
	store store.Store
}

func NewConnectionService(s store.Store) *ConnectionService { return &ConnectionService{store: s} }

func validRelationship(r model.Relationship) bool {
	switch r {
	case model.RelationNone, model.RelationFriend, model.RelationFollower,
		model.RelationSubscriber, model.RelationBlocked:
		return true
	}
	return false
}

// UpsertConnection records or replaces the requester's relationship to a
// persona.
func (s *ConnectionService) UpsertConnection(ctx context.Context, c *model.UserConnection) (*model.UserConnection, error) {
	if c.RequesterUserID == "" {
		return nil, model.NewValidationError("requesterUserId", "must not be empty")
	}
	if c.TargetPersonaID == "" {
		return nil, model.NewValidationError("targetPersonaId", "must not be empty")
	}
	if !validRelationship(c.Relationship) {
		return nil, model.NewValidationError("relationship", fmt.Sprintf("unknown relationship %q", c.Relationship))
	}
	if _, err := s.store.Personas().Get(ctx, c.TargetPersonaID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("persona", c.TargetPersonaID)
		}
		return nil, err
	}
	return s.store.Connections().Upsert(ctx, c)
}

// GetConnection returns the stored relationship, or a not-found error when
// none exists.
func (s *ConnectionService) GetConnection(ctx context.Context, requesterUserID, targetPersonaID string) (*model.UserConnection, error) {
	c, err := s.store.Connections().Get(ctx, requesterUserID, targetPersonaID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("connection", requesterUserID+"/"+targetPersonaID)
		}
		return nil, err
	}
	return c, nil
}
