package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// UserService handles account registration. Registration always creates the
// user's main persona in the same transaction, so a user never exists
// without one.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

// CreateUserRequest carries registration input.
type CreateUserRequest struct {
	UserID      string
	Email       string
	DisplayName *string
	TimeZone    string
	PersonaName string
}

// CreateUser registers the account and its main persona atomically.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, *model.Persona, error) {
	if req.Email == "" {
		return nil, nil, model.NewValidationError("email", "must not be empty")
	}
	userID := req.UserID
	if userID == "" {
		userID = uuid.New().String()
	}
	tz := req.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	name := req.PersonaName
	if name == "" {
		name = "Main"
	}

	u := &model.User{UserID: userID, Email: req.Email, DisplayName: req.DisplayName, TimeZone: tz}
	main := NewMainPersona(userID, name)
	return s.store.Users().CreateWithMainPersona(ctx, u, main)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		if err == model.ErrNotFound {
			return nil, model.NewNotFoundError("user", userID)
		}
		return nil, err
	}
	return u, nil
}

// NewMainPersona returns the fixed shape of a main persona: private, no
// guard-rail restrictions, every sensitivity class allowed. Children narrow
// from here.
func NewMainPersona(ownerUserID, name string) *model.Persona {
	return &model.Persona{
		OwnerUserID:  ownerUserID,
		Kind:         model.KindMain,
		Name:         name,
		PrivacyLevel: model.PrivacyPrivate,
		GuardRails:   model.GuardRails{},
		ContentFilter: model.ContentFilter{
			AllowExplicit:     true,
			AllowPersonalInfo: true,
			AllowSecrets:      true,
			AllowMedia:        true,
		},
	}
}
