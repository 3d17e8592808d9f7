package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perscribe/persona-backend/internal/model"
)

func TestCreateUser_CreatesMainPersona(t *testing.T) {
	st := newTestStore(t)
	svc := NewUserService(st)

	u, main, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Email:       "ada@example.com",
		PersonaName: "Ada",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.UserID)
	require.Equal(t, "UTC", u.TimeZone)

	require.Equal(t, model.KindMain, main.Kind)
	require.Equal(t, u.UserID, main.OwnerUserID)
	require.Equal(t, "Ada", main.Name)
	require.Equal(t, model.PrivacyPrivate, main.PrivacyLevel)
	require.Nil(t, main.ParentPersonaID)

	// The main persona starts with every sensitivity class enabled so it can
	// absorb everything interviews learn.
	require.True(t, main.ContentFilter.AllowExplicit)
	require.True(t, main.ContentFilter.AllowPersonalInfo)
	require.True(t, main.ContentFilter.AllowSecrets)
	require.True(t, main.ContentFilter.AllowMedia)

	got, err := svc.GetUser(context.Background(), u.UserID)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", got.Email)
}

func TestCreateUser_RequiresEmail(t *testing.T) {
	st := newTestStore(t)
	_, _, err := NewUserService(st).CreateUser(context.Background(), CreateUserRequest{})
	require.True(t, model.IsValidationError(err))
}

func TestGetUser_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := NewUserService(st).GetUser(context.Background(), "nobody")
	require.True(t, model.IsNotFoundError(err))
}
