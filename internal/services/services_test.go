package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
	"github.com/perscribe/persona-backend/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return sqlite.NewWithDB(db)
}

// registerUser creates an account plus its main persona through the user
// service, the same path production registration takes.
func registerUser(t *testing.T, st store.Store, email string) (*model.User, *model.Persona) {
	t.Helper()
	u, main, err := NewUserService(st).CreateUser(context.Background(), CreateUserRequest{Email: email})
	require.NoError(t, err)
	return u, main
}
