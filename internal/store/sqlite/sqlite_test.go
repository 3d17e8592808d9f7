package sqlite

import (
	"context"
	"testing"

	"github.com/perscribe/persona-backend/internal/store"
	"github.com/perscribe/persona-backend/internal/store/storetest"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return NewWithDB(db)
}

func TestSQLiteStore_Compliance(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestSQLiteStore_HealthPing(t *testing.T) {
	st := newTestStore(t)
	p, ok := st.(interface {
		HealthPing(ctx context.Context) error
	})
	if !ok {
		t.Fatalf("sqlite store must expose HealthPing")
	}
	if err := p.HealthPing(context.Background()); err != nil {
		t.Fatalf("health ping: %v", err)
	}
}
