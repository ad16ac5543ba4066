package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/store/storetest"
)

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("AMPLINE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AMPLINE_POSTGRES_DSN not set; skipping postgres store integration test")
	}
	s, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}
