package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/finder/internal/profile"
	"github.com/hrygo/finder/store"
	"github.com/hrygo/finder/store/db"
)

// NewTestingStore opens a migrated store for the driver named by DRIVER
// (sqlite by default). PostgreSQL tests read their DSN from FINDER_TEST_DSN.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if p.Driver == "postgres" {
			resetPostgres(ctx, t, s)
		}
		_ = s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: driver,
		Data:   t.TempDir(),
	}
	switch driver {
	case "sqlite":
		p.DSN = filepath.Join(p.Data, "finder_test.db")
	case "postgres":
		dsn := os.Getenv("FINDER_TEST_DSN")
		if dsn == "" {
			t.Skip("FINDER_TEST_DSN not set")
		}
		p.DSN = dsn
	}
	return p
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}

// resetPostgres drops the schema so the next test starts from LATEST.sql.
func resetPostgres(ctx context.Context, t *testing.T, s *store.Store) {
	for _, table := range []string{"chat_message", "conversation", "favorite", "setting"} {
		if _, err := s.GetDriver().GetDB().ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			t.Logf("failed to drop %s: %v", table, err)
		}
	}
}
