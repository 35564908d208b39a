package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/platform/postgres"
)

// TestTimeout bounds the setup operations performed against the test database.
const TestTimeout = 10 * time.Second

var urlEnvVars = []string{"CIZU_TEST_DATABASE_URL", "DATABASE_URL"}

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the first non-empty database URL variable.
func GetTestDatabaseURL() string {
	for _, name := range urlEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDB opens a connection to the test database, applying migrations on
// first use. The test is skipped when no database is configured. The
// connection is closed during test cleanup.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("skipping database test: CIZU_TEST_DATABASE_URL or DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "failed to ping test database at %s", maskDatabaseURL(dbURL))

	require.NoError(t, applyMigrations(ctx, db), "failed to migrate test database")
	return db
}

// applyMigrations brings the schema up once per test binary.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, postgres.MigrateUp, logger.Discard())
	})
	if migrateErr != nil {
		return fmt.Errorf("migrations: %w", migrateErr)
	}
	return nil
}
