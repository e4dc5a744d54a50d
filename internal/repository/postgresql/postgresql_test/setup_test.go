package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/leave-engine/internal/pkg/database"
	"github.com/cmlabs-hris/leave-engine/internal/repository/postgresql"
)

// TestDatabaseSetup holds a migrated test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema.
// Tests are skipped when the variable is unset.
func NewTestDatabase(t testing.TB) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres integration test")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 10, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := postgresql.Migrate(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.TruncateAllTables(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to truncate test database: %v", err)
	}
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes every row from the engine's tables
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"audit_events",
		"leave_requests",
		"leave_policies",
		"employees",
		"users",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// SeedUser inserts a user and returns its id
func (s *TestDatabaseSetup) SeedUser(ctx context.Context, id, organizationID, email, fullName, role string) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO users (id, organization_id, email, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
	`, id, organizationID, email, fullName, role)
	return err
}

// SeedEmployee inserts an employee profile
func (s *TestDatabaseSetup) SeedEmployee(ctx context.Context, id, organizationID string, userID *string, fullName, code string) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO employees (id, organization_id, user_id, full_name, employee_code)
		VALUES ($1, $2, $3, $4, $5)
	`, id, organizationID, userID, fullName, code)
	return err
}

// SeedPolicy inserts one allocation row
func (s *TestDatabaseSetup) SeedPolicy(ctx context.Context, organizationID, leaveType string, totalDays, sortOrder int) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO leave_policies (organization_id, leave_type, total_days, sort_order)
		VALUES ($1, $2, $3, $4)
	`, organizationID, leaveType, totalDays, sortOrder)
	return err
}

// Close closes the database connection
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}
