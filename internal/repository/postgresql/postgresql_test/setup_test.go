package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// payrollTables are truncated between tests, children first.
var payrollTables = []string{
	"journal_items",
	"journal_entries",
	"payslip_items",
	"payslips",
	"payroll_adjustments",
	"loan_repayments",
	"payroll_cycles",
	"employee_loans",
	"tax_slabs",
	"salary_structure_items",
	"salary_structures",
	"salary_components",
	"payroll_settings",
	"payroll_run_markers",
	"company_holidays",
}

// newTestDatabase connects to TEST_DATABASE_URL and skips the test when it is
// unset. The schema in migrations/ must already be applied.
func newTestDatabase(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolOptions{MaxConns: 4})
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)

	truncatePayrollTables(t, db)
	return db
}

func truncatePayrollTables(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()
	for _, table := range payrollTables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
}

func createTestCompany(t *testing.T, db *database.DB) string {
	t.Helper()
	var companyID string
	uniqueUsername := fmt.Sprintf("payroll-test-%d", time.Now().UnixNano())
	err := db.QueryRow(context.Background(), `
		INSERT INTO companies (id, name, username, created_at, updated_at)
		VALUES (uuidv7(), 'Payroll Test Company', $1, NOW(), NOW())
		RETURNING id
	`, uniqueUsername).Scan(&companyID)
	require.NoError(t, err)
	return companyID
}
