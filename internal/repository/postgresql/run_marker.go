package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type runMarkerStore struct {
	db *database.DB
}

func NewRunMarkerStore(db *database.DB) payroll.RunMarkerStore {
	return &runMarkerStore{db: db}
}

func (s *runMarkerStore) LastRunOn(ctx context.Context, companyID string) (time.Time, bool, error) {
	q := GetQuerier(ctx, s.db)

	var day time.Time
	err := q.QueryRow(ctx, `SELECT last_run_on FROM payroll_run_markers WHERE company_id = $1`, companyID).Scan(&day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get run marker: %w", err)
	}

	return payroll.DateOf(day), true, nil
}

func (s *runMarkerStore) SetLastRunOn(ctx context.Context, companyID string, day time.Time) error {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO payroll_run_markers (company_id, last_run_on)
		VALUES ($1, $2)
		ON CONFLICT (company_id) DO UPDATE SET last_run_on = EXCLUDED.last_run_on, updated_at = NOW()
	`

	if _, err := q.Exec(ctx, query, companyID, payroll.DateOf(day)); err != nil {
		return fmt.Errorf("failed to set run marker: %w", err)
	}

	return nil
}
