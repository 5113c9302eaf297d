package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== SETTINGS ==========

const settingsColumns = `
	id, company_id, days_per_month, pay_divisor, work_hours_per_day,
	overtime_enabled, overtime_multiplier, late_penalty_enabled,
	auto_run_enabled, auto_run_day, created_at, updated_at
`

func scanSettings(row pgx.Row) (payroll.PayrollSettings, error) {
	var s payroll.PayrollSettings
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.DaysPerMonth, &s.PayDivisor, &s.WorkHoursPerDay,
		&s.OvertimeEnabled, &s.OvertimeMultiplier, &s.LatePenaltyEnabled,
		&s.AutoRunEnabled, &s.AutoRunDay, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *payrollRepository) GetSettings(ctx context.Context, companyID string) (payroll.PayrollSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settingsColumns + ` FROM payroll_settings WHERE company_id = $1`

	s, err := scanSettings(q.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollSettings{}, payroll.ErrPayrollSettingsNotFound
		}
		return payroll.PayrollSettings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) UpsertSettings(ctx context.Context, settings payroll.PayrollSettings) (payroll.PayrollSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_settings (
			company_id, days_per_month, pay_divisor, work_hours_per_day,
			overtime_enabled, overtime_multiplier, late_penalty_enabled,
			auto_run_enabled, auto_run_day
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id) DO UPDATE SET
			days_per_month = EXCLUDED.days_per_month,
			pay_divisor = EXCLUDED.pay_divisor,
			work_hours_per_day = EXCLUDED.work_hours_per_day,
			overtime_enabled = EXCLUDED.overtime_enabled,
			overtime_multiplier = EXCLUDED.overtime_multiplier,
			late_penalty_enabled = EXCLUDED.late_penalty_enabled,
			auto_run_enabled = EXCLUDED.auto_run_enabled,
			auto_run_day = EXCLUDED.auto_run_day,
			updated_at = NOW()
		RETURNING ` + settingsColumns

	s, err := scanSettings(q.QueryRow(ctx, query,
		settings.CompanyID, settings.DaysPerMonth, settings.PayDivisor, settings.WorkHoursPerDay,
		settings.OvertimeEnabled, settings.OvertimeMultiplier, settings.LatePenaltyEnabled,
		settings.AutoRunEnabled, settings.AutoRunDay,
	))
	if err != nil {
		return payroll.PayrollSettings{}, fmt.Errorf("failed to upsert payroll settings: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) ListAutoRunSettings(ctx context.Context) ([]payroll.PayrollSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settingsColumns + ` FROM payroll_settings WHERE auto_run_enabled = true ORDER BY company_id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-run settings: %w", err)
	}
	defer rows.Close()

	var result []payroll.PayrollSettings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll settings: %w", err)
		}
		result = append(result, s)
	}

	return result, rows.Err()
}

// ========== COMPONENTS ==========

func (r *payrollRepository) CreateComponent(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_components (company_id, name, type, description, is_taxable, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, company_id, name, type, description, is_taxable, is_active, created_at, updated_at
	`

	var c payroll.SalaryComponent
	err := q.QueryRow(ctx, query,
		component.CompanyID, component.Name, component.Type, component.Description, component.IsTaxable, component.IsActive,
	).Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Type, &c.Description, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "uk_salary_component_name") {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNameExists
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to create salary component: %w", err)
	}

	return c, nil
}

func (r *payrollRepository) GetComponentByID(ctx context.Context, id string, companyID string) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, type, description, is_taxable, is_active, created_at, updated_at
		FROM salary_components
		WHERE id = $1 AND company_id = $2
	`

	var c payroll.SalaryComponent
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Type, &c.Description, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNotFound
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to get salary component: %w", err)
	}

	return c, nil
}

func (r *payrollRepository) ListComponents(ctx context.Context, companyID string, activeOnly bool) ([]payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, type, description, is_taxable, is_active, created_at, updated_at
		FROM salary_components
		WHERE company_id = $1
	`
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY type, name"

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	defer rows.Close()

	var components []payroll.SalaryComponent
	for rows.Next() {
		var c payroll.SalaryComponent
		if err := rows.Scan(
			&c.ID, &c.CompanyID, &c.Name, &c.Type, &c.Description, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		components = append(components, c)
	}

	return components, rows.Err()
}

// ========== SALARY STRUCTURES ==========

// SaveSalaryStructure replaces the version with the same effective date, items included.
func (r *payrollRepository) SaveSalaryStructure(ctx context.Context, structure payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	var saved payroll.SalaryStructure
	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		query := `
			INSERT INTO salary_structures (company_id, employee_id, effective_from, base_salary, payment_method)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT ON CONSTRAINT uk_salary_structure_version DO UPDATE SET
				base_salary = EXCLUDED.base_salary,
				payment_method = EXCLUDED.payment_method,
				updated_at = NOW()
			RETURNING id, company_id, employee_id, effective_from, base_salary, payment_method, created_at, updated_at
		`

		err := q.QueryRow(ctx, query,
			structure.CompanyID, structure.EmployeeID, structure.EffectiveFrom, structure.BaseSalary, structure.PaymentMethod,
		).Scan(
			&saved.ID, &saved.CompanyID, &saved.EmployeeID, &saved.EffectiveFrom,
			&saved.BaseSalary, &saved.PaymentMethod, &saved.CreatedAt, &saved.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save salary structure: %w", err)
		}

		if _, err := q.Exec(ctx, `DELETE FROM salary_structure_items WHERE salary_structure_id = $1`, saved.ID); err != nil {
			return fmt.Errorf("failed to clear salary structure items: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range structure.Items {
			batch.Queue(`
				INSERT INTO salary_structure_items (salary_structure_id, component_id, amount, is_percentage, percentage, position)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, saved.ID, item.ComponentID, item.Amount, item.IsPercentage, item.Percentage, item.Position)
		}
		if err := q.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert salary structure items: %w", err)
		}

		saved.Items, err = r.loadStructureItems(ctx, saved.ID)
		return err
	})
	if err != nil {
		return payroll.SalaryStructure{}, err
	}

	return saved, nil
}

func (r *payrollRepository) loadStructureItems(ctx context.Context, structureID string) ([]payroll.SalaryItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT si.id, si.salary_structure_id, si.component_id, si.amount, si.is_percentage, si.percentage, si.position,
			   sc.name, sc.type, sc.is_taxable
		FROM salary_structure_items si
		JOIN salary_components sc ON sc.id = si.component_id
		WHERE si.salary_structure_id = $1
		ORDER BY si.position
	`

	rows, err := q.Query(ctx, query, structureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary structure items: %w", err)
	}
	defer rows.Close()

	var items []payroll.SalaryItem
	for rows.Next() {
		var it payroll.SalaryItem
		if err := rows.Scan(
			&it.ID, &it.SalaryStructureID, &it.ComponentID, &it.Amount, &it.IsPercentage, &it.Percentage, &it.Position,
			&it.ComponentName, &it.ComponentType, &it.IsTaxable,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary structure item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

func (r *payrollRepository) getStructure(ctx context.Context, where string, args ...interface{}) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_id, effective_from, base_salary, payment_method, created_at, updated_at
		FROM salary_structures
		WHERE ` + where

	var s payroll.SalaryStructure
	err := q.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.EffectiveFrom, &s.BaseSalary, &s.PaymentMethod, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}

	s.Items, err = r.loadStructureItems(ctx, s.ID)
	if err != nil {
		return payroll.SalaryStructure{}, err
	}

	return s, nil
}

func (r *payrollRepository) GetSalaryStructureByEffectiveDate(ctx context.Context, companyID, employeeID string, effectiveFrom time.Time) (payroll.SalaryStructure, error) {
	return r.getStructure(ctx, `company_id = $1 AND employee_id = $2 AND effective_from = $3`, companyID, employeeID, effectiveFrom)
}

func (r *payrollRepository) GetActiveSalaryStructure(ctx context.Context, companyID, employeeID string, asOf time.Time) (payroll.SalaryStructure, error) {
	return r.getStructure(ctx,
		`company_id = $1 AND employee_id = $2 AND effective_from <= $3 ORDER BY effective_from DESC LIMIT 1`,
		companyID, employeeID, asOf,
	)
}

func (r *payrollRepository) IsSalaryStructureFrozen(ctx context.Context, companyID, structureID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	// FOR SHARE makes a concurrent lock of a referencing cycle wait for the
	// caller's transaction.
	query := `
		SELECT c.status
		FROM payroll_cycles c
		WHERE c.company_id = $1
		  AND c.id IN (SELECT p.cycle_id FROM payslips p WHERE p.company_id = $1 AND p.salary_structure_id = $2)
		FOR SHARE
	`

	rows, err := q.Query(ctx, query, companyID, structureID)
	if err != nil {
		return false, fmt.Errorf("failed to check salary structure usage: %w", err)
	}
	defer rows.Close()

	frozen := false
	for rows.Next() {
		var status payroll.CycleStatus
		if err := rows.Scan(&status); err != nil {
			return false, fmt.Errorf("failed to scan cycle status: %w", err)
		}
		if !status.CanRecompute() {
			frozen = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	return frozen, nil
}

// ========== TAX SLABS ==========

func (r *payrollRepository) CreateTaxSlab(ctx context.Context, slab payroll.TaxSlab) (payroll.TaxSlab, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO tax_slabs (company_id, min_salary, max_salary, tax_percent)
		VALUES ($1, $2, $3, $4)
		RETURNING id, company_id, min_salary, max_salary, tax_percent, created_at, updated_at
	`

	var maxSalary decimal.NullDecimal
	if slab.MaxSalary != nil {
		maxSalary = decimal.NewNullDecimal(*slab.MaxSalary)
	}

	created, err := scanTaxSlab(q.QueryRow(ctx, query, slab.CompanyID, slab.MinSalary, maxSalary, slab.TaxPercent))
	if err != nil {
		return payroll.TaxSlab{}, fmt.Errorf("failed to create tax slab: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) ListTaxSlabs(ctx context.Context, companyID string) ([]payroll.TaxSlab, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, min_salary, max_salary, tax_percent, created_at, updated_at
		FROM tax_slabs
		WHERE company_id = $1
		ORDER BY min_salary
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax slabs: %w", err)
	}
	defer rows.Close()

	var slabs []payroll.TaxSlab
	for rows.Next() {
		slab, err := scanTaxSlab(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax slab: %w", err)
		}
		slabs = append(slabs, slab)
	}

	return slabs, rows.Err()
}

func scanTaxSlab(row pgx.Row) (payroll.TaxSlab, error) {
	var (
		s         payroll.TaxSlab
		maxSalary decimal.NullDecimal
	)
	if err := row.Scan(&s.ID, &s.CompanyID, &s.MinSalary, &maxSalary, &s.TaxPercent, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return payroll.TaxSlab{}, err
	}
	if maxSalary.Valid {
		s.MaxSalary = &maxSalary.Decimal
	}
	return s, nil
}
