package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

// CycleDeps are the collaborators of a CycleStateMachine. Notifier is optional.
type CycleDeps struct {
	Repo       payroll.PayrollRepository
	Employees  employee.EmployeeRepository
	Shifts     payroll.ShiftProvider
	Attendance payroll.AttendanceProvider
	Leaves     payroll.LeaveProvider
	Holidays   payroll.HolidayProvider
	Notifier   payroll.Notifier
	Tx         payroll.Transactor
	// Defaults applies to tenants without a payroll_settings row.
	Defaults payroll.PayrollSettings
}

// CycleStateMachine owns payroll cycle transitions. It is the only place that
// writes payslips, loan repayments and journal entries.
type CycleStateMachine struct {
	repo       payroll.PayrollRepository
	employees  employee.EmployeeRepository
	shifts     payroll.ShiftProvider
	attendance payroll.AttendanceProvider
	leaves     payroll.LeaveProvider
	holidays   payroll.HolidayProvider
	notifier   payroll.Notifier
	tx         payroll.Transactor
	defaults   payroll.PayrollSettings
	now        func() time.Time
}

func NewCycleStateMachine(deps CycleDeps) *CycleStateMachine {
	return &CycleStateMachine{
		repo:       deps.Repo,
		employees:  deps.Employees,
		shifts:     deps.Shifts,
		attendance: deps.Attendance,
		leaves:     deps.Leaves,
		holidays:   deps.Holidays,
		notifier:   deps.Notifier,
		tx:         deps.Tx,
		defaults:   deps.Defaults,
		now:        time.Now,
	}
}

// Settings returns the tenant's payroll settings, falling back to defaults.
func (m *CycleStateMachine) Settings(ctx context.Context, companyID string) (payroll.PayrollSettings, error) {
	settings, err := m.repo.GetSettings(ctx, companyID)
	if errors.Is(err, payroll.ErrPayrollSettingsNotFound) {
		settings = m.defaults
		settings.CompanyID = companyID
		return settings, nil
	}
	if err != nil {
		return payroll.PayrollSettings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}
	return settings, nil
}

// isEmployeeFailure reports whether err only affects one employee of a run.
func isEmployeeFailure(err error) bool {
	return errors.Is(err, payroll.ErrNoSalaryStructure) ||
		errors.Is(err, payroll.ErrNoShift) ||
		errors.Is(err, payroll.ErrNegativeNetSalary)
}

// CreateCycle opens a draft cycle. Only one cycle may cover a given period.
func (m *CycleStateMachine) CreateCycle(ctx context.Context, companyID, name string, start, end time.Time, createdBy *string) (payroll.PayrollCycle, error) {
	if end.Before(start) {
		return payroll.PayrollCycle{}, payroll.ErrInvalidPeriod
	}

	_, err := m.repo.GetCycleByPeriod(ctx, companyID, start, end)
	if err == nil {
		return payroll.PayrollCycle{}, payroll.ErrCycleAlreadyExists
	}
	if !errors.Is(err, payroll.ErrCycleNotFound) {
		return payroll.PayrollCycle{}, err
	}

	cycle, err := m.repo.CreateCycle(ctx, payroll.PayrollCycle{
		CompanyID: companyID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    payroll.CycleStatusDraft,
		CreatedBy: createdBy,
	})
	if err != nil {
		return payroll.PayrollCycle{}, err
	}

	slog.Info("Payroll cycle created", "company_id", companyID, "cycle_id", cycle.ID, "start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))
	return cycle, nil
}

// MonthlyCycle returns the cycle covering the calendar month of day, creating
// a draft one when the tenant has none yet.
func (m *CycleStateMachine) MonthlyCycle(ctx context.Context, companyID string, day time.Time) (payroll.PayrollCycle, error) {
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	cycle, err := m.repo.GetCycleByPeriod(ctx, companyID, start, end)
	if err == nil {
		return cycle, nil
	}
	if !errors.Is(err, payroll.ErrCycleNotFound) {
		return payroll.PayrollCycle{}, err
	}

	return m.CreateCycle(ctx, companyID, start.Format("January 2006"), start, end, nil)
}

// ========== RUN ==========

// Run recomputes every eligible employee's payslip for a draft or approved
// cycle. Prior payslips are replaced. Per-employee failures are reported in
// the result; any other error rolls the whole run back.
func (m *CycleStateMachine) Run(ctx context.Context, companyID, cycleID string) (payroll.RunResult, error) {
	var result payroll.RunResult

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		result = payroll.RunResult{CycleID: cycleID}

		cycle, err := m.repo.GetCycleForUpdate(ctx, cycleID, companyID)
		if err != nil {
			return err
		}
		if !cycle.Status.CanRecompute() {
			return fmt.Errorf("cannot run cycle in status %s: %w: %w", cycle.Status, payroll.ErrInvalidTransition, payroll.ErrCycleLocked)
		}

		settings, err := m.Settings(ctx, companyID)
		if err != nil {
			return err
		}
		slabs, err := m.repo.ListTaxSlabs(ctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to list tax slabs: %w", err)
		}
		if gaps := SlabGaps(slabs); len(gaps) > 0 {
			slog.Warn("Tax slabs are not contiguous", "company_id", companyID, "cycle_id", cycleID, "boundaries", gaps)
		}
		holidays, err := m.holidays.GetHolidays(ctx, companyID, cycle.StartDate, cycle.EndDate)
		if err != nil {
			return fmt.Errorf("failed to get holidays: %w", err)
		}
		employees, err := m.employees.GetActiveByCompanyID(ctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to get employees: %w", err)
		}

		eligible := make([]employee.Employee, 0, len(employees))
		eligibleIDs := make(map[string]bool, len(employees))
		for _, emp := range employees {
			if emp.EmployedDuring(cycle.StartDate, cycle.EndDate) {
				eligible = append(eligible, emp)
				eligibleIDs[emp.ID] = true
			}
		}

		// Payslips of employees who dropped out since the last run are removed.
		existing, err := m.repo.ListPayslipsByCycle(ctx, companyID, cycle.ID)
		if err != nil {
			return fmt.Errorf("failed to list payslips: %w", err)
		}
		for _, p := range existing {
			if eligibleIDs[p.EmployeeID] {
				continue
			}
			if err := m.repo.DeletePayslip(ctx, companyID, cycle.ID, p.EmployeeID); err != nil {
				return fmt.Errorf("failed to delete payslip for employee %s: %w", p.EmployeeID, err)
			}
			result.Removed++
		}

		for _, emp := range eligible {
			if err := m.repo.DeletePayslip(ctx, companyID, cycle.ID, emp.ID); err != nil {
				return fmt.Errorf("failed to delete payslip for employee %s: %w", emp.ID, err)
			}

			payslip, err := m.computePayslip(ctx, cycle, emp, settings, slabs, holidays)
			if err != nil {
				if !isEmployeeFailure(err) {
					return fmt.Errorf("employee %s: %w", emp.ID, err)
				}
				slog.Warn("Payroll skipped employee", "company_id", companyID, "cycle_id", cycle.ID, "employee_id", emp.ID, "error", err)
				result.Failed++
				result.Employees = append(result.Employees, payroll.EmployeeRunResult{
					EmployeeID: emp.ID,
					Status:     payroll.EmployeeRunFailed,
					Error:      err.Error(),
					Err:        err,
				})
				continue
			}

			created, err := m.repo.CreatePayslip(ctx, payslip)
			if err != nil {
				return fmt.Errorf("failed to create payslip for employee %s: %w", emp.ID, err)
			}
			result.Processed++
			result.Employees = append(result.Employees, payroll.EmployeeRunResult{
				EmployeeID: emp.ID,
				Status:     payroll.EmployeeRunOK,
				PayslipID:  created.ID,
			})
		}
		return nil
	})
	if err != nil {
		return payroll.RunResult{}, err
	}

	slog.Info("Payroll cycle run", "company_id", companyID, "cycle_id", cycleID, "processed", result.Processed, "failed", result.Failed, "removed", result.Removed)
	return result, nil
}

func (m *CycleStateMachine) computePayslip(
	ctx context.Context,
	cycle payroll.PayrollCycle,
	emp employee.Employee,
	settings payroll.PayrollSettings,
	slabs []payroll.TaxSlab,
	holidays map[time.Time]bool,
) (payroll.Payslip, error) {
	structure, err := m.repo.GetActiveSalaryStructure(ctx, cycle.CompanyID, emp.ID, cycle.StartDate)
	if errors.Is(err, payroll.ErrSalaryStructureNotFound) {
		return payroll.Payslip{}, payroll.ErrNoSalaryStructure
	}
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to get salary structure: %w", err)
	}

	shift, err := m.shifts.GetShift(ctx, cycle.CompanyID, emp.ID)
	if err != nil {
		return payroll.Payslip{}, err
	}
	records, err := m.attendance.GetAttendance(ctx, cycle.CompanyID, emp.ID, cycle.StartDate, cycle.EndDate)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	leaves, err := m.leaves.GetLeaves(ctx, cycle.CompanyID, emp.ID, cycle.StartDate, cycle.EndDate)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to get leaves: %w", err)
	}
	adjustments, err := m.repo.ListAdjustments(ctx, cycle.CompanyID, cycle.ID, emp.ID)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to list adjustments: %w", err)
	}
	loans, err := m.repo.ListActiveLoansByEmployee(ctx, cycle.CompanyID, emp.ID, cycle.EndDate)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to list loans: %w", err)
	}

	leavesByDate := IndexLeaves(leaves)
	days := Summarize(CalendarInput{
		WorkingDays: shift.WorkingDays,
		Holidays:    holidays,
		Leaves:      leavesByDate,
		Attendance:  IndexAttendance(records),
		Start:       cycle.StartDate,
		End:         cycle.EndDate,
	})

	return BuildPayslip(PayslipInput{
		Cycle:       cycle,
		EmployeeID:  emp.ID,
		Structure:   structure,
		Days:        days,
		Minutes:     DeriveMinutes(shift, records, leavesByDate, holidays),
		Adjustments: adjustments,
		Settings:    settings,
		Slabs:       slabs,
		Loans:       loans,
	})
}

// ========== TRANSITIONS ==========

// Approve moves a draft cycle to approved. No computation happens.
func (m *CycleStateMachine) Approve(ctx context.Context, companyID, cycleID string) (payroll.PayrollCycle, error) {
	var cycle payroll.PayrollCycle
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		cycle, err = m.repo.TransitionCycle(ctx, cycleID, companyID, payroll.CycleStatusDraft, payroll.CycleStatusApproved)
		return err
	})
	if err != nil {
		return payroll.PayrollCycle{}, err
	}

	slog.Info("Payroll cycle transition", "company_id", companyID, "cycle_id", cycleID, "from", payroll.CycleStatusDraft, "to", payroll.CycleStatusApproved)
	return cycle, nil
}

// Lock freezes an approved cycle, posts its loan repayments and the salary
// accrual entry. It is irreversible.
func (m *CycleStateMachine) Lock(ctx context.Context, companyID, cycleID string) (payroll.PayrollCycle, error) {
	var cycle payroll.PayrollCycle
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		cycle, err = m.repo.TransitionCycle(ctx, cycleID, companyID, payroll.CycleStatusApproved, payroll.CycleStatusLocked)
		if err != nil {
			return err
		}

		payslips, err := m.repo.ListPayslipsByCycle(ctx, companyID, cycle.ID)
		if err != nil {
			return fmt.Errorf("failed to list payslips: %w", err)
		}

		if err := m.postRepayments(ctx, cycle, payslips); err != nil {
			return err
		}

		entry, err := BuildAccrualEntry(cycle, payslips, m.entryDate(cycle))
		if err != nil {
			return err
		}
		return m.postEntry(ctx, entry)
	})
	if err != nil {
		return payroll.PayrollCycle{}, err
	}

	slog.Info("Payroll cycle transition", "company_id", companyID, "cycle_id", cycleID, "from", payroll.CycleStatusApproved, "to", payroll.CycleStatusLocked)
	return cycle, nil
}

// MarkPaid settles a locked cycle and posts the payment entry. Payslips are
// delivered after the transaction commits; delivery failures are only logged.
func (m *CycleStateMachine) MarkPaid(ctx context.Context, companyID, cycleID string) (payroll.PayrollCycle, error) {
	var (
		cycle    payroll.PayrollCycle
		payslips []payroll.Payslip
	)
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		cycle, err = m.repo.TransitionCycle(ctx, cycleID, companyID, payroll.CycleStatusLocked, payroll.CycleStatusPaid)
		if err != nil {
			return err
		}

		payslips, err = m.repo.ListPayslipsByCycle(ctx, companyID, cycle.ID)
		if err != nil {
			return fmt.Errorf("failed to list payslips: %w", err)
		}

		entry, err := BuildPaymentEntry(cycle, payslips, m.now())
		if err != nil {
			return err
		}
		return m.postEntry(ctx, entry)
	})
	if err != nil {
		return payroll.PayrollCycle{}, err
	}

	slog.Info("Payroll cycle transition", "company_id", companyID, "cycle_id", cycleID, "from", payroll.CycleStatusLocked, "to", payroll.CycleStatusPaid)
	m.deliverPayslips(ctx, cycle, payslips)
	return cycle, nil
}

// postRepayments records one repayment per loan item. The unique
// (loan, cycle) constraint rejects a second posting.
func (m *CycleStateMachine) postRepayments(ctx context.Context, cycle payroll.PayrollCycle, payslips []payroll.Payslip) error {
	for _, p := range payslips {
		for _, item := range p.Items {
			if item.Category != payroll.CategoryLoan || item.LoanID == nil {
				continue
			}

			loan, err := m.repo.GetLoanByID(ctx, *item.LoanID, cycle.CompanyID)
			if err != nil {
				return fmt.Errorf("failed to get loan %s: %w", *item.LoanID, err)
			}
			updated, err := ApplyRepayment(loan, item.Amount)
			if err != nil {
				return err
			}

			if _, err := m.repo.CreateLoanRepayment(ctx, payroll.LoanRepayment{
				CompanyID: cycle.CompanyID,
				LoanID:    loan.ID,
				CycleID:   cycle.ID,
				Amount:    item.Amount,
				Date:      cycle.EndDate,
			}); err != nil {
				return fmt.Errorf("failed to post repayment for loan %s: %w", loan.ID, err)
			}

			if updated.Status != loan.Status {
				if err := m.repo.UpdateLoanStatus(ctx, loan.ID, cycle.CompanyID, updated.Status); err != nil {
					return fmt.Errorf("failed to close loan %s: %w", loan.ID, err)
				}
			}
		}
	}
	return nil
}

// postEntry persists a validated entry. Empty entries are not posted.
func (m *CycleStateMachine) postEntry(ctx context.Context, entry payroll.JournalEntry) error {
	if len(entry.Items) == 0 {
		slog.Info("Journal entry skipped, nothing to post", "company_id", entry.CompanyID, "reference_type", entry.ReferenceType, "reference_id", entry.ReferenceID)
		return nil
	}
	if err := ValidateEntry(entry); err != nil {
		return err
	}
	if _, err := m.repo.CreateJournalEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to post %s journal entry: %w", entry.ReferenceType, err)
	}
	return nil
}

// entryDate is the accrual date: the cycle end, or today if the cycle is
// locked before it ends.
func (m *CycleStateMachine) entryDate(cycle payroll.PayrollCycle) time.Time {
	now := m.now()
	if now.Before(cycle.EndDate) {
		return now
	}
	return cycle.EndDate
}

func (m *CycleStateMachine) deliverPayslips(ctx context.Context, cycle payroll.PayrollCycle, payslips []payroll.Payslip) {
	if m.notifier == nil {
		return
	}
	for _, p := range payslips {
		if p.EmployeeEmail == nil || *p.EmployeeEmail == "" {
			continue
		}
		if err := m.notifier.SendPayslip(ctx, *p.EmployeeEmail, p, cycle); err != nil {
			slog.Warn("Failed to deliver payslip", "company_id", cycle.CompanyID, "cycle_id", cycle.ID, "employee_id", p.EmployeeID, "error", err)
		}
	}
}
