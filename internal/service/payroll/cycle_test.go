package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

type cycleFixture struct {
	store   *memoryStore
	machine *CycleStateMachine
	cycle   payroll.PayrollCycle
	loan    payroll.Loan
}

// newCycleFixture seeds one paid employee (e1) and one without a salary
// structure (e2) for January 2026.
func newCycleFixture(t *testing.T) *cycleFixture {
	t.Helper()
	ctx := context.Background()
	store := newMemoryStore()

	email := "e1@example.com"
	store.employees = []employee.Employee{
		{ID: "e1", CompanyID: testCompanyID, EmployeeCode: "0001-0001", FullName: "Ana", HireDate: date(2025, 1, 1), EmploymentStatus: employee.EmploymentStatusActive, Email: &email},
		{ID: "e2", CompanyID: testCompanyID, EmployeeCode: "0001-0002", FullName: "Budi", HireDate: date(2025, 1, 1), EmploymentStatus: employee.EmploymentStatusActive},
		{ID: "e3", CompanyID: testCompanyID, EmployeeCode: "0001-0003", FullName: "Citra", HireDate: date(2026, 3, 1), EmploymentStatus: employee.EmploymentStatusActive},
	}

	shift := payroll.Shift{WorkingDays: weekdays(), StartTime: 9 * time.Hour, EndTime: 17 * time.Hour}
	store.shifts["e1"] = shift
	store.shifts["e2"] = shift

	for d := date(2026, 1, 1); d.Month() == time.January; d = d.AddDate(0, 0, 1) {
		if !shift.WorkingDays[d.Weekday()] {
			continue
		}
		record := payroll.AttendanceRecord{Date: d, Status: payroll.AttendancePresent, LateMinutes: intPtr(0), EarlyLeaveMinutes: intPtr(0), OvertimeMinutes: intPtr(0)}
		if d.Day() == 5 {
			record.OvertimeMinutes = intPtr(120)
		}
		store.attendance["e1"] = append(store.attendance["e1"], record)
	}

	_, err := store.SaveSalaryStructure(ctx, payroll.SalaryStructure{
		CompanyID:     testCompanyID,
		EmployeeID:    "e1",
		EffectiveFrom: date(2025, 1, 1),
		BaseSalary:    dec("6200"),
		PaymentMethod: "bank_transfer",
	})
	require.NoError(t, err)

	for _, s := range []payroll.TaxSlab{slab("0", "6000", "0"), slab("6000", "8000", "10"), slab("8000", "", "20")} {
		s.CompanyID = testCompanyID
		_, err := store.CreateTaxSlab(ctx, s)
		require.NoError(t, err)
	}

	loan, err := store.CreateLoan(ctx, payroll.Loan{
		CompanyID:          testCompanyID,
		EmployeeID:         "e1",
		Type:               payroll.LoanTypeLoan,
		Principal:          dec("800"),
		MonthlyInstallment: dec("500"),
		StartDate:          date(2025, 12, 1),
		Status:             payroll.LoanStatusActive,
	})
	require.NoError(t, err)

	machine := newTestStateMachine(store, &recordingNotifier{})
	machine.now = func() time.Time { return date(2026, 2, 1) }

	cycle, err := machine.CreateCycle(ctx, testCompanyID, "January 2026", date(2026, 1, 1), date(2026, 1, 31), nil)
	require.NoError(t, err)

	return &cycleFixture{store: store, machine: machine, cycle: cycle, loan: loan}
}

func stripIDs(payslips []payroll.Payslip) []payroll.Payslip {
	out := make([]payroll.Payslip, len(payslips))
	for i, p := range payslips {
		p.ID = ""
		out[i] = p
	}
	return out
}

func TestRun_ComputesPayslips(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	result, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Employees, 2)
	assert.Equal(t, payroll.EmployeeRunOK, result.Employees[0].Status)
	assert.Equal(t, "e2", result.Employees[1].EmployeeID)
	assert.True(t, errors.Is(result.Employees[1].Err, payroll.ErrNoSalaryStructure))

	payslips, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, payslips, 1)

	p := payslips[0]
	assertDecimal(t, "22", p.Days.WorkingDays, "working days")
	assertDecimal(t, "22", p.Days.PayableDays, "payable days")
	assertDecimal(t, "6277.5", p.GrossSalary, "gross")
	assertDecimal(t, "27.75", p.TaxDeducted, "tax")
	assertDecimal(t, "527.75", p.TotalDeductions, "deductions")
	assertDecimal(t, "5749.75", p.NetSalary, "net")
	assert.Equal(t, 120, p.OvertimeMinutes)

	names := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"Base Salary", "Overtime (2 hrs)", "Loan Repayment", "Tax"}, names)
}

func TestRun_IsIdempotent(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	first, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	_, err = f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	second, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	assert.Equal(t, stripIDs(first), stripIDs(second))
}

func TestRun_IncludesAdjustments(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateAdjustment(ctx, payroll.PayrollAdjustment{
		CompanyID: testCompanyID, CycleID: f.cycle.ID, EmployeeID: "e1",
		Name: "Year End", Type: payroll.ComponentTypeEarning, Amount: dec("1000"), IsTaxable: true,
	})
	require.NoError(t, err)

	_, err = f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	payslips, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, payslips, 1)
	assertDecimal(t, "7277.5", payslips[0].GrossSalary, "gross")
	assertDecimal(t, "127.75", payslips[0].TaxDeducted, "tax")
}

func TestRun_FailureRollsBackWholeRun(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	before, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	f.store.failures["GetAttendance"] = errors.New("attendance service unavailable")
	_, err = f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.Error(t, err)

	after, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStateMachine_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("markPaid on draft fails", func(t *testing.T) {
		f := newCycleFixture(t)
		_, err := f.machine.MarkPaid(ctx, testCompanyID, f.cycle.ID)
		assert.True(t, errors.Is(err, payroll.ErrInvalidTransition))

		cycle, err := f.store.GetCycleByID(ctx, f.cycle.ID, testCompanyID)
		require.NoError(t, err)
		assert.Equal(t, payroll.CycleStatusDraft, cycle.Status)
	})

	t.Run("lock on draft fails", func(t *testing.T) {
		f := newCycleFixture(t)
		_, err := f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
		assert.True(t, errors.Is(err, payroll.ErrInvalidTransition))
	})

	t.Run("lock twice fails and posts once", func(t *testing.T) {
		f := newCycleFixture(t)
		_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
		require.NoError(t, err)
		_, err = f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
		require.NoError(t, err)
		_, err = f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
		require.NoError(t, err)

		_, err = f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
		assert.True(t, errors.Is(err, payroll.ErrInvalidTransition))
		assert.Len(t, f.store.journals, 1)
		assert.Len(t, f.store.repayments, 1)
	})

	t.Run("run after lock is rejected", func(t *testing.T) {
		f := newCycleFixture(t)
		_, err := f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
		require.NoError(t, err)
		_, err = f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
		require.NoError(t, err)

		_, err = f.machine.Run(ctx, testCompanyID, f.cycle.ID)
		assert.True(t, errors.Is(err, payroll.ErrInvalidTransition))
		assert.True(t, errors.Is(err, payroll.ErrCycleLocked))
	})

	t.Run("approve twice fails", func(t *testing.T) {
		f := newCycleFixture(t)
		_, err := f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
		require.NoError(t, err)
		_, err = f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
		assert.True(t, errors.Is(err, payroll.ErrInvalidTransition))
	})
}

func TestLock_PostsRepaymentsAndAccrual(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	_, err = f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	locked, err := f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.CycleStatusLocked, locked.Status)

	loan, err := f.store.GetLoanByID(ctx, f.loan.ID, testCompanyID)
	require.NoError(t, err)
	assertDecimal(t, "300", loan.Balance(), "loan balance")
	assert.Equal(t, payroll.LoanStatusActive, loan.Status)

	entry, err := f.store.GetJournalEntry(ctx, testCompanyID, payroll.ReferencePayrollCycle, f.cycle.ID)
	require.NoError(t, err)
	debits, credits := sumSides(entry)
	assert.True(t, debits.Equal(credits))
	assertDecimal(t, "6277.5", debits, "salary expense")
	assert.Equal(t, date(2026, 1, 31), entry.EntryDate)

	// a second posting for the same loan and cycle is refused
	_, err = f.store.CreateLoanRepayment(ctx, payroll.LoanRepayment{CompanyID: testCompanyID, LoanID: f.loan.ID, CycleID: f.cycle.ID, Amount: dec("1")})
	assert.True(t, errors.Is(err, payroll.ErrDuplicateRepayment))
}

func TestLock_JournalFailureRollsBack(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	_, err = f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	f.store.failures["CreateJournalEntry"] = errors.New("insert failed")
	_, err = f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
	require.Error(t, err)

	cycle, err := f.store.GetCycleByID(ctx, f.cycle.ID, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, payroll.CycleStatusApproved, cycle.Status)
	assert.Empty(t, f.store.repayments)
	assert.Empty(t, f.store.journals)
}

func TestMarkPaid_PostsPaymentAndDelivers(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	f.machine.notifier = notifier

	_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	_, err = f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	_, err = f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	paid, err := f.machine.MarkPaid(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err, "delivery failures must not fail the transition")
	assert.Equal(t, payroll.CycleStatusPaid, paid.Status)

	entry, err := f.store.GetJournalEntry(ctx, testCompanyID, payroll.ReferencePayrollPayment, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, entry.Items, 2)
	assertDecimal(t, "5749.75", entry.Items[0].Debit, "salary payable")
	assert.Equal(t, []string{"e1@example.com"}, notifier.sent)

	_, err = f.machine.MarkPaid(ctx, testCompanyID, f.cycle.ID)
	assert.True(t, errors.Is(err, payroll.ErrInvalidTransition))
}

func TestLoan_ClosesAcrossCycles(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	closeCycle := func(cycleID string) {
		_, err := f.machine.Run(ctx, testCompanyID, cycleID)
		require.NoError(t, err)
		_, err = f.machine.Approve(ctx, testCompanyID, cycleID)
		require.NoError(t, err)
		_, err = f.machine.Lock(ctx, testCompanyID, cycleID)
		require.NoError(t, err)
	}

	closeCycle(f.cycle.ID)

	february, err := f.machine.MonthlyCycle(ctx, testCompanyID, date(2026, 2, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 2, 28), february.EndDate)
	closeCycle(february.ID)

	loan, err := f.store.GetLoanByID(ctx, f.loan.ID, testCompanyID)
	require.NoError(t, err)
	assert.True(t, loan.Balance().IsZero())
	assert.Equal(t, payroll.LoanStatusClosed, loan.Status)

	var total = dec("0")
	for _, r := range f.store.repayments {
		total = total.Add(r.Amount)
	}
	assertDecimal(t, "800", total, "repaid")
}

func TestCreateCycle_RejectsDuplicatePeriod(t *testing.T) {
	f := newCycleFixture(t)

	_, err := f.machine.CreateCycle(context.Background(), testCompanyID, "Again", date(2026, 1, 1), date(2026, 1, 31), nil)
	assert.True(t, errors.Is(err, payroll.ErrCycleAlreadyExists))

	_, err = f.machine.CreateCycle(context.Background(), testCompanyID, "Backwards", date(2026, 2, 10), date(2026, 2, 1), nil)
	assert.True(t, errors.Is(err, payroll.ErrInvalidPeriod))
}

func TestMonthlyCycle_ReturnsExisting(t *testing.T) {
	f := newCycleFixture(t)

	cycle, err := f.machine.MonthlyCycle(context.Background(), testCompanyID, date(2026, 1, 25))
	require.NoError(t, err)
	assert.Equal(t, f.cycle.ID, cycle.ID)
}

func TestSettings_FallsBackToDefaults(t *testing.T) {
	f := newCycleFixture(t)

	settings, err := f.machine.Settings(context.Background(), "other-company")
	require.NoError(t, err)
	assert.Equal(t, "other-company", settings.CompanyID)
	assertDecimal(t, "30", settings.DaysPerMonth, "days per month")
}

func TestRun_HalfDayLeaveIsNotPenalisedTwice(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	settings := testSettings()
	settings.CompanyID = testCompanyID
	settings.LatePenaltyEnabled = true
	f.store.settings[testCompanyID] = settings

	day := date(2026, 1, 6)
	clockIn, clockOut := day.Add(9*time.Hour), day.Add(13*time.Hour)
	for i, r := range f.store.attendance["e1"] {
		if r.Date.Equal(day) {
			f.store.attendance["e1"][i] = payroll.AttendanceRecord{Date: day, Status: payroll.AttendancePresent, ClockIn: &clockIn, ClockOut: &clockOut}
		}
	}
	f.store.leaves["e1"] = []payroll.LeaveDay{{Date: day, DayPart: payroll.DayPartPM, IsPaid: false}}

	_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	payslips, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, payslips, 1)

	names := make([]string, 0, len(payslips[0].Items))
	for _, item := range payslips[0].Items {
		names = append(names, item.Name)
	}
	assert.Contains(t, names, "Unpaid Leave (0.5 days)")
	assert.NotContains(t, names, "Late Penalty")
	assert.Zero(t, payslips[0].EarlyLeaveMinutes)
}

func TestRun_RemovesPayslipsOfDepartedEmployees(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	_, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	payslips, err := f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, payslips, 1)

	f.store.employees[0].EmploymentStatus = employee.EmploymentStatusResigned

	result, err := f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 0, result.Processed)

	payslips, err = f.store.ListPayslipsByCycle(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, payslips)

	// nothing of the departed employee is posted on lock
	_, err = f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	_, err = f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, f.store.repayments)
	assert.Empty(t, f.store.journals)
}

func TestLock_StalePreviewAcrossOpenCyclesIsRejected(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	february, err := f.machine.MonthlyCycle(ctx, testCompanyID, date(2026, 2, 10))
	require.NoError(t, err)

	// both open cycles preview the full 500 installment against an 800 balance
	_, err = f.machine.Run(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	_, err = f.machine.Run(ctx, testCompanyID, february.ID)
	require.NoError(t, err)

	_, err = f.machine.Approve(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)
	_, err = f.machine.Lock(ctx, testCompanyID, f.cycle.ID)
	require.NoError(t, err)

	_, err = f.machine.Approve(ctx, testCompanyID, february.ID)
	require.NoError(t, err)
	_, err = f.machine.Lock(ctx, testCompanyID, february.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, payroll.ErrRepaymentExceedsBalance))
	assert.Contains(t, err.Error(), "repay 500, balance 300")

	cycle, err := f.store.GetCycleByID(ctx, february.ID, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, payroll.CycleStatusApproved, cycle.Status)
	assert.Len(t, f.store.repayments, 1)
	assert.Len(t, f.store.journals, 1)

	// recomputing picks up the remaining balance and the lock goes through
	_, err = f.machine.Run(ctx, testCompanyID, february.ID)
	require.NoError(t, err)
	_, err = f.machine.Lock(ctx, testCompanyID, february.ID)
	require.NoError(t, err)

	loan, err := f.store.GetLoanByID(ctx, f.loan.ID, testCompanyID)
	require.NoError(t, err)
	assert.True(t, loan.Balance().IsZero())
	assert.Equal(t, payroll.LoanStatusClosed, loan.Status)
}
