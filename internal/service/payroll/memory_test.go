package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryStore is an in-memory payroll database for tests. It implements the
// payroll and employee repositories, every collaborator provider and a
// Transactor that restores a snapshot when the callback fails.
type memoryStore struct {
	mu sync.Mutex

	settings    map[string]payroll.PayrollSettings
	components  map[string]payroll.SalaryComponent
	structures  []payroll.SalaryStructure
	slabs       []payroll.TaxSlab
	loans       map[string]payroll.Loan
	repayments  []payroll.LoanRepayment
	cycles      map[string]payroll.PayrollCycle
	adjustments []payroll.PayrollAdjustment
	payslips    map[string]payroll.Payslip
	journals    []payroll.JournalEntry

	employees  []employee.Employee
	shifts     map[string]payroll.Shift
	attendance map[string][]payroll.AttendanceRecord
	leaves     map[string][]payroll.LeaveDay
	holidays   map[time.Time]bool

	// failures makes the named method return the error
	failures map[string]error
	// txCalls lists methods called inside WithinTransaction
	txCalls []string
}

type memoryTxKey struct{}

func (s *memoryStore) recordTx(ctx context.Context, method string) {
	if ctx.Value(memoryTxKey{}) == nil {
		return
	}
	s.mu.Lock()
	s.txCalls = append(s.txCalls, method)
	s.mu.Unlock()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		settings:   make(map[string]payroll.PayrollSettings),
		components: make(map[string]payroll.SalaryComponent),
		loans:      make(map[string]payroll.Loan),
		cycles:     make(map[string]payroll.PayrollCycle),
		payslips:   make(map[string]payroll.Payslip),
		shifts:     make(map[string]payroll.Shift),
		attendance: make(map[string][]payroll.AttendanceRecord),
		leaves:     make(map[string][]payroll.LeaveDay),
		holidays:   make(map[time.Time]bool),
		failures:   make(map[string]error),
	}
}

func (s *memoryStore) fail(method string) error {
	return s.failures[method]
}

// ========== TRANSACTOR ==========

type memorySnapshot struct {
	settings    map[string]payroll.PayrollSettings
	structures  []payroll.SalaryStructure
	loans       map[string]payroll.Loan
	repayments  []payroll.LoanRepayment
	cycles      map[string]payroll.PayrollCycle
	adjustments []payroll.PayrollAdjustment
	payslips    map[string]payroll.Payslip
	journals    []payroll.JournalEntry
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := memorySnapshot{
		settings:    copyMap(s.settings),
		structures:  append([]payroll.SalaryStructure(nil), s.structures...),
		loans:       copyMap(s.loans),
		repayments:  append([]payroll.LoanRepayment(nil), s.repayments...),
		cycles:      copyMap(s.cycles),
		adjustments: append([]payroll.PayrollAdjustment(nil), s.adjustments...),
		payslips:    copyMap(s.payslips),
		journals:    append([]payroll.JournalEntry(nil), s.journals...),
	}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.settings = snap.settings
		s.structures = snap.structures
		s.loans = snap.loans
		s.repayments = snap.repayments
		s.cycles = snap.cycles
		s.adjustments = snap.adjustments
		s.payslips = snap.payslips
		s.journals = snap.journals
		s.mu.Unlock()
		return err
	}
	return nil
}

// ========== SETTINGS ==========

func (s *memoryStore) GetSettings(ctx context.Context, companyID string) (payroll.PayrollSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.settings[companyID]
	if !ok {
		return payroll.PayrollSettings{}, payroll.ErrPayrollSettingsNotFound
	}
	return settings, nil
}

func (s *memoryStore) UpsertSettings(ctx context.Context, settings payroll.PayrollSettings) (payroll.PayrollSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	s.settings[settings.CompanyID] = settings
	return settings, nil
}

func (s *memoryStore) ListAutoRunSettings(ctx context.Context) ([]payroll.PayrollSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.PayrollSettings
	for _, st := range s.settings {
		if st.AutoRunEnabled {
			result = append(result, st)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CompanyID < result[j].CompanyID })
	return result, nil
}

// ========== COMPONENTS ==========

func (s *memoryStore) CreateComponent(ctx context.Context, c payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.components {
		if existing.CompanyID == c.CompanyID && existing.Name == c.Name {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNameExists
		}
	}
	c.ID = uuid.NewString()
	s.components[c.ID] = c
	return c, nil
}

func (s *memoryStore) GetComponentByID(ctx context.Context, id, companyID string) (payroll.SalaryComponent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.components[id]
	if !ok || c.CompanyID != companyID {
		return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNotFound
	}
	return c, nil
}

func (s *memoryStore) ListComponents(ctx context.Context, companyID string, activeOnly bool) ([]payroll.SalaryComponent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.SalaryComponent
	for _, c := range s.components {
		if c.CompanyID == companyID && (!activeOnly || c.IsActive) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ========== STRUCTURES ==========

func (s *memoryStore) SaveSalaryStructure(ctx context.Context, st payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	s.recordTx(ctx, "SaveSalaryStructure")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.structures {
		if existing.CompanyID == st.CompanyID && existing.EmployeeID == st.EmployeeID && existing.EffectiveFrom.Equal(st.EffectiveFrom) {
			st.ID = existing.ID
			s.structures[i] = st
			return st, nil
		}
	}
	st.ID = uuid.NewString()
	s.structures = append(s.structures, st)
	return st, nil
}

func (s *memoryStore) GetSalaryStructureByEffectiveDate(ctx context.Context, companyID, employeeID string, effectiveFrom time.Time) (payroll.SalaryStructure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.structures {
		if st.CompanyID == companyID && st.EmployeeID == employeeID && st.EffectiveFrom.Equal(effectiveFrom) {
			return st, nil
		}
	}
	return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
}

func (s *memoryStore) GetActiveSalaryStructure(ctx context.Context, companyID, employeeID string, asOf time.Time) (payroll.SalaryStructure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		active payroll.SalaryStructure
		found  bool
	)
	for _, st := range s.structures {
		if st.CompanyID != companyID || st.EmployeeID != employeeID || st.EffectiveFrom.After(asOf) {
			continue
		}
		if !found || st.EffectiveFrom.After(active.EffectiveFrom) {
			active, found = st, true
		}
	}
	if !found {
		return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
	}
	return active, nil
}

func (s *memoryStore) IsSalaryStructureFrozen(ctx context.Context, companyID, structureID string) (bool, error) {
	s.recordTx(ctx, "IsSalaryStructureFrozen")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payslips {
		if p.CompanyID != companyID || p.SalaryStructureID != structureID {
			continue
		}
		if !s.cycles[p.CycleID].Status.CanRecompute() {
			return true, nil
		}
	}
	return false, nil
}

// ========== TAX SLABS ==========

func (s *memoryStore) CreateTaxSlab(ctx context.Context, slab payroll.TaxSlab) (payroll.TaxSlab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slab.ID = uuid.NewString()
	s.slabs = append(s.slabs, slab)
	return slab, nil
}

func (s *memoryStore) ListTaxSlabs(ctx context.Context, companyID string) ([]payroll.TaxSlab, error) {
	if err := s.fail("ListTaxSlabs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.TaxSlab
	for _, slab := range s.slabs {
		if slab.CompanyID == companyID {
			result = append(result, slab)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MinSalary.LessThan(result[j].MinSalary) })
	return result, nil
}

// ========== LOANS ==========

func (s *memoryStore) withRepaid(l payroll.Loan) payroll.Loan {
	l.RepaidAmount = decimal.Zero
	for _, r := range s.repayments {
		if r.LoanID == l.ID {
			l.RepaidAmount = l.RepaidAmount.Add(r.Amount)
		}
	}
	return l
}

func (s *memoryStore) CreateLoan(ctx context.Context, l payroll.Loan) (payroll.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.NewString()
	s.loans[l.ID] = l
	return s.withRepaid(l), nil
}

func (s *memoryStore) GetLoanByID(ctx context.Context, id, companyID string) (payroll.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	if !ok || l.CompanyID != companyID {
		return payroll.Loan{}, payroll.ErrLoanNotFound
	}
	return s.withRepaid(l), nil
}

func (s *memoryStore) ListLoans(ctx context.Context, companyID string, filter payroll.LoanFilter) ([]payroll.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.Loan
	for _, l := range s.loans {
		if l.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && l.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(l.Status) != *filter.Status {
			continue
		}
		result = append(result, s.withRepaid(l))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memoryStore) ListActiveLoansByEmployee(ctx context.Context, companyID, employeeID string, asOf time.Time) ([]payroll.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.Loan
	for _, l := range s.loans {
		if l.CompanyID == companyID && l.EmployeeID == employeeID && l.Status == payroll.LoanStatusActive && !l.StartDate.After(asOf) {
			result = append(result, s.withRepaid(l))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (s *memoryStore) CreateLoanRepayment(ctx context.Context, r payroll.LoanRepayment) (payroll.LoanRepayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.repayments {
		if existing.LoanID == r.LoanID && existing.CycleID == r.CycleID {
			return payroll.LoanRepayment{}, payroll.ErrDuplicateRepayment
		}
	}
	r.ID = uuid.NewString()
	s.repayments = append(s.repayments, r)
	return r, nil
}

func (s *memoryStore) UpdateLoanStatus(ctx context.Context, id, companyID string, status payroll.LoanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	if !ok || l.CompanyID != companyID {
		return payroll.ErrLoanNotFound
	}
	l.Status = status
	s.loans[id] = l
	return nil
}

// ========== CYCLES ==========

func (s *memoryStore) CreateCycle(ctx context.Context, c payroll.PayrollCycle) (payroll.PayrollCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	s.cycles[c.ID] = c
	return c, nil
}

func (s *memoryStore) GetCycleByID(ctx context.Context, id, companyID string) (payroll.PayrollCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cycles[id]
	if !ok || c.CompanyID != companyID {
		return payroll.PayrollCycle{}, payroll.ErrCycleNotFound
	}
	return c, nil
}

func (s *memoryStore) GetCycleForUpdate(ctx context.Context, id, companyID string) (payroll.PayrollCycle, error) {
	s.recordTx(ctx, "GetCycleForUpdate")
	return s.GetCycleByID(ctx, id, companyID)
}

func (s *memoryStore) GetCycleByPeriod(ctx context.Context, companyID string, start, end time.Time) (payroll.PayrollCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cycles {
		if c.CompanyID == companyID && c.StartDate.Equal(start) && c.EndDate.Equal(end) {
			return c, nil
		}
	}
	return payroll.PayrollCycle{}, payroll.ErrCycleNotFound
}

func (s *memoryStore) ListCycles(ctx context.Context, companyID string, filter payroll.CycleFilter) ([]payroll.PayrollCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.PayrollCycle
	for _, c := range s.cycles {
		if c.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && string(c.Status) != *filter.Status {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (s *memoryStore) TransitionCycle(ctx context.Context, id, companyID string, from, to payroll.CycleStatus) (payroll.PayrollCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cycles[id]
	if !ok || c.CompanyID != companyID {
		return payroll.PayrollCycle{}, payroll.ErrCycleNotFound
	}
	if c.Status != from {
		return payroll.PayrollCycle{}, payroll.ErrInvalidTransition
	}
	now := time.Now()
	c.Status = to
	switch to {
	case payroll.CycleStatusApproved:
		c.ApprovedAt = &now
	case payroll.CycleStatusLocked:
		c.LockedAt = &now
	case payroll.CycleStatusPaid:
		c.PaidAt = &now
	}
	s.cycles[id] = c
	return c, nil
}

// ========== ADJUSTMENTS ==========

func (s *memoryStore) CreateAdjustment(ctx context.Context, a payroll.PayrollAdjustment) (payroll.PayrollAdjustment, error) {
	s.recordTx(ctx, "CreateAdjustment")
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	s.adjustments = append(s.adjustments, a)
	return a, nil
}

func (s *memoryStore) ListAdjustments(ctx context.Context, companyID, cycleID, employeeID string) ([]payroll.PayrollAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.PayrollAdjustment
	for _, a := range s.adjustments {
		if a.CompanyID == companyID && a.CycleID == cycleID && a.EmployeeID == employeeID {
			result = append(result, a)
		}
	}
	return result, nil
}

// ========== PAYSLIPS ==========

func (s *memoryStore) CreatePayslip(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	if err := s.fail("CreatePayslip"); err != nil {
		return payroll.Payslip{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	for _, e := range s.employees {
		if e.ID == p.EmployeeID {
			name, code := e.FullName, e.EmployeeCode
			p.EmployeeName, p.EmployeeCode, p.EmployeeEmail = &name, &code, e.Email
		}
	}
	s.payslips[p.ID] = p
	return p, nil
}

func (s *memoryStore) DeletePayslip(ctx context.Context, companyID, cycleID, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.payslips {
		if p.CompanyID == companyID && p.CycleID == cycleID && p.EmployeeID == employeeID {
			delete(s.payslips, id)
		}
	}
	return nil
}

func (s *memoryStore) GetPayslipByID(ctx context.Context, id, companyID string) (payroll.Payslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payslips[id]
	if !ok || p.CompanyID != companyID {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

func (s *memoryStore) ListPayslipsByCycle(ctx context.Context, companyID, cycleID string) ([]payroll.Payslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.Payslip
	for _, p := range s.payslips {
		if p.CompanyID == companyID && p.CycleID == cycleID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func (s *memoryStore) ListPayslipsByEmployee(ctx context.Context, companyID, employeeID string) ([]payroll.Payslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []payroll.Payslip
	for _, p := range s.payslips {
		if p.CompanyID == companyID && p.EmployeeID == employeeID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CycleID < result[j].CycleID })
	return result, nil
}

// ========== JOURNAL ==========

func (s *memoryStore) CreateJournalEntry(ctx context.Context, e payroll.JournalEntry) (payroll.JournalEntry, error) {
	if err := s.fail("CreateJournalEntry"); err != nil {
		return payroll.JournalEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.journals {
		if existing.CompanyID == e.CompanyID && existing.ReferenceType == e.ReferenceType && existing.ReferenceID == e.ReferenceID {
			return payroll.JournalEntry{}, payroll.ErrJournalAlreadyPosted
		}
	}
	e.ID = uuid.NewString()
	s.journals = append(s.journals, e)
	return e, nil
}

func (s *memoryStore) GetJournalEntry(ctx context.Context, companyID string, refType payroll.ReferenceType, refID string) (payroll.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.journals {
		if e.CompanyID == companyID && e.ReferenceType == refType && e.ReferenceID == refID {
			return e, nil
		}
	}
	return payroll.JournalEntry{}, payroll.ErrJournalEntryNotFound
}

// ========== EMPLOYEES & PROVIDERS ==========

type memoryEmployees struct{ s *memoryStore }

func (e memoryEmployees) GetByID(ctx context.Context, id, companyID string) (employee.Employee, error) {
	for _, emp := range e.s.employees {
		if emp.ID == id && emp.CompanyID == companyID {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (e memoryEmployees) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var result []employee.Employee
	for _, emp := range e.s.employees {
		if emp.CompanyID == companyID && emp.EmploymentStatus == employee.EmploymentStatusActive {
			result = append(result, emp)
		}
	}
	return result, nil
}

func (s *memoryStore) GetShift(ctx context.Context, companyID, employeeID string) (payroll.Shift, error) {
	shift, ok := s.shifts[employeeID]
	if !ok {
		return payroll.Shift{}, payroll.ErrNoShift
	}
	return shift, nil
}

func (s *memoryStore) GetAttendance(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]payroll.AttendanceRecord, error) {
	if err := s.fail("GetAttendance"); err != nil {
		return nil, err
	}
	var result []payroll.AttendanceRecord
	for _, r := range s.attendance[employeeID] {
		if !r.Date.Before(from) && !r.Date.After(to) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *memoryStore) GetLeaves(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]payroll.LeaveDay, error) {
	var result []payroll.LeaveDay
	for _, l := range s.leaves[employeeID] {
		if !l.Date.Before(from) && !l.Date.After(to) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (s *memoryStore) GetHolidays(ctx context.Context, companyID string, from, to time.Time) (map[time.Time]bool, error) {
	return s.holidays, nil
}

// recordingNotifier captures delivered payslips
type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) SendPayslip(ctx context.Context, email string, p payroll.Payslip, c payroll.PayrollCycle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, email)
	return n.err
}

func newTestStateMachine(s *memoryStore, notifier payroll.Notifier) *CycleStateMachine {
	return NewCycleStateMachine(CycleDeps{
		Repo:       s,
		Employees:  memoryEmployees{s: s},
		Shifts:     s,
		Attendance: s,
		Leaves:     s,
		Holidays:   s,
		Notifier:   notifier,
		Tx:         s,
		Defaults:   testSettings(),
	})
}

func testSettings() payroll.PayrollSettings {
	return payroll.PayrollSettings{
		DaysPerMonth:       decimal.NewFromInt(30),
		PayDivisor:         payroll.PayDivisorDaysPerMonth,
		WorkHoursPerDay:    decimal.NewFromInt(8),
		OvertimeEnabled:    true,
		OvertimeMultiplier: decimal.NewFromFloat(1.5),
		AutoRunDay:         25,
	}
}
