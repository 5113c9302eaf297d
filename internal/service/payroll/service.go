package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

const dateLayout = "2006-01-02"

type PayrollServiceImpl struct {
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	cycles       *CycleStateMachine
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	cycles *CycleStateMachine,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		cycles:       cycles,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	claims, err := getIdentityFromContext(ctx)
	if err != nil {
		return "", "", err
	}
	return claims.CompanyID, claims.UserID, nil
}

// getIdentityFromContext reads the full token identity, including role and employee.
func getIdentityFromContext(ctx context.Context) (user.Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Claims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return user.Claims{}, user.ErrCompanyIDRequired
	}

	identity := user.Claims{CompanyID: companyID}
	identity.UserID, _ = claims["user_id"].(string)
	if role, ok := claims["role"].(string); ok {
		identity.Role = user.Role(role)
	}
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		identity.EmployeeID = &employeeID
	}

	return identity, nil
}

// ========== SETTINGS ==========

func (s *PayrollServiceImpl) GetSettings(ctx context.Context) (payroll.PayrollSettingsResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	settings, err := s.cycles.Settings(ctx, companyID)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	return mapToSettingsResponse(settings), nil
}

func (s *PayrollServiceImpl) UpdateSettings(ctx context.Context, req payroll.UpdatePayrollSettingsRequest) (payroll.PayrollSettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	// Current settings, or defaults when the tenant has none yet
	current, err := s.cycles.Settings(ctx, companyID)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	// Apply updates
	if req.DaysPerMonth != nil {
		current.DaysPerMonth = *req.DaysPerMonth
	}
	if req.PayDivisor != nil {
		current.PayDivisor = payroll.PayDivisor(*req.PayDivisor)
	}
	if req.WorkHoursPerDay != nil {
		current.WorkHoursPerDay = *req.WorkHoursPerDay
	}
	if req.OvertimeEnabled != nil {
		current.OvertimeEnabled = *req.OvertimeEnabled
	}
	if req.OvertimeMultiplier != nil {
		current.OvertimeMultiplier = *req.OvertimeMultiplier
	}
	if req.LatePenaltyEnabled != nil {
		current.LatePenaltyEnabled = *req.LatePenaltyEnabled
	}
	if req.AutoRunEnabled != nil {
		current.AutoRunEnabled = *req.AutoRunEnabled
	}
	if req.AutoRunDay != nil {
		current.AutoRunDay = *req.AutoRunDay
	}

	updated, err := s.payrollRepo.UpsertSettings(ctx, current)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	return mapToSettingsResponse(updated), nil
}

// ========== COMPONENTS ==========

func (s *PayrollServiceImpl) CreateComponent(ctx context.Context, req payroll.CreateSalaryComponentRequest) (payroll.SalaryComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	componentType, err := payroll.ParseComponentType(req.Type)
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}
	isTaxable := componentType == payroll.ComponentTypeEarning
	if req.IsTaxable != nil {
		isTaxable = *req.IsTaxable
	}

	created, err := s.payrollRepo.CreateComponent(ctx, payroll.SalaryComponent{
		CompanyID:   companyID,
		Name:        req.Name,
		Type:        componentType,
		Description: req.Description,
		IsTaxable:   isTaxable,
		IsActive:    true,
	})
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	return mapToComponentResponse(created), nil
}

func (s *PayrollServiceImpl) ListComponents(ctx context.Context, activeOnly bool) ([]payroll.SalaryComponentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	components, err := s.payrollRepo.ListComponents(ctx, companyID, activeOnly)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.SalaryComponentResponse, 0, len(components))
	for _, c := range components {
		result = append(result, mapToComponentResponse(c))
	}
	return result, nil
}

// ========== SALARY STRUCTURES ==========

func (s *PayrollServiceImpl) SaveSalaryStructure(ctx context.Context, req payroll.SaveSalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID); err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	effectiveFrom, _ := time.Parse(dateLayout, req.EffectiveFrom)

	items := make([]payroll.SalaryItem, 0, len(req.Items))
	for i, it := range req.Items {
		component, err := s.payrollRepo.GetComponentByID(ctx, it.ComponentID, companyID)
		if err != nil {
			return payroll.SalaryStructureResponse{}, err
		}
		if !component.IsActive {
			return payroll.SalaryStructureResponse{}, fmt.Errorf("component %s: %w", component.Name, payroll.ErrSalaryComponentInactive)
		}
		items = append(items, payroll.SalaryItem{
			ComponentID:   component.ID,
			Amount:        it.Amount,
			IsPercentage:  it.IsPercentage,
			Percentage:    it.Percentage,
			Position:      i + 1,
			ComponentName: component.Name,
			ComponentType: component.Type,
			IsTaxable:     component.IsTaxable,
		})
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "bank_transfer"
	}

	var saved payroll.SalaryStructure
	err = s.cycles.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// A version already used by a locked cycle cannot be rewritten.
		existing, err := s.payrollRepo.GetSalaryStructureByEffectiveDate(ctx, companyID, req.EmployeeID, effectiveFrom)
		switch {
		case err == nil:
			frozen, err := s.payrollRepo.IsSalaryStructureFrozen(ctx, companyID, existing.ID)
			if err != nil {
				return err
			}
			if frozen {
				return payroll.ErrSalaryStructureFrozen
			}
		case !errors.Is(err, payroll.ErrSalaryStructureNotFound):
			return err
		}

		saved, err = s.payrollRepo.SaveSalaryStructure(ctx, payroll.SalaryStructure{
			CompanyID:     companyID,
			EmployeeID:    req.EmployeeID,
			EffectiveFrom: effectiveFrom,
			BaseSalary:    req.BaseSalary,
			PaymentMethod: paymentMethod,
			Items:         items,
		})
		return err
	})
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	return mapToStructureResponse(saved), nil
}

func (s *PayrollServiceImpl) GetSalaryStructure(ctx context.Context, employeeID string) (payroll.SalaryStructureResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	structure, err := s.payrollRepo.GetActiveSalaryStructure(ctx, companyID, employeeID, time.Now())
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	return mapToStructureResponse(structure), nil
}

// ========== TAX SLABS ==========

func (s *PayrollServiceImpl) SaveTaxSlab(ctx context.Context, req payroll.SaveTaxSlabRequest) (payroll.TaxSlabResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.TaxSlabResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.TaxSlabResponse{}, err
	}

	created, err := s.payrollRepo.CreateTaxSlab(ctx, payroll.TaxSlab{
		CompanyID:  companyID,
		MinSalary:  req.MinSalary,
		MaxSalary:  req.MaxSalary,
		TaxPercent: req.TaxPercent,
	})
	if err != nil {
		return payroll.TaxSlabResponse{}, err
	}

	return mapToTaxSlabResponse(created), nil
}

func (s *PayrollServiceImpl) ListTaxSlabs(ctx context.Context) ([]payroll.TaxSlabResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	slabs, err := s.payrollRepo.ListTaxSlabs(ctx, companyID)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.TaxSlabResponse, 0, len(slabs))
	for _, slab := range slabs {
		result = append(result, mapToTaxSlabResponse(slab))
	}
	return result, nil
}

// ========== LOANS ==========

func (s *PayrollServiceImpl) AddLoan(ctx context.Context, req payroll.CreateLoanRequest) (payroll.LoanResponse, error) {
	return s.createLoan(ctx, req, payroll.LoanTypeLoan)
}

func (s *PayrollServiceImpl) AddAdvance(ctx context.Context, req payroll.CreateLoanRequest) (payroll.LoanResponse, error) {
	return s.createLoan(ctx, req, payroll.LoanTypeAdvance)
}

func (s *PayrollServiceImpl) createLoan(ctx context.Context, req payroll.CreateLoanRequest, loanType payroll.LoanType) (payroll.LoanResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.LoanResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.LoanResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID); err != nil {
		return payroll.LoanResponse{}, err
	}

	startDate, _ := time.Parse(dateLayout, req.StartDate)

	created, err := s.payrollRepo.CreateLoan(ctx, payroll.Loan{
		CompanyID:          companyID,
		EmployeeID:         req.EmployeeID,
		Type:               loanType,
		Principal:          req.Principal,
		MonthlyInstallment: req.MonthlyInstallment,
		InterestRate:       req.InterestRate,
		StartDate:          startDate,
		Status:             payroll.LoanStatusActive,
	})
	if err != nil {
		return payroll.LoanResponse{}, err
	}

	return mapToLoanResponse(created), nil
}

func (s *PayrollServiceImpl) ListLoans(ctx context.Context, filter payroll.LoanFilter) ([]payroll.LoanResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	loans, err := s.payrollRepo.ListLoans(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.LoanResponse, 0, len(loans))
	for _, l := range loans {
		result = append(result, mapToLoanResponse(l))
	}
	return result, nil
}

// ========== CYCLES ==========

func (s *PayrollServiceImpl) CreateCycle(ctx context.Context, req payroll.CreateCycleRequest) (payroll.CycleResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CycleResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)

	var createdBy *string
	if userID != "" {
		createdBy = &userID
	}

	cycle, err := s.cycles.CreateCycle(ctx, companyID, req.Name, start, end, createdBy)
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	return mapToCycleResponse(cycle), nil
}

func (s *PayrollServiceImpl) GetCycle(ctx context.Context, cycleID string) (payroll.CycleResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	cycle, err := s.payrollRepo.GetCycleByID(ctx, cycleID, companyID)
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	return mapToCycleResponse(cycle), nil
}

func (s *PayrollServiceImpl) ListCycles(ctx context.Context, filter payroll.CycleFilter) ([]payroll.CycleResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	cycles, err := s.payrollRepo.ListCycles(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.CycleResponse, 0, len(cycles))
	for _, c := range cycles {
		result = append(result, mapToCycleResponse(c))
	}
	return result, nil
}

func (s *PayrollServiceImpl) AddAdjustment(ctx context.Context, req payroll.CreateAdjustmentRequest) (payroll.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	adjustmentType, err := payroll.ParseComponentType(req.Type)
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}
	isTaxable := adjustmentType == payroll.ComponentTypeEarning
	if req.IsTaxable != nil {
		isTaxable = *req.IsTaxable
	}

	var created payroll.PayrollAdjustment
	err = s.cycles.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// The row lock holds off a concurrent Lock until the adjustment is written.
		cycle, err := s.payrollRepo.GetCycleForUpdate(ctx, req.CycleID, companyID)
		if err != nil {
			return err
		}
		if !cycle.Status.CanRecompute() {
			return payroll.ErrCycleLocked
		}

		created, err = s.payrollRepo.CreateAdjustment(ctx, payroll.PayrollAdjustment{
			CompanyID:  companyID,
			CycleID:    cycle.ID,
			EmployeeID: req.EmployeeID,
			Name:       req.Name,
			Type:       adjustmentType,
			Amount:     req.Amount,
			IsTaxable:  isTaxable,
		})
		return err
	})
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	return payroll.AdjustmentResponse{
		ID:         created.ID,
		CycleID:    created.CycleID,
		EmployeeID: created.EmployeeID,
		Name:       created.Name,
		Type:       string(created.Type),
		Amount:     created.Amount,
		IsTaxable:  created.IsTaxable,
	}, nil
}

func (s *PayrollServiceImpl) RunPayroll(ctx context.Context, cycleID string) (payroll.RunResult, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResult{}, err
	}
	return s.cycles.Run(ctx, companyID, cycleID)
}

func (s *PayrollServiceImpl) ApproveCycle(ctx context.Context, cycleID string) (payroll.CycleResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	cycle, err := s.cycles.Approve(ctx, companyID, cycleID)
	if err != nil {
		return payroll.CycleResponse{}, err
	}
	return mapToCycleResponse(cycle), nil
}

func (s *PayrollServiceImpl) LockCycle(ctx context.Context, cycleID string) (payroll.CycleResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	cycle, err := s.cycles.Lock(ctx, companyID, cycleID)
	if err != nil {
		return payroll.CycleResponse{}, err
	}
	return mapToCycleResponse(cycle), nil
}

func (s *PayrollServiceImpl) MarkCyclePaid(ctx context.Context, cycleID string) (payroll.CycleResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	cycle, err := s.cycles.MarkPaid(ctx, companyID, cycleID)
	if err != nil {
		return payroll.CycleResponse{}, err
	}
	return mapToCycleResponse(cycle), nil
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, payslipID string) (payroll.PayslipResponse, error) {
	identity, err := getIdentityFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	payslip, err := s.payrollRepo.GetPayslipByID(ctx, payslipID, identity.CompanyID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	// Without payroll.view a caller only sees their own payslips.
	if !user.HasPermission(identity.Role, user.PermissionPayrollView) {
		if identity.EmployeeID == nil || *identity.EmployeeID != payslip.EmployeeID {
			return payroll.PayslipResponse{}, payroll.ErrPayslipNotFound
		}
	}

	return mapToPayslipResponse(payslip), nil
}

func (s *PayrollServiceImpl) ListPayslips(ctx context.Context, cycleID string) ([]payroll.PayslipResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.payrollRepo.GetCycleByID(ctx, cycleID, companyID); err != nil {
		return nil, err
	}

	payslips, err := s.payrollRepo.ListPayslipsByCycle(ctx, companyID, cycleID)
	if err != nil {
		return nil, err
	}
	return mapToPayslipResponses(payslips), nil
}

func (s *PayrollServiceImpl) ListMyPayslips(ctx context.Context) ([]payroll.PayslipResponse, error) {
	identity, err := getIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if identity.EmployeeID == nil {
		return nil, user.ErrEmployeeIDRequired
	}

	payslips, err := s.payrollRepo.ListPayslipsByEmployee(ctx, identity.CompanyID, *identity.EmployeeID)
	if err != nil {
		return nil, err
	}
	return mapToPayslipResponses(payslips), nil
}

// ========== HELPERS ==========

func mapToSettingsResponse(s payroll.PayrollSettings) payroll.PayrollSettingsResponse {
	return payroll.PayrollSettingsResponse{
		ID:                 s.ID,
		CompanyID:          s.CompanyID,
		DaysPerMonth:       s.DaysPerMonth,
		PayDivisor:         string(s.PayDivisor),
		WorkHoursPerDay:    s.WorkHoursPerDay,
		OvertimeEnabled:    s.OvertimeEnabled,
		OvertimeMultiplier: s.OvertimeMultiplier,
		LatePenaltyEnabled: s.LatePenaltyEnabled,
		AutoRunEnabled:     s.AutoRunEnabled,
		AutoRunDay:         s.AutoRunDay,
	}
}

func mapToComponentResponse(c payroll.SalaryComponent) payroll.SalaryComponentResponse {
	return payroll.SalaryComponentResponse{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		Name:        c.Name,
		Type:        string(c.Type),
		Description: c.Description,
		IsTaxable:   c.IsTaxable,
		IsActive:    c.IsActive,
	}
}

func mapToStructureResponse(st payroll.SalaryStructure) payroll.SalaryStructureResponse {
	items := make([]payroll.SalaryItemResponse, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, payroll.SalaryItemResponse{
			ComponentID:   it.ComponentID,
			ComponentName: it.ComponentName,
			ComponentType: string(it.ComponentType),
			Amount:        it.Amount,
			IsPercentage:  it.IsPercentage,
			Percentage:    it.Percentage,
			IsTaxable:     it.IsTaxable,
		})
	}
	return payroll.SalaryStructureResponse{
		ID:            st.ID,
		EmployeeID:    st.EmployeeID,
		EffectiveFrom: st.EffectiveFrom.Format(dateLayout),
		BaseSalary:    st.BaseSalary,
		PaymentMethod: st.PaymentMethod,
		Items:         items,
	}
}

func mapToTaxSlabResponse(t payroll.TaxSlab) payroll.TaxSlabResponse {
	return payroll.TaxSlabResponse{
		ID:         t.ID,
		MinSalary:  t.MinSalary,
		MaxSalary:  t.MaxSalary,
		TaxPercent: t.TaxPercent,
	}
}

func mapToLoanResponse(l payroll.Loan) payroll.LoanResponse {
	return payroll.LoanResponse{
		ID:                 l.ID,
		EmployeeID:         l.EmployeeID,
		Type:               string(l.Type),
		Principal:          l.Principal,
		MonthlyInstallment: l.MonthlyInstallment,
		InterestRate:       l.InterestRate,
		StartDate:          l.StartDate.Format(dateLayout),
		Status:             string(l.Status),
		RepaidAmount:       l.RepaidAmount,
		Balance:            l.Balance(),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	str := t.Format(time.RFC3339)
	return &str
}

func mapToCycleResponse(c payroll.PayrollCycle) payroll.CycleResponse {
	return payroll.CycleResponse{
		ID:         c.ID,
		Name:       c.Name,
		StartDate:  c.StartDate.Format(dateLayout),
		EndDate:    c.EndDate.Format(dateLayout),
		Status:     string(c.Status),
		ApprovedAt: formatTimePtr(c.ApprovedAt),
		LockedAt:   formatTimePtr(c.LockedAt),
		PaidAt:     formatTimePtr(c.PaidAt),
	}
}

func mapToPayslipResponse(p payroll.Payslip) payroll.PayslipResponse {
	employeeName := ""
	employeeCode := ""
	if p.EmployeeName != nil {
		employeeName = *p.EmployeeName
	}
	if p.EmployeeCode != nil {
		employeeCode = *p.EmployeeCode
	}

	items := make([]payroll.PayslipItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, payroll.PayslipItemResponse{
			Name:     it.Name,
			Type:     string(it.Type),
			Category: string(it.Category),
			Amount:   it.Amount,
		})
	}

	return payroll.PayslipResponse{
		ID:              p.ID,
		CycleID:         p.CycleID,
		EmployeeID:      p.EmployeeID,
		EmployeeName:    employeeName,
		EmployeeCode:    employeeCode,
		BaseSalary:      p.BaseSalary,
		GrossSalary:     p.GrossSalary,
		TotalDeductions: p.TotalDeductions,
		TaxDeducted:     p.TaxDeducted,
		NetSalary:       p.NetSalary,
		Days: payroll.DaySummaryResponse{
			TotalDays:       p.Days.TotalDays,
			WorkingDays:     p.Days.WorkingDays,
			PresentDays:     p.Days.PresentDays,
			PaidLeaveDays:   p.Days.PaidLeaveDays,
			UnpaidLeaveDays: p.Days.UnpaidLeaveDays,
			AbsentDays:      p.Days.AbsentDays,
			WeeklyOffDays:   p.Days.WeeklyOffDays,
			Holidays:        p.Days.Holidays,
			PayableDays:     p.Days.PayableDays,
		},
		OvertimeMinutes: p.OvertimeMinutes,
		LateMinutes:     p.LateMinutes,
		Items:           items,
	}
}

func mapToPayslipResponses(payslips []payroll.Payslip) []payroll.PayslipResponse {
	result := make([]payroll.PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		result = append(result, mapToPayslipResponse(p))
	}
	return result
}
