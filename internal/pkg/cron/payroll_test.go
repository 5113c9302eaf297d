package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettingsRepo struct {
	payroll.PayrollRepository
	settings []payroll.PayrollSettings
}

func (s *stubSettingsRepo) ListAutoRunSettings(ctx context.Context) ([]payroll.PayrollSettings, error) {
	return s.settings, nil
}

type stubMarkers struct {
	mu   sync.Mutex
	days map[string]time.Time
}

func (s *stubMarkers) LastRunOn(ctx context.Context, companyID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day, ok := s.days[companyID]
	return day, ok, nil
}

func (s *stubMarkers) SetLastRunOn(ctx context.Context, companyID string, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[companyID] = day
	return nil
}

type stubCycles struct {
	mu     sync.Mutex
	status map[string]payroll.CycleStatus
	runErr map[string]error
	runs   []string
}

func (s *stubCycles) MonthlyCycle(ctx context.Context, companyID string, day time.Time) (payroll.PayrollCycle, error) {
	status, ok := s.status[companyID]
	if !ok {
		status = payroll.CycleStatusDraft
	}
	return payroll.PayrollCycle{ID: "cycle-" + companyID, CompanyID: companyID, Status: status}, nil
}

func (s *stubCycles) Run(ctx context.Context, companyID, cycleID string) (payroll.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.runErr[companyID]; err != nil {
		return payroll.RunResult{}, err
	}
	s.runs = append(s.runs, companyID)
	return payroll.RunResult{CycleID: cycleID, Processed: 1}, nil
}

func newTestPayrollJobs(settings []payroll.PayrollSettings, today time.Time) (*PayrollJobs, *stubCycles, *stubMarkers) {
	cycles := &stubCycles{status: map[string]payroll.CycleStatus{}, runErr: map[string]error{}}
	markers := &stubMarkers{days: map[string]time.Time{}}
	jobs := NewPayrollJobs(&stubSettingsRepo{settings: settings}, cycles, markers, 2)
	jobs.now = func() time.Time { return today }
	return jobs, cycles, markers
}

func autoRun(companyID string, day int) payroll.PayrollSettings {
	return payroll.PayrollSettings{CompanyID: companyID, AutoRunEnabled: true, AutoRunDay: day}
}

func TestAutoRunPayroll_RunsDueTenants(t *testing.T) {
	today := time.Date(2026, 1, 25, 9, 0, 0, 0, time.UTC)
	jobs, cycles, markers := newTestPayrollJobs([]payroll.PayrollSettings{
		autoRun("due", 25),
		autoRun("early", 28),
	}, today)

	require.NoError(t, jobs.AutoRunPayroll(context.Background()))
	assert.Equal(t, []string{"due"}, cycles.runs)

	last, ok, _ := markers.LastRunOn(context.Background(), "due")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), last)

	// second tick on the same day is a no-op
	require.NoError(t, jobs.AutoRunPayroll(context.Background()))
	assert.Equal(t, []string{"due"}, cycles.runs)
}

func TestAutoRunPayroll_ClampsDayToMonthEnd(t *testing.T) {
	today := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	jobs, cycles, _ := newTestPayrollJobs([]payroll.PayrollSettings{autoRun("c1", 31)}, today)

	require.NoError(t, jobs.AutoRunPayroll(context.Background()))
	assert.Equal(t, []string{"c1"}, cycles.runs)
}

func TestAutoRunPayroll_SkipsCyclesPastDraft(t *testing.T) {
	for _, status := range []payroll.CycleStatus{payroll.CycleStatusApproved, payroll.CycleStatusLocked, payroll.CycleStatusPaid} {
		t.Run(string(status), func(t *testing.T) {
			today := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)
			jobs, cycles, markers := newTestPayrollJobs([]payroll.PayrollSettings{autoRun("c1", 25)}, today)
			cycles.status["c1"] = status

			require.NoError(t, jobs.AutoRunPayroll(context.Background()))
			assert.Empty(t, cycles.runs)

			_, ok, _ := markers.LastRunOn(context.Background(), "c1")
			assert.False(t, ok)
		})
	}
}

func TestAutoRunPayroll_RunsOncePerPayPeriod(t *testing.T) {
	jobs, cycles, _ := newTestPayrollJobs([]payroll.PayrollSettings{autoRun("c1", 25)}, time.Time{})

	tick := func(day time.Time) {
		jobs.now = func() time.Time { return day }
		require.NoError(t, jobs.AutoRunPayroll(context.Background()))
	}

	for day := time.Date(2026, 1, 25, 9, 0, 0, 0, time.UTC); day.Month() == time.January; day = day.AddDate(0, 0, 1) {
		tick(day)
	}
	assert.Equal(t, []string{"c1"}, cycles.runs)

	// the next period runs again once its day is reached
	tick(time.Date(2026, 2, 24, 9, 0, 0, 0, time.UTC))
	assert.Len(t, cycles.runs, 1)
	tick(time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC))
	tick(time.Date(2026, 2, 26, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"c1", "c1"}, cycles.runs)
}

func TestAutoRunPayroll_TenantFailureDoesNotStopOthers(t *testing.T) {
	today := time.Date(2026, 1, 25, 9, 0, 0, 0, time.UTC)
	jobs, cycles, markers := newTestPayrollJobs([]payroll.PayrollSettings{
		autoRun("bad", 1),
		autoRun("good", 1),
	}, today)
	boom := errors.New("boom")
	cycles.runErr["bad"] = boom

	err := jobs.AutoRunPayroll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"good"}, cycles.runs)

	_, ok, _ := markers.LastRunOn(context.Background(), "bad")
	assert.False(t, ok)
}
