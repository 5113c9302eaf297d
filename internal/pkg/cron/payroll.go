package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"golang.org/x/sync/errgroup"
)

// CycleRunner is the part of the cycle state machine the scheduler drives.
type CycleRunner interface {
	MonthlyCycle(ctx context.Context, companyID string, day time.Time) (payroll.PayrollCycle, error)
	Run(ctx context.Context, companyID, cycleID string) (payroll.RunResult, error)
}

type PayrollJobs struct {
	payrollRepo payroll.PayrollRepository
	cycles      CycleRunner
	markers     payroll.RunMarkerStore
	concurrency int
	now         func() time.Time
}

func NewPayrollJobs(
	payrollRepo payroll.PayrollRepository,
	cycles CycleRunner,
	markers payroll.RunMarkerStore,
	concurrency int,
) *PayrollJobs {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PayrollJobs{
		payrollRepo: payrollRepo,
		cycles:      cycles,
		markers:     markers,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("auto_run_payroll", interval, j.AutoRunPayroll)
}

// AutoRunPayroll runs the current month's draft cycle for every tenant with
// auto_run_enabled whose auto_run_day has been reached. A tenant is run at
// most once per pay period. One tenant failing does not stop the others.
func (j *PayrollJobs) AutoRunPayroll(ctx context.Context) error {
	tenants, err := j.payrollRepo.ListAutoRunSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list auto-run settings: %w", err)
	}
	if len(tenants) == 0 {
		return nil
	}

	today := payroll.DateOf(j.now().UTC())
	slog.Info("Cron: Starting auto-run payroll job", "tenants", len(tenants), "date", today.Format("2006-01-02"))

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, settings := range tenants {
		g.Go(func() error {
			if err := j.runTenant(gctx, settings, today); err != nil {
				slog.Error("Cron: auto-run payroll failed", "company_id", settings.CompanyID, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("company %s: %w", settings.CompanyID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

// dueDay clamps auto_run_day to the last day of the month.
func dueDay(settings payroll.PayrollSettings, today time.Time) int {
	last := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if settings.AutoRunDay > last {
		return last
	}
	if settings.AutoRunDay < 1 {
		return 1
	}
	return settings.AutoRunDay
}

func (j *PayrollJobs) runTenant(ctx context.Context, settings payroll.PayrollSettings, today time.Time) error {
	if !settings.AutoRunEnabled || today.Day() < dueDay(settings, today) {
		return nil
	}

	// One automatic run per pay period: a marker inside the current month means
	// this period was already handled.
	periodStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	last, ok, err := j.markers.LastRunOn(ctx, settings.CompanyID)
	if err != nil {
		return err
	}
	if ok && !last.Before(periodStart) {
		return nil
	}

	cycle, err := j.cycles.MonthlyCycle(ctx, settings.CompanyID, today)
	if err != nil {
		return fmt.Errorf("failed to resolve monthly cycle: %w", err)
	}
	// Approved figures are signed off; only drafts are recomputed here.
	if cycle.Status != payroll.CycleStatusDraft {
		slog.Debug("Cron: payroll cycle is past draft, skipping", "company_id", settings.CompanyID, "cycle_id", cycle.ID, "status", cycle.Status)
		return nil
	}

	result, err := j.cycles.Run(ctx, settings.CompanyID, cycle.ID)
	if err != nil {
		return fmt.Errorf("failed to run cycle %s: %w", cycle.ID, err)
	}

	if err := j.markers.SetLastRunOn(ctx, settings.CompanyID, today); err != nil {
		return err
	}

	slog.Info("Cron: payroll auto-run completed",
		"company_id", settings.CompanyID,
		"cycle_id", cycle.ID,
		"processed", result.Processed,
		"failed", result.Failed,
	)
	return nil
}
