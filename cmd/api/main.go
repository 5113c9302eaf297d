package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/hris-payroll-go/internal/repository/redis"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	payrollRepo := postgresql.NewPayrollRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)

	var runMarkers payroll.RunMarkerStore
	if cfg.Redis.Addr != "" {
		redisClient, err := redisRepo.NewClient(ctx, redisRepo.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Error connecting to redis: ", err)
		}
		defer redisClient.Close()
		runMarkers = redisRepo.NewRunMarkerStore(redisClient)
	} else {
		runMarkers = postgresql.NewRunMarkerStore(db)
	}

	payslipSender, err := email.NewPayslipSender(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service: ", err)
	}

	cycles := payrollService.NewCycleStateMachine(payrollService.CycleDeps{
		Repo:       payrollRepo,
		Employees:  employeeRepo,
		Shifts:     postgresql.NewShiftProvider(db),
		Attendance: postgresql.NewAttendanceProvider(db),
		Leaves:     postgresql.NewLeaveProvider(db),
		Holidays:   postgresql.NewHolidayProvider(db),
		Notifier:   payslipSender,
		Tx:         postgresql.NewTransactor(db),
		Defaults: payroll.PayrollSettings{
			DaysPerMonth:       cfg.Payroll.DaysPerMonth,
			PayDivisor:         payroll.PayDivisorDaysPerMonth,
			WorkHoursPerDay:    cfg.Payroll.WorkHoursPerDay,
			OvertimeEnabled:    true,
			OvertimeMultiplier: cfg.Payroll.OvertimeMultiplier,
			AutoRunDay:         25,
		},
	})
	payrollSvc := payrollService.NewPayrollService(payrollRepo, employeeRepo, cycles)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(JWTService, payrollHandler, appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
		Env:            cfg.App.Env,
	})

	scheduler := cron.NewScheduler(ctx)
	if cfg.Scheduler.Enabled {
		payrollJobs := cron.NewPayrollJobs(payrollRepo, cycles, runMarkers, cfg.Scheduler.Concurrency)
		payrollJobs.RegisterJobs(scheduler, cfg.Scheduler.Interval)
		scheduler.Start()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
}
