package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AllowedOrigins []string
	LogLevel       slog.Level
	Env            string
}

func NewRouter(JWTService jwt.Service, payrollHandler PayrollHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	view := middleware.RequirePermission(user.PermissionPayrollView)
	manage := middleware.RequirePermission(user.PermissionPayrollManage)
	approve := middleware.RequirePermission(user.PermissionPayrollApprove)
	viewOwn := middleware.RequirePermission(user.PermissionPayrollViewOwn)

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireCompany)

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/settings", func(r chi.Router) {
					r.With(view).Get("/", payrollHandler.GetSettings)
					r.With(manage).Put("/", payrollHandler.UpdateSettings)
				})

				r.Route("/components", func(r chi.Router) {
					r.With(view).Get("/", payrollHandler.ListComponents)
					r.With(manage).Post("/", payrollHandler.CreateComponent)
				})

				r.Route("/employees/{employeeID}/salary-structure", func(r chi.Router) {
					r.With(view).Get("/", payrollHandler.GetSalaryStructure)
					r.With(manage).Put("/", payrollHandler.SaveSalaryStructure)
				})

				r.Route("/tax-slabs", func(r chi.Router) {
					r.With(view).Get("/", payrollHandler.ListTaxSlabs)
					r.With(manage).Post("/", payrollHandler.SaveTaxSlab)
				})

				r.Route("/loans", func(r chi.Router) {
					r.With(view).Get("/", payrollHandler.ListLoans)
					r.With(manage).Post("/", payrollHandler.AddLoan)
				})
				r.With(manage).Post("/advances", payrollHandler.AddAdvance)

				r.Route("/cycles", func(r chi.Router) {
					r.With(view).Get("/", payrollHandler.ListCycles)
					r.With(manage).Post("/", payrollHandler.CreateCycle)

					r.Route("/{id}", func(r chi.Router) {
						r.With(view).Get("/", payrollHandler.GetCycle)
						r.With(view).Get("/payslips", payrollHandler.ListPayslips)
						r.With(manage).Post("/adjustments", payrollHandler.AddAdjustment)
						r.With(manage).Post("/run", payrollHandler.RunPayroll)

						// Approving, locking and paying post money; owner only by default
						r.Group(func(r chi.Router) {
							r.Use(approve)
							r.Post("/approve", payrollHandler.ApproveCycle)
							r.Post("/lock", payrollHandler.LockCycle)
							r.Post("/mark-paid", payrollHandler.MarkCyclePaid)
						})
					})
				})

				// Employees may open their own payslips; the service enforces ownership
				r.With(viewOwn).Get("/payslips/{id}", payrollHandler.GetPayslip)
				r.With(viewOwn).Get("/my/payslips", payrollHandler.ListMyPayslips)
			})
		})
	})

	return r
}
