package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

type payslipSender struct {
	cfg       config.SMTPConfig
	templates *template.Template
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewPayslipSender returns a payroll.Notifier that emails rendered payslips.
// With no SMTP host configured it logs and drops every message.
func NewPayslipSender(cfg config.SMTPConfig) (payroll.Notifier, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money": formatMoney,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &payslipSender{
		cfg:       cfg,
		templates: tmpl,
		send:      smtp.SendMail,
	}, nil
}

// messageID returns a v7 id, falling back to v4.
func messageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type payslipLine struct {
	Name   string
	Amount decimal.Decimal
}

type payslipEmailData struct {
	EmployeeName    string
	EmployeeCode    string
	CycleName       string
	Period          string
	Earnings        []payslipLine
	Deductions      []payslipLine
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
	PayableDays     string
	WorkingDays     string
}

func payslipData(p payroll.Payslip, cycle payroll.PayrollCycle) payslipEmailData {
	data := payslipEmailData{
		CycleName:       cycle.Name,
		Period:          cycle.StartDate.Format("02 Jan 2006") + " - " + cycle.EndDate.Format("02 Jan 2006"),
		GrossSalary:     p.GrossSalary,
		TotalDeductions: p.TotalDeductions,
		NetSalary:       p.NetSalary,
		PayableDays:     p.Days.PayableDays.String(),
		WorkingDays:     p.Days.WorkingDays.String(),
	}
	if p.EmployeeName != nil {
		data.EmployeeName = *p.EmployeeName
	}
	if p.EmployeeCode != nil {
		data.EmployeeCode = *p.EmployeeCode
	}

	for _, item := range p.Items {
		line := payslipLine{Name: item.Name, Amount: item.Amount}
		if item.Type == payroll.ItemTypeEarning {
			data.Earnings = append(data.Earnings, line)
		} else {
			data.Deductions = append(data.Deductions, line)
		}
	}
	return data
}

func (s *payslipSender) render(p payroll.Payslip, cycle payroll.PayrollCycle) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "payslip.html", payslipData(p, cycle)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}

// SendPayslip implements payroll.Notifier.
func (s *payslipSender) SendPayslip(ctx context.Context, employeeEmail string, p payroll.Payslip, cycle payroll.PayrollCycle) error {
	body, err := s.render(p, cycle)
	if err != nil {
		return err
	}
	return s.sendHTML(ctx, employeeEmail, fmt.Sprintf("Payslip %s", cycle.Name), body)
}

func (s *payslipSender) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("Message-ID: <%s@%s>\r\n", messageID(), s.cfg.Host)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.send(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// exponential backoff: 1s, 2s
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
