package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayslip() (payroll.Payslip, payroll.PayrollCycle) {
	name := "Ana"
	code := "EMP-001"
	p := payroll.Payslip{
		EmployeeName:    &name,
		EmployeeCode:    &code,
		GrossSalary:     decimal.NewFromInt(3500),
		TotalDeductions: decimal.NewFromInt(500),
		NetSalary:       decimal.NewFromInt(3000),
		Items: []payroll.PayslipItem{
			{Name: "Base Salary", Type: payroll.ItemTypeEarning, Amount: decimal.NewFromInt(3000)},
			{Name: "Housing", Type: payroll.ItemTypeEarning, Amount: decimal.NewFromInt(500)},
			{Name: "Tax", Type: payroll.ItemTypeDeduction, Amount: decimal.NewFromInt(500)},
		},
	}
	cycle := payroll.PayrollCycle{
		Name:      "January 2026",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	return p, cycle
}

func TestPayslipSender_Render(t *testing.T) {
	notifier, err := NewPayslipSender(config.SMTPConfig{})
	require.NoError(t, err)
	sender := notifier.(*payslipSender)

	p, cycle := testPayslip()
	body, err := sender.render(p, cycle)
	require.NoError(t, err)

	assert.Contains(t, body, "Payslip January 2026")
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "Housing")
	assert.Contains(t, body, "3000.00")
	assert.Less(t, strings.Index(body, "Housing"), strings.Index(body, "Tax"))
}

func TestPayslipSender_SkipsWithoutHost(t *testing.T) {
	notifier, err := NewPayslipSender(config.SMTPConfig{})
	require.NoError(t, err)
	sender := notifier.(*payslipSender)
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called without an SMTP host")
		return nil
	}

	p, cycle := testPayslip()
	assert.NoError(t, sender.SendPayslip(context.Background(), "ana@example.com", p, cycle))
}

func TestPayslipSender_StopsRetryingOnCancel(t *testing.T) {
	notifier, err := NewPayslipSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "payroll@example.com"})
	require.NoError(t, err)
	sender := notifier.(*payslipSender)

	calls := 0
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("connection refused")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, cycle := testPayslip()
	err = sender.SendPayslip(ctx, "ana@example.com", p, cycle)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
