package payroll

import (
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// ComputeTax applies a progressive slab table to taxable gross pay.
// Slabs are walked in ascending min_salary; gaps and overlaps are summed as
// configured, never corrected.
func ComputeTax(taxableGross decimal.Decimal, slabs []payroll.TaxSlab) decimal.Decimal {
	if !taxableGross.IsPositive() {
		return decimal.Zero
	}

	ordered := make([]payroll.TaxSlab, len(slabs))
	copy(ordered, slabs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinSalary.LessThan(ordered[j].MinSalary)
	})

	tax := decimal.Zero
	for _, slab := range ordered {
		upper := taxableGross
		if slab.MaxSalary != nil {
			upper = decimal.Min(taxableGross, *slab.MaxSalary)
		}
		overlap := upper.Sub(slab.MinSalary)
		if !overlap.IsPositive() {
			continue
		}
		tax = tax.Add(overlap.Mul(slab.TaxPercent).Div(hundred))
	}

	return round2(tax)
}

// SlabGaps reports boundaries where a slab does not start where the previous
// one ended. It is informational only.
func SlabGaps(slabs []payroll.TaxSlab) []decimal.Decimal {
	ordered := make([]payroll.TaxSlab, len(slabs))
	copy(ordered, slabs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinSalary.LessThan(ordered[j].MinSalary)
	})

	var gaps []decimal.Decimal
	for i := 1; i < len(ordered); i++ {
		prev := ordered[i-1]
		if prev.MaxSalary == nil || !prev.MaxSalary.Equal(ordered[i].MinSalary) {
			gaps = append(gaps, ordered[i].MinSalary)
		}
	}
	return gaps
}
