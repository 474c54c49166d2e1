// Package report filters sales and computes the commission summary shown
// to resellers. Everything here is pure: the same input always yields the
// same output.
package report

import (
	"strings"
	"time"

	"github.com/barklazza/projeto-vendas/types"
	"github.com/shopspring/decimal"
)

// CommissionRate is the reseller's share of every gross sale.
var CommissionRate = decimal.RequireFromString("0.30")

// Summary aggregates a set of sales.
type Summary struct {
	Gross           decimal.Decimal
	Commission      decimal.Decimal
	Net             decimal.Decimal
	Count           int
	ByPaymentMethod map[string]decimal.Decimal
}

// Split returns the commission on gross and the remaining net amount.
// Commission is rounded to cents and net absorbs the rounding, so the two
// always add back up to gross.
func Split(gross decimal.Decimal) (commission, net decimal.Decimal) {
	commission = gross.Mul(CommissionRate).Round(2)
	net = gross.Sub(commission)
	return commission, net
}

// Summarize totals sales.
func Summarize(sales []types.Sale) Summary {
	summary := Summary{
		Gross:           decimal.Zero,
		ByPaymentMethod: make(map[string]decimal.Decimal),
	}
	for _, sale := range sales {
		summary.Gross = summary.Gross.Add(sale.Value)
		summary.ByPaymentMethod[sale.PaymentMethod] = summary.ByPaymentMethod[sale.PaymentMethod].Add(sale.Value)
		summary.Count++
	}
	summary.Commission, summary.Net = Split(summary.Gross)
	return summary
}

// PaymentMethods lists the distinct payment methods in first-seen order.
func PaymentMethods(sales []types.Sale) []string {
	seen := make(map[string]struct{})
	methods := make([]string, 0)
	for _, sale := range sales {
		if _, ok := seen[sale.PaymentMethod]; ok {
			continue
		}
		seen[sale.PaymentMethod] = struct{}{}
		methods = append(methods, sale.PaymentMethod)
	}
	return methods
}

// Filter narrows a sale set. Zero fields do not filter.
type Filter struct {
	// PaymentMethod must match exactly.
	PaymentMethod string
	// ClientName matches as a case-insensitive substring.
	ClientName string
	// StartDate is inclusive.
	StartDate *time.Time
	// EndDate is inclusive through the end of that day.
	EndDate *time.Time
}

// IsZero reports whether the filter keeps every sale.
func (f Filter) IsZero() bool {
	return f.PaymentMethod == "" && strings.TrimSpace(f.ClientName) == "" && f.StartDate == nil && f.EndDate == nil
}

// Apply returns the sales matching every set criterion, in input order.
func (f Filter) Apply(sales []types.Sale) []types.Sale {
	client := strings.ToLower(strings.TrimSpace(f.ClientName))

	var start, end time.Time
	if f.StartDate != nil {
		start = dateOnly(*f.StartDate)
	}
	if f.EndDate != nil {
		end = dateOnly(*f.EndDate).AddDate(0, 0, 1)
	}

	out := make([]types.Sale, 0, len(sales))
	for _, sale := range sales {
		if f.PaymentMethod != "" && sale.PaymentMethod != f.PaymentMethod {
			continue
		}
		if client != "" && !strings.Contains(strings.ToLower(sale.ClientName), client) {
			continue
		}
		paid := dateOnly(sale.PaymentDate)
		if f.StartDate != nil && paid.Before(start) {
			continue
		}
		if f.EndDate != nil && !paid.Before(end) {
			continue
		}
		out = append(out, sale)
	}
	return out
}

// dateOnly drops the clock so dates compare by calendar day regardless of
// the location they were parsed in.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
