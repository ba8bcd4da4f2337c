package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tecsitel/backend/internal/domain/invoicing"
)

// Fixed ratios for the simplified income statement. These are heuristic
// placeholders carried over from the original bookkeeping rules, not real
// cost accounting; treat the figures they produce as estimates.
// Cost of sales and gross profit split total income 60/40; operating and
// administrative expenses split total expenses 70/30.
var (
	costOfSalesRatio   = decimal.RequireFromString("0.60")
	operatingExpRatio  = decimal.RequireFromString("0.70")
	adminExpensesRatio = decimal.RequireFromString("0.30")
)

// DashboardSummary holds the figures shown on the dashboard for a
// reference month.
type DashboardSummary struct {
	MonthlyIncome        decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses      decimal.Decimal `json:"monthly_expenses"`
	NetBalance           decimal.Decimal `json:"net_balance"`
	PendingInvoicesCount int             `json:"pending_invoices_count"`
}

// IncomeStatement holds all-time accounting-statement figures. The cost and
// expense lines are fixed-ratio estimates.
type IncomeStatement struct {
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	CostOfSales       decimal.Decimal `json:"cost_of_sales"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	OperatingExpenses decimal.Decimal `json:"operating_expenses"`
	AdminExpenses     decimal.Decimal `json:"admin_expenses"`
	TaxesPayable      decimal.Decimal `json:"taxes_payable"`
	Receivables       decimal.Decimal `json:"receivables"`
}

// sameMonth reports whether t falls in the same calendar year and month as
// ref. Zero dates are never bucketed.
func sameMonth(t, ref time.Time) bool {
	if t.IsZero() {
		return false
	}
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}

// ComputeDashboard derives the dashboard figures from full snapshots of the
// invoice and transaction collections. It is pure: no mutation, no I/O, and
// the whole result is recomputed on every call. Malformed entries degrade to
// zero contributions instead of failing the computation.
func ComputeDashboard(invoices []*invoicing.Invoice, transactions []*Transaction, ref time.Time) DashboardSummary {
	var s DashboardSummary
	s.MonthlyIncome = decimal.Zero
	s.MonthlyExpenses = decimal.Zero

	for _, inv := range invoices {
		if inv == nil {
			continue
		}
		if inv.IsPending() {
			s.PendingInvoicesCount++
		}
		if inv.IsPaid() && sameMonth(inv.IssueDate, ref) {
			s.MonthlyIncome = s.MonthlyIncome.Add(inv.Total)
		}
	}

	for _, tx := range transactions {
		if tx == nil {
			continue
		}
		if tx.IsExpense() && sameMonth(tx.Date, ref) {
			s.MonthlyExpenses = s.MonthlyExpenses.Add(tx.Amount)
		}
	}

	s.NetBalance = s.MonthlyIncome.Sub(s.MonthlyExpenses)
	return s
}

// ComputeIncomeStatement derives the all-time statement figures. Same purity
// contract as ComputeDashboard.
func ComputeIncomeStatement(invoices []*invoicing.Invoice, transactions []*Transaction) IncomeStatement {
	st := IncomeStatement{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		TaxesPayable:  decimal.Zero,
		Receivables:   decimal.Zero,
	}

	for _, inv := range invoices {
		if inv == nil {
			continue
		}
		// IGV accrues on every issued invoice regardless of status.
		st.TaxesPayable = st.TaxesPayable.Add(inv.IGVAmount)
		if inv.IsPaid() {
			st.TotalIncome = st.TotalIncome.Add(inv.Total)
		}
		if inv.IsPending() {
			st.Receivables = st.Receivables.Add(inv.Total)
		}
	}

	for _, tx := range transactions {
		if tx == nil {
			continue
		}
		if tx.IsExpense() {
			st.TotalExpenses = st.TotalExpenses.Add(tx.Amount)
		}
	}

	st.CostOfSales = st.TotalIncome.Mul(costOfSalesRatio)
	st.GrossProfit = st.TotalIncome.Sub(st.CostOfSales)
	st.OperatingExpenses = st.TotalExpenses.Mul(operatingExpRatio)
	st.AdminExpenses = st.TotalExpenses.Mul(adminExpensesRatio)

	return st
}
