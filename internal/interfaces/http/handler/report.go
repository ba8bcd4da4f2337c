package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appaccounting "github.com/tecsitel/backend/internal/application/accounting"
	"github.com/tecsitel/backend/internal/domain/accounting"
)

// ReportHandler handles dashboard and income-statement endpoints
type ReportHandler struct {
	BaseHandler
	accountingService *appaccounting.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(accountingService *appaccounting.Service) *ReportHandler {
	return &ReportHandler{accountingService: accountingService}
}

// nowFunc is swapped in tests
var nowFunc = time.Now

// DashboardResponse represents the current-month dashboard figures
type DashboardResponse struct {
	MonthlyIncome        string `json:"monthly_income"`
	MonthlyExpenses      string `json:"monthly_expenses"`
	NetBalance           string `json:"net_balance"`
	PendingInvoicesCount int    `json:"pending_invoices_count"`
}

// IncomeStatementResponse represents the all-time statement figures
type IncomeStatementResponse struct {
	TotalIncome       string `json:"total_income"`
	TotalExpenses     string `json:"total_expenses"`
	CostOfSales       string `json:"cost_of_sales"`
	GrossProfit       string `json:"gross_profit"`
	OperatingExpenses string `json:"operating_expenses"`
	AdminExpenses     string `json:"admin_expenses"`
	TaxesPayable      string `json:"taxes_payable"`
	Receivables       string `json:"receivables"`
}

// Dashboard handles GET /reports/dashboard. An optional month query
// parameter (YYYY-MM) selects the bucket; it defaults to the current month.
// Both references are taken in UTC so bucketing matches the UTC-parsed
// issue dates even when the server clock sits near a month boundary.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	ref := nowFunc().UTC()
	if month := c.Query("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			h.BadRequest(c, "Invalid month, expected YYYY-MM")
			return
		}
		ref = parsed
	}

	summary := h.accountingService.Dashboard(c.Request.Context(), ref)
	h.Success(c, DashboardResponse{
		MonthlyIncome:        summary.MonthlyIncome.StringFixed(2),
		MonthlyExpenses:      summary.MonthlyExpenses.StringFixed(2),
		NetBalance:           summary.NetBalance.StringFixed(2),
		PendingInvoicesCount: summary.PendingInvoicesCount,
	})
}

// IncomeStatement handles GET /reports/income-statement
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	statement := h.accountingService.IncomeStatement(c.Request.Context())
	h.Success(c, toIncomeStatementResponse(statement))
}

func toIncomeStatementResponse(s accounting.IncomeStatement) IncomeStatementResponse {
	return IncomeStatementResponse{
		TotalIncome:       s.TotalIncome.StringFixed(2),
		TotalExpenses:     s.TotalExpenses.StringFixed(2),
		CostOfSales:       s.CostOfSales.StringFixed(2),
		GrossProfit:       s.GrossProfit.StringFixed(2),
		OperatingExpenses: s.OperatingExpenses.StringFixed(2),
		AdminExpenses:     s.AdminExpenses.StringFixed(2),
		TaxesPayable:      s.TaxesPayable.StringFixed(2),
		Receivables:       s.Receivables.StringFixed(2),
	}
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/income-statement", h.IncomeStatement)
	}
}
