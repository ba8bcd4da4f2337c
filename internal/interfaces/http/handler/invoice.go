package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinvoicing "github.com/tecsitel/backend/internal/application/invoicing"
	"github.com/tecsitel/backend/internal/domain/invoicing"
	"github.com/tecsitel/backend/internal/interfaces/http/middleware"
)

const dateLayout = "2006-01-02"

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *appinvoicing.Service
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *appinvoicing.Service) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// CreateInvoiceRequest represents a request to create a new invoice
type CreateInvoiceRequest struct {
	ClientRUC   string   `json:"client_ruc" binding:"required,ruc"`
	ClientName  string   `json:"client_name" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"required,min=1,max=500"`
	Amount      float64  `json:"amount" binding:"required,gt=0"`
	IGVRate     *float64 `json:"igv_rate" binding:"omitempty,min=0,max=100"`
	IssueDate   string   `json:"issue_date" binding:"required,datetime=2006-01-02"`
	DueDate     string   `json:"due_date" binding:"required,datetime=2006-01-02"`
}

// UpdateInvoiceStatusRequest represents a status transition request
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Pagada Rechazado Vencido"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	ClientRUC     string `json:"client_ruc"`
	ClientName    string `json:"client_name"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	IGVRate       string `json:"igv_rate"`
	IGVAmount     string `json:"igv_amount"`
	Total         string `json:"total"`
	IssueDate     string `json:"issue_date"`
	DueDate       string `json:"due_date"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		ClientRUC:     inv.ClientRUC,
		ClientName:    inv.ClientName,
		Description:   inv.Description,
		Amount:        inv.Amount.StringFixed(2),
		IGVRate:       inv.IGVRate.String(),
		IGVAmount:     inv.IGVAmount.StringFixed(2),
		Total:         inv.Total.StringFixed(2),
		IssueDate:     inv.IssueDate.Format(dateLayout),
		DueDate:       inv.DueDate.Format(dateLayout),
		Status:        inv.Status.String(),
		CreatedAt:     inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     inv.UpdatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	issueDate, err := time.Parse(dateLayout, req.IssueDate)
	if err != nil {
		h.BadRequest(c, "Invalid issue_date")
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due_date")
		return
	}

	// An omitted rate falls back to the configured default; an explicit
	// zero stays zero (exempt operations)
	igvRate := h.invoiceService.DefaultIGVRate()
	if req.IGVRate != nil {
		igvRate = decimal.NewFromFloat(*req.IGVRate)
	}

	input := invoicing.InvoiceInput{
		ClientRUC:   req.ClientRUC,
		ClientName:  req.ClientName,
		Description: req.Description,
		Amount:      decimal.NewFromFloat(req.Amount),
		IGVRate:     igvRate,
		IssueDate:   issueDate,
		DueDate:     dueDate,
	}

	inv, err := h.invoiceService.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(inv))
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	invoices := h.invoiceService.ListInvoices(c.Request.Context())

	responses := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		responses = append(responses, toInvoiceResponse(inv))
	}
	h.Success(c, responses)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// UpdateStatus handles PATCH /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	inv, err := h.invoiceService.UpdateStatus(c.Request.Context(), id, invoicing.InvoiceStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// RegisterRoutes registers all invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.POST("", h.Create)
		invoices.PATCH("/:id/status", h.UpdateStatus)
	}
}
