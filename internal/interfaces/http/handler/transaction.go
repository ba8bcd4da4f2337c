package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appaccounting "github.com/tecsitel/backend/internal/application/accounting"
	"github.com/tecsitel/backend/internal/domain/accounting"
	"github.com/tecsitel/backend/internal/interfaces/http/middleware"
)

// TransactionHandler handles income/expense ledger endpoints
type TransactionHandler struct {
	BaseHandler
	accountingService *appaccounting.Service
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(accountingService *appaccounting.Service) *TransactionHandler {
	return &TransactionHandler{accountingService: accountingService}
}

// CreateTransactionRequest represents a request to record a manual entry
type CreateTransactionRequest struct {
	Type        string  `json:"type" binding:"required,oneof=Ingreso Egreso"`
	Description string  `json:"description" binding:"required,min=1,max=500"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Date        string  `json:"date" binding:"required,datetime=2006-01-02"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at"`
}

func toTransactionResponse(tx *accounting.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID.String(),
		Type:        tx.Type.String(),
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(2),
		Date:        tx.Date.Format(dateLayout),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date")
		return
	}

	tx, err := h.accountingService.RecordTransaction(
		c.Request.Context(),
		accounting.TransactionType(req.Type),
		req.Description,
		decimal.NewFromFloat(req.Amount),
		date,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTransactionResponse(tx))
}

// List handles GET /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	transactions := h.accountingService.ListTransactions(c.Request.Context())

	responses := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		responses = append(responses, toTransactionResponse(tx))
	}
	h.Success(c, responses)
}

// RegisterRoutes registers all transaction routes
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/transactions")
	{
		transactions.GET("", h.List)
		transactions.POST("", h.Create)
	}
}
