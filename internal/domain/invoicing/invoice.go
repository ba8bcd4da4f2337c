package invoicing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tecsitel/backend/internal/domain/shared"
	"github.com/tecsitel/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "Pendiente" // Issued, awaiting payment
	InvoiceStatusPaid     InvoiceStatus = "Pagada"    // Payment received
	InvoiceStatusRejected InvoiceStatus = "Rechazado" // Rejected by the client or SUNAT
	InvoiceStatusOverdue  InvoiceStatus = "Vencido"   // Past due date without payment
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusRejected, InvoiceStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further workflow action can change the status
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusRejected
}

// DefaultIGVRate is the IGV percentage applied when the input omits one.
var DefaultIGVRate = decimal.NewFromInt(18)

// InvoiceInput carries the raw fields of an invoice creation request,
// before validation and derivation.
type InvoiceInput struct {
	ClientRUC   string          `json:"client_ruc"`
	ClientName  string          `json:"client_name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	IGVRate     decimal.Decimal `json:"igv_rate"`
	IssueDate   time.Time       `json:"issue_date"`
	DueDate     time.Time       `json:"due_date"`
}

// Validate checks every field precondition and returns a ValidationError
// naming the first field that fails. A zero IGV rate is valid (exempt
// operations); callers apply DefaultIGVRate before validation when the
// field was omitted entirely.
func (in *InvoiceInput) Validate() error {
	if !ValidateRUC(in.ClientRUC) {
		return shared.NewValidationError("client_ruc", "must be a valid 11-digit RUC")
	}
	if in.ClientName == "" {
		return shared.NewValidationError("client_name", "must not be empty")
	}
	if in.Description == "" {
		return shared.NewValidationError("description", "must not be empty")
	}
	if !in.Amount.IsPositive() {
		return shared.NewValidationError("amount", "must be greater than zero")
	}
	if in.IGVRate.IsNegative() || in.IGVRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("igv_rate", "must be between 0 and 100")
	}
	if in.IssueDate.IsZero() {
		return shared.NewValidationError("issue_date", "must be a valid date")
	}
	if in.DueDate.IsZero() {
		return shared.NewValidationError("due_date", "must be a valid date")
	}
	if in.DueDate.Before(in.IssueDate) {
		return shared.NewValidationError("due_date", "must not precede issue_date")
	}
	return nil
}

// Invoice is the invoicing aggregate root. IGVAmount and Total are derived
// once at creation from Amount and IGVRate and stored; later edits to either
// never retroactively change a persisted invoice. Only Status mutates after
// creation.
type Invoice struct {
	shared.BaseEntity
	InvoiceNumber string          `json:"invoice_number"`
	ClientRUC     string          `json:"client_ruc"`
	ClientName    string          `json:"client_name"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	IGVRate       decimal.Decimal `json:"igv_rate"`
	IGVAmount     decimal.Decimal `json:"igv_amount"`
	Total         decimal.Decimal `json:"total"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Status        InvoiceStatus   `json:"status"`
}

// NewInvoice builds a fully derived invoice from validated input and an
// already-minted invoice number. It neither appends the invoice anywhere nor
// triggers persistence; that stays with the caller so the factory remains
// pure and testable.
func NewInvoice(input InvoiceInput, invoiceNumber string) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	amount := valueobject.NewMoneyPEN(input.Amount)
	igv := amount.CalculatePercentage(input.IGVRate)
	total := amount.MustAdd(igv)

	return &Invoice{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceNumber: invoiceNumber,
		ClientRUC:     input.ClientRUC,
		ClientName:    input.ClientName,
		Description:   input.Description,
		Amount:        input.Amount,
		IGVRate:       input.IGVRate,
		IGVAmount:     igv.Amount(),
		Total:         total.Amount(),
		IssueDate:     input.IssueDate,
		DueDate:       input.DueDate,
		Status:        InvoiceStatusPending,
	}, nil
}

// MarkPaid records payment of a pending or overdue invoice
func (i *Invoice) MarkPaid() error {
	if i.Status != InvoiceStatusPending && i.Status != InvoiceStatusOverdue {
		return shared.NewDomainError("INVALID_STATE", "Only pending or overdue invoices can be marked paid")
	}
	i.Status = InvoiceStatusPaid
	i.UpdatedAt = time.Now()
	return nil
}

// Reject marks the invoice as rejected
func (i *Invoice) Reject() error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already in a terminal status")
	}
	i.Status = InvoiceStatusRejected
	i.UpdatedAt = time.Now()
	return nil
}

// MarkOverdue flags a pending invoice whose due date has passed
func (i *Invoice) MarkOverdue(now time.Time) error {
	if i.Status != InvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending invoices can become overdue")
	}
	if !now.After(i.DueDate) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not past its due date")
	}
	i.Status = InvoiceStatusOverdue
	i.UpdatedAt = time.Now()
	return nil
}

// IsPending returns true if the invoice awaits payment
func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusPending
}

// IsPaid returns true if the invoice has been paid
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// GetTotalMoney returns the invoice total as Money
func (i *Invoice) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyPEN(i.Total)
}

// GetIGVMoney returns the IGV portion as Money
func (i *Invoice) GetIGVMoney() valueobject.Money {
	return valueobject.NewMoneyPEN(i.IGVAmount)
}
