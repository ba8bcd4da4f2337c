package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tecsitel/backend/internal/domain/shared"
)

// TransactionType distinguishes money coming in from money going out
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "Ingreso"
	TransactionTypeExpense TransactionType = "Egreso"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// Transaction is a manually recorded income or expense entry. Summaries
// treat it as read-only aggregation input.
type Transaction struct {
	shared.BaseEntity
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

// NewTransaction creates a validated transaction entry
func NewTransaction(txType TransactionType, description string, amount decimal.Decimal, date time.Time) (*Transaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewValidationError("type", "must be Ingreso or Egreso")
	}
	if description == "" {
		return nil, shared.NewValidationError("description", "must not be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount", "must be greater than zero")
	}
	if date.IsZero() {
		return nil, shared.NewValidationError("date", "must be a valid date")
	}

	return &Transaction{
		BaseEntity:  shared.NewBaseEntity(),
		Type:        txType,
		Description: description,
		Amount:      amount,
		Date:        date,
	}, nil
}

// IsExpense returns true for Egreso entries
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// IsIncome returns true for Ingreso entries
func (t *Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}
