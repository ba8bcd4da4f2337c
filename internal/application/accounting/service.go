package accounting

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appinvoicing "github.com/tecsitel/backend/internal/application/invoicing"
	"github.com/tecsitel/backend/internal/application/state"
	"github.com/tecsitel/backend/internal/domain/accounting"
)

// Service provides application-level accounting operations: recording
// income/expense entries and deriving the dashboard and income-statement
// views.
type Service struct {
	store  *state.Store
	saver  appinvoicing.SaveScheduler
	logger *zap.Logger
}

// NewService creates a new accounting Service
func NewService(store *state.Store, saver appinvoicing.SaveScheduler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, saver: saver, logger: logger}
}

// RecordTransaction validates and commits a manual income or expense entry,
// then schedules an asynchronous save.
func (s *Service) RecordTransaction(ctx context.Context, txType accounting.TransactionType, description string, amount decimal.Decimal, date time.Time) (*accounting.Transaction, error) {
	tx, err := accounting.NewTransaction(txType, description, amount, date)
	if err != nil {
		return nil, err
	}

	s.store.AppendTransaction(tx)
	s.logger.Info("Transaction recorded",
		zap.String("type", tx.Type.String()),
		zap.String("amount", tx.Amount.StringFixed(2)),
	)

	if s.saver != nil {
		s.saver.RequestSave()
	}
	return tx, nil
}

// ListTransactions returns all transactions, most recent date first.
func (s *Service) ListTransactions(ctx context.Context) []*accounting.Transaction {
	transactions := s.store.Transactions()
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
	return transactions
}

// Dashboard recomputes the dashboard summary for the month containing ref.
func (s *Service) Dashboard(ctx context.Context, ref time.Time) accounting.DashboardSummary {
	return accounting.ComputeDashboard(s.store.Invoices(), s.store.Transactions(), ref)
}

// IncomeStatement recomputes the all-time accounting statement.
func (s *Service) IncomeStatement(ctx context.Context) accounting.IncomeStatement {
	return accounting.ComputeIncomeStatement(s.store.Invoices(), s.store.Transactions())
}
