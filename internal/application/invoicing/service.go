package invoicing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tecsitel/backend/internal/application/state"
	"github.com/tecsitel/backend/internal/domain/invoicing"
	"github.com/tecsitel/backend/internal/domain/shared"
)

// nowFunc is swapped in tests
var nowFunc = time.Now

// SaveScheduler requests that the current state snapshot be persisted soon.
// Persistence is asynchronous and local-first: a failed save never rolls
// back the in-memory commit.
type SaveScheduler interface {
	RequestSave()
}

// Service provides application-level invoice operations
type Service struct {
	store          *state.Store
	saver          SaveScheduler
	defaultIGVRate decimal.Decimal
	logger         *zap.Logger
}

// NewService creates a new invoicing Service
func NewService(store *state.Store, saver SaveScheduler, defaultIGVRate decimal.Decimal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultIGVRate.IsZero() {
		defaultIGVRate = invoicing.DefaultIGVRate
	}
	return &Service{
		store:          store,
		saver:          saver,
		defaultIGVRate: defaultIGVRate,
		logger:         logger,
	}
}

// DefaultIGVRate returns the configured IGV percentage applied when a
// request omits the rate.
func (s *Service) DefaultIGVRate() decimal.Decimal {
	return s.defaultIGVRate
}

// CreateInvoice validates the input, mints the next invoice number, builds
// the invoice and commits it locally, then schedules an asynchronous save.
// Validation runs before the number is minted so rejected requests never
// burn a sequence value.
func (s *Service) CreateInvoice(ctx context.Context, input invoicing.InvoiceInput) (*invoicing.Invoice, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	number := s.store.NextInvoiceNumber()
	inv, err := invoicing.NewInvoice(input, number)
	if err != nil {
		return nil, err
	}

	s.store.AppendInvoice(inv)
	s.logger.Info("Invoice created",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("client_ruc", inv.ClientRUC),
		zap.String("total", inv.Total.StringFixed(2)),
	)

	if s.saver != nil {
		s.saver.RequestSave()
	}
	return inv, nil
}

// GetInvoice returns the invoice with the given ID
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	return s.store.FindInvoice(id)
}

// ListInvoices returns all invoices in display order: created_at
// descending, regardless of the store's append order.
func (s *Service) ListInvoices(ctx context.Context) []*invoicing.Invoice {
	invoices := s.store.Invoices()
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices
}

// UpdateStatus applies a workflow transition moving the invoice to the
// requested status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target invoicing.InvoiceStatus) (*invoicing.Invoice, error) {
	if !target.IsValid() {
		return nil, shared.NewValidationError("status", "unknown invoice status")
	}

	inv, err := s.store.UpdateInvoiceStatus(id, func(i *invoicing.Invoice) error {
		switch target {
		case invoicing.InvoiceStatusPaid:
			return i.MarkPaid()
		case invoicing.InvoiceStatusRejected:
			return i.Reject()
		case invoicing.InvoiceStatusOverdue:
			return i.MarkOverdue(nowFunc())
		default:
			return shared.NewDomainError("INVALID_STATE", "Invoices cannot return to Pendiente")
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice status updated",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("status", inv.Status.String()),
	)

	if s.saver != nil {
		s.saver.RequestSave()
	}
	return inv, nil
}
