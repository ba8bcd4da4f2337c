package state

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tecsitel/backend/internal/domain/accounting"
	"github.com/tecsitel/backend/internal/domain/invoicing"
	"github.com/tecsitel/backend/internal/domain/shared"
)

// Store owns the canonical in-memory application state. All access goes
// through the mutex, so invoice-number allocation (read, format, increment)
// is a single critical section and can never interleave with another
// creation. Entities cross the store boundary by value in both directions:
// appends copy their input and reads return copies, so no caller ever holds
// a pointer into the live collections. Collections keep append order;
// display ordering is the caller's concern.
type Store struct {
	mu     sync.Mutex
	series string

	invoices       []*invoicing.Invoice
	transactions   []*accounting.Transaction
	invoiceCounter int64
	user           User
}

// NewStore creates an empty store minting numbers in the given series.
func NewStore(series string) *Store {
	if series == "" {
		series = invoicing.DefaultSeries
	}
	return &Store{
		series:         series,
		invoices:       []*invoicing.Invoice{},
		transactions:   []*accounting.Transaction{},
		invoiceCounter: 1,
		user:           DefaultUser,
	}
}

// NextInvoiceNumber formats the next invoice number and advances the
// counter atomically.
func (s *Store) NextInvoiceNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	number := invoicing.FormatInvoiceNumber(s.series, s.invoiceCounter)
	s.invoiceCounter++
	return number
}

// Counter returns the next unallocated sequence value.
func (s *Store) Counter() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoiceCounter
}

// AppendInvoice adds a copy of the invoice to the ordered collection. The
// caller keeps sole ownership of its argument.
func (s *Store) AppendInvoice(inv *invoicing.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *inv
	s.invoices = append(s.invoices, &c)
}

// AppendTransaction adds a copy of the transaction entry.
func (s *Store) AppendTransaction(tx *accounting.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *tx
	s.transactions = append(s.transactions, &c)
}

// FindInvoice returns a copy of the invoice with the given ID.
func (s *Store) FindInvoice(id uuid.UUID) (*invoicing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.ID == id {
			c := *inv
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

// UpdateInvoiceStatus applies a workflow transition to the stored invoice
// and returns a copy of its updated record. The transition runs inside the
// lock; its *Invoice argument must not escape the callback.
func (s *Store) UpdateInvoiceStatus(id uuid.UUID, transition func(*invoicing.Invoice) error) (*invoicing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.ID == id {
			if err := transition(inv); err != nil {
				return nil, err
			}
			c := *inv
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

// Invoices returns value copies of the invoice collection in append order.
func (s *Store) Invoices() []*invoicing.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyInvoices(s.invoices)
}

// Transactions returns value copies of the transaction collection in append
// order.
func (s *Store) Transactions() []*accounting.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTransactions(s.transactions)
}

// User returns the current user record.
func (s *Store) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Snapshot returns a deep copy of the full state for persistence. Entities
// are copied by value so a save in flight never observes later mutations.
func (s *Store) Snapshot() *FullState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &FullState{
		Invoices:       copyInvoices(s.invoices),
		Transactions:   copyTransactions(s.transactions),
		InvoiceCounter: s.invoiceCounter,
		User:           s.user,
	}
}

func copyInvoices(src []*invoicing.Invoice) []*invoicing.Invoice {
	out := make([]*invoicing.Invoice, len(src))
	for i, inv := range src {
		c := *inv
		out[i] = &c
	}
	return out
}

func copyTransactions(src []*accounting.Transaction) []*accounting.Transaction {
	out := make([]*accounting.Transaction, len(src))
	for i, tx := range src {
		c := *tx
		out[i] = &c
	}
	return out
}

// Replace atomically swaps in loaded state. It never partially overwrites:
// either the whole snapshot is adopted or, on nil input, nothing changes.
func (s *Store) Replace(loaded *FullState) {
	if loaded == nil {
		return
	}
	loaded.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = copyInvoices(loaded.Invoices)
	s.transactions = copyTransactions(loaded.Transactions)
	s.invoiceCounter = loaded.InvoiceCounter
	s.user = loaded.User
}
