package state

import (
	"context"
	"fmt"

	"github.com/tecsitel/backend/internal/domain/accounting"
	"github.com/tecsitel/backend/internal/domain/invoicing"
)

// User identifies the account the snapshot belongs to. Authentication is out
// of scope; this is display data carried through the snapshot.
type User struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// DefaultUser is used when a loaded snapshot carries no user record.
var DefaultUser = User{Username: "Usuario", Avatar: "U"}

// FullState is the complete persisted application state. Persistence is
// whole-snapshot: Save overwrites the entire remote document and Load
// replaces the entire in-memory state.
type FullState struct {
	Invoices       []*invoicing.Invoice      `json:"invoices"`
	Transactions   []*accounting.Transaction `json:"transactions"`
	InvoiceCounter int64                     `json:"invoiceCounter"`
	User           User                      `json:"user"`
}

// Normalize fills the zero values a freshly loaded or hand-edited snapshot
// may carry: nil collections become empty, a missing counter starts at 1,
// and a missing user falls back to DefaultUser.
func (s *FullState) Normalize() {
	if s.Invoices == nil {
		s.Invoices = []*invoicing.Invoice{}
	}
	if s.Transactions == nil {
		s.Transactions = []*accounting.Transaction{}
	}
	if s.InvoiceCounter < 1 {
		s.InvoiceCounter = 1
	}
	if s.User.Username == "" {
		s.User = DefaultUser
	}
}

// Repository is the storage adapter contract. The persistence medium (local
// file, SQLite document, GitHub contents API) is opaque to the core.
type Repository interface {
	// Load reads the full persisted state. Implementations return a
	// *PersistenceError on transport or decode failure.
	Load(ctx context.Context) (*FullState, error)
	// Save durably overwrites the persisted state with the snapshot.
	Save(ctx context.Context, snapshot *FullState) error
}

// PersistenceError wraps a storage adapter failure. It is retryable: local
// state stays intact and the write is requeued rather than dropped.
type PersistenceError struct {
	Op    string // "load" or "save"
	Cause error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause
func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError creates a persistence error for the given operation
func NewPersistenceError(op string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Cause: cause}
}
