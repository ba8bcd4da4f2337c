package state

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecsitel/backend/internal/domain/accounting"
	"github.com/tecsitel/backend/internal/domain/invoicing"
	"github.com/tecsitel/backend/internal/domain/shared"
)

func newTestInvoice(t *testing.T, store *Store) *invoicing.Invoice {
	t.Helper()
	issue := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoicing.NewInvoice(invoicing.InvoiceInput{
		ClientRUC:   "20100055237",
		ClientName:  "Cliente SAC",
		Description: "Servicio",
		Amount:      decimal.NewFromInt(100),
		IGVRate:     decimal.NewFromInt(18),
		IssueDate:   issue,
		DueDate:     issue.AddDate(0, 0, 30),
	}, store.NextInvoiceNumber())
	require.NoError(t, err)
	return inv
}

func TestStore_NumberAllocation(t *testing.T) {
	store := NewStore("F001")

	assert.Equal(t, "F001-00000001", store.NextInvoiceNumber())
	assert.Equal(t, "F001-00000002", store.NextInvoiceNumber())
	assert.Equal(t, "F001-00000003", store.NextInvoiceNumber())
	assert.Equal(t, int64(4), store.Counter())
}

func TestStore_NumberAllocationConcurrent(t *testing.T) {
	store := NewStore("F001")

	const n = 50
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			numbers <- store.NextInvoiceNumber()
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, n)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate invoice number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, int64(n+1), store.Counter())
}

func TestStore_AppendAndFind(t *testing.T) {
	store := NewStore("")
	inv := newTestInvoice(t, store)
	store.AppendInvoice(inv)

	got, err := store.FindInvoice(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)

	_, err = store.FindInvoice(uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStore_UpdateInvoiceStatus(t *testing.T) {
	store := NewStore("")
	inv := newTestInvoice(t, store)
	store.AppendInvoice(inv)

	updated, err := store.UpdateInvoiceStatus(inv.ID, func(i *invoicing.Invoice) error {
		return i.MarkPaid()
	})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid())

	_, err = store.UpdateInvoiceStatus(uuid.New(), func(i *invoicing.Invoice) error { return nil })
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStore_EntitiesCrossBoundaryByValue(t *testing.T) {
	store := NewStore("")
	inv := newTestInvoice(t, store)
	store.AppendInvoice(inv)

	// Mutating the caller's entity after the append must not reach the store.
	inv.Status = invoicing.InvoiceStatusRejected
	got, err := store.FindInvoice(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusPending, got.Status)

	// Nor must mutating an entity the store handed out.
	got.Status = invoicing.InvoiceStatusPaid
	listed := store.Invoices()
	require.Len(t, listed, 1)
	assert.Equal(t, invoicing.InvoiceStatusPending, listed[0].Status)
}

func TestStore_ReadsIsolatedFromConcurrentTransitions(t *testing.T) {
	store := NewStore("")
	inv := newTestInvoice(t, store)
	store.AppendInvoice(inv)

	// One goroutine keeps flipping the stored status while the other reads
	// the entities handed out by Invoices and FindInvoice. Because reads
	// return value copies, the race detector stays quiet and every observed
	// status is a coherent value.
	const rounds = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		statuses := []invoicing.InvoiceStatus{invoicing.InvoiceStatusOverdue, invoicing.InvoiceStatusPending}
		for i := 0; i < rounds; i++ {
			_, err := store.UpdateInvoiceStatus(inv.ID, func(in *invoicing.Invoice) error {
				in.Status = statuses[i%2]
				in.UpdatedAt = time.Now()
				return nil
			})
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < rounds; i++ {
		for _, listed := range store.Invoices() {
			assert.True(t, listed.Status.IsValid())
		}
		found, err := store.FindInvoice(inv.ID)
		require.NoError(t, err)
		assert.True(t, found.Status.IsValid())
		assert.False(t, found.UpdatedAt.IsZero())
	}
	<-done
}

func TestStore_SnapshotIsDeepCopy(t *testing.T) {
	store := NewStore("")
	inv := newTestInvoice(t, store)
	store.AppendInvoice(inv)

	snap := store.Snapshot()
	require.Len(t, snap.Invoices, 1)

	// Mutating the live invoice must not leak into the snapshot.
	_, err := store.UpdateInvoiceStatus(inv.ID, func(i *invoicing.Invoice) error {
		return i.MarkPaid()
	})
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusPending, snap.Invoices[0].Status)
	assert.Equal(t, int64(2), snap.InvoiceCounter)
}

func TestStore_ReplaceRestoresCounter(t *testing.T) {
	store := NewStore("F001")
	store.AppendInvoice(newTestInvoice(t, store))
	store.AppendInvoice(newTestInvoice(t, store))
	snap := store.Snapshot()

	// A fresh process replaces its empty state with the loaded snapshot and
	// continues numbering where the old one stopped.
	restored := NewStore("F001")
	restored.Replace(snap)
	assert.Equal(t, int64(3), restored.Counter())
	assert.Equal(t, "F001-00000003", restored.NextInvoiceNumber())
	assert.Len(t, restored.Invoices(), 2)
}

func TestStore_ReplaceNormalizes(t *testing.T) {
	store := NewStore("")
	store.Replace(&FullState{})

	assert.Equal(t, int64(1), store.Counter())
	assert.NotNil(t, store.Invoices())
	assert.NotNil(t, store.Transactions())
	assert.Equal(t, DefaultUser, store.User())

	store.Replace(nil) // no-op
	assert.Equal(t, int64(1), store.Counter())
}

func TestStore_Transactions(t *testing.T) {
	store := NewStore("")
	tx, err := accounting.NewTransaction(accounting.TransactionTypeExpense, "Alquiler", decimal.NewFromInt(500), time.Now())
	require.NoError(t, err)
	store.AppendTransaction(tx)

	assert.Len(t, store.Transactions(), 1)
}
