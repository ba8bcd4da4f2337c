package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecsitel/backend/internal/application/state"
)

func newGormTestRepo(t *testing.T) *GormStateRepository {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewGormStateRepository(db.DB)
	require.NoError(t, err)
	return repo
}

func TestGormStateRepository_LoadEmptyTableReturnsFreshState(t *testing.T) {
	repo := newGormTestRepo(t)

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, loaded.Invoices)
	assert.Equal(t, int64(1), loaded.InvoiceCounter)
	assert.Equal(t, state.DefaultUser, loaded.User)
}

func TestGormStateRepository_RoundTrip(t *testing.T) {
	repo := newGormTestRepo(t)
	ctx := context.Background()

	original := sampleState(t)
	require.NoError(t, repo.Save(ctx, original))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)

	require.Len(t, loaded.Invoices, 1)
	assert.Equal(t, original.Invoices[0].InvoiceNumber, loaded.Invoices[0].InvoiceNumber)
	assert.True(t, original.Invoices[0].Total.Equal(loaded.Invoices[0].Total))
	require.Len(t, loaded.Transactions, 1)
	assert.Equal(t, int64(2), loaded.InvoiceCounter)
}

func TestGormStateRepository_SaveOverwritesSingleRow(t *testing.T) {
	repo := newGormTestRepo(t)
	ctx := context.Background()

	first := sampleState(t)
	require.NoError(t, repo.Save(ctx, first))

	second := sampleState(t)
	second.InvoiceCounter = 9
	require.NoError(t, repo.Save(ctx, second))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), loaded.InvoiceCounter)

	var count int64
	require.NoError(t, repo.db.Model(&stateSnapshotModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
