package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/storage/memory"
)

func TestSeedAddresses(t *testing.T) {
	ctx := context.Background()
	repo, err := catalog.New(catalog.Embedded(db.Catalog))
	require.NoError(t, err)
	want, err := repo.Addresses(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, want)

	store := &backend{kv: memory.New(), close: func() error { return nil }}

	require.NoError(t, seedAddresses(ctx, zap.NewNop(), repo, store))

	book, err := address.Open(ctx, store.kv, notify.Discard)
	require.NoError(t, err)
	assert.Equal(t, want, book.List())
	require.NotNil(t, book.Selected())
	assert.Equal(t, want[0].ID, book.Selected().ID)

	// A second run keeps user edits.
	require.NoError(t, book.Delete(ctx, want[0].ID))
	require.NoError(t, seedAddresses(ctx, zap.NewNop(), repo, store))

	book, err = address.Open(ctx, store.kv, notify.Discard)
	require.NoError(t, err)
	assert.Len(t, book.List(), len(want)-1)
}
