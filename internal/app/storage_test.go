package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  StorageConfig
	}{
		{name: "memory", cfg: StorageConfig{Backend: BackendMemory}},
		{name: "pebble", cfg: StorageConfig{Backend: BackendPebble, Dir: filepath.Join(t.TempDir(), "db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := openStorage(ctx, zap.NewNop(), tt.cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, b.close()) }()

			require.NoError(t, b.pinger.Ping(ctx))
			require.NoError(t, storage.Save(ctx, b.kv, storage.KeyCart, []int{1, 2}))
			rec, err := storage.Load(ctx, b.kv, storage.KeyCart)
			require.NoError(t, err)
			assert.Equal(t, storage.SchemaVersion, rec.Version)
			assert.JSONEq(t, `[1,2]`, string(rec.Data))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := openStorage(ctx, zap.NewNop(), StorageConfig{Backend: "redis"})
		require.Error(t, err)
	})
}

func TestBackend_OrderRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("key-value fallback", func(t *testing.T) {
		b := &backend{kv: memory.New(), close: func() error { return nil }}
		repo, err := b.orderRepository(ctx)
		require.NoError(t, err)
		assert.IsType(t, &order.History{}, repo)
	})

	t.Run("dedicated table", func(t *testing.T) {
		dedicated, err := order.OpenHistory(ctx, memory.New())
		require.NoError(t, err)
		b := &backend{kv: memory.New(), close: func() error { return nil }, orders: dedicated}
		repo, err := b.orderRepository(ctx)
		require.NoError(t, err)
		assert.Same(t, dedicated, repo)
	})
}
