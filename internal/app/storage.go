package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/pebble"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/pkg/health"
)

// backend is an opened storage backend. Close is always safe to call.
type backend struct {
	kv     storage.KV
	pinger health.Pinger
	close  func() error

	// orders is set when the backend keeps order history in its own table.
	orders order.Repository
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// orderRepository returns the backend's order table when it has one and
// otherwise keeps order history in the key-value store.
func (b *backend) orderRepository(ctx context.Context) (order.Repository, error) {
	if b.orders != nil {
		return b.orders, nil
	}
	return order.OpenHistory(ctx, b.kv)
}

func openStorage(ctx context.Context, lg *zap.Logger, cfg StorageConfig) (*backend, error) {
	switch cfg.Backend {
	case BackendMemory:
		lg.Warn("Using in-memory storage, client state is lost on restart")
		return &backend{
			kv:     memory.New(),
			pinger: pingFunc(func(context.Context) error { return nil }),
			close:  func() error { return nil },
		}, nil
	case BackendPebble:
		s, err := pebble.Open(cfg.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open pebble")
		}
		lg.Info("Storage opened", zap.String("backend", cfg.Backend), zap.String("dir", cfg.Dir))
		return &backend{kv: s, pinger: s, close: s.Close}, nil
	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Storage opened", zap.String("backend", cfg.Backend))
		s := postgres.NewStore(pool)
		return &backend{
			kv:     s,
			pinger: s,
			close:  func() error { pool.Close(); return nil },
			orders: postgres.NewOrderRepository(pool),
		}, nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
