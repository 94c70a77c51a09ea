package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/notify"
)

// Seed fills an empty address book in the configured storage with the
// addresses bundled in the catalog document. A book that already holds
// addresses is left as is.
func Seed(ctx context.Context, lg *zap.Logger, cfg *Config) error {
	store, err := openStorage(ctx, lg, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			lg.Error("Close storage", zap.Error(err))
		}
	}()

	repo, err := catalog.New(catalogSource(cfg.Catalog, noop.NewTracerProvider()),
		catalog.WithAllCategoryID(cfg.Catalog.AllCategoryID),
	)
	if err != nil {
		return errors.Wrap(err, "create catalog")
	}
	return seedAddresses(ctx, lg, repo, store)
}

func seedAddresses(ctx context.Context, lg *zap.Logger, repo *catalog.Repository, store *backend) error {
	addresses, err := repo.Addresses(ctx)
	if err != nil {
		return errors.Wrap(err, "load catalog addresses")
	}

	book, err := address.Open(ctx, store.kv, notify.Discard)
	if err != nil {
		return errors.Wrap(err, "open address book")
	}
	seeded, err := book.Seed(ctx, addresses)
	if err != nil {
		return errors.Wrap(err, "seed addresses")
	}
	if !seeded {
		lg.Info("Address book already populated, skipping", zap.Int("addresses", len(book.List())))
		return nil
	}
	lg.Info("Address book seeded", zap.Int("addresses", len(addresses)))
	return nil
}
