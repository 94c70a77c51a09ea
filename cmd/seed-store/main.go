// Command seed-store fills an empty address book with the addresses bundled
// in the catalog document. It reads the same configuration as the server.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/storefront/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		if err := appkg.Seed(ctx, lg, cfg); err != nil {
			return err
		}
		lg.Info("Seed completed")
		return nil
	})
}
