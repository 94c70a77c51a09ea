package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/wishlist"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const serviceName = "storefront"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Backend),
	)
	ctx = zctx.Base(ctx, lg)

	store, err := openStorage(ctx, lg, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			lg.Error("Close storage", zap.Error(err))
		}
	}()

	catalogRepo, err := catalog.New(catalogSource(cfg.Catalog, m.TracerProvider()),
		catalog.WithAllCategoryID(cfg.Catalog.AllCategoryID),
		catalog.WithTracerProvider(m.TracerProvider()),
		catalog.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create catalog")
	}

	// Notifications fan out to the log, connected clients and optionally Kafka.
	hub := handler.NewHub(handler.HubConfig{AllowOrigins: cfg.CORS.Origins})
	sinks := notify.Multi{notify.NewLogSink(lg.Named("notify")), hub}
	if cfg.Notify.KafkaBrokers != "" {
		kafkaSink, err := notify.NewKafkaSink(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, lg.Named("kafka"))
		if err != nil {
			return errors.Wrap(err, "create kafka sink")
		}
		defer func() {
			if err := kafkaSink.Close(); err != nil {
				lg.Error("Close kafka sink", zap.Error(err))
			}
		}()
		sinks = append(sinks, kafkaSink)
		lg.Info("Kafka notifications enabled", zap.String("topic", cfg.Notify.KafkaTopic))
	}

	// Client-state stores.
	cartStore, err := cart.Open(ctx, store.kv, sinks)
	if err != nil {
		return errors.Wrap(err, "open cart")
	}
	wishlistStore, err := wishlist.Open(ctx, store.kv, sinks)
	if err != nil {
		return errors.Wrap(err, "open wishlist")
	}
	book, err := address.Open(ctx, store.kv, sinks)
	if err != nil {
		return errors.Wrap(err, "open address book")
	}
	history, err := store.orderRepository(ctx)
	if err != nil {
		return errors.Wrap(err, "open order history")
	}

	orders := order.NewService(catalogRepo, coupon.NewRepoValidator(catalogRepo), history, cartStore, book, sinks)

	h := handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, handler.Deps{
		Catalog:  catalogRepo,
		Cart:     cartStore,
		Wishlist: wishlistStore,
		Book:     book,
		Orders:   orders,
		Hub:      hub,
	})

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("storage", 5*time.Second, health.PingCheck(store.pinger))
	healthSvc.AddReadinessCheck("catalog", cfg.Catalog.Timeout, func(ctx context.Context) error {
		_, err := catalogRepo.Load(ctx)
		return err
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
				ExposeHeaders:    []string{httpmiddleware.HeaderRequestID, "Content-Disposition"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   isStreamRequest,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
		),
	}
	// Hijacked event streams are not tracked by Shutdown.
	server.RegisterOnShutdown(hub.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		if ctx.Err() != nil {
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}

// catalogSource picks the configured catalog origin, defaulting to the
// embedded document.
func catalogSource(cfg CatalogConfig, tp trace.TracerProvider) catalog.Source {
	switch {
	case cfg.URL != "":
		return catalog.NewHTTPSource(cfg.URL, cfg.Timeout, tp)
	case cfg.Path != "":
		return catalog.FileSource{Path: cfg.Path}
	default:
		return catalog.Embedded(db.Catalog)
	}
}

func isStreamRequest(r *http.Request) bool {
	return r.URL.Path == "/api/events"
}
