package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/rowncoffee/rown-backend/api/controllers"
	"github.com/rowncoffee/rown-backend/api/routes"
	"github.com/rowncoffee/rown-backend/internal/cart"
	"github.com/rowncoffee/rown-backend/internal/checkout"
	"github.com/rowncoffee/rown-backend/internal/confirmation"
	"github.com/rowncoffee/rown-backend/internal/notifications"
	"github.com/rowncoffee/rown-backend/internal/orders"
	"github.com/rowncoffee/rown-backend/internal/paymentproof"
	product "github.com/rowncoffee/rown-backend/internal/products"
	"github.com/rowncoffee/rown-backend/pkg/config"
	"github.com/rowncoffee/rown-backend/pkg/db"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	"github.com/rowncoffee/rown-backend/pkg/metrics"
	"github.com/rowncoffee/rown-backend/pkg/migrate"
	"github.com/rowncoffee/rown-backend/pkg/pubsub"
	"github.com/rowncoffee/rown-backend/pkg/redis"
	"github.com/rowncoffee/rown-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthDeps := []controllers.Dependency{}
	var closers []namedCloser
	defer func() {
		if err := closeAll(closers); err != nil {
			logg.Error(context.Background(), "api.close_failed", err)
		}
	}()

	var dbClient *db.Client
	if cfg.DB.Configured() {
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		dbClient = client
		closers = append(closers, namedCloser{"database", dbClient.Close})
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		healthDeps = append(healthDeps, controllers.Dependency{Name: "database", Pinger: dbClient})
	} else {
		logg.Warn(ctx, "database not configured, serving the fallback catalog")
		healthDeps = append(healthDeps, controllers.Dependency{Name: "database"})
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	closers = append(closers, namedCloser{"redis", redisClient.Close})
	healthDeps = append(healthDeps, controllers.Dependency{Name: "redis", Pinger: redisClient})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefront(registry)

	var uploader paymentproof.Uploader
	switch {
	case cfg.ProofUpload.Configured():
		edge, err := paymentproof.NewEdgeUploader(
			cfg.ProofUpload.Endpoint,
			cfg.ProofUpload.APIKey,
			cfg.ProofUpload.Timeout,
			paymentproof.WithFolder(cfg.ProofUpload.Folder),
			paymentproof.WithMetrics(storefrontMetrics),
		)
		if err != nil {
			return err
		}
		uploader = edge
	case cfg.GCS.Configured():
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return err
		}
		closers = append(closers, namedCloser{"storage", gcsClient.Close})
		storageUploader, err := paymentproof.NewStorageUploader(gcsClient.BucketHandle(cfg.GCS.BucketName), cfg.GCS.PublicBaseURL, storefrontMetrics)
		if err != nil {
			return err
		}
		uploader = storageUploader
		healthDeps = append(healthDeps, controllers.Dependency{Name: "storage", Pinger: gcsClient})
	default:
		logg.Warn(ctx, "payment proof storage not configured, qris checkout is disabled")
	}

	var publisher notifications.Publisher = notifications.NopPublisher{}
	if cfg.PubSub.OrdersTopic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		closers = append(closers, namedCloser{"pubsub", pubsubClient.Close})
		pubsubPublisher, err := notifications.NewPubSubPublisher(pubsubClient.OrdersPublisher())
		if err != nil {
			return err
		}
		publisher = pubsubPublisher
	}

	var catalogReader product.CatalogReader
	if dbClient != nil {
		catalogReader = product.NewRepository(dbClient.DB())
	}
	productService := product.NewService(catalogReader, storefrontMetrics, logg)

	gateway, err := newOrderGateway(cfg, dbClient)
	if err != nil {
		return err
	}

	sessions, err := cart.NewSessions(redisClient, cfg.Session.TTL, logg)
	if err != nil {
		return err
	}
	handoff, err := confirmation.NewHandoff(redisClient, cfg.Session.TTL)
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(
		sessions,
		uploader,
		gateway,
		handoff,
		publisher,
		cfg.Checkout.DeliveryFee,
		storefrontMetrics,
		logg,
	)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			healthDeps,
			productService,
			sessions,
			checkoutService,
			handoff,
			confirmation.NewMessenger(cfg.Messaging),
			uploader,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newOrderGateway(cfg *config.Config, dbClient *db.Client) (orders.Gateway, error) {
	if dbClient == nil {
		return orders.NewGateway(nil, nil, false)
	}
	return orders.NewGateway(orders.NewRepository(dbClient.DB()), dbClient, cfg.FeatureFlags.AtomicOrders)
}

type namedCloser struct {
	name  string
	close func() error
}

// closeAll releases clients in reverse start order and reports every failure.
func closeAll(closers []namedCloser) error {
	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		if cerr := closers[i].close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("closing %s: %w", closers[i].name, cerr))
		}
	}
	return err
}
