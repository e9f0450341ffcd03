package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopsphere/storefront/api/routes"
	"github.com/shopsphere/storefront/internal/cart"
	"github.com/shopsphere/storefront/internal/checkout"
	"github.com/shopsphere/storefront/internal/orders"
	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/internal/session"
	"github.com/shopsphere/storefront/internal/wishlist"
	"github.com/shopsphere/storefront/pkg/config"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/metrics"
	"github.com/shopsphere/storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	// collaborator calls carry the token the auth service issued at login
	remoteToken := func(ctx context.Context) string {
		_, token, err := sessions.LoadSession(ctx)
		if err != nil {
			return ""
		}
		return token
	}

	timeout := cfg.Remote.RequestTimeout
	authClient := remote.NewAuthClient(cfg.Remote.AuthBaseURL, timeout)
	catalogClient := remote.NewCatalogClient(cfg.Remote.CatalogBaseURL, timeout, remoteToken)
	wishlistClient := remote.NewWishlistClient(cfg.Remote.WishlistBaseURL, timeout, remoteToken)
	orderClient := remote.NewOrderClient(cfg.Remote.OrderBaseURL, timeout, remoteToken)
	addressClient := remote.NewAddressClient(cfg.Remote.AddressBaseURL, timeout, remoteToken)

	registry := prometheus.NewRegistry()
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	carts := cart.NewStore()
	wishlists := wishlist.NewStore(wishlistClient, logg, commerceMetrics)

	pipeline, err := checkout.NewPipeline(cfg.Checkout, carts, orderClient, sessions, logg, commerceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout pipeline", err)
		os.Exit(1)
	}

	directory := orders.NewDirectory()
	lifecycle := orders.NewLifecycle(orderClient, directory, logg, commerceMetrics)
	poller := orders.NewPoller(orderClient, directory, cfg.AdminPoller.Interval, logg, commerceMetrics)

	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	if cfg.AdminPoller.Enabled {
		go poller.Run(pollerCtx)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			Redis:         redisClient,
			Sessions:      sessions,
			Cart:          carts,
			Wishlist:      wishlists,
			Pipeline:      pipeline,
			AuthClient:    authClient,
			CatalogClient: catalogClient,
			OrderClient:   orderClient,
			AddressClient: addressClient,
			Directory:     directory,
			Lifecycle:     lifecycle,
			Poller:        poller,
			Registry:      registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}
