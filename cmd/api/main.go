package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/logiccrafts/connect-backend/api/routes"
	"github.com/logiccrafts/connect-backend/internal/auth"
	"github.com/logiccrafts/connect-backend/internal/cart"
	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/internal/notifications"
	"github.com/logiccrafts/connect-backend/internal/orders"
	"github.com/logiccrafts/connect-backend/internal/recommendations"
	"github.com/logiccrafts/connect-backend/internal/reviews"
	"github.com/logiccrafts/connect-backend/internal/users"
	"github.com/logiccrafts/connect-backend/internal/wishlist"
	"github.com/logiccrafts/connect-backend/pkg/auth/session"
	"github.com/logiccrafts/connect-backend/pkg/bootstrap"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rt := bootstrap.Start("api")
	defer rt.Shutdown()
	cfg, logg := rt.Config, rt.Logger
	boot := context.Background()

	dbClient, err := rt.Database(boot)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap database", err)
	}
	redisClient, err := rt.Redis(boot)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap redis", err)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		rt.Fatal(boot, "failed to create session manager", err)
	}

	deps, err := buildDependencies(cfg, logg, dbClient, sessionManager)
	if err != nil {
		rt.Fatal(boot, "failed to wire services", err)
	}
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Sessions = sessionManager

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := rt.Context(map[string]any{"addr": addr})
	defer stop()
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Fatal(ctx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Dependencies, error) {
	conn := dbClient.DB()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	craftRepo := crafts.NewRepository(conn)
	craftService, err := crafts.NewService(craftRepo, dbClient, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient, craftRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	wishlistRepo := wishlist.NewRepository(conn)
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlistRepo,
		CraftRepo:    craftRepo,
		Tx:           dbClient,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(conn),
		Tx:     dbClient,
		Outbox: outboxService,
		Cart:   cartService,
		Crafts: craftRepo,
		Config: cfg.Orders,
		Logger: logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	reviewRepo := reviews.NewRepository(conn)
	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:       reviewRepo,
		Crafts:     craftRepo,
		Aggregator: reviews.NewAggregator(reviewRepo, craftRepo),
		Tx:         dbClient,
		Outbox:     outboxService,
		Logger:     logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	recommendationService, err := recommendations.NewService(recommendations.NewRepository(conn), wishlistRepo, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Registry:        registry,
		HTTPMetrics:     metrics.NewHTTPMetrics(registry),
		Auth:            authService,
		Crafts:          craftService,
		Cart:            cartService,
		Wishlist:        wishlistService,
		Orders:          orderService,
		Reviews:         reviewService,
		Recommendations: recommendationService,
		Notifications:   notificationService,
	}, nil
}
