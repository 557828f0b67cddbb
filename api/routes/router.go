package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/logiccrafts/connect-backend/api/controllers"
	"github.com/logiccrafts/connect-backend/api/middleware"
	"github.com/logiccrafts/connect-backend/internal/auth"
	"github.com/logiccrafts/connect-backend/internal/cart"
	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/internal/notifications"
	"github.com/logiccrafts/connect-backend/internal/orders"
	"github.com/logiccrafts/connect-backend/internal/recommendations"
	"github.com/logiccrafts/connect-backend/internal/reviews"
	"github.com/logiccrafts/connect-backend/internal/wishlist"
	"github.com/logiccrafts/connect-backend/pkg/auth/session"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	pkgredis "github.com/logiccrafts/connect-backend/pkg/redis"
)

// redisStore is the slice of the redis client the HTTP surface relies on.
type redisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// Dependencies carries everything the API router wires into handlers.
// Nil infrastructure entries disable the middleware that needs them.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    redisStore
	Sessions session.AccessSessionChecker

	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	Auth            auth.Service
	Crafts          crafts.Service
	Cart            cart.Service
	Wishlist        wishlist.Service
	Orders          orders.Service
	Reviews         reviews.Service
	Recommendations recommendations.Service
	Notifications   notifications.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	// interface-typed nils keep the optional middleware disabled
	var (
		idempotencyStore pkgredis.IdempotencyStore
		rateStore        interface {
			IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
		}
	)
	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		rateStore = deps.Redis
		readiness["redis"] = deps.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	buyer := middleware.RequireRole(logg, enums.UserRoleBuyer)
	artisan := middleware.RequireRole(logg, enums.UserRoleArtisan)
	admin := middleware.RequireRole(logg, enums.UserRoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, rateStore, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(authenticate).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			r.With(authenticate).Get("/me", controllers.AuthMe(deps.Auth, logg))
		})

		// public catalog
		r.Group(func(r chi.Router) {
			r.Get("/crafts", controllers.CraftsList(deps.Crafts, logg))
			r.With(authenticate, artisan).Get("/crafts/mine", controllers.CraftsMine(deps.Crafts, logg))
			r.Get("/crafts/{craftId}", controllers.CraftGet(deps.Crafts, logg))
			r.Get("/crafts/{craftId}/reviews", controllers.CraftReviews(deps.Reviews, logg))
			r.Get("/recommendations/trending", controllers.RecommendationsTrending(deps.Recommendations, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Orders.IdempotencyTTL, logg))

			r.Group(func(r chi.Router) {
				r.Use(artisan)
				r.Post("/crafts", controllers.CraftCreate(deps.Crafts, logg))
				r.Put("/crafts/{craftId}", controllers.CraftUpdate(deps.Crafts, logg))
				r.Delete("/crafts/{craftId}", controllers.CraftDelete(deps.Crafts, logg))
				r.Put("/orders/{orderId}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(buyer)
				r.Get("/recommendations", controllers.RecommendationsForBuyer(deps.Recommendations, logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", controllers.CartList(deps.Cart, logg))
					r.Post("/", controllers.CartAdd(deps.Cart, logg))
					r.Delete("/", controllers.CartClear(deps.Cart, logg))
					r.Put("/{craftId}", controllers.CartUpdate(deps.Cart, logg))
					r.Delete("/{craftId}", controllers.CartRemove(deps.Cart, logg))
				})

				r.Route("/wishlist", func(r chi.Router) {
					r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
					r.Get("/ids", controllers.WishlistIDs(deps.Wishlist, logg))
					r.Post("/", controllers.WishlistAdd(deps.Wishlist, logg))
					r.Delete("/{craftId}", controllers.WishlistRemove(deps.Wishlist, logg))
				})

				r.Post("/orders", controllers.OrderPlace(deps.Orders, logg))
				r.Put("/orders/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
				r.Put("/orders/{orderId}/return", controllers.OrderReturn(deps.Orders, logg))

				r.Post("/reviews", controllers.ReviewCreate(deps.Reviews, logg))
				r.Put("/reviews/{reviewId}", controllers.ReviewUpdate(deps.Reviews, logg))
			})

			r.With(middleware.RequireRole(logg, enums.UserRoleBuyer, enums.UserRoleAdmin)).
				Delete("/reviews/{reviewId}", controllers.ReviewDelete(deps.Reviews, logg))

			r.With(admin).Put("/admin/crafts/{craftId}/moderation", controllers.CraftModerate(deps.Crafts, logg))

			r.Get("/orders", controllers.OrdersList(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderGet(deps.Orders, logg))
			r.Post("/reviews/{reviewId}/helpful", controllers.ReviewHelpful(deps.Reviews, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Put("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Put("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})
		})
	})

	return r
}
