package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopsphere/storefront/api/controllers"
	"github.com/shopsphere/storefront/api/middleware"
	"github.com/shopsphere/storefront/internal/cart"
	"github.com/shopsphere/storefront/internal/checkout"
	"github.com/shopsphere/storefront/internal/orders"
	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/internal/session"
	"github.com/shopsphere/storefront/internal/wishlist"
	"github.com/shopsphere/storefront/pkg/config"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	Sessions      *session.Store
	Cart          *cart.Store
	Wishlist      *wishlist.Store
	Pipeline      *checkout.Pipeline
	AuthClient    *remote.AuthClient
	CatalogClient *remote.CatalogClient
	OrderClient   *remote.OrderClient
	AddressClient *remote.AddressClient
	Directory     *orders.Directory
	Lifecycle     *orders.Lifecycle
	Poller        *orders.Poller
	Registry      *prometheus.Registry
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Redis, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.Login(d.AuthClient, d.Sessions, cfg.JWT, logg))
		r.With(middleware.LoginRateLimit(loginPolicy, d.Redis, logg)).Post("/register", controllers.Register(d.AuthClient, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/logout", controllers.Logout(d.Sessions, d.Cart, logg))
			r.Get("/session", controllers.SessionShow(d.Sessions, logg))
		})
	})

	// catalog browsing needs no login
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/search", controllers.ProductSearch(d.CatalogClient, logg))
		r.Get("/{productId}", controllers.ProductShow(d.CatalogClient, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartShow(d.Cart, d.Pipeline))
			r.Delete("/", controllers.CartClear(d.Cart, d.Pipeline))
			r.Post("/items", controllers.CartAdd(d.Cart, d.Pipeline, logg))
			r.Put("/items/{productId}", controllers.CartSetQuantity(d.Cart, d.Pipeline, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(d.Cart, d.Pipeline, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistShow(d.Wishlist, d.Sessions, logg))
			r.Post("/", controllers.WishlistAdd(d.Wishlist, d.Sessions, logg))
			r.Delete("/", controllers.WishlistClear(d.Wishlist, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(d.Wishlist, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/summary", controllers.CheckoutSummary(d.Cart, d.Pipeline))
			r.Post("/", controllers.CheckoutSubmit(d.Pipeline, d.Sessions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(d.OrderClient, d.Lifecycle, d.Sessions, logg))
			r.Get("/last", controllers.LastOrder(d.Sessions, logg))
			r.Get("/{orderId}", controllers.OrderShow(d.OrderClient, d.Lifecycle, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(d.AddressClient, d.Sessions, logg))
			r.Post("/", controllers.AddressCreate(d.AddressClient, d.Sessions, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(d.Directory))
			r.Post("/refresh", controllers.AdminOrdersRefresh(d.Poller, d.Directory, logg))
			r.Put("/{orderId}/status", controllers.AdminOrderStatusUpdate(d.Directory, d.Lifecycle, logg))
		})
	})

	return r
}
