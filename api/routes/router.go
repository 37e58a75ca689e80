package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderflow-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/orderflow-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/orderflow-backend/api/controllers/orders"
	"github.com/angelmondragon/orderflow-backend/api/middleware"
	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/internal/fulfillment"
	"github.com/angelmondragon/orderflow-backend/internal/history"
	"github.com/angelmondragon/orderflow-backend/internal/inventory"
	"github.com/angelmondragon/orderflow-backend/internal/orders"
	products "github.com/angelmondragon/orderflow-backend/internal/products"
	"github.com/angelmondragon/orderflow-backend/internal/reviews"
	"github.com/angelmondragon/orderflow-backend/pkg/config"
	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/orderflow-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer relies on.
type RedisStore interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Products    products.Service
	Inventory   inventory.Service
	Cart        cart.Service
	Orders      orders.Service
	Fulfillment fulfillment.Service
	History     history.Service
	Reviews     reviews.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient RedisStore,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	userLimit := middleware.RateLimitPolicy{
		Window: cfg.RateLimit.Window,
		Limit:  cfg.RateLimit.UserLimit,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RateLimit(userLimit, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(svcs.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(svcs.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(svcs.Cart, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(svcs.Fulfillment, logg))
			r.Get("/", ordercontrollers.List(svcs.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(svcs.Fulfillment, logg))
			r.Get("/{orderId}/history", ordercontrollers.History(svcs.History, logg))
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(svcs.Products, logg))
			r.Get("/", controllers.ListProducts(svcs.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(svcs.Products, logg))
			r.Get("/{productId}/reviews", controllers.ListProductReviews(svcs.Reviews, logg))
			r.Post("/{productId}/reviews", controllers.CreateProductReview(svcs.Reviews, logg))
		})

		r.Get("/v1/reviews", controllers.ListMyReviews(svcs.Reviews, logg))

		r.Route("/v1/inventory/{productId}", func(r chi.Router) {
			r.Get("/", controllers.GetStock(svcs.Inventory, logg))
			r.Put("/", controllers.SetStock(svcs.Inventory, logg))
			r.Post("/adjust", controllers.AdjustStock(svcs.Inventory, logg))
		})
	})

	return r
}
