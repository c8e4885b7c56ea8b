package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablemesa/tablemesa-backend/api/controllers"
	ordercontrollers "github.com/tablemesa/tablemesa-backend/api/controllers/orders"
	"github.com/tablemesa/tablemesa-backend/api/middleware"
	"github.com/tablemesa/tablemesa-backend/internal/orders"
	"github.com/tablemesa/tablemesa-backend/pkg/config"
	"github.com/tablemesa/tablemesa-backend/pkg/db"
	"github.com/tablemesa/tablemesa-backend/pkg/logger"
	"github.com/tablemesa/tablemesa-backend/pkg/metrics"
	pkgredis "github.com/tablemesa/tablemesa-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	ordersSvc orders.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	// Assign through the interfaces only when the client exists; a typed nil
	// would slip past the downstream nil checks.
	var redisP pkgredis.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg))

		r.Route("/restaurants/{restaurantId}", func(r chi.Router) {
			r.Route("/tables/{tableId}/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Create(ordersSvc, logg))
				r.Get("/", ordercontrollers.TableOrders(ordersSvc, logg))
			})
			r.Get("/orders", ordercontrollers.List(ordersSvc, logg))
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Patch("/status", ordercontrollers.UpdateStatus(ordersSvc, logg))
			r.Delete("/", ordercontrollers.Delete(ordersSvc, logg))
		})
	})

	return r
}
