package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Luksow29/classic-offset-backend/api/controllers"
	"github.com/Luksow29/classic-offset-backend/api/middleware"
	"github.com/Luksow29/classic-offset-backend/internal/notifications"
	"github.com/Luksow29/classic-offset-backend/internal/orders"
	"github.com/Luksow29/classic-offset-backend/internal/realtime"
	"github.com/Luksow29/classic-offset-backend/internal/requests"
	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/db"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
	"github.com/Luksow29/classic-offset-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Orders        orders.Service
	OrdersRepo    orders.Repository
	Requests      requests.Service
	Notifications notifications.Service
	Hub           *realtime.Hub
	Metrics       prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.Healthz(deps.Config, deps.Logger, deps.DB, deps.Redis))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", controllers.ListOrders(deps.Orders, deps.Logger))
		r.Get("/{id}", controllers.GetOrder(deps.Orders, deps.Logger))
		r.Post("/{id}/status", controllers.RecordOrderStatus(deps.Orders, deps.Logger))
		if deps.Hub != nil {
			r.Get("/{id}/events", controllers.StreamOrderStatus(deps.Hub, deps.OrdersRepo, deps.Logger))
		}
	})

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", controllers.CreateRequest(deps.Requests, deps.Logger))
		r.Get("/{id}", controllers.GetRequest(deps.Requests, deps.Logger))
		r.Post("/{id}/quote", controllers.SendQuote(deps.Requests, deps.Logger))
		r.Post("/{id}/response", controllers.RespondToQuote(deps.Requests, deps.Logger))
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", controllers.ListNotifications(deps.Notifications, deps.Logger))
		r.Post("/dispatch", controllers.DispatchNotification(deps.Notifications, deps.Logger))
		r.Post("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, deps.Logger))
		r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, deps.Logger))
	})

	return r
}
