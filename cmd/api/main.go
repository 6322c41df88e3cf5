package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Luksow29/classic-offset-backend/api/routes"
	"github.com/Luksow29/classic-offset-backend/internal/notifications"
	"github.com/Luksow29/classic-offset-backend/internal/orders"
	"github.com/Luksow29/classic-offset-backend/internal/realtime"
	"github.com/Luksow29/classic-offset-backend/internal/requests"
	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/db"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
	"github.com/Luksow29/classic-offset-backend/pkg/metrics"
	"github.com/Luksow29/classic-offset-backend/pkg/migrate"
	"github.com/Luksow29/classic-offset-backend/pkg/outbox"
	"github.com/Luksow29/classic-offset-backend/pkg/push"
	"github.com/Luksow29/classic-offset-backend/pkg/redis"
)

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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	changeFeed, err := feed.NewRedisFeed(redisClient, cfg.Feed, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create change feed", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	dispatcherMetrics := metrics.NewDispatcherMetrics(registry)
	syncMetrics := metrics.NewSyncMetrics(registry)

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	var pusher *push.Client
	if cfg.Push.Enabled() {
		pusher, err = push.NewClient(cfg.Push, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create push client", err)
			os.Exit(1)
		}
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := newNotificationsService(dbClient, notificationsRepo, emitter, pusher, dispatcherMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, emitter, notificationsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	requestsService, err := requests.NewService(requests.NewRepository(dbClient.DB()), dbClient, emitter, notificationsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}

	hub, err := realtime.NewHub(changeFeed, cfg.Sync, syncMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync hub", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Orders:        ordersService,
			OrdersRepo:    ordersRepo,
			Requests:      requestsService,
			Notifications: notificationsService,
			Hub:           hub,
			Metrics:       registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// newNotificationsService keeps the push wiring in one place: a nil client
// disables push delivery without a separate code path in the service.
func newNotificationsService(dbClient *db.Client, repo notifications.Repository, emitter *outbox.Service, pusher *push.Client, m *metrics.DispatcherMetrics, logg *logger.Logger) (notifications.Service, error) {
	if pusher == nil {
		return notifications.NewService(dbClient, repo, emitter, nil, m, logg)
	}
	return notifications.NewService(dbClient, repo, emitter, pusher, m, logg)
}
