package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/resto-platform/core/internal/config"
	"github.com/resto-platform/core/internal/core"
	"github.com/resto-platform/core/internal/handlers"
	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/orders"
	"github.com/resto-platform/core/internal/queue"
	"github.com/resto-platform/core/internal/realtime"
	"github.com/resto-platform/core/internal/repository"
	"github.com/resto-platform/core/internal/routes"
	"github.com/resto-platform/core/internal/tenant"
	"github.com/resto-platform/core/pkg/logger"
	"github.com/resto-platform/core/pkg/metrics"
)

// coreNotifier adapts the core façade to the watcher's Notifier interface.
type coreNotifier struct {
	core *core.Core
}

func (n coreNotifier) Notify(ctx context.Context, tenantID int64, kind string, rcpt notify.Recipient, subject map[string]interface{}) error {
	_, err := n.core.Notify(ctx, tenantID, kind, rcpt, subject)
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logr := logger.New(cfg.LogLevel, "api")
	logr.Info("starting api server", slog.String("app", cfg.AppName))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logr.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&repository.RestaurantGroup{},
		&repository.Restaurant{},
		&repository.User{},
		&repository.InboxNotification{},
		&repository.DeliveryStatus{},
		&orders.Order{},
	); err != nil {
		logr.Error("failed to migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()

	mqManager, err := queue.NewManager(cfg.RabbitMQURL, logr)
	if err != nil {
		logr.Error("failed to connect to RabbitMQ", slog.Any("error", err))
		os.Exit(1)
	}
	defer mqManager.Close()

	deliveryChannels := []notify.Channel{
		notify.ChannelMail,
		notify.ChannelTelegram,
		notify.ChannelSMS,
		notify.ChannelDatabase,
	}
	if err := mqManager.DeclareTopology(deliveryChannels); err != nil {
		logr.Error("failed to declare rabbitmq topology", slog.Any("error", err))
		os.Exit(1)
	}
	publisher := queue.NewPublisher(mqManager.Connection())

	groupStore := repository.NewGroupStore(db)
	recipientStore := repository.NewRecipientStore(db)
	orderStore := repository.NewOrderStore(db)
	inboxStore := repository.NewInboxStore(db)
	statusStore := repository.NewStatusStore(db)
	redisRepo := repository.NewRedisRepository(redisClient)

	resolver := tenant.NewResolver(groupStore, logr)
	eventRouter := realtime.NewRouter(realtime.NewRedisTransport(redisClient), logr)
	notifyRouter := notify.NewRouter(logr)
	metricsCollector := metrics.New()

	coreSvc := core.New(resolver, eventRouter, notifyRouter, metricsCollector, logr,
		core.WithQueue(publisher),
		core.WithStatusRecorder(statusStore),
		core.WithPublishTimeout(cfg.PublishTimeout),
	)

	watcher := orders.NewWatcher(coreSvc, coreNotifier{coreSvc}, recipientStore, logr)

	orderHandler := handlers.NewOrderHandler(orderStore, watcher)
	eventHandler := handlers.NewEventHandler(coreSvc)
	notificationHandler := handlers.NewNotificationHandler(coreSvc, recipientStore, inboxStore, statusStore, redisRepo)

	router := gin.Default()
	router.Use(metricsCollector.GinMiddleware())
	router.GET("/metrics", gin.WrapH(metricsCollector.Handler()))

	routes.SetupRoutes(router, resolver, orderHandler, eventHandler, notificationHandler, redisClient, cfg.JWTSecret, cfg.RateLimitPerMinute)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("server listen failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server forced to shutdown", slog.Any("error", err))
	}

	logr.Info("server exiting")
}
