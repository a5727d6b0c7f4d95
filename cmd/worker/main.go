package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/resto-platform/core/internal/config"
	"github.com/resto-platform/core/internal/delivery"
	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/queue"
	"github.com/resto-platform/core/internal/repository"
	"github.com/resto-platform/core/pkg/logger"
	"github.com/resto-platform/core/pkg/metrics"
	"github.com/resto-platform/core/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logr := logger.New(cfg.LogLevel, "worker")
	logr.Info("starting delivery worker", slog.String("app", cfg.AppName))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logr.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&repository.InboxNotification{},
		&repository.DeliveryStatus{},
	); err != nil {
		logr.Error("failed to migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

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

	inboxStore := repository.NewInboxStore(db)
	statusStore := repository.NewStatusStore(db)
	metricsCollector := metrics.New()

	senders := []notify.Sender{
		delivery.WithBreaker(delivery.NewMailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)),
		delivery.WithBreaker(delivery.NewTelegramSender(cfg.TelegramAPIBase, cfg.TelegramBotToken, cfg.SenderTimeout)),
		delivery.WithBreaker(delivery.NewSMSSender(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSFrom, cfg.SenderTimeout)),
		delivery.NewDatabaseSender(inboxStore),
	}
	router := notify.NewRouter(logr, senders...)

	processor := delivery.NewProcessor(router, statusStore, metricsCollector, logr, retry.Config{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialBackoff: cfg.RetryInitialBackoff,
		MaxBackoff:     cfg.RetryMaxBackoff,
		JitterFactor:   0.2,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, ch := range deliveryChannels {
		consumer := queue.NewConsumer(mqManager.Connection(), ch, processor, cfg.PrefetchCount, cfg.WorkerCount, cfg.MaxDeliveries, logr)
		wg.Add(1)
		go func(ch notify.Channel, consumer *queue.Consumer) {
			defer wg.Done()
			logr.Info("consumer started", slog.String("queue", queue.QueueFor(ch)))
			if err := consumer.Start(ctx); err != nil {
				logr.Error("consumer stopped",
					slog.String("queue", queue.QueueFor(ch)),
					slog.Any("error", err))
			}
		}(ch, consumer)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.Handle("/metrics", metricsCollector.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.WorkerHTTPPort,
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("worker http server failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	wg.Wait()
	logr.Info("worker exiting")
}
