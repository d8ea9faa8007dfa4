package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/md-ataur/watch-redux-server/services/notification-service/internal/worker"
	"github.com/md-ataur/watch-redux-server/shared/pkg/cache"
	"github.com/md-ataur/watch-redux-server/shared/pkg/config"
	"github.com/md-ataur/watch-redux-server/shared/pkg/logger"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
	"github.com/md-ataur/watch-redux-server/shared/pkg/rabbit"
)

const (
	queue  = "notification.q"
	dlqKey = "notification.dlq"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}
	log := logger.New("notification-service", cfg.Common.LogLevel)

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}

	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, rabbit.QueueSpec{
		Name:     queue,
		BindKeys: []string{"orders.#", "users.#"},
		DLQKey:   dlqKey,
		Prefetch: 50,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare notification topology failed")
	}

	// retry per routing key
	for _, rk := range []string{
		models.EventOrderCreated,
		models.EventOrderStatusUpdated,
		models.EventOrderDeleted,
		models.EventUserPromoted,
	} {
		if err := rabbit.DeclareRetryQueue(rc.Ch, "notification.retry."+rk+".5s", "notification."+rk, rk, 5000); err != nil {
			log.Fatal().Err(err).Str("rk", rk).Msg("declare retry queue failed")
		}
	}

	rdb := cache.New(cfg.Redis.Addr)
	defer func() { _ = rdb.Close() }()

	deliveries, err := rabbit.NewConsumer(rc.Ch).Consume(queue, 50)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	w := &worker.Consumer{
		Log:         log,
		Notifier:    worker.LogNotifier{Log: log},
		Dedupe:      rdb,
		EventTTL:    cfg.Redis.EventTTL,
		RetryPub:    rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry),
		DLQPub:      rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX),
		Service:     "notification",
		MaxAttempts: 5,
		DLQKey:      dlqKey,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, deliveries)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	log.Info().Str("metrics_addr", cfg.MetricsAddr).Msg("notification worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown")
	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
