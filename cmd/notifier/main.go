package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/little-lemon-api/internal/config"
	kafkax "github.com/ariefcatur/little-lemon-api/internal/kafka"
	"github.com/ariefcatur/little-lemon-api/internal/logger"
	"github.com/ariefcatur/little-lemon-api/internal/notify"
	"github.com/ariefcatur/little-lemon-api/internal/redisx"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := cfg.ServiceName + "-notifier"
	log := logger.New(service, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis holds both the dedup marks and the inboxes, so it is required here.
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	rdb, err := redisx.Connect(pingCtx, cfg.RedisAddr)
	pingCancel()
	if err != nil {
		log.Error("redis", logger.Err(err))
		os.Exit(1)
	}
	defer rdb.Close()

	svc := &notify.Service{
		Redis:       rdb,
		Inbox:       redisx.NewInbox(rdb),
		ServiceName: service,
		Log:         log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, restaurant.OrderTopics, cfg.NotifierWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("notifier consumer started",
			"group", cfg.NotifierGroup, "topics", restaurant.OrderTopics, "workers", cfg.NotifierWorkers)
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			log.Error("consumer exit", logger.Err(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done
}
