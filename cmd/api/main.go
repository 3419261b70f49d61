package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/little-lemon-api/internal/auth"
	"github.com/ariefcatur/little-lemon-api/internal/config"
	"github.com/ariefcatur/little-lemon-api/internal/httpx"
	kafkax "github.com/ariefcatur/little-lemon-api/internal/kafka"
	"github.com/ariefcatur/little-lemon-api/internal/logger"
	"github.com/ariefcatur/little-lemon-api/internal/memstore"
	"github.com/ariefcatur/little-lemon-api/internal/postgres"
	"github.com/ariefcatur/little-lemon-api/internal/redisx"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
	"github.com/ariefcatur/little-lemon-api/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("open store", logger.Err(err))
		os.Exit(1)
	}
	defer closeStore()

	// Role groups must exist before anything resolves a caller's role.
	for _, g := range []string{cfg.ManagerGroup, cfg.DeliveryGroup} {
		if _, err := store.EnsureGroup(ctx, g); err != nil {
			log.Error("ensure group", "group", g, logger.Err(err))
			os.Exit(1)
		}
	}
	groups, err := restaurant.LoadRoleGroups(ctx, store, cfg.ManagerGroup, cfg.DeliveryGroup)
	if err != nil {
		log.Error("load role groups", logger.Err(err))
		os.Exit(1)
	}
	resolver := restaurant.NewResolver(store, groups)
	users := restaurant.NewUserService(store, resolver)

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err == nil {
			err = (&seed.Seeder{Store: store, Users: users, Log: log}).Apply(ctx, f)
		}
		if err != nil {
			log.Error("seed", "file", cfg.SeedFile, logger.Err(err))
			os.Exit(1)
		}
	}

	api := &httpx.API{
		Users:          users,
		Cart:           restaurant.NewCartService(store),
		Orders:         restaurant.NewOrderService(store, resolver),
		Menu:           restaurant.NewMenuService(store),
		Groups:         restaurant.NewGroupService(store, groups),
		Tokens:         auth.NewIssuer(cfg.JWTSecret, cfg.ServiceName, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		RateUserPerMin: cfg.RateUserPerMin,
		RateAnonPerMin: cfg.RateAnonPerMin,
		Log:            log,
	}

	// Redis backs rate limiting, the order cache and notification inboxes.
	// The API still serves without it.
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	rdb, err := redisx.Connect(pingCtx, cfg.RedisAddr)
	pingCancel()
	if err != nil {
		log.Warn("redis unavailable, running without cache and rate limits", logger.Err(err))
	} else {
		defer rdb.Close()
		api.Limiter = redisx.NewLimiter(rdb, time.Minute)
		api.Cache = redisx.NewOrderCache(rdb)
		api.Inbox = redisx.NewInbox(rdb)
	}

	// Kafka producer
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		prod.Start(ctx)
		api.Events = &kafkax.EventPublisher{Producer: prod, Service: cfg.ServiceName}
	} else {
		log.Warn("KAFKA_BROKERS empty, order events disabled")
	}

	router := httpx.NewRouter(log)
	api.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", logger.Err(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (restaurant.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db, log); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewStore(db), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
