package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"shopfront/internal/adapter/mongo"
	"shopfront/internal/adapter/nats"
	"shopfront/internal/adapter/redis"
	"shopfront/internal/api"
	"shopfront/internal/cart"
	"shopfront/internal/config"
	"shopfront/internal/http/handlers"
	applog "shopfront/internal/log"
	"shopfront/internal/metrics"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := applog.Init(applog.Config(cfg.Log))
	if err != nil {
		logger.Warn("log file unavailable, logging to stdout only", zap.String("file", cfg.Log.File), zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		logger.Fatal("open database", zap.String("dsn", cfg.DBDSN), zap.Error(err))
	}
	defer db.Close()

	client := api.New(cfg.APIBaseURL, cfg.APITimeout)

	var scope func(sid string) cart.Storage
	switch cfg.Cart.Backend {
	case "redis":
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("cart backend", zap.Error(err))
		}
		defer rdb.Close()
		scope = redis.NewStorage(rdb, cfg.Cart.TTL).Scope
	case "mongo":
		mc, err := mongo.NewConnection(ctx, cfg.Mongo)
		if err != nil {
			logger.Fatal("cart backend", zap.Error(err))
		}
		defer func() { _ = mc.Disconnect(context.Background()) }()
		st := mongo.NewStorage(mc.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := st.EnsureIndexes(ctx, cfg.Cart.TTL); err != nil {
			logger.Fatal("cart backend", zap.Error(err))
		}
		scope = st.Scope
	case "memory":
		// per-session in-process storage
	default:
		scope = repos.NewKVRepo(db).Scope
	}

	var feed cart.Feed = cart.NewLocalFeed()
	if cfg.NATS.URL != "" {
		conn, err := nats.NewConnection(cfg.NATS, logger.Named("nats"))
		if err != nil {
			logger.Fatal("cart feed", zap.Error(err))
		}
		defer conn.Drain()
		nf, err := nats.NewFeed(conn, logger.Named("nats"))
		if err != nil {
			logger.Fatal("cart feed", zap.Error(err))
		}
		feed = nf
	}

	carts, err := services.NewCartService(client.Products, scope, services.CartOptions{
		Key:    cfg.Cart.Key,
		Size:   cfg.Cart.Sessions,
		Feed:   feed,
		Logger: logger.Named("cart"),
	})
	if err != nil {
		logger.Fatal("cart service", zap.Error(err))
	}
	defer carts.Close()

	deps := handlers.NewDeps(db, client, carts, logger).WithMetrics(metrics.New())
	app := handlers.NewApp(handlers.AppConfig{
		TemplatesDir: cfg.TemplatesDir,
		StaticDir:    "./web/static",
		Reload:       true,
	}, deps)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.String("port", cfg.Port),
		zap.String("api", cfg.APIBaseURL),
		zap.String("cart_backend", cfg.Cart.Backend),
		zap.Bool("nats", cfg.NATS.URL != ""),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}
