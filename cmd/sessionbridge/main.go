package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/sessionbridge/internal/bridge"
	"github.com/dropDatabas3/sessionbridge/internal/cache"
	"github.com/dropDatabas3/sessionbridge/internal/config"
	httpx "github.com/dropDatabas3/sessionbridge/internal/http"
	"github.com/dropDatabas3/sessionbridge/internal/http/handlers"
	mw "github.com/dropDatabas3/sessionbridge/internal/http/middlewares"
	"github.com/dropDatabas3/sessionbridge/internal/http/router"
	"github.com/dropDatabas3/sessionbridge/internal/observability/logger"
	"github.com/dropDatabas3/sessionbridge/internal/session"
	"github.com/dropDatabas3/sessionbridge/internal/settings"
	"github.com/dropDatabas3/sessionbridge/internal/store"
	pgmigrations "github.com/dropDatabas3/sessionbridge/migrations/postgres"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "ruta al config.yaml (opcional)")
		migrate    = flag.Bool("migrate", false, "aplicar migraciones de postgres y seguir")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// logger todavía no inicializado
		panic("config: " + err.Error())
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "sessionbridge",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Redis: índices, settings store y (opcional) sesiones ───
	if cfg.Cache.Redis.Addr == "" {
		log.Fatal("redis addr is required (indexes and settings live there)")
	}
	redisClient := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()
	{
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable at startup", logger.Err(err))
		}
		cancel()
	}

	indexes := store.NewRedisIndexes(redisClient, cfg.Cache.Redis.Prefix)

	// ─── Postgres: cuentas locales ───
	users, err := store.NewPGUsers(ctx, store.PGConfig{
		DSN:             cfg.Storage.Postgres.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MinConns:        cfg.Storage.Postgres.MinConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	}, indexes)
	if err != nil {
		log.Fatal("postgres init failed", logger.Err(err))
	}
	defer users.Close()

	if *migrate {
		if err := store.Migrate(ctx, users.Pool(), pgmigrations.FS); err != nil {
			log.Fatal("migrations failed", logger.Err(err))
		}
	}

	// ─── Settings: seed estática + store caliente ───
	settingsStore := settings.NewRedisStore(redisClient, cfg.Cache.Redis.Prefix)
	base := settings.Defaults().Merge(cfg.BridgeSeed())
	loader := settings.NewLoader(settingsStore, base)
	if err := loader.Reload(ctx); err != nil {
		log.Warn("initial settings load failed, bridge stays disabled", logger.Err(err))
	}

	// ─── Sesiones locales ───
	var sessionCache cache.Client
	if cfg.Cache.Kind == "redis" {
		sessionCache = cache.NewRedisFromClient(redisClient, cfg.Cache.Redis.Prefix)
	} else {
		defaultTTL, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
		sessionCache = cache.NewMemory(cfg.Cache.Redis.Prefix, defaultTTL)
	}
	sessions := session.NewManager(sessionCache, session.Config{
		CookieName: cfg.Session.CookieName,
		Domain:     cfg.Session.Domain,
		Secure:     cfg.Session.Secure,
		TTL:        cfg.SessionTTL(),
	})

	// ─── Core del bridge ───
	processor := bridge.NewProcessor(
		bridge.NewVerifier(nil),
		bridge.NewReconciler(users, indexes),
	)
	gatekeeper := mw.NewGatekeeper(loader, processor, sessions, cfg.Server.BaseURL)

	// ─── Métricas ───
	// RegisterMetrics también registra las métricas del bridge.
	registry := prometheus.NewRegistry()
	metricsHandler, err := httpx.RegisterMetrics(registry)
	if err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}

	handler := router.New(router.Deps{
		Gatekeeper:    gatekeeper,
		AdminSettings: &handlers.AdminSettings{Store: settingsStore, Loader: loader},
		DebugSession:  &handlers.DebugSession{Loader: loader},
		Metrics:       metricsHandler,
		ReadyDeps: map[string]handlers.Pinger{
			"postgres": users,
			"redis":    indexes,
		},
		AdminAPIKey: cfg.Admin.APIKey,
		EnableDebug: cfg.App.Env != "prod",
	})

	srv := httpx.NewServer(cfg.Server.Addr, handler)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Info("server listening", logger.String("addr", cfg.Server.Addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
	}
}
