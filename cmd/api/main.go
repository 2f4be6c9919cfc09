package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/helpdesk/internal/adapters/primary/http"
	mw "github.com/lorrc/helpdesk/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk/internal/adapters/secondary/cache"
	"github.com/lorrc/helpdesk/internal/adapters/secondary/memory"
	"github.com/lorrc/helpdesk/internal/adapters/secondary/postgres"
	"github.com/lorrc/helpdesk/internal/auth"
	"github.com/lorrc/helpdesk/internal/config"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/lorrc/helpdesk/internal/core/services"
	"github.com/lorrc/helpdesk/internal/infrastructure/logging"
)

// stores groups the repositories of whichever driver is configured.
type stores struct {
	queries    ports.QueryRepository
	users      ports.UserRepository
	queryTypes ports.QueryTypeRepository
	tx         ports.TransactionManager
	ping       httpAdapter.HealthChecker
	close      func()
}

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Open the query store
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer st.close()

	if cfg.App.BootstrapAdminEmail != "" {
		created, err := services.EnsureAdmin(ctx, st.users, cfg.App.BootstrapAdminName, cfg.App.BootstrapAdminEmail)
		if err != nil {
			logger.Error("failed to bootstrap admin", "error", err)
			os.Exit(1)
		}
		if created {
			logger.Info("bootstrap admin created", "email", cfg.App.BootstrapAdminEmail)
		}
	}

	// 4. Optional dashboard cache
	var dashboardCache ports.DashboardCache
	var cacheCheck httpAdapter.HealthChecker
	if cfg.CacheEnabled() {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		c := cache.NewDashboardCache(client, cfg.Cache.KeyPrefix, cfg.Cache.TTL)
		dashboardCache = c
		cacheCheck = c
		logger.Info("dashboard cache enabled", "ttl", cfg.Cache.TTL)
	}

	// 5. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// 6. Initialize Rate Limiters
	var generalRateLimiter, writeRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		general := mw.DefaultRateLimiterConfig()
		general.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		general.BurstSize = cfg.RateLimit.BurstSize
		generalRateLimiter = mw.NewRateLimiter(general)
		defer generalRateLimiter.Stop()

		writes := mw.WriteRateLimiterConfig()
		writes.RequestsPerSecond = cfg.RateLimit.WriteRPS
		writes.BurstSize = cfg.RateLimit.WriteBurst
		writeRateLimiter = mw.NewRateLimiter(writes)
		defer writeRateLimiter.Stop()
	}

	// 7. Services (Core)
	lifecycleService := services.NewLifecycleService(st.queries, st.users, st.queryTypes, st.tx, dashboardCache, hub, logger)
	queryService := services.NewQueryService(st.queries)
	dashboardService := services.NewDashboardService(st.queries, st.users, st.tx, dashboardCache, logger)
	directoryService := services.NewDirectoryService(st.users, st.queryTypes, dashboardCache, logger)

	// 8. Handlers (Primary Adapters)
	healthHandler := httpAdapter.NewHealthHandler(cfg.App.Version, []httpAdapter.Dependency{
		{Name: "database", Checker: st.ping, Required: true},
		{Name: "cache", Checker: cacheCheck},
	}, hub.ClientCount)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, httpAdapter.WebSocketConfig{
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		IsDevelopment:   cfg.IsDevelopment(),
		Client: websocket.ClientConfig{
			PingInterval: cfg.WebSocket.PingInterval,
			PongWait:     cfg.WebSocket.PongWait,
		},
	}, logger)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:         logger,
		TokenManager:   tokenManager,
		Queries:        queryService,
		Lifecycle:      lifecycleService,
		Dashboards:     dashboardService,
		Directory:      directoryService,
		Health:         healthHandler,
		WebSocket:      wsHandler,
		RateLimiter:    generalRateLimiter,
		WriteLimiter:   writeRateLimiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server shutdown complete")
}

// openStores connects the configured driver, migrating postgres first when enabled.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return &stores{
			queries:    store.Queries(),
			users:      store.Users(),
			queryTypes: store.QueryTypes(),
			tx:         store,
			close:      func() {},
		}, nil
	}

	if cfg.Store.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL, cfg.Store.MigrationsPath); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database connection established")

	return &stores{
		queries:    postgres.NewQueryRepository(pool),
		users:      postgres.NewUserRepository(pool),
		queryTypes: postgres.NewQueryTypeRepository(pool),
		tx:         postgres.NewTransactionManager(pool),
		ping:       pool,
		close:      pool.Close,
	}, nil
}
