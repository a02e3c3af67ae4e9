package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabwarden/internal/activity"
	"github.com/MrSnakeDoc/tabwarden/internal/config"
	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/eviction"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/redis"
	"github.com/MrSnakeDoc/tabwarden/internal/rules"
	"github.com/MrSnakeDoc/tabwarden/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/tabwarden/internal/store/redis"
	"github.com/MrSnakeDoc/tabwarden/internal/tabs"
	"github.com/MrSnakeDoc/tabwarden/internal/version"
)

type App struct {
	cfg           *config.Config
	logger        logger.Logger
	server        *httpserver.Server
	redisClient   *goredis.Client
	coordinator   *eviction.Coordinator
	evictionLoop  *scheduler.EvictionLoop
	rulesReloader *scheduler.RulesReloader
	reconciler    *scheduler.Reconciler
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis is optional, but once configured it must be reachable
	var (
		redisClient *goredis.Client
		store       *redisstore.Store
	)
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		store = redisstore.NewStore(client)
		loggerClient.Info("Redis initialized successfully")
	} else {
		loggerClient.Warn("redis not configured, whitelist, history and options are kept in memory only")
	}

	defaults := cfg.DefaultOptions()
	activityStore := activity.NewStore(activity.WithPrivacyMode(defaults.PrivacyMode))
	resolver := rules.NewResolver(loggerClient)

	var bridge tabs.Bridge
	if cfg.BridgeURL != "" {
		loggerClient.Info("browser bridge configured", logger.String("url", cfg.BridgeURL))
		bridge = tabs.NewHTTPBridge(cfg.BridgeURL, cfg.BridgeTimeout, loggerClient)
	} else {
		loggerClient.Warn("browser bridge not configured, closures and notifications are only logged")
		bridge = tabs.NewNopBridge(loggerClient)
	}

	coordOpts := []eviction.Option{eviction.WithOptions(defaults)}
	if store != nil {
		coordOpts = append(coordOpts, eviction.WithPersistence(store))
	}
	coordinator := eviction.NewCoordinator(activityStore, resolver, bridge, bridge, loggerClient, coordOpts...)

	// Persisted state wins over env defaults
	if store != nil {
		syncer := scheduler.NewStateSyncer(store, coordinator, resolver, loggerClient)
		if err := syncer.Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to restore state from redis, starting from defaults",
				logger.Error(err))
		}
	}

	// Manual cycle trigger shared with the HTTP layer
	cycleTrigger := make(chan struct{}, 1)
	evictionLoop := scheduler.NewEvictionLoop(coordinator, loggerClient, cfg.CheckInterval, cycleTrigger)
	// Re-arm the loop when eviction is toggled
	coordinator.OnOptionsChanged(func(domain.Options) { evictionLoop.Notify() })

	var (
		rulesReloader      *scheduler.RulesReloader
		rulesReloadTrigger chan struct{}
		rulesStore         deps.RulesStore
		ruleSaver          scheduler.RuleSaver
	)
	if store != nil {
		rulesStore = store
		ruleSaver = store
	}
	if cfg.RulesFile != "" {
		loggerClient.Info("rules file configured, initializing rules reloader",
			logger.String("file", cfg.RulesFile))
		rulesReloadTrigger = make(chan struct{}, 1)
		rulesReloader = scheduler.NewRulesReloader(
			cfg.RulesFile,
			resolver,
			ruleSaver,
			loggerClient,
			cfg.RulesReloadInterval,
			rulesReloadTrigger,
		)
	} else {
		loggerClient.Info("rules file not configured, rules are managed through the API")
	}

	// Without a bridge there is no authoritative tab list to reconcile against
	var reconciler *scheduler.Reconciler
	if cfg.BridgeURL != "" {
		reconciler = scheduler.NewReconciler(bridge, activityStore, loggerClient, cfg.ReconcileInterval)
	}

	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		EventsBurst:        cfg.EventsBurst,
		EventsRefillPerMin: cfg.EventsRefillPerMin,
		RedisClient:        redisClient,
		Activity:           activityStore,
		Coordinator:        coordinator,
		Resolver:           resolver,
		RulesStore:         rulesStore,
		RulesFile:          cfg.RulesFile,
		CycleTrigger:       cycleTrigger,
		RulesReloadTrigger: rulesReloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:           cfg,
		logger:        loggerClient,
		server:        server,
		redisClient:   redisClient,
		coordinator:   coordinator,
		evictionLoop:  evictionLoop,
		rulesReloader: rulesReloader,
		reconciler:    reconciler,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting tabwarden v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.rulesReloader != nil {
		if err := a.rulesReloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start rules reloader: %w", err)
		}
		a.logger.Info("rules reloader started",
			logger.Duration("interval", a.cfg.RulesReloadInterval))
	}

	if a.reconciler != nil {
		if err := a.reconciler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reconciler: %w", err)
		}
		a.logger.Info("reconciler started",
			logger.Duration("interval", a.cfg.ReconcileInterval))
	}

	if err := a.evictionLoop.Start(ctx); err != nil {
		return fmt.Errorf("failed to start eviction loop: %w", err)
	}
	a.logger.Info("eviction loop started",
		logger.Duration("interval", a.cfg.CheckInterval),
		logger.Bool("enabled", a.coordinator.Options().Enabled))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stops the loop and drops any pending batch
	a.evictionLoop.Stop()

	if a.rulesReloader != nil {
		a.rulesReloader.Stop()
	}
	if a.reconciler != nil {
		a.reconciler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ tabwarden stopped cleanly")
	return nil
}
