package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/sunbase/customer-service/internal/api/http"
	"github.com/sunbase/customer-service/internal/api/http/handlers"
	"github.com/sunbase/customer-service/internal/auth"
	"github.com/sunbase/customer-service/internal/config"
	"github.com/sunbase/customer-service/internal/events"
	"github.com/sunbase/customer-service/internal/observability"
	"github.com/sunbase/customer-service/internal/persistence"
	"github.com/sunbase/customer-service/internal/remote"
	"github.com/sunbase/customer-service/internal/repository"
	"github.com/sunbase/customer-service/internal/service"
	"github.com/sunbase/customer-service/internal/worker"
)

const importLockKey = "customer-service:import-lock"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)

	dispatcher := events.NewBus()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(cfg.Auth, userRepo)
	if created, err := authService.EnsureBootstrapAdmin(ctx); err != nil {
		logger.Warn("bootstrap admin not ensured", zap.Error(err))
	} else if created {
		logger.Info("bootstrap admin created", zap.String("email", cfg.Auth.BootstrapEmail))
	}
	identityService := service.NewIdentityService(userRepo)
	filter := auth.NewFilter(authService.TokenManager(), identityService, logger, metrics)

	customerService := service.NewCustomerService(service.CustomerDependencies{
		Customers:  customerRepo,
		Remote:     remote.NewVendorClient(cfg.Vendor, logger),
		Lock:       persistence.NewRedisLock(redis, importLockKey, cfg.Vendor.ImportLockTTL()),
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:      handlers.NewAuthHandler(authService),
		Customers: handlers.NewCustomersHandler(customerService),
		Filter:    filter,
		Metrics:   metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
