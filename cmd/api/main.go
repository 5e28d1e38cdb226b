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

	httptransport "github.com/spec-kit/identity-service/internal/api/http"
	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/persistence"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/service"
	"github.com/spec-kit/identity-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	db, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, db.DB, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordScheme, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("invalid password hashing config", zap.Error(err))
	}
	tokens, err := auth.NewTokenManager(auth.TokenConfigFrom(cfg.Auth))
	if err != nil {
		logger.Fatal("invalid token config", zap.Error(err))
	}

	roleRepo := repository.NewRoleRepository(db.DB)
	if redis.Enabled() {
		roleRepo = repository.NewCachedRoleRepository(roleRepo, redis.Client, cfg.Redis.RoleCacheTTL(), logger)
	}
	userRepo := repository.NewUserRepository(db.DB)
	loginLogRepo := repository.NewLoginLogRepository(db.DB)
	auditLogRepo := repository.NewAuditLogRepository(db.DB)

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     userRepo,
		RoleRepo:     roleRepo,
		LoginLogRepo: loginLogRepo,
		AuditLogRepo: auditLogRepo,
		Hasher:       hasher,
		Tokens:       tokens,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	auditRecorder := service.NewAuditRecorder(dispatcher, auditLogRepo, logger)
	worker.StartWorkers(notificationService, auditRecorder)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, db, redis),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth.PhoneRegion),
		Users:          handlers.NewUsersHandler(authService, cfg.Auth.PhoneRegion),
		Roles:          handlers.NewRolesHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
