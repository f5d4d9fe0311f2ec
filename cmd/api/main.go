package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/community-service/internal/api/http"
	"github.com/spec-kit/community-service/internal/api/http/handlers"
	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/config"
	"github.com/spec-kit/community-service/internal/events"
	"github.com/spec-kit/community-service/internal/observability"
	"github.com/spec-kit/community-service/internal/persistence"
	"github.com/spec-kit/community-service/internal/repository"
	"github.com/spec-kit/community-service/internal/repository/memstore"
	"github.com/spec-kit/community-service/internal/service"
	"github.com/spec-kit/community-service/internal/worker"
)

type repositories struct {
	users      repository.UserRepository
	facilities repository.FacilityRepository
	bookings   repository.BookingRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	dependencies := map[string]handlers.Pinger{}
	var repos repositories
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		repos = repositories{
			users:      repository.NewUserRepository(pool),
			facilities: repository.NewFacilityRepository(pool),
			bookings:   repository.NewBookingRepository(pool),
		}
		dependencies["postgres"] = pg
	} else {
		store := memstore.NewStore()
		repos = repositories{users: store.Users(), facilities: store.Facilities(), bookings: store.Bookings()}
	}

	var pushQueue *persistence.RedisPushQueue
	if cfg.Notification.Enabled {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		pushQueue = persistence.NewRedisPushQueue(redis, cfg.Notification.PushQueueKey)
		dependencies["redis"] = redis
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens, err := auth.NewTokenCodec(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init token codec", zap.Error(err))
	}
	guard := auth.NewGuard(auth.NewSessionExtractor(tokens, cfg.Auth.AccessCookieName, logger))

	dispatcher := events.NewInMemoryDispatcher(logger)
	var queue service.PushQueue
	if pushQueue != nil {
		queue = pushQueue
	}
	notificationService := service.NewNotificationService(dispatcher, queue, logger, cfg.Notification)
	var depth worker.QueueDepth
	if pushQueue != nil {
		depth = pushQueue
	}
	worker.NewNotificationWorker(notificationService, depth, logger, time.Minute).Start(ctx)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo: repos.users,
		Hasher:   hasher,
		Tokens:   tokens,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   repos.users,
		Hasher:     hasher,
		Dispatcher: dispatcher,
	})
	bookingService := service.NewBookingService(service.BookingDependencies{
		FacilityRepo: repos.facilities,
		BookingRepo:  repos.bookings,
		Dispatcher:   dispatcher,
	})

	created, err := userService.EnsureSuperAdmin(ctx, service.SuperAdminSeed{
		Name:     cfg.Bootstrap.AdminName,
		Email:    cfg.Bootstrap.AdminEmail,
		Phone:    cfg.Bootstrap.AdminPhone,
		Password: cfg.Bootstrap.AdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to seed super admin", zap.Error(err))
	}
	if created {
		logger.Info("seeded super admin account", zap.String("email", cfg.Bootstrap.AdminEmail))
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, dependencies),
		Auth:       handlers.NewAuthHandler(authService, auth.NewCookieSettings(cfg.Auth)),
		AdminUsers: handlers.NewAdminUsersHandler(userService),
		Facilities: handlers.NewFacilitiesHandler(bookingService),
		Bookings:   handlers.NewBookingsHandler(bookingService),
		Guard:      guard,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", cfg.App.Addr()))

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
