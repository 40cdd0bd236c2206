package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civicdesk/complaint-service/internal/api/http"
	"github.com/civicdesk/complaint-service/internal/api/http/handlers"
	"github.com/civicdesk/complaint-service/internal/auth"
	"github.com/civicdesk/complaint-service/internal/classifier"
	"github.com/civicdesk/complaint-service/internal/config"
	"github.com/civicdesk/complaint-service/internal/events"
	"github.com/civicdesk/complaint-service/internal/geocode"
	"github.com/civicdesk/complaint-service/internal/observability"
	"github.com/civicdesk/complaint-service/internal/persistence"
	"github.com/civicdesk/complaint-service/internal/ratelimit"
	"github.com/civicdesk/complaint-service/internal/repository"
	"github.com/civicdesk/complaint-service/internal/service"
	"github.com/civicdesk/complaint-service/internal/triage"
	"github.com/civicdesk/complaint-service/internal/worker"
)

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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	providerRepo := repository.NewProviderRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	statusEventRepo := repository.NewStatusEventRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	var gateway classifier.TextClassifier
	if cfg.Classifier.APIKey != "" {
		gateway = classifier.NewGateway(classifier.NewHTTPCaller(cfg.Classifier), cfg.Classifier, logger)
	} else {
		logger.Warn("CLASSIFIER_API_KEY not set; remote classification disabled")
		gateway = classifier.Disabled{}
	}

	detector := triage.NewDepartmentDetector()
	priorities := triage.NewPriorityAssigner(gateway)
	integrity := triage.NewIntegrityFilter(gateway, cfg.Triage)
	vision := classifier.NewGatewayImageClassifier(gateway)
	geocoder := geocode.NewHTTPGeocoder(cfg.Geocoder, logger)
	limiter := ratelimit.NewIntakeLimiter(redis.Client, cfg.Triage.IntakePerHour, logger)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		ProviderRepo:      providerRepo,
		PasswordResetRepo: resetRepo,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:   complaintRepo,
		ProviderRepo:    providerRepo,
		StatusEventRepo: statusEventRepo,
		Detector:        detector,
		Priorities:      priorities,
		Integrity:       integrity,
		Vision:          vision,
		Geocoder:        geocoder,
		Limiter:         limiter,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		ComplaintRepo:   complaintRepo,
		StatusEventRepo: statusEventRepo,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	providerService := service.NewProviderService(providerRepo, complaintRepo, cfg.Auth.BcryptCost)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, providerRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Complaints:     handlers.NewComplaintsHandler(complaintService, lifecycleService),
		Providers:      handlers.NewProvidersHandler(authService, complaintService, lifecycleService),
		Admin:          handlers.NewAdminHandler(providerService, complaintService, lifecycleService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
