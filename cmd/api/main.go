// @title Kelajak Mediklari API
// @version 1.0
// @description Learning platform API: test attempts, lesson progress, course purchases and teacher groups.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/Kelajak-Mediklari/kelajak-mediklari-backend/cmd/api/docs"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/adapter"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/adapter/payment"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/cache"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/database"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/grading"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/handler"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/middleware"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/scheduler"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/service"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer func() { _ = logger.Sync() }()

	db, err := database.NewSQLXPostgresDB(cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	tm := repository.NewTransactionManagerAdapter(db)
	contentRepo := repository.NewSQLXContentRepository(db)
	attemptRepo := repository.NewSQLXAttemptRepository(db)
	progressRepo := repository.NewSQLXProgressRepository(db)
	userRepo := repository.NewSQLXUserRepository(db)
	paymentRepo := repository.NewSQLXPaymentRepository(db)
	groupRepo := repository.NewSQLXGroupRepository(db)

	// Redis backs the question sheet cache and the scheduler leases. Without it
	// sheets are rebuilt from the database and sweeps run unguarded.
	var sheetCache domain.Cache
	var locker domain.Locker
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
		sheetCache = cacheAdapter
		locker = cacheAdapter
		appLogger.Info("RedisCacheAdapter initialized")
	}

	validator := validation.NewValidator()
	gateways := []domain.PaymentGateway{
		payment.NewPaymeGateway(cfg.Payment.Payme),
		payment.NewClickGateway(cfg.Payment.Click),
	}

	// Services
	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	progressService := service.NewProgressService(tm, contentRepo, progressRepo, userRepo, cfg.Course)
	attemptService := service.NewAttemptService(tm, contentRepo, attemptRepo, userRepo, progressService, sheetCache, grading.NewEngine(), validator)
	discountService := service.NewDiscountService(tm, contentRepo, userRepo, progressRepo, paymentRepo, gateways, validator, cfg.Payment)
	groupService := service.NewGroupService(tm, groupRepo, userRepo, progressRepo, validator)
	sweeperService := service.NewSweeperService(tm, progressRepo, groupRepo, paymentRepo, discountService, cfg.Sweeper)

	if cfg.Payment.CallbackSecret == "" {
		appLogger.Warn("Payment callback secret is empty, every callback will be rejected")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       300,
	}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return domain.NewInternalError("database unreachable", err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	handler.Routes{
		Attempts:   handler.NewAttemptHandler(attemptService),
		Progress:   handler.NewProgressHandler(progressService),
		Payments:   handler.NewPaymentHandler(discountService),
		Groups:     handler.NewGroupHandler(groupService),
		Auth:       middleware.Protected(authService),
		Callback:   middleware.CallbackSecret(cfg.Payment.CallbackSecret),
		Validation: middleware.NewValidationMiddleware(validator),
	}.Register(app.Group("/api"))

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	schedulerDone := make(chan error, 1)
	if cfg.Sweeper.Enabled {
		sched := scheduler.New(locker, cfg.Sweeper.LockTTL, scheduler.SweeperJobs(sweeperService, cfg.Sweeper)...)
		go func() { schedulerDone <- sched.Start(rootCtx) }()
	} else {
		schedulerDone <- nil
		appLogger.Info("Sweeper disabled")
	}

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	select {
	case err := <-schedulerDone:
		if err != nil {
			appLogger.Error("Scheduler stopped with error", zap.Error(err))
		}
	case <-ctx.Done():
		appLogger.Warn("Scheduler did not stop in time")
	}
	appLogger.Info("Server exited gracefully")
}
