// Command sweep runs every expiration sweep once and exits. It is meant for
// cron-style deployments where the API runs with sweeper.enabled=false.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/adapter/payment"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/database"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/service"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/validation"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer func() { _ = logger.Sync() }()

	db, err := database.NewSQLXPostgresDB(cfg)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	tm := repository.NewTransactionManagerAdapter(db)
	progressRepo := repository.NewSQLXProgressRepository(db)
	paymentRepo := repository.NewSQLXPaymentRepository(db)
	groupRepo := repository.NewSQLXGroupRepository(db)

	discounts := service.NewDiscountService(
		tm,
		repository.NewSQLXContentRepository(db),
		repository.NewSQLXUserRepository(db),
		progressRepo,
		paymentRepo,
		[]domain.PaymentGateway{payment.NewPaymeGateway(cfg.Payment.Payme), payment.NewClickGateway(cfg.Payment.Click)},
		validation.NewValidator(),
		cfg.Payment,
	)
	sweeper := service.NewSweeperService(tm, progressRepo, groupRepo, paymentRepo, discounts, cfg.Sweeper)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sweeper.RunAll(ctx); err != nil {
		l.Fatal("Sweep finished with errors", zap.Error(err))
	}
	l.Info("Sweep finished")
}
