package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultReservationTTL = 30 * time.Minute
	// sweepBatchSize caps how many expired reservations one sweep handles.
	sweepBatchSize = 500
)

// DiscountService prices course purchases and holds coins and promo codes
// for a pending payment until the provider reports the outcome.
type DiscountService interface {
	QuoteDiscount(ctx context.Context, userID string, req *dto.DiscountQuoteRequest) (*dto.DiscountQuoteResponse, error)
	CreateTransaction(ctx context.Context, userID string, req *dto.CreateTransactionRequest) (*dto.CreateTransactionResponse, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*dto.TransactionResponse, error)
	// SettleOnSuccess and ReleaseOnFailure only act on pending transactions
	// and return the resulting status.
	SettleOnSuccess(ctx context.Context, transactionID string) (domain.TransactionStatus, error)
	ReleaseOnFailure(ctx context.Context, transactionID string) (domain.TransactionStatus, error)
	HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest) (*dto.PaymentCallbackResponse, error)
	// SweepExpired releases expired reservations and cancels their pending
	// transactions. It returns how many reservations were released.
	SweepExpired(ctx context.Context) (int, error)
}

type discountService struct {
	tm             domain.TransactionManager
	content        domain.ContentRepository
	users          domain.UserRepository
	progress       domain.ProgressRepository
	payments       domain.PaymentRepository
	gateways       map[domain.PaymentProvider]domain.PaymentGateway
	validator      *validation.Validator
	reservationTTL time.Duration
	now            func() time.Time
}

func NewDiscountService(
	tm domain.TransactionManager,
	content domain.ContentRepository,
	users domain.UserRepository,
	progress domain.ProgressRepository,
	payments domain.PaymentRepository,
	gateways []domain.PaymentGateway,
	validator *validation.Validator,
	cfg config.PaymentConfig,
) DiscountService {
	registry := make(map[domain.PaymentProvider]domain.PaymentGateway, len(gateways))
	for _, g := range gateways {
		registry[g.Provider()] = g
	}
	ttl := cfg.ReservationTTL
	if ttl <= 0 {
		ttl = defaultReservationTTL
	}
	return &discountService{
		tm:             tm,
		content:        content,
		users:          users,
		progress:       progress,
		payments:       payments,
		gateways:       registry,
		validator:      validator,
		reservationTTL: ttl,
		now:            time.Now,
	}
}

// quoteInput names the request fields so errors point at what the client sent.
type quoteInput struct {
	courseID   string
	promoCode  string
	coins      int64
	duration   int
	coinsField string
}

// quote validates a purchase and computes its price. It never writes.
func (s *discountService) quote(ctx context.Context, userID string, in quoteInput) (*domain.DiscountQuote, error) {
	course, err := s.content.GetCourse(ctx, in.courseID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get course", err)
	}
	if course == nil || !course.IsActive {
		return nil, domain.NewNotFoundError("course")
	}
	if !course.IsPurchasable() {
		return nil, domain.NewValidationError("course_id", "course is not available for purchase")
	}

	uc, err := s.progress.GetUserCourse(ctx, userID, course.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get user course", err)
	}
	if uc.HasPaidAccess() {
		return nil, domain.NewConflictError("course_id", "course is already purchased")
	}

	user, err := s.users.GetActiveUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user")
	}

	now := s.now()
	q := &domain.DiscountQuote{
		CourseID:      course.ID,
		Duration:      in.duration,
		OriginalPrice: course.Price.Mul(decimal.NewFromInt(int64(in.duration))).Round(2),
		PromoDiscount: decimal.Zero,
		CoinDiscount:  decimal.Zero,
	}
	var verrs domain.ValidationErrors

	if code := strings.TrimSpace(in.promoCode); code != "" {
		promo, err := s.payments.GetPromoCodeByCode(ctx, code)
		if err != nil {
			return nil, domain.NewInternalError("failed to get promo code", err)
		}
		if promo == nil || !promo.IsActive {
			verrs = verrs.Add("promo_code", "promo code is invalid or inactive")
		} else {
			scoped, err := s.payments.IsPromoCodeForCourse(ctx, promo.ID, course.ID)
			if err != nil {
				return nil, domain.NewInternalError("failed to check promo code scope", err)
			}
			used, err := s.payments.HasUsedPromoCode(ctx, userID, promo.ID)
			if err != nil {
				return nil, domain.NewInternalError("failed to check promo code usage", err)
			}
			reserved, err := s.payments.HasActivePromoReservation(ctx, userID, promo.ID, now)
			if err != nil {
				return nil, domain.NewInternalError("failed to check promo code reservations", err)
			}
			switch {
			case !scoped:
				verrs = verrs.Add("promo_code", "promo code does not apply to this course")
			case used:
				verrs = verrs.Add("promo_code", "promo code has already been used")
			case reserved:
				verrs = verrs.Add("promo_code", "promo code is held by a pending payment")
			default:
				q.PromoCode = promo
				q.PromoDiscount = promo.Discount
			}
		}
	}

	if in.coins > 0 {
		held, err := s.payments.SumActiveCoinReservations(ctx, userID, now)
		if err != nil {
			return nil, domain.NewInternalError("failed to sum coin reservations", err)
		}
		available := user.Coin - held
		if available < 0 {
			available = 0
		}
		if in.coins > available {
			verrs = verrs.Add(in.coinsField, fmt.Sprintf("insufficient coins: available balance is %d", available))
		} else {
			q.CoinsUsed = in.coins
			q.CoinDiscount = decimal.NewFromInt(in.coins)
		}
	}

	if len(verrs) > 0 {
		return nil, verrs
	}
	q.FinalPrice = domain.ComputeFinalPrice(*course.Price, in.duration, q.PromoDiscount, q.CoinsUsed)
	return q, nil
}

// QuoteDiscount implements DiscountService
func (s *discountService) QuoteDiscount(ctx context.Context, userID string, req *dto.DiscountQuoteRequest) (*dto.DiscountQuoteResponse, error) {
	if verrs := s.validator.ValidateDiscountQuoteRequest(req); len(verrs) > 0 {
		return nil, verrs
	}
	q, err := s.quote(ctx, userID, quoteInput{
		courseID:   req.CourseID,
		promoCode:  req.PromoCode,
		coins:      req.CoinsToUse,
		duration:   req.Duration,
		coinsField: "coins_to_use",
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.DiscountQuoteResponse{
		CourseID:      q.CourseID,
		Duration:      q.Duration,
		OriginalPrice: q.OriginalPrice,
		FinalPrice:    q.FinalPrice,
		TotalDiscount: q.TotalDiscount(),
		Breakdown: dto.DiscountBreakdown{
			PromoDiscount: q.PromoDiscount,
			CoinDiscount:  q.CoinDiscount,
		},
		CoinsUsed: q.CoinsUsed,
	}
	if q.PromoCode != nil {
		resp.PromoCode = q.PromoCode.Code
	}
	return resp, nil
}

// CreateTransaction implements DiscountService
func (s *discountService) CreateTransaction(ctx context.Context, userID string, req *dto.CreateTransactionRequest) (*dto.CreateTransactionResponse, error) {
	if verrs := s.validator.ValidateCreateTransactionRequest(req); len(verrs) > 0 {
		return nil, verrs
	}
	provider := domain.PaymentProvider(req.Provider)
	gateway, ok := s.gateways[provider]
	if !ok {
		return nil, domain.NewValidationError("provider", "payment provider is not configured")
	}

	q, err := s.quote(ctx, userID, quoteInput{
		courseID:   req.CourseID,
		promoCode:  req.PromoCode,
		coins:      req.CoinsUsed,
		duration:   req.Duration,
		coinsField: "coins_used",
	})
	if err != nil {
		return nil, err
	}

	if req.BypassValidation {
		if req.Amount.Sub(q.FinalPrice).Abs().GreaterThan(domain.AmountTolerance) {
			return nil, domain.NewValidationError("amount",
				fmt.Sprintf("amount does not match the discounted price %s", q.FinalPrice.StringFixed(2)))
		}
	} else if !req.Amount.Equal(q.OriginalPrice) {
		return nil, domain.NewValidationError("amount",
			fmt.Sprintf("amount must equal the course price %s", q.OriginalPrice.StringFixed(2)))
	}

	now := s.now()
	expiresAt := now.Add(s.reservationTTL)
	tx := &domain.Transaction{
		ID:             util.NewULID(),
		UserID:         userID,
		CourseID:       q.CourseID,
		Amount:         q.FinalPrice,
		OriginalAmount: q.OriginalPrice,
		PromoDiscount:  q.PromoDiscount,
		CoinsUsed:      q.CoinsUsed,
		Provider:       provider,
		Duration:       q.Duration,
		Status:         domain.TransactionPending,
		CreatedAt:      now,
	}
	if q.PromoCode != nil {
		tx.PromoCode = q.PromoCode.Code
	}

	// Discounts that cover the whole price settle here; no provider is involved.
	free := tx.Amount.IsZero()
	var paymentURL string
	if !free {
		paymentURL, err = gateway.PaymentURL(domain.PaymentLinkRequest{TransactionID: tx.ID, Amount: tx.Amount})
		if err != nil {
			return nil, domain.NewInternalError("failed to build payment link", err)
		}
	}

	err = s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		// The quote read balances without locks. Concurrent purchases by the
		// same user serialize on the user row before coins are held again.
		if q.CoinsUsed > 0 {
			user, err := s.users.LockActiveUser(ctx, userID)
			if err != nil {
				return domain.NewInternalError("failed to lock user", err)
			}
			if user == nil {
				return domain.NewNotFoundError("user")
			}
			held, err := s.payments.SumActiveCoinReservations(ctx, userID, now)
			if err != nil {
				return domain.NewInternalError("failed to sum coin reservations", err)
			}
			if available := user.Coin - held; q.CoinsUsed > available {
				return domain.NewInsufficientResourceError("coins_used",
					fmt.Sprintf("insufficient coins: available balance is %d", max(available, 0)))
			}
		}
		if err := s.payments.CreateTransaction(ctx, tx); err != nil {
			return domain.NewInternalError("failed to create transaction", err)
		}
		if q.CoinsUsed > 0 {
			if err := s.payments.CreateCoinReservation(ctx, &domain.CoinReservation{
				ID:            util.NewULID(),
				UserID:        userID,
				TransactionID: tx.ID,
				Amount:        q.CoinsUsed,
				ExpiresAt:     expiresAt,
				IsActive:      true,
			}); err != nil {
				return domain.NewInternalError("failed to reserve coins", err)
			}
		}
		if q.PromoCode != nil {
			if err := s.payments.CreatePromoReservation(ctx, &domain.PromoCodeReservation{
				ID:            util.NewULID(),
				UserID:        userID,
				PromoCodeID:   q.PromoCode.ID,
				TransactionID: tx.ID,
				ExpiresAt:     expiresAt,
				IsActive:      true,
			}); err != nil {
				if errors.Is(err, domain.ErrUniqueViolation) {
					return domain.NewConflictError("promo_code", "promo code is held by a pending payment")
				}
				return domain.NewInternalError("failed to reserve promo code", err)
			}
		}
		if free {
			status, err := s.SettleOnSuccess(ctx, tx.ID)
			if err != nil {
				return err
			}
			tx.Status = status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Transaction created",
		zap.String("transactionID", tx.ID),
		zap.String("userID", userID),
		zap.String("courseID", tx.CourseID),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("provider", string(provider)),
		zap.String("status", string(tx.Status)))

	return &dto.CreateTransactionResponse{
		TransactionID: tx.ID,
		CourseID:      tx.CourseID,
		Amount:        tx.Amount,
		Provider:      string(provider),
		Status:        string(tx.Status),
		PaymentURL:    paymentURL,
	}, nil
}

// GetTransaction implements DiscountService. Other users' transactions are reported as not found.
func (s *discountService) GetTransaction(ctx context.Context, userID, transactionID string) (*dto.TransactionResponse, error) {
	tx, err := s.payments.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get transaction", err)
	}
	if tx == nil || tx.UserID != userID {
		return nil, domain.NewNotFoundError("transaction")
	}
	return &dto.TransactionResponse{
		ID:             tx.ID,
		CourseID:       tx.CourseID,
		Amount:         tx.Amount,
		OriginalAmount: tx.OriginalAmount,
		PromoCode:      tx.PromoCode,
		PromoDiscount:  tx.PromoDiscount,
		CoinsUsed:      tx.CoinsUsed,
		Provider:       string(tx.Provider),
		Duration:       tx.Duration,
		Status:         string(tx.Status),
		PaidAt:         tx.PaidAt,
		CanceledAt:     tx.CanceledAt,
		CreatedAt:      tx.CreatedAt,
	}, nil
}

// SettleOnSuccess implements DiscountService
func (s *discountService) SettleOnSuccess(ctx context.Context, transactionID string) (domain.TransactionStatus, error) {
	var status domain.TransactionStatus
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		tx, err := s.payments.LockTransaction(ctx, transactionID)
		if err != nil {
			return domain.NewInternalError("failed to lock transaction", err)
		}
		if tx == nil {
			return domain.NewNotFoundError("transaction")
		}
		status = tx.Status
		if tx.Status != domain.TransactionPending {
			return nil
		}

		now := s.now()
		ok, err := s.payments.MarkTransactionPaid(ctx, tx.ID, now)
		if err != nil {
			return domain.NewInternalError("failed to mark transaction paid", err)
		}
		if !ok {
			return domain.NewConflictError("transaction_id", "transaction is no longer pending")
		}
		status = domain.TransactionSuccess

		coins, err := s.payments.LockActiveCoinReservation(ctx, tx.ID)
		if err != nil {
			return domain.NewInternalError("failed to lock coin reservation", err)
		}
		if coins != nil {
			if err := s.users.SubtractCoins(ctx, tx.UserID, coins.Amount); err != nil {
				if !errors.Is(err, domain.ErrInsufficientBalance) {
					return domain.NewInternalError("failed to deduct coins", err)
				}
				// The provider already charged the discounted price.
				logger.Get().Warn("Coin balance no longer covers reservation",
					zap.String("transactionID", tx.ID),
					zap.String("userID", tx.UserID),
					zap.Int64("coins", coins.Amount))
			}
			if _, err := s.payments.DeactivateReservation(ctx, domain.ReservationCoin, coins.ID); err != nil {
				return domain.NewInternalError("failed to release coin reservation", err)
			}
		}

		promo, err := s.payments.LockActivePromoReservation(ctx, tx.ID)
		if err != nil {
			return domain.NewInternalError("failed to lock promo reservation", err)
		}
		if promo != nil {
			if err := s.payments.CreateUserPromoCode(ctx, &domain.UserPromoCode{
				ID:            util.NewULID(),
				UserID:        tx.UserID,
				PromoCodeID:   promo.PromoCodeID,
				TransactionID: tx.ID,
				IsUsed:        true,
				UsedAt:        now,
			}); err != nil {
				return domain.NewInternalError("failed to record promo code usage", err)
			}
			if _, err := s.payments.DeactivateReservation(ctx, domain.ReservationPromo, promo.ID); err != nil {
				return domain.NewInternalError("failed to release promo reservation", err)
			}
		}

		finish := now.AddDate(0, 0, domain.DaysPerMonth*tx.Duration)
		if _, err := s.progress.UpsertPaidUserCourse(ctx, &domain.UserCourse{
			ID:         util.NewULID(),
			UserID:     tx.UserID,
			CourseID:   tx.CourseID,
			StartDate:  now,
			FinishDate: &finish,
		}); err != nil {
			return domain.NewInternalError("failed to grant course access", err)
		}

		logger.Get().Info("Transaction settled",
			zap.String("transactionID", tx.ID),
			zap.String("userID", tx.UserID),
			zap.String("courseID", tx.CourseID),
			zap.Time("accessUntil", finish))
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// ReleaseOnFailure implements DiscountService
func (s *discountService) ReleaseOnFailure(ctx context.Context, transactionID string) (domain.TransactionStatus, error) {
	var status domain.TransactionStatus
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		tx, err := s.payments.LockTransaction(ctx, transactionID)
		if err != nil {
			return domain.NewInternalError("failed to lock transaction", err)
		}
		if tx == nil {
			return domain.NewNotFoundError("transaction")
		}
		status = tx.Status
		if tx.Status != domain.TransactionPending {
			return nil
		}
		if err := s.cancel(ctx, tx.ID); err != nil {
			return err
		}
		status = domain.TransactionCanceled
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// cancel moves a locked pending transaction to canceled and frees its reservations unconsumed.
func (s *discountService) cancel(ctx context.Context, transactionID string) error {
	ok, err := s.payments.MarkTransactionCanceled(ctx, transactionID, s.now())
	if err != nil {
		return domain.NewInternalError("failed to cancel transaction", err)
	}
	if !ok {
		return domain.NewConflictError("transaction_id", "transaction is no longer pending")
	}
	if err := s.payments.DeactivateTransactionReservations(ctx, transactionID); err != nil {
		return domain.NewInternalError("failed to release reservations", err)
	}
	logger.Get().Info("Transaction canceled", zap.String("transactionID", transactionID))
	return nil
}

// HandleCallback implements DiscountService
func (s *discountService) HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest) (*dto.PaymentCallbackResponse, error) {
	if verrs := s.validator.ValidatePaymentCallbackRequest(req); len(verrs) > 0 {
		return nil, verrs
	}
	var (
		status domain.TransactionStatus
		err    error
	)
	if req.Success {
		status, err = s.SettleOnSuccess(ctx, req.TransactionID)
	} else {
		status, err = s.ReleaseOnFailure(ctx, req.TransactionID)
	}
	if err != nil {
		return nil, err
	}
	return &dto.PaymentCallbackResponse{TransactionID: req.TransactionID, Status: string(status)}, nil
}

// SweepExpired implements DiscountService. Each reservation is handled in its
// own transaction that locks the owning transaction row first.
func (s *discountService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.payments.ListExpiredReservations(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, domain.NewInternalError("failed to list expired reservations", err)
	}

	released := 0
	for _, r := range expired {
		r := r
		deactivated := false
		err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
			tx, err := s.payments.LockTransaction(ctx, r.TransactionID)
			if err != nil {
				return fmt.Errorf("lock transaction: %w", err)
			}
			ok, err := s.payments.DeactivateReservation(ctx, r.Kind, r.ID)
			if err != nil {
				return fmt.Errorf("deactivate reservation: %w", err)
			}
			deactivated = ok
			if tx != nil && tx.Status == domain.TransactionPending {
				return s.cancel(ctx, tx.ID)
			}
			return nil
		})
		if err != nil {
			logger.Get().Error("Failed to release expired reservation",
				zap.String("reservationID", r.ID),
				zap.String("kind", string(r.Kind)),
				zap.String("transactionID", r.TransactionID),
				zap.Error(err))
			continue
		}
		if deactivated {
			released++
		}
	}
	return released, nil
}
