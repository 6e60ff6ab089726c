package service

import (
	"context"
	"errors"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"

	"go.uber.org/zap"
)

// lapsedBatchSize caps how many lapsed course accesses one run expires.
const lapsedBatchSize = 1000

// SweeperService expires time-bound state. Every method is idempotent and
// logs and skips rows it cannot process.
type SweeperService interface {
	ExpireCourseAccess(ctx context.Context) (int, error)
	ReleaseExpiredReservations(ctx context.Context) (int, error)
	ExpireGroups(ctx context.Context) (int, error)
	PurgeCanceledTransactions(ctx context.Context) (int64, error)
	// RunAll runs every sweep once and joins their errors.
	RunAll(ctx context.Context) error
}

type sweeperService struct {
	tm         domain.TransactionManager
	progress   domain.ProgressRepository
	groups     domain.GroupRepository
	payments   domain.PaymentRepository
	discounts  DiscountService
	purgeAfter time.Duration
	now        func() time.Time
}

func NewSweeperService(
	tm domain.TransactionManager,
	progress domain.ProgressRepository,
	groups domain.GroupRepository,
	payments domain.PaymentRepository,
	discounts DiscountService,
	cfg config.SweeperConfig,
) SweeperService {
	return &sweeperService{
		tm:         tm,
		progress:   progress,
		groups:     groups,
		payments:   payments,
		discounts:  discounts,
		purgeAfter: cfg.PurgeCanceledAfter,
		now:        time.Now,
	}
}

// ExpireCourseAccess implements SweeperService
func (s *sweeperService) ExpireCourseAccess(ctx context.Context) (int, error) {
	now := s.now()
	ids, err := s.progress.ListLapsedUserCourseIDs(ctx, now, lapsedBatchSize)
	if err != nil {
		return 0, domain.NewInternalError("failed to list lapsed user courses", err)
	}
	expired := 0
	for _, id := range ids {
		ok, err := s.progress.ExpireLapsedUserCourse(ctx, id, now)
		if err != nil {
			logger.Get().Error("Failed to expire user course", zap.String("userCourseID", id), zap.Error(err))
			continue
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		logger.Get().Info("Expired course access", zap.Int("count", expired))
	}
	return expired, nil
}

// ReleaseExpiredReservations implements SweeperService
func (s *sweeperService) ReleaseExpiredReservations(ctx context.Context) (int, error) {
	released, err := s.discounts.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		logger.Get().Info("Released expired reservations", zap.Int("count", released))
	}
	return released, nil
}

// ExpireGroups implements SweeperService. Each group is closed in its own transaction.
func (s *sweeperService) ExpireGroups(ctx context.Context) (int, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ids, err := s.groups.ListExpiredGroupIDs(ctx, today)
	if err != nil {
		return 0, domain.NewInternalError("failed to list expired groups", err)
	}

	closed := 0
	for _, id := range ids {
		deactivated := false
		err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
			group, err := s.groups.DeactivateGroup(ctx, id)
			if err != nil {
				return err
			}
			if group == nil {
				return nil
			}
			deactivated = true
			members, err := s.groups.DeactivateMembers(ctx, id)
			if err != nil {
				return err
			}
			for _, userID := range members {
				if _, err := s.progress.ExpireUserCourse(ctx, userID, group.CourseID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			logger.Get().Error("Failed to expire group", zap.String("groupID", id), zap.Error(err))
			continue
		}
		if deactivated {
			closed++
		}
	}
	if closed > 0 {
		logger.Get().Info("Expired groups", zap.Int("count", closed))
	}
	return closed, nil
}

// PurgeCanceledTransactions implements SweeperService. A zero window disables it.
func (s *sweeperService) PurgeCanceledTransactions(ctx context.Context) (int64, error) {
	if s.purgeAfter <= 0 {
		return 0, nil
	}
	deleted, err := s.payments.DeleteCanceledTransactions(ctx, s.now().Add(-s.purgeAfter))
	if err != nil {
		return 0, domain.NewInternalError("failed to purge canceled transactions", err)
	}
	if deleted > 0 {
		logger.Get().Info("Purged canceled transactions", zap.Int64("count", deleted))
	}
	return deleted, nil
}

// RunAll implements SweeperService
func (s *sweeperService) RunAll(ctx context.Context) error {
	var errs []error
	if _, err := s.ExpireCourseAccess(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.ReleaseExpiredReservations(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.ExpireGroups(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.PurgeCanceledTransactions(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
