package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSweeperService(purgeAfter time.Duration) (*sweeperService, *MockProgressRepository, *MockGroupRepository, *MockPaymentRepository, *MockDiscountService) {
	progress := new(MockProgressRepository)
	groups := new(MockGroupRepository)
	payments := new(MockPaymentRepository)
	discounts := new(MockDiscountService)
	svc := &sweeperService{
		tm:         &MockTransactionManager{},
		progress:   progress,
		groups:     groups,
		payments:   payments,
		discounts:  discounts,
		purgeAfter: purgeAfter,
		now:        clock,
	}
	return svc, progress, groups, payments, discounts
}

func TestExpireCourseAccess(t *testing.T) {
	svc, progress, _, _, _ := newTestSweeperService(0)
	progress.On("ListLapsedUserCourseIDs", mock.Anything, fixedNow, lapsedBatchSize).Return([]string{"uc-1", "uc-2", "uc-3"}, nil)
	progress.On("ExpireLapsedUserCourse", mock.Anything, "uc-1", fixedNow).Return(true, nil)
	// Renewed between listing and expiring.
	progress.On("ExpireLapsedUserCourse", mock.Anything, "uc-2", fixedNow).Return(false, nil)
	progress.On("ExpireLapsedUserCourse", mock.Anything, "uc-3", fixedNow).Return(false, errors.New("deadlock detected"))

	n, err := svc.ExpireCourseAccess(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	progress.AssertExpectations(t)
}

func TestExpireCourseAccess_ListFailure(t *testing.T) {
	svc, progress, _, _, _ := newTestSweeperService(0)
	progress.On("ListLapsedUserCourseIDs", mock.Anything, fixedNow, lapsedBatchSize).Return(nil, errors.New("db down"))

	_, err := svc.ExpireCourseAccess(context.Background())
	assert.True(t, domain.HasCode(err, domain.CodeInternal))
}

func TestExpireGroups(t *testing.T) {
	svc, progress, groups, _, _ := newTestSweeperService(0)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	groups.On("ListExpiredGroupIDs", mock.Anything, today).Return([]string{"group-1", "group-2", "group-3"}, nil)
	groups.On("DeactivateGroup", mock.Anything, "group-1").Return(&domain.Group{ID: "group-1", CourseID: "course-1"}, nil)
	groups.On("DeactivateMembers", mock.Anything, "group-1").Return([]string{"user-1", "user-2"}, nil)
	progress.On("ExpireUserCourse", mock.Anything, "user-1", "course-1").Return(true, nil)
	progress.On("ExpireUserCourse", mock.Anything, "user-2", "course-1").Return(false, nil)
	// Closed by another replica.
	groups.On("DeactivateGroup", mock.Anything, "group-2").Return(nil, nil)
	groups.On("DeactivateGroup", mock.Anything, "group-3").Return(nil, errors.New("lock timeout"))

	n, err := svc.ExpireGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	progress.AssertExpectations(t)
	groups.AssertNotCalled(t, "DeactivateMembers", mock.Anything, "group-2")
}

func TestReleaseExpiredReservations(t *testing.T) {
	svc, _, _, _, discounts := newTestSweeperService(0)
	discounts.On("SweepExpired", mock.Anything).Return(2, nil)

	n, err := svc.ReleaseExpiredReservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPurgeCanceledTransactions(t *testing.T) {
	t.Run("deletes past the window", func(t *testing.T) {
		svc, _, _, payments, _ := newTestSweeperService(168 * time.Hour)
		payments.On("DeleteCanceledTransactions", mock.Anything, fixedNow.Add(-168*time.Hour)).Return(int64(4), nil)

		n, err := svc.PurgeCanceledTransactions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("disabled", func(t *testing.T) {
		svc, _, _, payments, _ := newTestSweeperService(0)

		n, err := svc.PurgeCanceledTransactions(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		payments.AssertNotCalled(t, "DeleteCanceledTransactions", mock.Anything, mock.Anything)
	})
}

func TestRunAll_JoinsErrors(t *testing.T) {
	svc, progress, groups, _, discounts := newTestSweeperService(0)
	progress.On("ListLapsedUserCourseIDs", mock.Anything, fixedNow, lapsedBatchSize).Return([]string{}, nil)
	discounts.On("SweepExpired", mock.Anything).Return(0, domain.NewInternalError("failed to list expired reservations", errors.New("db down")))
	groups.On("ListExpiredGroupIDs", mock.Anything, mock.Anything).Return([]string{}, nil)

	err := svc.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired reservations")
	groups.AssertCalled(t, "ListExpiredGroupIDs", mock.Anything, mock.Anything)
}
