package service

import (
	"context"
	"testing"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var groupEnd = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func newTestGroupService() (*groupService, *MockGroupRepository, *MockUserRepository, *MockProgressRepository) {
	groups := new(MockGroupRepository)
	users := new(MockUserRepository)
	progress := new(MockProgressRepository)
	svc := &groupService{
		tm:        &MockTransactionManager{},
		groups:    groups,
		users:     users,
		progress:  progress,
		validator: validation.NewValidator(),
		now:       clock,
	}
	return svc, groups, users, progress
}

func activeGroup() *domain.Group {
	return &domain.Group{
		ID:                 "group-1",
		TeacherID:          "teacher-1",
		CourseID:           "course-1",
		Name:               "Evening cohort",
		GroupEndDate:       groupEnd,
		IsActive:           true,
		MaxMemberCount:     10,
		CurrentMemberCount: 4,
	}
}

// expectEligibleStudent wires a student with no membership and no paid access.
func expectEligibleStudent(groups *MockGroupRepository, users *MockUserRepository, progress *MockProgressRepository, studentID string) {
	users.On("GetActiveUser", mock.Anything, studentID).Return(&domain.User{ID: studentID, Status: domain.UserStatusActive}, nil)
	groups.On("IsGroupMember", mock.Anything, "group-1", studentID).Return(false, nil)
	groups.On("HasActiveCourseMembership", mock.Anything, studentID, "course-1").Return(false, nil)
	progress.On("GetUserCourse", mock.Anything, studentID, "course-1").Return(nil, nil)
}

func TestAddMember_GrantsAccessUntilGroupEnd(t *testing.T) {
	svc, groups, users, progress := newTestGroupService()
	studentID := util.NewULID()

	groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
	expectEligibleStudent(groups, users, progress, studentID)
	groups.On("LockTeacherLimit", mock.Anything, "teacher-1", "course-1").
		Return(&domain.TeacherGlobalLimit{ID: "limit-1", Limit: 20, Used: 19}, nil)
	groups.On("IncrementMemberCount", mock.Anything, "group-1").Return(nil)
	groups.On("IncrementTeacherLimitUsage", mock.Anything, "limit-1").Return(nil)
	groups.On("CreateMember", mock.Anything, mock.MatchedBy(func(gm *domain.GroupMember) bool {
		return gm.GroupID == "group-1" && gm.UserID == studentID && gm.IsActive && gm.JoinedAt.Equal(fixedNow)
	})).Return(nil)
	progress.On("UpsertPaidUserCourse", mock.Anything, mock.MatchedBy(func(uc *domain.UserCourse) bool {
		return uc.UserID == studentID && uc.CourseID == "course-1" && !uc.IsFreeTrial &&
			uc.FinishDate != nil && uc.FinishDate.Equal(groupEnd)
	})).Return(&domain.UserCourse{ID: "uc-9"}, nil)

	resp, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
	require.NoError(t, err)
	assert.Equal(t, "group-1", resp.GroupID)
	assert.Equal(t, studentID, resp.UserID)
	assert.Equal(t, "uc-9", resp.UserCourseID)
	assert.Equal(t, 5, resp.MemberCount)
	groups.AssertExpectations(t)
	progress.AssertExpectations(t)
}

func TestAddMember_WithoutTeacherLimit(t *testing.T) {
	svc, groups, users, progress := newTestGroupService()
	studentID := util.NewULID()

	groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
	expectEligibleStudent(groups, users, progress, studentID)
	groups.On("LockTeacherLimit", mock.Anything, "teacher-1", "course-1").Return(nil, nil)
	groups.On("IncrementMemberCount", mock.Anything, "group-1").Return(nil)
	groups.On("CreateMember", mock.Anything, mock.Anything).Return(nil)
	progress.On("UpsertPaidUserCourse", mock.Anything, mock.Anything).Return(&domain.UserCourse{ID: "uc-9"}, nil)

	_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
	require.NoError(t, err)
	groups.AssertNotCalled(t, "IncrementTeacherLimitUsage", mock.Anything, mock.Anything)
}

func TestAddMember_TeacherLimitExhausted(t *testing.T) {
	svc, groups, users, progress := newTestGroupService()
	studentID := util.NewULID()

	groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
	expectEligibleStudent(groups, users, progress, studentID)
	groups.On("LockTeacherLimit", mock.Anything, "teacher-1", "course-1").
		Return(&domain.TeacherGlobalLimit{ID: "limit-1", Limit: 20, Used: 20}, nil)

	_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
	assert.True(t, domain.HasCode(err, domain.CodeInsufficientResource))
	groups.AssertNotCalled(t, "IncrementMemberCount", mock.Anything, mock.Anything)
	groups.AssertNotCalled(t, "CreateMember", mock.Anything, mock.Anything)
	progress.AssertNotCalled(t, "UpsertPaidUserCourse", mock.Anything, mock.Anything)
}

func TestAddMember_Rejections(t *testing.T) {
	studentID := util.NewULID()

	t.Run("wrong teacher", func(t *testing.T) {
		svc, groups, users, _ := newTestGroupService()
		groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)

		_, err := svc.AddMember(context.Background(), "teacher-2", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeForbidden))
		users.AssertNotCalled(t, "GetActiveUser", mock.Anything, mock.Anything)
	})

	t.Run("inactive group", func(t *testing.T) {
		svc, groups, _, _ := newTestGroupService()
		g := activeGroup()
		g.IsActive = false
		groups.On("LockGroup", mock.Anything, "group-1").Return(g, nil)

		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	})

	t.Run("unknown student", func(t *testing.T) {
		svc, groups, users, _ := newTestGroupService()
		groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
		users.On("GetActiveUser", mock.Anything, studentID).Return(nil, nil)

		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	})

	t.Run("full group", func(t *testing.T) {
		svc, groups, users, _ := newTestGroupService()
		g := activeGroup()
		g.CurrentMemberCount = g.MaxMemberCount
		groups.On("LockGroup", mock.Anything, "group-1").Return(g, nil)
		users.On("GetActiveUser", mock.Anything, studentID).Return(&domain.User{ID: studentID, Status: domain.UserStatusActive}, nil)

		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeInsufficientResource))
	})

	t.Run("already a member", func(t *testing.T) {
		svc, groups, users, _ := newTestGroupService()
		groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
		users.On("GetActiveUser", mock.Anything, studentID).Return(&domain.User{ID: studentID, Status: domain.UserStatusActive}, nil)
		groups.On("IsGroupMember", mock.Anything, "group-1", studentID).Return(true, nil)

		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeConflict))
	})

	t.Run("member of another group for the course", func(t *testing.T) {
		svc, groups, users, _ := newTestGroupService()
		groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
		users.On("GetActiveUser", mock.Anything, studentID).Return(&domain.User{ID: studentID, Status: domain.UserStatusActive}, nil)
		groups.On("IsGroupMember", mock.Anything, "group-1", studentID).Return(false, nil)
		groups.On("HasActiveCourseMembership", mock.Anything, studentID, "course-1").Return(true, nil)

		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeConflict))
	})

	t.Run("already purchased", func(t *testing.T) {
		svc, groups, users, progress := newTestGroupService()
		groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
		users.On("GetActiveUser", mock.Anything, studentID).Return(&domain.User{ID: studentID, Status: domain.UserStatusActive}, nil)
		groups.On("IsGroupMember", mock.Anything, "group-1", studentID).Return(false, nil)
		groups.On("HasActiveCourseMembership", mock.Anything, studentID, "course-1").Return(false, nil)
		progress.On("GetUserCourse", mock.Anything, studentID, "course-1").Return(&domain.UserCourse{ID: "uc-1"}, nil)

		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeConflict))
		groups.AssertNotCalled(t, "LockTeacherLimit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent duplicate insert", func(t *testing.T) {
		svc, groups, users, progress := newTestGroupService()
		groups.On("LockGroup", mock.Anything, "group-1").Return(activeGroup(), nil)
		expectEligibleStudent(groups, users, progress, studentID)
		groups.On("LockTeacherLimit", mock.Anything, "teacher-1", "course-1").Return(nil, nil)
		groups.On("IncrementMemberCount", mock.Anything, "group-1").Return(nil)
		groups.On("CreateMember", mock.Anything, mock.Anything).Return(domain.ErrUniqueViolation)

		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: studentID})
		assert.True(t, domain.HasCode(err, domain.CodeConflict))
	})

	t.Run("malformed user id", func(t *testing.T) {
		svc, groups, _, _ := newTestGroupService()
		_, err := svc.AddMember(context.Background(), "teacher-1", "group-1", &dto.AddGroupMemberRequest{UserID: "bob"})
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		groups.AssertNotCalled(t, "LockGroup", mock.Anything, mock.Anything)
	})
}
