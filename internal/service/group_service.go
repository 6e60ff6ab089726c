package service

import (
	"context"
	"errors"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/validation"

	"go.uber.org/zap"
)

// GroupService enrolls students into teacher-led groups.
type GroupService interface {
	AddMember(ctx context.Context, teacherID, groupID string, req *dto.AddGroupMemberRequest) (*dto.GroupMemberResponse, error)
}

type groupService struct {
	tm        domain.TransactionManager
	groups    domain.GroupRepository
	users     domain.UserRepository
	progress  domain.ProgressRepository
	validator *validation.Validator
	now       func() time.Time
}

func NewGroupService(
	tm domain.TransactionManager,
	groups domain.GroupRepository,
	users domain.UserRepository,
	progress domain.ProgressRepository,
	validator *validation.Validator,
) GroupService {
	return &groupService{
		tm:        tm,
		groups:    groups,
		users:     users,
		progress:  progress,
		validator: validator,
		now:       time.Now,
	}
}

// AddMember enrolls a student and grants course access until the group ends.
// An exhausted teacher limit rejects the enrollment.
func (s *groupService) AddMember(ctx context.Context, teacherID, groupID string, req *dto.AddGroupMemberRequest) (*dto.GroupMemberResponse, error) {
	if verrs := s.validator.ValidateAddGroupMemberRequest(req); len(verrs) > 0 {
		return nil, verrs
	}

	var resp *dto.GroupMemberResponse
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		group, err := s.groups.LockGroup(ctx, groupID)
		if err != nil {
			return domain.NewInternalError("failed to lock group", err)
		}
		if group == nil || !group.IsActive {
			return domain.NewNotFoundError("group")
		}
		if group.TeacherID != teacherID {
			return domain.NewForbiddenError("only the group's teacher can add members")
		}

		student, err := s.users.GetActiveUser(ctx, req.UserID)
		if err != nil {
			return domain.NewInternalError("failed to get user", err)
		}
		if student == nil {
			return domain.NewNotFoundError("user")
		}

		if group.IsFull() {
			return domain.NewInsufficientResourceError("group_id", "group is full")
		}
		member, err := s.groups.IsGroupMember(ctx, group.ID, student.ID)
		if err != nil {
			return domain.NewInternalError("failed to check membership", err)
		}
		if member {
			return domain.NewConflictError("user_id", "user is already a member of this group")
		}
		elsewhere, err := s.groups.HasActiveCourseMembership(ctx, student.ID, group.CourseID)
		if err != nil {
			return domain.NewInternalError("failed to check course membership", err)
		}
		if elsewhere {
			return domain.NewConflictError("user_id", "user already belongs to a group for this course")
		}
		uc, err := s.progress.GetUserCourse(ctx, student.ID, group.CourseID)
		if err != nil {
			return domain.NewInternalError("failed to get user course", err)
		}
		if uc.HasPaidAccess() {
			return domain.NewConflictError("user_id", "user already has access to this course")
		}

		limit, err := s.groups.LockTeacherLimit(ctx, teacherID, group.CourseID)
		if err != nil {
			return domain.NewInternalError("failed to lock teacher limit", err)
		}
		if limit != nil && limit.Remaining() <= 0 {
			return domain.NewInsufficientResourceError("limit", "teacher enrollment limit reached")
		}

		if err := s.groups.IncrementMemberCount(ctx, group.ID); err != nil {
			return domain.NewInternalError("failed to update member count", err)
		}
		if limit != nil {
			if err := s.groups.IncrementTeacherLimitUsage(ctx, limit.ID); err != nil {
				if domain.HasCode(err, domain.CodeInsufficientResource) {
					return err
				}
				return domain.NewInternalError("failed to update teacher limit", err)
			}
		}

		now := s.now()
		gm := &domain.GroupMember{
			ID:       util.NewULID(),
			GroupID:  group.ID,
			UserID:   student.ID,
			IsActive: true,
			JoinedAt: now,
		}
		if err := s.groups.CreateMember(ctx, gm); err != nil {
			if errors.Is(err, domain.ErrUniqueViolation) {
				return domain.NewConflictError("user_id", "user is already a member of this group")
			}
			return domain.NewInternalError("failed to create member", err)
		}

		end := group.GroupEndDate
		access, err := s.progress.UpsertPaidUserCourse(ctx, &domain.UserCourse{
			ID:         util.NewULID(),
			UserID:     student.ID,
			CourseID:   group.CourseID,
			StartDate:  now,
			FinishDate: &end,
		})
		if err != nil {
			return domain.NewInternalError("failed to grant course access", err)
		}

		resp = &dto.GroupMemberResponse{
			ID:           gm.ID,
			GroupID:      group.ID,
			UserID:       student.ID,
			UserCourseID: access.ID,
			MemberCount:  group.CurrentMemberCount + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Group member added",
		zap.String("groupID", groupID),
		zap.String("teacherID", teacherID),
		zap.String("userID", req.UserID))
	return resp, nil
}
