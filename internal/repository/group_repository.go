package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

type sqlxGroupRepository struct {
	db *sqlx.DB
}

func NewSQLXGroupRepository(db *sqlx.DB) domain.GroupRepository {
	return &sqlxGroupRepository{db: db}
}

const groupColumns = `id, teacher_id, course_id, name, group_end_date, is_active, max_member_count, current_member_count`

func toDomainGroup(m *models.Group) *domain.Group {
	return &domain.Group{
		ID:                 m.ID,
		TeacherID:          m.TeacherID,
		CourseID:           m.CourseID,
		Name:               m.Name,
		GroupEndDate:       m.GroupEndDate,
		IsActive:           m.IsActive,
		MaxMemberCount:     m.MaxMemberCount,
		CurrentMemberCount: m.CurrentMemberCount,
	}
}

func (r *sqlxGroupRepository) LockGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	var m models.Group
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1 FOR UPDATE`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, groupID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock group: %w", err)
	}
	return toDomainGroup(&m), nil
}

func (r *sqlxGroupRepository) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 AND is_active = TRUE)`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &ok, query, groupID, userID); err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return ok, nil
}

// HasActiveCourseMembership reports whether the user still studies the course
// through some other active group.
func (r *sqlxGroupRepository) HasActiveCourseMembership(ctx context.Context, userID, courseID string) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (
	              SELECT 1 FROM group_members gm JOIN groups g ON g.id = gm.group_id
	              WHERE gm.user_id = $1 AND g.course_id = $2 AND gm.is_active = TRUE AND g.is_active = TRUE)`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &ok, query, userID, courseID); err != nil {
		return false, fmt.Errorf("failed to check course membership: %w", err)
	}
	return ok, nil
}

func (r *sqlxGroupRepository) CreateMember(ctx context.Context, member *domain.GroupMember) error {
	query := `INSERT INTO group_members (id, group_id, user_id, is_active, joined_at)
	          VALUES (:id, :group_id, :user_id, :is_active, :joined_at)`
	m := models.GroupMember{
		ID:       member.ID,
		GroupID:  member.GroupID,
		UserID:   member.UserID,
		IsActive: member.IsActive,
		JoinedAt: member.JoinedAt,
	}
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create group member: %w", mapPgError(err))
	}
	return nil
}

func (r *sqlxGroupRepository) IncrementMemberCount(ctx context.Context, groupID string) error {
	query := `UPDATE groups SET current_member_count = current_member_count + 1 WHERE id = $1`
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, groupID); err != nil {
		return fmt.Errorf("failed to increment member count: %w", err)
	}
	return nil
}

// LockTeacherLimit returns nil when the teacher has no limit for the course.
func (r *sqlxGroupRepository) LockTeacherLimit(ctx context.Context, teacherID, courseID string) (*domain.TeacherGlobalLimit, error) {
	var m models.TeacherGlobalLimit
	query := `SELECT id, teacher_id, course_id, limit_size, used FROM teacher_global_limits
	          WHERE teacher_id = $1 AND course_id = $2 FOR UPDATE`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, teacherID, courseID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock teacher limit: %w", err)
	}
	return &domain.TeacherGlobalLimit{
		ID:        m.ID,
		TeacherID: m.TeacherID,
		CourseID:  m.CourseID,
		Limit:     m.LimitSize,
		Used:      m.Used,
	}, nil
}

func (r *sqlxGroupRepository) IncrementTeacherLimitUsage(ctx context.Context, limitID string) error {
	query := `UPDATE teacher_global_limits SET used = used + 1 WHERE id = $1 AND used < limit_size`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, limitID)
	if err != nil {
		return fmt.Errorf("failed to increment teacher limit: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if !ok {
		return domain.NewInsufficientResourceError("limit", "teacher limit exhausted")
	}
	return nil
}

func (r *sqlxGroupRepository) ListExpiredGroupIDs(ctx context.Context, today time.Time) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM groups WHERE is_active = TRUE AND group_end_date <= $1 ORDER BY group_end_date, id`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &ids, query, today); err != nil {
		return nil, fmt.Errorf("failed to list expired groups: %w", err)
	}
	return ids, nil
}

// DeactivateGroup returns nil when the group was already inactive.
func (r *sqlxGroupRepository) DeactivateGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	var m models.Group
	query := `UPDATE groups SET is_active = FALSE WHERE id = $1 AND is_active = TRUE RETURNING ` + groupColumns
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, groupID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to deactivate group: %w", err)
	}
	return toDomainGroup(&m), nil
}

// DeactivateMembers returns the user IDs whose membership was switched off.
func (r *sqlxGroupRepository) DeactivateMembers(ctx context.Context, groupID string) ([]string, error) {
	userIDs := []string{}
	query := `UPDATE group_members SET is_active = FALSE WHERE group_id = $1 AND is_active = TRUE RETURNING user_id`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &userIDs, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to deactivate group members: %w", err)
	}
	return userIDs, nil
}
