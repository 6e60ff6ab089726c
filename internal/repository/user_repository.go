package repository

import (
	"context"
	"fmt"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of the user repository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:        m.ID,
		FullName:  m.FullName,
		Phone:     m.Phone,
		Coin:      m.Coin,
		Point:     m.Point,
		Status:    domain.UserStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// GetActiveUser retrieves a user that has not been deleted.
func (r *sqlxUserRepository) GetActiveUser(ctx context.Context, userID string) (*domain.User, error) {
	var m models.User
	query := `SELECT id, full_name, phone, coin, point, status, created_at, updated_at
	          FROM users WHERE id = $1 AND status = $2`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userID, string(domain.UserStatusActive)); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toDomainUser(&m), nil
}

func (r *sqlxUserRepository) LockActiveUser(ctx context.Context, userID string) (*domain.User, error) {
	var m models.User
	query := `SELECT id, full_name, phone, coin, point, status, created_at, updated_at
	          FROM users WHERE id = $1 AND status = $2 FOR UPDATE`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userID, string(domain.UserStatusActive)); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return toDomainUser(&m), nil
}

func (r *sqlxUserRepository) AddCoins(ctx context.Context, userID string, amount int64) error {
	return r.adjust(ctx, "coin", userID, amount)
}

func (r *sqlxUserRepository) SubtractCoins(ctx context.Context, userID string, amount int64) error {
	return r.adjust(ctx, "coin", userID, -amount)
}

func (r *sqlxUserRepository) AddPoints(ctx context.Context, userID string, amount int64) error {
	return r.adjust(ctx, "point", userID, amount)
}

func (r *sqlxUserRepository) SubtractPoints(ctx context.Context, userID string, amount int64) error {
	return r.adjust(ctx, "point", userID, -amount)
}

// adjust applies delta to a balance column in one statement. A negative
// delta only applies while the balance covers it.
func (r *sqlxUserRepository) adjust(ctx context.Context, column string, userID string, delta int64) error {
	if delta == 0 {
		return nil
	}
	query := fmt.Sprintf(`UPDATE users SET %[1]s = %[1]s + $2, updated_at = NOW()
	          WHERE id = $1 AND status = 'active' AND %[1]s + $2 >= 0`, column)

	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to update %s balance: %w", column, err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if !ok {
		if delta < 0 {
			return domain.ErrInsufficientBalance
		}
		return fmt.Errorf("user %s not found for %s update", userID, column)
	}
	return nil
}
