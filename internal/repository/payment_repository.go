package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository/models"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"

	"github.com/jmoiron/sqlx"
)

type sqlxPaymentRepository struct {
	db *sqlx.DB
}

func NewSQLXPaymentRepository(db *sqlx.DB) domain.PaymentRepository {
	return &sqlxPaymentRepository{db: db}
}

const transactionColumns = `id, user_id, course_id, amount, original_amount, promo_code, promo_discount,
	coins_used, provider, duration, status, paid_at, canceled_at, created_at`

func toDomainTransaction(m *models.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:             m.ID,
		UserID:         m.UserID,
		CourseID:       m.CourseID,
		Amount:         m.Amount,
		OriginalAmount: m.OriginalAmount,
		PromoCode:      m.PromoCode.String,
		PromoDiscount:  m.PromoDiscount,
		CoinsUsed:      m.CoinsUsed,
		Provider:       domain.PaymentProvider(m.Provider),
		Duration:       m.Duration,
		Status:         domain.TransactionStatus(m.Status),
		PaidAt:         util.NullTimeToPtr(m.PaidAt),
		CanceledAt:     util.NullTimeToPtr(m.CanceledAt),
		CreatedAt:      m.CreatedAt,
	}
}

func fromDomainTransaction(d *domain.Transaction) *models.Transaction {
	return &models.Transaction{
		ID:             d.ID,
		UserID:         d.UserID,
		CourseID:       d.CourseID,
		Amount:         d.Amount,
		OriginalAmount: d.OriginalAmount,
		PromoCode:      util.StringToNullString(d.PromoCode),
		PromoDiscount:  d.PromoDiscount,
		CoinsUsed:      d.CoinsUsed,
		Provider:       string(d.Provider),
		Duration:       d.Duration,
		Status:         string(d.Status),
		PaidAt:         util.TimePtrToNullTime(d.PaidAt),
		CanceledAt:     util.TimePtrToNullTime(d.CanceledAt),
		CreatedAt:      d.CreatedAt,
	}
}

// --- Promo codes ---

func (r *sqlxPaymentRepository) GetPromoCodeByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var m models.PromoCode
	query := `SELECT id, code, discount, is_active FROM promo_codes WHERE code = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, code); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return &domain.PromoCode{ID: m.ID, Code: m.Code, Discount: m.Discount, IsActive: m.IsActive}, nil
}

func (r *sqlxPaymentRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var ok bool
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &ok, `SELECT EXISTS (`+query+`)`, args...); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *sqlxPaymentRepository) IsPromoCodeForCourse(ctx context.Context, promoCodeID, courseID string) (bool, error) {
	ok, err := r.exists(ctx,
		`SELECT 1 FROM promo_code_courses WHERE promo_code_id = $1 AND course_id = $2`, promoCodeID, courseID)
	if err != nil {
		return false, fmt.Errorf("failed to check promo code course: %w", err)
	}
	return ok, nil
}

func (r *sqlxPaymentRepository) HasUsedPromoCode(ctx context.Context, userID, promoCodeID string) (bool, error) {
	ok, err := r.exists(ctx,
		`SELECT 1 FROM user_promo_codes WHERE user_id = $1 AND promo_code_id = $2 AND is_used = TRUE`, userID, promoCodeID)
	if err != nil {
		return false, fmt.Errorf("failed to check promo code usage: %w", err)
	}
	return ok, nil
}

func (r *sqlxPaymentRepository) HasActivePromoReservation(ctx context.Context, userID, promoCodeID string, now time.Time) (bool, error) {
	ok, err := r.exists(ctx,
		`SELECT 1 FROM promo_code_reservations
		 WHERE user_id = $1 AND promo_code_id = $2 AND is_active = TRUE AND expires_at > $3`, userID, promoCodeID, now)
	if err != nil {
		return false, fmt.Errorf("failed to check promo reservation: %w", err)
	}
	return ok, nil
}

func (r *sqlxPaymentRepository) SumActiveCoinReservations(ctx context.Context, userID string, now time.Time) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM coin_reservations
	          WHERE user_id = $1 AND is_active = TRUE AND expires_at > $2`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &sum, query, userID, now); err != nil {
		return 0, fmt.Errorf("failed to sum coin reservations: %w", err)
	}
	return sum, nil
}

// --- Transactions ---

func (r *sqlxPaymentRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
	          VALUES (:id, :user_id, :course_id, :amount, :original_amount, :promo_code, :promo_discount,
	                  :coins_used, :provider, :duration, :status, :paid_at, :canceled_at, :created_at)`
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainTransaction(tx)); err != nil {
		return fmt.Errorf("failed to create transaction: %w", mapPgError(err))
	}
	return nil
}

func (r *sqlxPaymentRepository) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return r.getTransaction(ctx, transactionID, "")
}

// LockTransaction reads the transaction row FOR UPDATE. Settlement and the
// sweeper both take this lock before touching reservations.
func (r *sqlxPaymentRepository) LockTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return r.getTransaction(ctx, transactionID, " FOR UPDATE")
}

func (r *sqlxPaymentRepository) getTransaction(ctx context.Context, transactionID, lock string) (*domain.Transaction, error) {
	var m models.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1` + lock
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, transactionID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return toDomainTransaction(&m), nil
}

func (r *sqlxPaymentRepository) MarkTransactionPaid(ctx context.Context, transactionID string, now time.Time) (bool, error) {
	query := `UPDATE transactions SET status = $2, paid_at = $3 WHERE id = $1 AND status = $4`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		transactionID, string(domain.TransactionSuccess), now, string(domain.TransactionPending))
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction paid: %w", err)
	}
	return affected(res)
}

func (r *sqlxPaymentRepository) MarkTransactionCanceled(ctx context.Context, transactionID string, now time.Time) (bool, error) {
	query := `UPDATE transactions SET status = $2, canceled_at = $3 WHERE id = $1 AND status = $4`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		transactionID, string(domain.TransactionCanceled), now, string(domain.TransactionPending))
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction canceled: %w", err)
	}
	return affected(res)
}

// DeleteCanceledTransactions removes canceled transactions older than the
// cutoff. Their reservations go with them through ON DELETE CASCADE.
func (r *sqlxPaymentRepository) DeleteCanceledTransactions(ctx context.Context, canceledBefore time.Time) (int64, error) {
	query := `DELETE FROM transactions WHERE status = $1 AND canceled_at < $2`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, string(domain.TransactionCanceled), canceledBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to delete canceled transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// --- Reservations ---

func (r *sqlxPaymentRepository) CreateCoinReservation(ctx context.Context, res *domain.CoinReservation) error {
	query := `INSERT INTO coin_reservations (id, user_id, transaction_id, amount, expires_at, is_active)
	          VALUES (:id, :user_id, :transaction_id, :amount, :expires_at, :is_active)`
	m := models.CoinReservation{
		ID:            res.ID,
		UserID:        res.UserID,
		TransactionID: res.TransactionID,
		Amount:        res.Amount,
		ExpiresAt:     res.ExpiresAt,
		IsActive:      res.IsActive,
	}
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create coin reservation: %w", mapPgError(err))
	}
	return nil
}

func (r *sqlxPaymentRepository) CreatePromoReservation(ctx context.Context, res *domain.PromoCodeReservation) error {
	query := `INSERT INTO promo_code_reservations (id, user_id, promo_code_id, transaction_id, expires_at, is_active)
	          VALUES (:id, :user_id, :promo_code_id, :transaction_id, :expires_at, :is_active)`
	m := models.PromoCodeReservation{
		ID:            res.ID,
		UserID:        res.UserID,
		PromoCodeID:   res.PromoCodeID,
		TransactionID: res.TransactionID,
		ExpiresAt:     res.ExpiresAt,
		IsActive:      res.IsActive,
	}
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create promo reservation: %w", mapPgError(err))
	}
	return nil
}

func (r *sqlxPaymentRepository) LockActiveCoinReservation(ctx context.Context, transactionID string) (*domain.CoinReservation, error) {
	var m models.CoinReservation
	query := `SELECT id, user_id, transaction_id, amount, expires_at, is_active FROM coin_reservations
	          WHERE transaction_id = $1 AND is_active = TRUE
	          ORDER BY id LIMIT 1 FOR UPDATE`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, transactionID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock coin reservation: %w", err)
	}
	return &domain.CoinReservation{
		ID:            m.ID,
		UserID:        m.UserID,
		TransactionID: m.TransactionID,
		Amount:        m.Amount,
		ExpiresAt:     m.ExpiresAt,
		IsActive:      m.IsActive,
	}, nil
}

func (r *sqlxPaymentRepository) LockActivePromoReservation(ctx context.Context, transactionID string) (*domain.PromoCodeReservation, error) {
	var m models.PromoCodeReservation
	query := `SELECT id, user_id, promo_code_id, transaction_id, expires_at, is_active FROM promo_code_reservations
	          WHERE transaction_id = $1 AND is_active = TRUE
	          ORDER BY id LIMIT 1 FOR UPDATE`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, transactionID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock promo reservation: %w", err)
	}
	return &domain.PromoCodeReservation{
		ID:            m.ID,
		UserID:        m.UserID,
		PromoCodeID:   m.PromoCodeID,
		TransactionID: m.TransactionID,
		ExpiresAt:     m.ExpiresAt,
		IsActive:      m.IsActive,
	}, nil
}

func reservationTable(kind domain.ReservationKind) (string, error) {
	switch kind {
	case domain.ReservationCoin:
		return "coin_reservations", nil
	case domain.ReservationPromo:
		return "promo_code_reservations", nil
	}
	return "", fmt.Errorf("unknown reservation kind %q", kind)
}

func (r *sqlxPaymentRepository) DeactivateReservation(ctx context.Context, kind domain.ReservationKind, reservationID string) (bool, error) {
	table, err := reservationTable(kind)
	if err != nil {
		return false, err
	}
	query := `UPDATE ` + table + ` SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, reservationID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate %s reservation: %w", kind, err)
	}
	return affected(res)
}

func (r *sqlxPaymentRepository) DeactivateTransactionReservations(ctx context.Context, transactionID string) error {
	exec := GetExecutor(ctx, r.db)
	for _, table := range []string{"coin_reservations", "promo_code_reservations"} {
		query := `UPDATE ` + table + ` SET is_active = FALSE WHERE transaction_id = $1 AND is_active = TRUE`
		if _, err := exec.ExecContext(ctx, query, transactionID); err != nil {
			return fmt.Errorf("failed to deactivate reservations in %s: %w", table, err)
		}
	}
	return nil
}

// ListExpiredReservations returns active reservations of both kinds whose
// expiry has passed, oldest first.
func (r *sqlxPaymentRepository) ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]domain.ExpiredReservation, error) {
	var rows []models.ExpiredReservation
	query := `SELECT id, kind, transaction_id FROM (
	              SELECT id, 'coin' AS kind, transaction_id, expires_at FROM coin_reservations
	               WHERE is_active = TRUE AND expires_at <= $1
	              UNION ALL
	              SELECT id, 'promo' AS kind, transaction_id, expires_at FROM promo_code_reservations
	               WHERE is_active = TRUE AND expires_at <= $1
	          ) expired
	          ORDER BY expires_at, id
	          LIMIT $2`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list expired reservations: %w", err)
	}
	out := make([]domain.ExpiredReservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.ExpiredReservation{
			ID:            m.ID,
			Kind:          domain.ReservationKind(m.Kind),
			TransactionID: m.TransactionID,
		})
	}
	return out, nil
}

func (r *sqlxPaymentRepository) CreateUserPromoCode(ctx context.Context, upc *domain.UserPromoCode) error {
	query := `INSERT INTO user_promo_codes (id, user_id, promo_code_id, transaction_id, is_used, used_at)
	          VALUES (:id, :user_id, :promo_code_id, :transaction_id, :is_used, :used_at)
	          ON CONFLICT (user_id, promo_code_id) DO NOTHING`
	m := models.UserPromoCode{
		ID:            upc.ID,
		UserID:        upc.UserID,
		PromoCodeID:   upc.PromoCodeID,
		TransactionID: util.StringToNullString(upc.TransactionID),
		IsUsed:        upc.IsUsed,
		UsedAt:        upc.UsedAt,
	}
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to record promo code usage: %w", mapPgError(err))
	}
	return nil
}
