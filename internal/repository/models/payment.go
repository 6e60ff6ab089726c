package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID             string          `db:"id"`
	UserID         string          `db:"user_id"`
	CourseID       string          `db:"course_id"`
	Amount         decimal.Decimal `db:"amount"`
	OriginalAmount decimal.Decimal `db:"original_amount"`
	PromoCode      sql.NullString  `db:"promo_code"`
	PromoDiscount  decimal.Decimal `db:"promo_discount"`
	CoinsUsed      int64           `db:"coins_used"`
	Provider       string          `db:"provider"`
	Duration       int             `db:"duration"`
	Status         string          `db:"status"`
	PaidAt         sql.NullTime    `db:"paid_at"`
	CanceledAt     sql.NullTime    `db:"canceled_at"`
	CreatedAt      time.Time       `db:"created_at"`
}

type PromoCode struct {
	ID       string          `db:"id"`
	Code     string          `db:"code"`
	Discount decimal.Decimal `db:"discount"`
	IsActive bool            `db:"is_active"`
}

type CoinReservation struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	TransactionID string    `db:"transaction_id"`
	Amount        int64     `db:"amount"`
	ExpiresAt     time.Time `db:"expires_at"`
	IsActive      bool      `db:"is_active"`
}

type PromoCodeReservation struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	PromoCodeID   string    `db:"promo_code_id"`
	TransactionID string    `db:"transaction_id"`
	ExpiresAt     time.Time `db:"expires_at"`
	IsActive      bool      `db:"is_active"`
}

type UserPromoCode struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	PromoCodeID   string         `db:"promo_code_id"`
	TransactionID sql.NullString `db:"transaction_id"`
	IsUsed        bool           `db:"is_used"`
	UsedAt        time.Time      `db:"used_at"`
}

type ExpiredReservation struct {
	ID            string `db:"id"`
	Kind          string `db:"kind"`
	TransactionID string `db:"transaction_id"`
}
