package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionCreated  TransactionStatus = "created"
	TransactionSuccess  TransactionStatus = "success"
	TransactionFailed   TransactionStatus = "failed"
	TransactionRejected TransactionStatus = "rejected"
	TransactionCanceled TransactionStatus = "canceled"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionSuccess || s == TransactionCanceled
}

type PaymentProvider string

const (
	ProviderPayme PaymentProvider = "payme"
	ProviderClick PaymentProvider = "click"
)

func (p PaymentProvider) Valid() bool {
	return p == ProviderPayme || p == ProviderClick
}

const (
	MinPurchaseDuration = 1
	MaxPurchaseDuration = 120
	// DaysPerMonth converts purchased months into an access window.
	DaysPerMonth = 30
)

// AmountTolerance is the accepted gap between a client amount and the recomputed one.
var AmountTolerance = decimal.RequireFromString("0.01")

type Transaction struct {
	ID             string
	UserID         string
	CourseID       string
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	PromoCode      string
	PromoDiscount  decimal.Decimal
	CoinsUsed      int64
	Provider       PaymentProvider
	Duration       int
	Status         TransactionStatus
	PaidAt         *time.Time
	CanceledAt     *time.Time
	CreatedAt      time.Time
}

type PromoCode struct {
	ID       string
	Code     string
	Discount decimal.Decimal
	IsActive bool
}

type CoinReservation struct {
	ID            string
	UserID        string
	TransactionID string
	Amount        int64
	ExpiresAt     time.Time
	IsActive      bool
}

type PromoCodeReservation struct {
	ID            string
	UserID        string
	PromoCodeID   string
	TransactionID string
	ExpiresAt     time.Time
	IsActive      bool
}

// ReservationKind distinguishes the two reservation tables for the sweeper.
type ReservationKind string

const (
	ReservationCoin  ReservationKind = "coin"
	ReservationPromo ReservationKind = "promo"
)

// ExpiredReservation is a reservation found past its expiry by the sweeper.
type ExpiredReservation struct {
	ID            string
	Kind          ReservationKind
	TransactionID string
}

type UserPromoCode struct {
	ID            string
	UserID        string
	PromoCodeID   string
	TransactionID string
	IsUsed        bool
	UsedAt        time.Time
}

// DiscountQuote is the price breakdown for a course purchase.
type DiscountQuote struct {
	CourseID      string
	Duration      int
	OriginalPrice decimal.Decimal
	PromoDiscount decimal.Decimal
	CoinDiscount  decimal.Decimal
	FinalPrice    decimal.Decimal
	PromoCode     *PromoCode
	CoinsUsed     int64
}

func (q *DiscountQuote) TotalDiscount() decimal.Decimal {
	return q.PromoDiscount.Add(q.CoinDiscount)
}

// ComputeFinalPrice returns max(0, price*duration - promo - coins).
func ComputeFinalPrice(price decimal.Decimal, duration int, promo decimal.Decimal, coins int64) decimal.Decimal {
	final := price.Mul(decimal.NewFromInt(int64(duration))).Sub(promo).Sub(decimal.NewFromInt(coins))
	if final.IsNegative() {
		return decimal.Zero
	}
	return final.Round(2)
}

// PaymentLinkRequest is what a gateway needs to build a checkout URL.
type PaymentLinkRequest struct {
	TransactionID string
	Amount        decimal.Decimal
}
