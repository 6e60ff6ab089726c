package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountQuoteRequest asks for the price of a course purchase.
// @Description Discount quote request
type DiscountQuoteRequest struct {
	CourseID   string `json:"course_id"`
	PromoCode  string `json:"promo_code,omitempty"`
	CoinsToUse int64  `json:"coins_to_use,omitempty"`
	Duration   int    `json:"duration,omitempty"`
}

// DiscountBreakdown splits the total discount by source.
type DiscountBreakdown struct {
	PromoDiscount decimal.Decimal `json:"promo_discount" swaggertype:"string"`
	CoinDiscount  decimal.Decimal `json:"coin_discount" swaggertype:"string"`
}

// DiscountQuoteResponse is the computed price of a purchase.
// @Description Discount quote
type DiscountQuoteResponse struct {
	CourseID      string            `json:"course_id"`
	Duration      int               `json:"duration"`
	OriginalPrice decimal.Decimal   `json:"original_price" swaggertype:"string"`
	FinalPrice    decimal.Decimal   `json:"final_price" swaggertype:"string"`
	TotalDiscount decimal.Decimal   `json:"total_discount" swaggertype:"string"`
	Breakdown     DiscountBreakdown `json:"breakdown"`
	PromoCode     string            `json:"promo_code,omitempty"`
	CoinsUsed     int64             `json:"coins_used"`
}

// CreateTransactionRequest starts a purchase.
// @Description Transaction creation request
type CreateTransactionRequest struct {
	CourseID         string          `json:"course_id"`
	Amount           decimal.Decimal `json:"amount" swaggertype:"string"`
	Provider         string          `json:"provider"`
	Duration         int             `json:"duration,omitempty"`
	PromoCode        string          `json:"promo_code,omitempty"`
	CoinsUsed        int64           `json:"coins_used,omitempty"`
	BypassValidation bool            `json:"bypass_validation"`
}

// CreateTransactionResponse carries the checkout link for the new transaction.
// @Description Created transaction
type CreateTransactionResponse struct {
	TransactionID string          `json:"transaction_id"`
	CourseID      string          `json:"course_id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Provider      string          `json:"provider"`
	Status        string          `json:"status"`
	// PaymentURL is empty when the purchase was fully covered by discounts.
	PaymentURL string `json:"payment_url,omitempty"`
}

// TransactionResponse is a transaction as shown to its owner.
// @Description Transaction detail
type TransactionResponse struct {
	ID             string          `json:"id"`
	CourseID       string          `json:"course_id"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string"`
	OriginalAmount decimal.Decimal `json:"original_amount" swaggertype:"string"`
	PromoCode      string          `json:"promo_code,omitempty"`
	PromoDiscount  decimal.Decimal `json:"promo_discount" swaggertype:"string"`
	CoinsUsed      int64           `json:"coins_used"`
	Provider       string          `json:"provider"`
	Duration       int             `json:"duration"`
	Status         string          `json:"status"`
	PaidAt         *time.Time      `json:"paid_at"`
	CanceledAt     *time.Time      `json:"canceled_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PaymentCallbackRequest is posted by the payment integration when a
// provider reports the final outcome.
// @Description Payment outcome callback
type PaymentCallbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
}

// PaymentCallbackResponse reports the transaction status after the callback.
type PaymentCallbackResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}
