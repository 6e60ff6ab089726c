package handler

import (
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/middleware"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PaymentHandler handles discount and transaction HTTP requests
type PaymentHandler struct {
	service service.DiscountService
}

// NewPaymentHandler creates a new PaymentHandler instance
func NewPaymentHandler(service service.DiscountService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// QuoteDiscount godoc
// @Summary Price a course purchase
// @Description Applies a promo code and coins without reserving anything
// @Tags payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.DiscountQuoteRequest true "Quote request"
// @Success 200 {object} dto.DiscountQuoteResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /payments/discount [post]
func (h *PaymentHandler) QuoteDiscount(c *fiber.Ctx) error {
	var req dto.DiscountQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON body")
	}
	resp, err := h.service.QuoteDiscount(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CreateTransaction godoc
// @Summary Start a course purchase
// @Description Creates a pending transaction, reserves the discounts for it and returns the checkout link
// @Tags payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateTransactionRequest true "Transaction request"
// @Success 201 {object} dto.CreateTransactionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /payments/transactions [post]
func (h *PaymentHandler) CreateTransaction(c *fiber.Ctx) error {
	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON body")
	}
	resp, err := h.service.CreateTransaction(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetTransaction godoc
// @Summary Get one of my transactions
// @Tags payments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /payments/transactions/{id} [get]
func (h *PaymentHandler) GetTransaction(c *fiber.Ctx) error {
	resp, err := h.service.GetTransaction(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Callback godoc
// @Summary Payment outcome callback
// @Description Settles or releases a pending transaction. Replays return the current status.
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Callback-Secret header string true "Shared callback secret"
// @Param request body dto.PaymentCallbackRequest true "Outcome"
// @Success 200 {object} dto.PaymentCallbackResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /payments/callback [post]
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	var req dto.PaymentCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON body")
	}
	resp, err := h.service.HandleCallback(c.Context(), &req)
	if err != nil {
		return err
	}
	logger.Get().Info("Payment callback handled",
		zap.String("transactionID", resp.TransactionID),
		zap.Bool("success", req.Success),
		zap.String("status", resp.Status))
	return c.JSON(resp)
}
