package handler

import (
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/middleware"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AttemptHandler handles test attempt HTTP requests
type AttemptHandler struct {
	service service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler instance
func NewAttemptHandler(service service.AttemptService) *AttemptHandler {
	return &AttemptHandler{service: service}
}

// StartAttempt godoc
// @Summary Start a test attempt
// @Description Starts a new attempt with randomly sampled questions, or returns the attempt already in progress
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param test_id path string true "Test ID"
// @Success 201 {object} dto.StartAttemptResponse "New attempt"
// @Success 200 {object} dto.StartAttemptResponse "Attempt already in progress"
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tests/{test_id}/start [post]
func (h *AttemptHandler) StartAttempt(c *fiber.Ctx) error {
	resp, err := h.service.StartAttempt(c.Context(), middleware.UserID(c), c.Params("test_id"))
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if resp.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(resp)
}

// GetQuestions godoc
// @Summary Questions of the active attempt
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param test_id path string true "Test ID"
// @Success 200 {object} dto.AttemptQuestionsResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tests/{test_id}/questions [get]
func (h *AttemptHandler) GetQuestions(c *fiber.Ctx) error {
	resp, err := h.service.GetAttemptQuestions(c.Context(), middleware.UserID(c), c.Params("test_id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitAnswer godoc
// @Summary Submit an answer
// @Description Stores the answer for one question of the active attempt. Grading happens on finish.
// @Tags tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param test_id path string true "Test ID"
// @Param answer_id path string true "Answer ID"
// @Param request body dto.AnswerPayload true "Answer"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tests/{test_id}/answers/{answer_id} [patch]
func (h *AttemptHandler) SubmitAnswer(c *fiber.Ctx) error {
	var req dto.AnswerPayload
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON body")
	}
	resp, err := h.service.SubmitAnswer(c.Context(), middleware.UserID(c), c.Params("test_id"), c.Params("answer_id"), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// FinishAttempt godoc
// @Summary Finish the active attempt
// @Description Grades and submits the attempt and completes the lesson part that delivers the test
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param test_id path string true "Test ID"
// @Success 200 {object} dto.FinishAttemptResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tests/{test_id}/finish [post]
func (h *AttemptHandler) FinishAttempt(c *fiber.Ctx) error {
	resp, err := h.service.FinishAttempt(c.Context(), middleware.UserID(c), c.Params("test_id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListResults godoc
// @Summary Submitted attempts of a test
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param test_id path string true "Test ID"
// @Success 200 {object} dto.TestResultsResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tests/{test_id}/results [get]
func (h *AttemptHandler) ListResults(c *fiber.Ctx) error {
	resp, err := h.service.ListResults(c.Context(), middleware.UserID(c), c.Params("test_id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
